package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgetengine/core/internal/domain"
	"github.com/budgetengine/core/internal/engine"
	"github.com/budgetengine/core/internal/money"
	"github.com/budgetengine/core/internal/store"
)

// handlers holds the orchestrator (for mutating business operations) and the
// raw store (for the plain entity CRUD the orchestrator does not cover --
// accounts and envelopes are created directly, the way the teacher's
// controllers talk to models.DB directly for resources with no workflow
// attached).
type handlers struct {
	orchestrator *engine.Orchestrator
	store        store.Store
	currency     string
}

func (h *handlers) withUOW(c *gin.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	ctx := c.Request.Context()
	uow, err := h.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(ctx, uow); err != nil {
		return err
	}
	return uow.Commit()
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, err)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *handlers) parseAmount(c *gin.Context, s string) (money.Money, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		badRequest(c, err)
		return money.Money{}, false
	}
	m, err := money.New(d, h.currency)
	if err != nil {
		badRequest(c, err)
		return money.Money{}, false
	}
	return m, true
}

// ---- accounts ----

type createAccountRequest struct {
	Name       string `json:"name" binding:"required"`
	Type       int    `json:"type"`
	IsOnBudget bool   `json:"isOnBudget"`
	SortOrder  int    `json:"sortOrder"`
}

func (h *handlers) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := domain.NewAccount(req.Name, domain.AccountType(req.Type), h.currency, req.IsOnBudget, req.SortOrder, time.Now())
	if err != nil {
		badRequest(c, err)
		return
	}

	err = h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Accounts().Add(ctx, account)
	})
	if err != nil {
		serverError(c, err)
		return
	}
	created(c, account)
}

func (h *handlers) listAccounts(c *gin.Context) {
	var accounts []domain.Account
	err := h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		accounts, err = uow.Accounts().GetAll(ctx)
		return err
	})
	if err != nil {
		serverError(c, err)
		return
	}
	ok(c, accounts)
}

func (h *handlers) getAccount(c *gin.Context) {
	id, valid := parseUUIDParam(c, "accountId")
	if !valid {
		return
	}

	var account *domain.Account
	err := h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		account, err = uow.Accounts().GetByID(ctx, id)
		return err
	})
	if err != nil {
		serverError(c, err)
		return
	}
	if account == nil {
		notFound(c)
		return
	}
	ok(c, account)
}

func (h *handlers) getAccountTransactions(c *gin.Context) {
	id, valid := parseUUIDParam(c, "accountId")
	if !valid {
		return
	}

	var transactions []domain.Transaction
	err := h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		transactions, err = uow.Transactions().ByAccount(ctx, id)
		return err
	})
	if err != nil {
		serverError(c, err)
		return
	}
	ok(c, transactions)
}

func (h *handlers) getTransaction(c *gin.Context) {
	id, valid := parseUUIDParam(c, "transactionId")
	if !valid {
		return
	}

	var tx *domain.Transaction
	err := h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		tx, err = uow.Transactions().GetByID(ctx, id)
		return err
	})
	if err != nil {
		serverError(c, err)
		return
	}
	if tx == nil {
		notFound(c)
		return
	}
	ok(c, tx)
}

// ---- envelopes ----

type createEnvelopeRequest struct {
	Name      string `json:"name" binding:"required"`
	Group     string `json:"group"`
	Color     string `json:"color"`
	SortOrder int    `json:"sortOrder"`
}

func (h *handlers) createEnvelope(c *gin.Context) {
	var req createEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	envelope, err := domain.NewEnvelope(req.Name, req.Group, req.Color, req.SortOrder, time.Now())
	if err != nil {
		badRequest(c, err)
		return
	}

	err = h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Envelopes().Add(ctx, envelope)
	})
	if err != nil {
		serverError(c, err)
		return
	}
	created(c, envelope)
}

func (h *handlers) listEnvelopes(c *gin.Context) {
	var envelopes []domain.Envelope
	err := h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		envelopes, err = uow.Envelopes().ListByGroup(ctx)
		return err
	})
	if err != nil {
		serverError(c, err)
		return
	}
	ok(c, envelopes)
}

func (h *handlers) getEnvelope(c *gin.Context) {
	id, valid := parseUUIDParam(c, "envelopeId")
	if !valid {
		return
	}

	var envelope *domain.Envelope
	err := h.withUOW(c, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		envelope, err = uow.Envelopes().GetByID(ctx, id)
		return err
	})
	if err != nil {
		serverError(c, err)
		return
	}
	if envelope == nil {
		notFound(c)
		return
	}
	ok(c, envelope)
}

type setGoalRequest struct {
	Amount     string     `json:"amount" binding:"required"`
	TargetDate *time.Time `json:"targetDate"`
}

func (h *handlers) setEnvelopeGoal(c *gin.Context) {
	id, valid := parseUUIDParam(c, "envelopeId")
	if !valid {
		return
	}

	var req setGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, valid := h.parseAmount(c, req.Amount)
	if !valid {
		return
	}

	result := h.orchestrator.SetGoal(c.Request.Context(), id, amount, req.TargetDate)
	writeResult(c, result)
}

// ---- transactions ----

type createOutflowRequest struct {
	AccountID  string             `json:"accountId" binding:"required"`
	Date       time.Time          `json:"date" binding:"required"`
	Amount     string             `json:"amount" binding:"required"`
	Payee      string             `json:"payee"`
	EnvelopeID *string            `json:"envelopeId"`
	Splits     []splitInputDTO    `json:"splits"`
	Memo       string             `json:"memo"`
}

type splitInputDTO struct {
	EnvelopeID string `json:"envelopeId" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	SortOrder  int    `json:"sortOrder"`
}

func (h *handlers) createOutflow(c *gin.Context) {
	var req createOutflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, valid := h.parseAmount(c, req.Amount)
	if !valid {
		return
	}

	var envelopeID *uuid.UUID
	if req.EnvelopeID != nil {
		id, err := uuid.Parse(*req.EnvelopeID)
		if err != nil {
			badRequest(c, err)
			return
		}
		envelopeID = &id
	}

	splits := make([]engine.SplitInput, 0, len(req.Splits))
	for _, s := range req.Splits {
		envID, err := uuid.Parse(s.EnvelopeID)
		if err != nil {
			badRequest(c, err)
			return
		}
		splitAmount, valid := h.parseAmount(c, s.Amount)
		if !valid {
			return
		}
		splits = append(splits, engine.SplitInput{EnvelopeID: envID, Amount: splitAmount, SortOrder: s.SortOrder})
	}
	if len(splits) == 0 {
		splits = nil
	}

	result := h.orchestrator.CreateOutflow(c.Request.Context(), accountID, req.Date, amount, req.Payee, envelopeID, splits, req.Memo)
	writeResult(c, result)
}

type createInflowRequest struct {
	AccountID string    `json:"accountId" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	Amount    string    `json:"amount" binding:"required"`
	Payee     string    `json:"payee"`
	Memo      string    `json:"memo"`
}

func (h *handlers) createInflow(c *gin.Context) {
	var req createInflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, valid := h.parseAmount(c, req.Amount)
	if !valid {
		return
	}

	result := h.orchestrator.CreateInflow(c.Request.Context(), accountID, req.Date, amount, req.Payee, req.Memo)
	writeResult(c, result)
}

type createTransferRequest struct {
	FromAccountID string    `json:"fromAccountId" binding:"required"`
	ToAccountID   string    `json:"toAccountId" binding:"required"`
	Date          time.Time `json:"date" binding:"required"`
	Amount        string    `json:"amount" binding:"required"`
	Memo          string    `json:"memo"`
}

func (h *handlers) createTransfer(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		badRequest(c, err)
		return
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, valid := h.parseAmount(c, req.Amount)
	if !valid {
		return
	}

	result := h.orchestrator.CreateTransfer(c.Request.Context(), fromID, toID, req.Date, amount, req.Memo)
	writeResult(c, result)
}

type updateTransactionRequest struct {
	Date        *time.Time      `json:"date"`
	Amount      *string         `json:"amount"`
	Payee       *string         `json:"payee"`
	Memo        *string         `json:"memo"`
	SetEnvelope bool            `json:"setEnvelope"`
	EnvelopeID  *string         `json:"envelopeId"`
	SetSplits   bool            `json:"setSplits"`
	Splits      []splitInputDTO `json:"splits"`
}

func (h *handlers) updateTransaction(c *gin.Context) {
	id, valid := parseUUIDParam(c, "transactionId")
	if !valid {
		return
	}

	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := engine.TransactionPatch{
		Date:        req.Date,
		Payee:       req.Payee,
		Memo:        req.Memo,
		SetEnvelope: req.SetEnvelope,
		SetSplits:   req.SetSplits,
	}

	if req.Amount != nil {
		amount, valid := h.parseAmount(c, *req.Amount)
		if !valid {
			return
		}
		patch.Amount = &amount
	}

	if req.EnvelopeID != nil {
		envID, err := uuid.Parse(*req.EnvelopeID)
		if err != nil {
			badRequest(c, err)
			return
		}
		patch.EnvelopeID = &envID
	}

	for _, s := range req.Splits {
		envID, err := uuid.Parse(s.EnvelopeID)
		if err != nil {
			badRequest(c, err)
			return
		}
		splitAmount, valid := h.parseAmount(c, s.Amount)
		if !valid {
			return
		}
		patch.Splits = append(patch.Splits, engine.SplitInput{EnvelopeID: envID, Amount: splitAmount, SortOrder: s.SortOrder})
	}

	result := h.orchestrator.UpdateTransaction(c.Request.Context(), id, patch)
	writeResult(c, result)
}

func (h *handlers) deleteTransaction(c *gin.Context) {
	id, valid := parseUUIDParam(c, "transactionId")
	if !valid {
		return
	}
	result := h.orchestrator.DeleteTransaction(c.Request.Context(), id)
	if !result.Success {
		writeResult(c, result)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) markCleared(c *gin.Context) {
	id, valid := parseUUIDParam(c, "transactionId")
	if !valid {
		return
	}
	writeResult(c, h.orchestrator.MarkCleared(c.Request.Context(), id))
}

func (h *handlers) markUncleared(c *gin.Context) {
	id, valid := parseUUIDParam(c, "transactionId")
	if !valid {
		return
	}
	writeResult(c, h.orchestrator.MarkUncleared(c.Request.Context(), id))
}

// ---- allocations ----

type setAllocationRequest struct {
	Amount string `json:"amount" binding:"required"`
}

func (h *handlers) setAllocation(c *gin.Context) {
	envelopeID, valid := parseUUIDParam(c, "envelopeId")
	if !valid {
		return
	}
	year, month, valid := parseYearMonth(c)
	if !valid {
		return
	}

	var req setAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, valid := h.parseAmount(c, req.Amount)
	if !valid {
		return
	}

	writeResult(c, h.orchestrator.SetAllocation(c.Request.Context(), envelopeID, amount, year, month))
}

type moveAllocationRequest struct {
	FromEnvelopeID string `json:"fromEnvelopeId" binding:"required"`
	ToEnvelopeID   string `json:"toEnvelopeId" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Year           int    `json:"year" binding:"required"`
	Month          int    `json:"month" binding:"required"`
}

func (h *handlers) moveAllocation(c *gin.Context) {
	var req moveAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	fromID, err := uuid.Parse(req.FromEnvelopeID)
	if err != nil {
		badRequest(c, err)
		return
	}
	toID, err := uuid.Parse(req.ToEnvelopeID)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, valid := h.parseAmount(c, req.Amount)
	if !valid {
		return
	}

	writeResult(c, h.orchestrator.MoveAllocation(c.Request.Context(), fromID, toID, amount, req.Year, req.Month))
}

func (h *handlers) rollover(c *gin.Context) {
	year, month, valid := parseYearMonth(c)
	if !valid {
		return
	}
	writeResult(c, h.orchestrator.Rollover(c.Request.Context(), year, month))
}

func parseYearMonth(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, err)
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		badRequest(c, err)
		return 0, 0, false
	}
	return year, month, true
}

// ---- reconciliation ----

type reconcileRequest struct {
	AccountID                string      `json:"accountId" binding:"required"`
	StatementDate            time.Time   `json:"statementDate" binding:"required"`
	StatementEndingBalance   string      `json:"statementEndingBalance" binding:"required"`
	TransactionIDs           []string    `json:"transactionIds"`
	CreateAdjustmentIfNeeded bool        `json:"createAdjustmentIfNeeded"`
}

func (h *handlers) reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		badRequest(c, err)
		return
	}
	balance, valid := h.parseAmount(c, req.StatementEndingBalance)
	if !valid {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.TransactionIDs))
	for _, s := range req.TransactionIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			badRequest(c, err)
			return
		}
		ids = append(ids, id)
	}

	writeResult(c, h.orchestrator.Reconcile(c.Request.Context(), engine.ReconcileRequest{
		AccountID:                accountID,
		StatementDate:            req.StatementDate,
		StatementEndingBalance:   balance,
		TransactionIDs:           ids,
		CreateAdjustmentIfNeeded: req.CreateAdjustmentIfNeeded,
	}))
}

// ---- CSV import ----

func (h *handlers) previewImport(c *gin.Context) {
	accountID, err := uuid.Parse(c.PostForm("accountId"))
	if err != nil {
		badRequest(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := file.Open()
	if err != nil {
		serverError(c, err)
		return
	}
	defer f.Close()

	writeResult(c, h.orchestrator.PreviewImport(c.Request.Context(), accountID, f))
}

func (h *handlers) commitImport(c *gin.Context) {
	accountID, err := uuid.Parse(c.PostForm("accountId"))
	if err != nil {
		badRequest(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := file.Open()
	if err != nil {
		serverError(c, err)
		return
	}
	defer f.Close()

	rowNumbers, err := parseRowNumbers(c.PostFormArray("row"))
	if err != nil {
		badRequest(c, err)
		return
	}

	writeResult(c, h.orchestrator.CommitImport(c.Request.Context(), engine.CommitRequest{
		AccountID:  accountID,
		RowNumbers: rowNumbers,
	}, f))
}

func parseRowNumbers(raw []string) ([]int, error) {
	rows := make([]int, 0, len(raw))
	for _, r := range raw {
		n, err := strconv.Atoi(r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, n)
	}
	return rows, nil
}
