package importcsv

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgetengine/core/internal/money"
)

// RowStatus classifies a parsed CSV row.
type RowStatus string

const (
	StatusNew       RowStatus = "New"
	StatusDuplicate RowStatus = "Duplicate"
	StatusInvalid   RowStatus = "Invalid"
)

// Row is one classified CSV row. Status is StatusInvalid until proven
// otherwise; in-file duplicates are resolved during Parse, but a row is
// never checked against existing store fingerprints here — that is the
// engine layer's job (it alone can query the repository).
type Row struct {
	RowNumber   int
	Date        *time.Time
	Amount      *money.Money
	Payee       string
	Memo        string
	Status      RowStatus
	Fingerprint string
	Error       string
}

// ParseResult is the output of Parse: classified rows plus the row-range of
// parsed dates, needed by the engine layer to scope its existing-fingerprint
// lookup.
type ParseResult struct {
	Rows    []Row
	MinDate time.Time
	MaxDate time.Time
}

var (
	dateHeaders       = []string{"date", "transaction date", "posted date"}
	payeeHeaders      = []string{"payee", "description", "name", "merchant", "transaction"}
	memoHeaders       = []string{"memo", "notes", "note", "details"}
	amountHeaders     = []string{"amount", "amt", "value"}
	depositHeaders    = []string{"deposit"}
	withdrawalHeaders = []string{"withdrawal"}

	dateLayouts = []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"02/01/2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
		time.RFC3339,
	}

	currencyStrip = regexp.MustCompile(`[^0-9.\-]`)
)

type columns struct {
	date       int
	payee      int
	memo       int
	amount     int
	deposit    int
	withdrawal int
}

const unset = -1

// Parse reads a CSV file (optional header, quoted or unquoted fields, `,`
// separator) and classifies every non-blank row as New or Invalid,
// resolving in-file duplicates (a fingerprint repeated within the same file)
// as Duplicate. accountID and currency feed the fingerprint computation.
func Parse(r io.Reader, accountID uuid.UUID, currency string) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return &ParseResult{}, nil
	}

	cols, hasHeader := resolveColumns(records[0])
	dataRows := records
	if hasHeader {
		dataRows = records[1:]
	}

	result := &ParseResult{}
	seen := make(map[string]bool)
	rowNumber := 0

	for _, rec := range dataRows {
		rowNumber++
		if isBlank(rec) {
			continue
		}

		row := parseRow(rowNumber, rec, cols, accountID, currency)

		if row.Status == StatusNew {
			if seen[row.Fingerprint] {
				row.Status = StatusDuplicate
			} else {
				seen[row.Fingerprint] = true
			}
		}

		if row.Date != nil {
			if result.MinDate.IsZero() || row.Date.Before(result.MinDate) {
				result.MinDate = *row.Date
			}
			if result.MaxDate.IsZero() || row.Date.After(result.MaxDate) {
				result.MaxDate = *row.Date
			}
		}

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func resolveColumns(header []string) (columns, bool) {
	cols := columns{date: unset, payee: unset, memo: unset, amount: unset, deposit: unset, withdrawal: unset}

	matched := 0
	for i, cell := range header {
		switch {
		case matchesAny(cell, dateHeaders):
			cols.date = i
			matched++
		case matchesAny(cell, payeeHeaders):
			cols.payee = i
			matched++
		case matchesAny(cell, memoHeaders):
			cols.memo = i
			matched++
		case matchesAny(cell, amountHeaders):
			cols.amount = i
			matched++
		case matchesAny(cell, depositHeaders):
			cols.deposit = i
			matched++
		case matchesAny(cell, withdrawalHeaders):
			cols.withdrawal = i
			matched++
		}
	}

	if matched == 0 {
		// No recognizable header: assume the conventional column order.
		return columns{date: 0, payee: 1, memo: 2, amount: 3, deposit: unset, withdrawal: unset}, false
	}

	return cols, true
}

func matchesAny(cell string, candidates []string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	for _, c := range candidates {
		if cell == c {
			return true
		}
	}
	return false
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(rowNumber int, rec []string, cols columns, accountID uuid.UUID, currency string) Row {
	row := Row{RowNumber: rowNumber, Status: StatusInvalid}

	date, err := parseDate(field(rec, cols.date))
	if err != nil {
		row.Error = "could not parse date: " + err.Error()
		return row
	}

	payee := strings.TrimSpace(field(rec, cols.payee))
	if payee == "" {
		row.Error = "payee is blank"
		return row
	}
	row.Payee = payee
	row.Memo = strings.TrimSpace(field(rec, cols.memo))

	amount, err := resolveAmount(rec, cols)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	if amount.IsZero() {
		row.Error = "amount is zero"
		return row
	}

	m, err := money.New(amount, currency)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	row.Date = &date
	row.Amount = &m
	row.Status = StatusNew
	row.Fingerprint = Fingerprint(accountID, date, amount, currency, payee, row.Memo)
	return row
}

func field(rec []string, idx int) string {
	if idx == unset || idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is blank")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format: " + s)
}

func resolveAmount(rec []string, cols columns) (decimal.Decimal, error) {
	if cols.amount != unset {
		raw := field(rec, cols.amount)
		if strings.TrimSpace(raw) == "" {
			return decimal.Zero, errors.New("amount is blank")
		}
		return parseMoneyLiteral(raw)
	}

	depositRaw := strings.TrimSpace(field(rec, cols.deposit))
	withdrawalRaw := strings.TrimSpace(field(rec, cols.withdrawal))

	if depositRaw == "" && withdrawalRaw == "" {
		return decimal.Zero, errors.New("no amount is set for the row")
	}

	total := decimal.Zero
	if depositRaw != "" {
		d, err := parseMoneyLiteral(depositRaw)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	if withdrawalRaw != "" {
		w, err := parseMoneyLiteral(withdrawalRaw)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Sub(w.Abs())
	}

	return total, nil
}

// parseMoneyLiteral accepts currency symbols and "(123.45)" accounting
// negative notation in addition to plain signed decimals.
func parseMoneyLiteral(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	cleaned := currencyStrip.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, errors.New("could not parse amount: " + s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.New("could not parse amount: " + s)
	}

	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}
