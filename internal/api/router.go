package api

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/budgetengine/core/internal/engine"
	"github.com/budgetengine/core/internal/store"
)

// Router builds the Gin engine wired to a single Orchestrator, the way the
// teacher's router.Router wires its controllers to the package-level DB.
func Router(o *engine.Orchestrator, s store.Store, currency string) *gin.Engine {
	r := gin.New()
	r.ForwardedByClientIP = false
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(requestLogger())

	_ = r.SetTrustedProxies([]string{})

	h := &handlers{orchestrator: o, store: s, currency: currency}

	v1 := r.Group("/v1")
	{
		accounts := v1.Group("/accounts")
		accounts.GET("", h.listAccounts)
		accounts.POST("", h.createAccount)
		accounts.GET("/:accountId", h.getAccount)
		accounts.GET("/:accountId/transactions", h.getAccountTransactions)

		envelopes := v1.Group("/envelopes")
		envelopes.GET("", h.listEnvelopes)
		envelopes.POST("", h.createEnvelope)
		envelopes.GET("/:envelopeId", h.getEnvelope)
		envelopes.PATCH("/:envelopeId/goal", h.setEnvelopeGoal)

		transactions := v1.Group("/transactions")
		transactions.POST("/outflow", h.createOutflow)
		transactions.POST("/inflow", h.createInflow)
		transactions.POST("/transfer", h.createTransfer)
		transactions.GET("/:transactionId", h.getTransaction)
		transactions.PATCH("/:transactionId", h.updateTransaction)
		transactions.DELETE("/:transactionId", h.deleteTransaction)
		transactions.POST("/:transactionId/clear", h.markCleared)
		transactions.POST("/:transactionId/unclear", h.markUncleared)

		allocations := v1.Group("/allocations")
		allocations.PUT("/:envelopeId/:year/:month", h.setAllocation)
		allocations.POST("/move", h.moveAllocation)
		allocations.POST("/rollover/:year/:month", h.rollover)

		reconciliations := v1.Group("/reconciliations")
		reconciliations.POST("", h.reconcile)

		imports := v1.Group("/imports")
		imports.POST("/preview", h.previewImport)
		imports.POST("/commit", h.commitImport)
	}

	log.Info().Msg("budget engine API startup complete")

	return r
}

// requestLogger logs each request with the request-id and latency, matching
// the teacher's gin-contrib/logger field set without pulling in the
// dependency itself (CORS/profiling/logger middleware serve the teacher's
// public HTTP surface, which SPEC_FULL places out of scope for this facade).
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request-id", requestid.Get(c)).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
