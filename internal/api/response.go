// Package api is a thin Gin JSON facade over the budget engine orchestrator.
// It exists to demonstrate the orchestrator's consumability from an HTTP
// client, the way the teacher's pkg/router + pkg/controllers expose
// pkg/models — it is not a reproduction of the teacher's YNAB-specific
// endpoint surface.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/budgetengine/core/internal/engine"
)

// dataResponse wraps a single resource, matching the teacher's {"data": ...} envelope.
type dataResponse struct {
	Data any `json:"data"`
}

func ok(c *gin.Context, v any) {
	c.JSON(http.StatusOK, dataResponse{Data: v})
}

func created(c *gin.Context, v any) {
	c.JSON(http.StatusCreated, dataResponse{Data: v})
}

// errorResponse is the {code, message, target?} wire shape of spec §7.
type errorResponse struct {
	Code    engine.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Target  string           `json:"target,omitempty"`
}

// writeResult renders an orchestrator Result. On success, it writes the
// result's Value (or the snapshot, if Value is nil) as the payload. On
// failure, it maps the first WireError's code to an HTTP status the way
// the teacher's pkg/httperrors.Status maps model sentinel errors.
func writeResult(c *gin.Context, result engine.Result) {
	if !result.Success {
		writeErrors(c, result.Errors)
		return
	}

	payload := result.Value
	if payload == nil {
		payload = result.Snapshot
	}
	ok(c, payload)
}

func writeErrors(c *gin.Context, errs []engine.WireError) {
	if len(errs) == 0 {
		c.JSON(http.StatusInternalServerError, errorResponse{Code: engine.Unexpected, Message: "unknown error"})
		return
	}

	first := errs[0]
	c.JSON(statusFor(first.Code), errorResponse{
		Code:    first.Code,
		Message: first.Message,
		Target:  first.Target,
	})
}

func statusFor(code engine.ErrorCode) int {
	switch code {
	case engine.Validation:
		return http.StatusBadRequest
	case engine.InvalidOperation:
		return http.StatusConflict
	case engine.NotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Code: engine.Validation, Message: err.Error()})
}

func notFound(c *gin.Context) {
	c.AbortWithStatus(http.StatusNotFound)
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, errorResponse{Code: engine.Unexpected, Message: err.Error()})
}
