package handler

import (
	"net/http"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/logger"
	"github.com/erp/printd/internal/interfaces/http/dto"
	"github.com/erp/printd/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// detailLevel picks how much of a PrintError reaches the caller
type detailLevel int

const (
	// shortDetail is the one-line message; used for tickets and comandas,
	// which the cashier reads at the counter
	shortDetail detailLevel = iota
	// fullDiagnostic includes the platform output; used for discovery and
	// the test page, which are run while setting a printer up
	fullDiagnostic
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error sends an error response with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, details string) {
	c.Set(middleware.ErrorKindKey, code)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, details, middleware.GetRequestID(c)))
}

// BindJSON binds the request body into obj. On failure it writes a
// ValidationError response and returns false.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		logger.GetGinLogger(c).Debug("request rejected by binding", zap.Error(err))
		c.Set(middleware.ErrorKindKey, string(printing.ErrValidation))
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandlePrintError converts a service error to an HTTP response. Errors
// outside the print taxonomy become a generic 500.
func (h *BaseHandler) HandlePrintError(c *gin.Context, err error, level detailLevel) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	pe, ok := printing.AsPrintError(err)
	if !ok {
		logger.GetGinLogger(c).Error("unexpected error", zap.Error(err))
		h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
		return
	}

	details := pe.Detail()
	if level == fullDiagnostic {
		details = pe.Diagnostic()
	}
	h.Error(c, string(pe.Kind), details)
}
