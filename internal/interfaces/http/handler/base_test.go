package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/interfaces/http/dto"
	"github.com/erp/printd/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Set(middleware.RequestIDKey, "req-1")
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandlePrintError(t *testing.T) {
	discovery := printing.NewDiscoveryError("linux", "lpstat -v failed: scheduler is not running", errors.New("exit status 1"))
	write := printing.NewTransportWriteError(3, errors.New("broken pipe"))

	tests := []struct {
		name        string
		err         error
		level       detailLevel
		wantStatus  int
		wantKind    string
		wantDetails string
	}{
		{
			name:        "validation",
			err:         printing.NewValidationError("sale has no items"),
			level:       shortDetail,
			wantStatus:  http.StatusBadRequest,
			wantKind:    "ValidationError",
			wantDetails: "sale has no items",
		},
		{
			name:        "config",
			err:         printing.NewConfigError("NETWORK printer needs printerIP"),
			level:       shortDetail,
			wantStatus:  http.StatusBadRequest,
			wantKind:    "ConfigError",
			wantDetails: "NETWORK printer needs printerIP",
		},
		{
			name:        "write failure, short",
			err:         write,
			level:       shortDetail,
			wantStatus:  http.StatusInternalServerError,
			wantKind:    "TransportWriteError",
			wantDetails: write.Detail(),
		},
		{
			name:        "discovery, diagnostic",
			err:         discovery,
			level:       fullDiagnostic,
			wantStatus:  http.StatusInternalServerError,
			wantKind:    "DiscoveryError",
			wantDetails: discovery.Diagnostic(),
		},
		{
			name:        "wrapped timeout",
			err:         errors.Join(errors.New("job 7"), printing.NewTimeoutError("30s", nil)),
			level:       shortDetail,
			wantStatus:  http.StatusInternalServerError,
			wantKind:    "Timeout",
			wantDetails: "print job exceeded 30s",
		},
		{
			name:        "foreign error",
			err:         errors.New("boom"),
			level:       shortDetail,
			wantStatus:  http.StatusInternalServerError,
			wantKind:    dto.ErrCodeInternal,
			wantDetails: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandlePrintError(c, tt.err, tt.level)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantKind, resp.Error)
			assert.Equal(t, tt.wantDetails, resp.Details)
			assert.Equal(t, "req-1", resp.RequestID)
			assert.Equal(t, tt.wantKind, c.GetString(middleware.ErrorKindKey))
		})
	}
}

func TestBaseHandler_DiagnosticCarriesPlatformOutput(t *testing.T) {
	err := printing.NewDiscoveryError("windows", "Get-Printer failed: spooler stopped", errors.New("exit status 1"))

	h := &BaseHandler{}
	c, w := newTestContext()
	h.HandlePrintError(c, err, fullDiagnostic)
	assert.Contains(t, decodeError(t, w).Details, "[windows]")
	assert.Contains(t, decodeError(t, w).Details, "exit status 1")

	c, w = newTestContext()
	h.HandlePrintError(c, err, shortDetail)
	assert.NotContains(t, decodeError(t, w).Details, "exit status 1")
}

func TestBaseHandler_HandlePrintError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	h.HandlePrintError(c, nil, shortDetail)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	h.Success(c, gin.H{"success": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
