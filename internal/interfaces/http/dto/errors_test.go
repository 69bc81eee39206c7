package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	app "github.com/erp/printd/internal/application/printing"
	"github.com/erp/printd/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{string(printing.ErrValidation), http.StatusBadRequest},
		{string(printing.ErrConfig), http.StatusBadRequest},
		{string(printing.ErrDiscovery), http.StatusInternalServerError},
		{string(printing.ErrPrinterNotConnected), http.StatusInternalServerError},
		{string(printing.ErrTransportWrite), http.StatusInternalServerError},
		{string(printing.ErrTimeout), http.StatusInternalServerError},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeNotFound, http.StatusNotFound},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorKindsAreMapped(t *testing.T) {
	kinds := []printing.ErrorKind{
		printing.ErrDiscovery,
		printing.ErrConfig,
		printing.ErrPrinterNotConnected,
		printing.ErrTransportWrite,
		printing.ErrTimeout,
		printing.ErrValidation,
	}
	for _, kind := range kinds {
		status, ok := ErrorKindHTTPStatus[kind]
		require.True(t, ok, "kind %s not mapped", kind)
		if kind.IsClientError() {
			assert.Equal(t, http.StatusBadRequest, status, kind)
		} else {
			assert.Equal(t, http.StatusInternalServerError, status, kind)
		}
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponse(string(printing.ErrTimeout), "print job exceeded 30s", "req-1")
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "Timeout", got["error"])
	assert.Equal(t, "print job exceeded 30s", got["details"])
	assert.Equal(t, "req-1", got["requestId"])
	assert.NotContains(t, got, "fields")
}

func TestValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "printerPort", Message: "Must be at most 65535"},
	})
	assert.Equal(t, "ValidationError", resp.Error)
	assert.Len(t, resp.Fields, 1)
	assert.Empty(t, resp.RequestID)
}

func TestPrintResponse_FlattensResult(t *testing.T) {
	resp := NewPrintResponse(&app.PrintResult{
		JobID:   "job-1",
		Address: "tcp://10.0.0.5:9100",
		Ops:     12,
		Message: "Ticket impreso correctamente",
	})
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "job-1", got["jobId"])
	assert.Equal(t, "Ticket impreso correctamente", got["message"])
	assert.NotContains(t, got, "comandaJobId")
}

func TestPrintersResponse_EmptyListIsArray(t *testing.T) {
	data, err := json.Marshal(NewPrintersResponse(&app.DiscoveryResponse{Platform: "linux"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"printers":[],"platform":"linux"}`, string(data))
}
