package dto

import (
	app "github.com/erp/printd/internal/application/printing"
	"github.com/erp/printd/internal/domain/printing"
)

// PrintResponse is returned by every print endpoint on success
type PrintResponse struct {
	Success bool `json:"success"`
	app.PrintResult
}

// PrintersResponse is returned by the discovery endpoint
type PrintersResponse struct {
	Success  bool                         `json:"success"`
	Printers []printing.PrinterDescriptor `json:"printers"`
	Platform string                       `json:"platform"`
}

// HealthResponse reports service liveness. It never touches a printer.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is returned on every failure. Error carries the kind
// verbatim so the POS can branch on it.
type ErrorResponse struct {
	Success   bool               `json:"success"`
	Error     string             `json:"error"`
	Details   string             `json:"details"`
	RequestID string             `json:"requestId,omitempty"`
	Fields    []ValidationDetail `json:"fields,omitempty"`
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewPrintResponse wraps a service result
func NewPrintResponse(res *app.PrintResult) PrintResponse {
	return PrintResponse{Success: true, PrintResult: *res}
}

// NewPrintersResponse wraps a discovery result
func NewPrintersResponse(res *app.DiscoveryResponse) PrintersResponse {
	printers := res.Printers
	if printers == nil {
		printers = []printing.PrinterDescriptor{}
	}
	return PrintersResponse{Success: true, Printers: printers, Platform: res.Platform}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, details, requestID string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     code,
		Details:   details,
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a ValidationError response with per-field details
func NewValidationErrorResponse(details, requestID string, fields []ValidationDetail) ErrorResponse {
	resp := NewErrorResponse(string(printing.ErrValidation), details, requestID)
	resp.Fields = fields
	return resp
}
