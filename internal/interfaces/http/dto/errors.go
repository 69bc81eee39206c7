package dto

import (
	"net/http"

	"github.com/erp/printd/internal/domain/printing"
)

// Transport-level error codes, used when a request is rejected before it
// reaches the print service
const (
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "RequestTooLarge"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "RateLimited"
	// ErrCodeNotFound is used for unknown routes
	ErrCodeNotFound = "NotFound"
	// ErrCodeInternal is used for errors outside the print taxonomy
	ErrCodeInternal = "InternalError"
)

// ErrorKindHTTPStatus maps print error kinds to HTTP status codes.
// Only caller mistakes are 4xx; everything the printer or host did is 500.
var ErrorKindHTTPStatus = map[printing.ErrorKind]int{
	printing.ErrValidation:          http.StatusBadRequest,
	printing.ErrConfig:              http.StatusBadRequest,
	printing.ErrDiscovery:           http.StatusInternalServerError,
	printing.ErrPrinterNotConnected: http.StatusInternalServerError,
	printing.ErrTransportWrite:      http.StatusInternalServerError,
	printing.ErrTimeout:             http.StatusInternalServerError,
}

// ErrorCodeHTTPStatus maps transport-level codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error kind or code.
// Returns 500 Internal Server Error if it is not known.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorKindHTTPStatus[printing.ErrorKind(code)]; ok {
		return status
	}
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
