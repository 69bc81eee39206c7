package printing

import (
	"github.com/erp/printd/internal/domain/printing"
)

// =============================================================================
// Request DTOs
// =============================================================================

// PrintRequest is the body of every print endpoint. Sale is required for
// tickets and comandas and ignored by the test page.
type PrintRequest struct {
	Config         printing.PrinterConfig  `json:"config"`
	Sale           *printing.SaleDocument  `json:"sale,omitempty"`
	DisplayOptions printing.DisplayOptions `json:"displayOptions,omitempty"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// DiscoveryResponse lists the printers the host can see, thermal ones first
type DiscoveryResponse struct {
	Printers []printing.PrinterDescriptor `json:"printers"`
	Platform string                       `json:"platform"`
}

// PrintResult describes a completed print job
type PrintResult struct {
	JobID      string `json:"jobId"`
	Address    string `json:"address"`
	Ops        int    `json:"ops"`
	OpsWritten int    `json:"opsWritten"`
	Message    string `json:"message"`

	// Set when a ticket also sent its comanda to the kitchen
	ComandaJobID string `json:"comandaJobId,omitempty"`
	ComandaError string `json:"comandaError,omitempty"`
}
