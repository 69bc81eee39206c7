package handler

import (
	"context"

	printingapp "github.com/erp/printd/internal/application/printing"
	"github.com/erp/printd/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PrintService is the application service behind the print endpoints
type PrintService interface {
	ListPrinters(ctx context.Context) (*printingapp.DiscoveryResponse, error)
	PrintTest(ctx context.Context, req printingapp.PrintRequest) (*printingapp.PrintResult, error)
	PrintTicket(ctx context.Context, req printingapp.PrintRequest) (*printingapp.PrintResult, error)
	PrintComanda(ctx context.Context, req printingapp.PrintRequest) (*printingapp.PrintResult, error)
}

// PrintHandler handles printer discovery and print requests
type PrintHandler struct {
	BaseHandler
	printService PrintService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(printService PrintService) *PrintHandler {
	return &PrintHandler{
		printService: printService,
	}
}

// ListPrinters godoc
//
//	@Summary	List the printers the host can see, thermal printers first
//	@Tags		printers
//	@Produce	json
//	@Success	200	{object}	dto.PrintersResponse
//	@Failure	500	{object}	dto.ErrorResponse	"DiscoveryError"
//	@Router		/printers [get]
func (h *PrintHandler) ListPrinters(c *gin.Context) {
	res, err := h.printService.ListPrinters(c.Request.Context())
	if err != nil {
		h.HandlePrintError(c, err, fullDiagnostic)
		return
	}
	h.Success(c, dto.NewPrintersResponse(res))
}

// PrintTest godoc
//
//	@Summary	Print the diagnostic page
//	@Tags		print
//	@Accept		json
//	@Produce	json
//	@Param		request	body		printingapp.PrintRequest	true	"Printer config"
//	@Success	200		{object}	dto.PrintResponse
//	@Failure	400		{object}	dto.ErrorResponse	"ValidationError, ConfigError"
//	@Failure	500		{object}	dto.ErrorResponse	"PrinterNotConnected, TransportWriteError, Timeout"
//	@Router		/print/test [post]
func (h *PrintHandler) PrintTest(c *gin.Context) {
	h.print(c, h.printService.PrintTest, fullDiagnostic)
}

// PrintTicket godoc
//
//	@Summary	Print the customer receipt, and the comanda when the kitchen printer auto-prints
//	@Tags		print
//	@Accept		json
//	@Produce	json
//	@Param		request	body		printingapp.PrintRequest	true	"Printer config, sale and display options"
//	@Success	200		{object}	dto.PrintResponse
//	@Failure	400		{object}	dto.ErrorResponse	"ValidationError, ConfigError"
//	@Failure	500		{object}	dto.ErrorResponse	"PrinterNotConnected, TransportWriteError, Timeout"
//	@Router		/print/ticket [post]
func (h *PrintHandler) PrintTicket(c *gin.Context) {
	h.print(c, h.printService.PrintTicket, shortDetail)
}

// PrintComanda godoc
//
//	@Summary	Print the kitchen slip
//	@Tags		print
//	@Accept		json
//	@Produce	json
//	@Param		request	body		printingapp.PrintRequest	true	"Printer config and sale"
//	@Success	200		{object}	dto.PrintResponse
//	@Failure	400		{object}	dto.ErrorResponse	"ValidationError, ConfigError"
//	@Failure	500		{object}	dto.ErrorResponse	"PrinterNotConnected, TransportWriteError, Timeout"
//	@Router		/print/comanda [post]
func (h *PrintHandler) PrintComanda(c *gin.Context) {
	h.print(c, h.printService.PrintComanda, shortDetail)
}

type printFunc func(context.Context, printingapp.PrintRequest) (*printingapp.PrintResult, error)

func (h *PrintHandler) print(c *gin.Context, do printFunc, level detailLevel) {
	var req printingapp.PrintRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := do(c.Request.Context(), req)
	if err != nil {
		h.HandlePrintError(c, err, level)
		return
	}
	h.Success(c, dto.NewPrintResponse(res))
}
