package printing

import (
	"context"
	"time"

	"github.com/erp/printd/internal/domain/printing"
	infra "github.com/erp/printd/internal/infrastructure/printing"
	"github.com/erp/printd/internal/infrastructure/logger"
	"github.com/erp/printd/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrinterProbe lists the printers registered with the host OS
type PrinterProbe interface {
	Platform() string
	ListRawPrinters(ctx context.Context) ([]printing.RawPrinter, error)
}

// DocumentRenderer lays out documents as RenderOps
type DocumentRenderer interface {
	RenderTicket(sale *printing.SaleDocument, cfg printing.PrinterConfig, opts printing.DisplayOptions) []printing.RenderOp
	RenderComanda(sale *printing.SaleDocument) []printing.RenderOp
	RenderTestPage(cfg printing.PrinterConfig, printedAt time.Time, platform string) []printing.RenderOp
}

// JobExecutor sends a job to its printer
type JobExecutor interface {
	Execute(ctx context.Context, job infra.Job) (infra.Report, error)
}

// PrintService handles discovery and print requests
type PrintService struct {
	probe    PrinterProbe
	renderer DocumentRenderer
	executor JobExecutor
	metrics  *telemetry.PrintMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewPrintService creates a new PrintService
func NewPrintService(
	probe PrinterProbe,
	renderer DocumentRenderer,
	executor JobExecutor,
	metrics *telemetry.PrintMetrics,
	logger *zap.Logger,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NoopPrintMetrics()
	}
	return &PrintService{
		probe:    probe,
		renderer: renderer,
		executor: executor,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Platform returns the host platform the probe reports for
func (s *PrintService) Platform() string {
	return s.probe.Platform()
}

// =============================================================================
// Discovery
// =============================================================================

// ListPrinters queries the host and classifies what it finds
func (s *PrintService) ListPrinters(ctx context.Context) (*DiscoveryResponse, error) {
	raw, err := s.probe.ListRawPrinters(ctx)
	if err != nil {
		s.metrics.Discoveries.Inc(ctx, telemetry.AttrOutcome.String("failure"))
		logger.WithLogger(ctx, s.logger).Warn("printer discovery failed",
			zap.String("platform", s.probe.Platform()), zap.Error(err))
		return nil, err
	}
	s.metrics.Discoveries.Inc(ctx, telemetry.AttrOutcome.String("success"))

	printers := printing.ClassifyAll(raw)
	logger.WithLogger(ctx, s.logger).Debug("printers discovered",
		zap.String("platform", s.probe.Platform()), zap.Int("count", len(printers)))
	return &DiscoveryResponse{Printers: printers, Platform: s.probe.Platform()}, nil
}

// =============================================================================
// Print Operations
// =============================================================================

// PrintTest prints the diagnostic page on the configured printer
func (s *PrintService) PrintTest(ctx context.Context, req PrintRequest) (*PrintResult, error) {
	cfg, addr, err := prepare(req.Config)
	if err != nil {
		return nil, err
	}

	ops := s.renderer.RenderTestPage(cfg, s.now(), s.probe.Platform())
	res, err := s.run(ctx, printing.DocumentTest, addr, ops)
	if err != nil {
		return nil, err
	}
	res.Message = "Página de prueba impresa correctamente"
	return res, nil
}

// PrintTicket prints the customer receipt, in defaultCopies copies. When the
// kitchen printer is set to auto-print, the comanda follows; its failure is
// reported in the result but does not fail the ticket, which is already on
// paper.
func (s *PrintService) PrintTicket(ctx context.Context, req PrintRequest) (*PrintResult, error) {
	if req.Sale == nil {
		return nil, printing.NewValidationError("sale is required")
	}
	cfg, addr, err := prepareSale(req.Config, req.Sale)
	if err != nil {
		return nil, err
	}

	ops := infra.Copies(s.renderer.RenderTicket(req.Sale, cfg, req.DisplayOptions), cfg.DefaultCopies)
	res, err := s.run(ctx, printing.DocumentTicket, addr, ops)
	if err != nil {
		return nil, err
	}
	res.Message = "Ticket impreso correctamente"

	if !cfg.WantsKitchenCopy() {
		return res, nil
	}
	kitchen, err := s.printComanda(ctx, req.Sale, cfg.ForKitchen())
	if err != nil {
		detail := err.Error()
		if pe, ok := printing.AsPrintError(err); ok {
			detail = pe.Detail()
		}
		logger.WithLogger(ctx, s.logger).Warn("kitchen comanda failed after ticket",
			zap.String("ticket_job_id", res.JobID), zap.Error(err))
		res.ComandaError = detail
		res.Message += "; la comanda no se pudo imprimir: " + detail
		return res, nil
	}
	res.ComandaJobID = kitchen.JobID
	res.Message += " y comanda enviada a cocina"
	return res, nil
}

// PrintComanda prints the kitchen slip on the kitchen printer, or on the
// main printer when no kitchen printer is configured
func (s *PrintService) PrintComanda(ctx context.Context, req PrintRequest) (*PrintResult, error) {
	if req.Sale == nil {
		return nil, printing.NewValidationError("sale is required")
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	res, err := s.printComanda(ctx, req.Sale, req.Config.Normalize().ForKitchen())
	if err != nil {
		return nil, err
	}
	res.Message = "Comanda impresa correctamente"
	return res, nil
}

func (s *PrintService) printComanda(ctx context.Context, sale *printing.SaleDocument, cfg printing.PrinterConfig) (*PrintResult, error) {
	_, addr, err := prepareSale(cfg, sale)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, printing.DocumentComanda, addr, s.renderer.RenderComanda(sale))
}

func (s *PrintService) run(ctx context.Context, kind printing.DocumentKind, addr printing.TransportAddress, ops []printing.RenderOp) (*PrintResult, error) {
	job := infra.Job{ID: uuid.NewString(), Kind: kind, Address: addr, Ops: ops}
	report, err := s.executor.Execute(ctx, job)
	if err != nil {
		return nil, err
	}
	return &PrintResult{
		JobID:      job.ID,
		Address:    report.Address,
		Ops:        len(ops),
		OpsWritten: report.OpsWritten,
	}, nil
}

// prepare normalizes and validates a config, then resolves its address.
// Nothing here touches a transport.
func prepare(raw printing.PrinterConfig) (printing.PrinterConfig, printing.TransportAddress, error) {
	if err := raw.Validate(); err != nil {
		return printing.PrinterConfig{}, printing.TransportAddress{}, err
	}
	cfg := raw.Normalize()
	addr, err := printing.Resolve(cfg)
	if err != nil {
		return printing.PrinterConfig{}, printing.TransportAddress{}, err
	}
	return cfg, addr, nil
}

func prepareSale(raw printing.PrinterConfig, sale *printing.SaleDocument) (printing.PrinterConfig, printing.TransportAddress, error) {
	if err := sale.Validate(); err != nil {
		return printing.PrinterConfig{}, printing.TransportAddress{}, err
	}
	return prepare(raw)
}
