package printing

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/logger"
	"github.com/erp/printd/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ExecutorConfig bounds and shapes every job
type ExecutorConfig struct {
	JobTimeout time.Duration
	PaperWidth int
	CodePage   string
}

// Job is one document bound for one printer
type Job struct {
	ID      string
	Kind    printing.DocumentKind
	Address printing.TransportAddress
	Ops     []printing.RenderOp
}

// Report describes what reached the printer, including on failure
type Report struct {
	JobID      string
	Address    string
	OpsWritten int
	BytesSent  int
	Duration   time.Duration
}

// Executor replays RenderOps onto transports. Jobs on the same address run
// one at a time; different addresses run in parallel.
type Executor struct {
	cfg     ExecutorConfig
	factory Factory
	locks   *addressLocks
	metrics *telemetry.PrintMetrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

// ExecutorOption customizes an Executor
type ExecutorOption func(*Executor)

// WithMetrics records job metrics on m
func WithMetrics(m *telemetry.PrintMetrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer sets the tracer for job spans
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = t }
}

// WithExecutorLogger sets the fallback logger for contexts without one
func WithExecutorLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an Executor opening transports through factory
func NewExecutor(cfg ExecutorConfig, factory Factory, opts ...ExecutorOption) *Executor {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	e := &Executor{
		cfg:     cfg,
		factory: factory,
		locks:   newAddressLocks(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = telemetry.NoopPrintMetrics()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("printd/printing")
	}
	return e
}

// Execute sends job to its printer. A liveness failure sends nothing; a
// write failure stops at the failing op, and whatever was already written
// stays on paper. Caller cancellation is ignored: only the job timeout,
// which includes waiting for the address lock, ends a job early.
func (e *Executor) Execute(ctx context.Context, job Job) (Report, error) {
	start := time.Now()
	ctx = logger.WithJobID(context.WithoutCancel(ctx), job.ID)
	if _, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); !ok {
		ctx = logger.WithContext(ctx, e.logger)
	}

	ctx, span := e.tracer.Start(ctx, "printd.execute", trace.WithAttributes(
		telemetry.AttrDocument.String(string(job.Kind)),
		telemetry.AttrScheme.String(string(job.Address.Scheme)),
		attribute.String("print.address", job.Address.String()),
		attribute.String("print.job_id", job.ID),
		attribute.Int("print.ops", len(job.Ops)),
	))
	defer span.End()

	report, err := e.execute(ctx, job)
	report.Duration = time.Since(start)
	e.record(ctx, span, job, report, err)
	return report, err
}

func (e *Executor) execute(ctx context.Context, job Job) (Report, error) {
	report := Report{JobID: job.ID, Address: job.Address.String()}

	enc, err := NewEncoder(e.cfg.PaperWidth, e.cfg.CodePage)
	if err != nil {
		return report, printing.NewConfigError(err.Error())
	}
	init := enc.Init()
	chunks, err := enc.EncodeAll(job.Ops)
	if err != nil {
		return report, printing.NewValidationError(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.JobTimeout)
	defer cancel()

	release, err := e.locks.acquire(ctx, report.Address)
	if err != nil {
		return report, e.timeout(err)
	}
	defer release()

	t, err := e.factory.New(job.Address)
	if err != nil {
		return report, printing.NewConfigError(err.Error())
	}
	defer func() {
		if cerr := t.Close(); cerr != nil {
			logger.L(ctx).Debug("transport close failed", zap.Error(cerr))
		}
	}()

	if err := t.Open(ctx); err != nil {
		return report, e.notConnected(ctx, report.Address, err)
	}
	if !t.IsConnected(ctx) {
		return report, e.notConnected(ctx, report.Address, nil)
	}

	if err := t.Write(ctx, init); err != nil {
		return report, e.writeFailed(ctx, 0, err)
	}
	report.BytesSent += len(init)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return report, e.timeout(err)
		}
		if err := t.Write(ctx, chunk); err != nil {
			return report, e.writeFailed(ctx, i, err)
		}
		report.OpsWritten++
		report.BytesSent += len(chunk)
	}

	if err := t.Commit(ctx); err != nil {
		return report, e.writeFailed(ctx, max(len(chunks)-1, 0), err)
	}
	return report, nil
}

func (e *Executor) timeout(cause error) error {
	return printing.NewTimeoutError(e.cfg.JobTimeout.String(), cause)
}

// expired reports whether the job deadline has passed. Socket deadlines are
// the job deadline itself, so they can fire before the context timer does.
func expired(ctx context.Context, cause error) bool {
	if ctx.Err() != nil || errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, os.ErrDeadlineExceeded) {
		return true
	}
	dl, ok := ctx.Deadline()
	return ok && !time.Now().Before(dl)
}

func (e *Executor) notConnected(ctx context.Context, addr string, cause error) error {
	if expired(ctx, nil) {
		return e.timeout(cause)
	}
	return printing.NewNotConnectedError(addr, cause)
}

func (e *Executor) writeFailed(ctx context.Context, opIndex int, cause error) error {
	if expired(ctx, cause) {
		return e.timeout(cause)
	}
	return printing.NewTransportWriteError(opIndex, cause)
}

func (e *Executor) record(ctx context.Context, span trace.Span, job Job, report Report, err error) {
	attrs := []attribute.KeyValue{
		telemetry.AttrDocument.String(string(job.Kind)),
		telemetry.AttrScheme.String(string(job.Address.Scheme)),
	}
	fields := []zap.Field{
		zap.String("document", string(job.Kind)),
		zap.String("address", report.Address),
		zap.Int("ops", len(job.Ops)),
		zap.Int("ops_written", report.OpsWritten),
		zap.Int("bytes", report.BytesSent),
		zap.Duration("duration", report.Duration),
	}

	e.metrics.OpsWritten.Add(ctx, int64(report.OpsWritten), attrs...)
	e.metrics.BytesSent.Add(ctx, int64(report.BytesSent), attrs...)

	if err != nil {
		kind := printing.KindOf(err)
		attrs = append(attrs, telemetry.AttrOutcome.String("failure"), telemetry.AttrErrorKind.String(string(kind)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		logger.L(ctx).Warn("print job failed", append(fields, zap.String("error_kind", string(kind)), zap.Error(err))...)
	} else {
		attrs = append(attrs, telemetry.AttrOutcome.String("success"))
		span.SetStatus(codes.Ok, "")
		logger.L(ctx).Info("print job completed", fields...)
	}
	span.SetAttributes(attribute.Int("print.ops_written", report.OpsWritten))

	e.metrics.Jobs.Inc(ctx, attrs...)
	e.metrics.JobDuration.RecordDuration(ctx, report.Duration, attrs...)
}
