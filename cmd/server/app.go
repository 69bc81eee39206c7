package main

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	printingapp "github.com/erp/printd/internal/application/printing"
	"github.com/erp/printd/internal/infrastructure/config"
	"github.com/erp/printd/internal/infrastructure/discovery"
	"github.com/erp/printd/internal/infrastructure/logger"
	infra "github.com/erp/printd/internal/infrastructure/printing"
	"github.com/erp/printd/internal/infrastructure/syscmd"
	"github.com/erp/printd/internal/infrastructure/telemetry"
	"github.com/erp/printd/internal/interfaces/http/dto"
	"github.com/erp/printd/internal/interfaces/http/handler"
	"github.com/erp/printd/internal/interfaces/http/middleware"
	"github.com/erp/printd/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/erp/printd"

// components are the host-facing pieces of the service. Tests swap them for
// fakes so no printer or OS utility is needed.
type components struct {
	probe   discovery.Probe
	factory infra.Factory
	metrics *telemetry.PrintMetrics
	tracer  trace.Tracer
	meter   metric.Meter
}

func hostComponents(cfg *config.Config, log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider) (components, error) {
	runner := syscmd.NewExecRunner(log.Named("syscmd"))

	meter := mp.Meter(instrumentationName)
	printMetrics, err := telemetry.NewPrintMetrics(meter)
	if err != nil {
		return components{}, fmt.Errorf("print metrics: %w", err)
	}

	return components{
		probe: discovery.ForPlatform(runtime.GOOS, runner, discovery.Options{
			Timeout:          cfg.Printer.DiscoveryTimeout,
			LPStatCommand:    cfg.Printer.LPStatCommand,
			LPOptionsCommand: cfg.Printer.LPOptionsCommand,
			Logger:           log.Named("discovery"),
		}),
		factory: infra.NewTransportFactory(infra.TransportSettings{
			DialTimeout:   cfg.Printer.DialTimeout,
			SerialBaud:    cfg.Printer.SerialBaud,
			LPCommand:     cfg.Printer.LPCommand,
			LPStatCommand: cfg.Printer.LPStatCommand,
		}, runner, log.Named("transport")),
		metrics: printMetrics,
		tracer:  tp.Tracer(instrumentationName),
		meter:   meter,
	}, nil
}

func newPrintService(cfg *config.Config, log *zap.Logger, comp components) (*printingapp.PrintService, error) {
	money, err := infra.NewMoney(cfg.Ticket.Locale, cfg.Ticket.Currency)
	if err != nil {
		return nil, fmt.Errorf("ticket money format: %w", err)
	}

	renderer := infra.NewRenderer(money, infra.RenderSettings{
		Greeting:   cfg.Ticket.Greeting,
		Disclaimer: cfg.Ticket.Disclaimer,
		LogoPath:   cfg.Printer.LogoPath,
	}, infra.WithRendererLogger(log.Named("renderer")))

	executor := infra.NewExecutor(infra.ExecutorConfig{
		JobTimeout: cfg.Printer.JobTimeout,
		PaperWidth: cfg.Printer.PaperWidth,
		CodePage:   cfg.Printer.CodePage,
	}, comp.factory,
		infra.WithMetrics(comp.metrics),
		infra.WithTracer(comp.tracer),
		infra.WithExecutorLogger(log.Named("executor")),
	)

	return printingapp.NewPrintService(comp.probe, renderer, executor, comp.metrics, log.Named("print")), nil
}

// buildEngine assembles the gin engine: shared middleware first, then the
// print and system routes at the root.
func buildEngine(cfg *config.Config, log *zap.Logger, svc *printingapp.PrintService, meter metric.Meter, limiter *middleware.RateLimiter, metricsHandler http.Handler) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(meter))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if limiter != nil {
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound,
			"no route for "+c.Request.Method+" "+c.Request.URL.Path, middleware.GetRequestID(c)))
	})

	r := router.NewRouter(engine)
	for _, group := range handler.PrintRoutes(handler.NewPrintHandler(svc)) {
		r.Register(group)
	}
	r.Register(handler.SystemRoutes(handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, svc.Platform())))
	r.Setup()

	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}
	return engine
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests. Print jobs already handed to the executor finish on their own
// timeout.
func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	tp, err := telemetry.NewTracerProvider(ctx, telemetryConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("tracer provider: %w", err)
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetryConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("meter provider: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		_ = mp.Shutdown(shutdownCtx)
		_ = tp.Shutdown(shutdownCtx)
	}()

	comp, err := hostComponents(cfg, log, tp, mp)
	if err != nil {
		return err
	}
	svc, err := newPrintService(cfg, log, comp)
	if err != nil {
		return err
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      buildEngine(cfg, log, svc, comp.meter, limiter, mp.Handler()),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("platform", svc.Platform()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Printer.JobTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		PrometheusEnabled: cfg.Telemetry.PrometheusEnabled,
	}
}

// writeTimeout keeps the response window open for a job that waits its full
// timeout behind another job on the same printer.
func writeTimeout(cfg *config.Config) time.Duration {
	minimum := cfg.Printer.JobTimeout + 5*time.Second
	if cfg.HTTP.WriteTimeout < minimum {
		return minimum
	}
	return cfg.HTTP.WriteTimeout
}
