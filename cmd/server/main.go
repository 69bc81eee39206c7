// Command printd is the local print service. POS clients on the same
// machine or LAN post tickets, kitchen orders and test pages to it, and it
// drives the attached thermal printers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/erp/printd/internal/infrastructure/config"
	"github.com/erp/printd/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// configEnv names an explicit config file, overriding the search path
const configEnv = "PRINTD_CONFIG"

func main() {
	if handled, err := runAsService(run); handled {
		if err != nil {
			fmt.Fprintln(os.Stderr, "printd service:", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, false); err != nil {
		fmt.Fprintln(os.Stderr, "printd:", err)
		os.Exit(1)
	}
}

// run loads configuration, starts logging and serves until ctx ends.
// Under a service manager the working directory is not ours, so config and
// logs are resolved next to the executable.
func run(ctx context.Context, asService bool) error {
	if asService {
		if exe, err := os.Executable(); err == nil {
			_ = os.Chdir(filepath.Dir(exe))
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	}
	if asService && (cfg.Log.Output == "stdout" || cfg.Log.Output == "stderr") {
		logCfg = logger.ServiceConfig("printd.log")
		logCfg.Level = cfg.Log.Level
		logCfg.Service = cfg.App.Name
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting print service",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("service", asService),
	)

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv(configEnv); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
