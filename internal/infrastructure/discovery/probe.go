// Package discovery queries the operating system's printer registry.
//
// Two probes exist, one per OS family. ForPlatform is the only place that
// looks at the platform tag; everything downstream works on RawPrinter.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/syscmd"
	"go.uber.org/zap"
)

// Probe lists the printers the host can see
type Probe interface {
	Platform() string
	ListRawPrinters(ctx context.Context) ([]printing.RawPrinter, error)
}

// Options configures the probes
type Options struct {
	Timeout          time.Duration
	LPStatCommand    string
	LPOptionsCommand string
	Logger           *zap.Logger
}

// ForPlatform picks the probe for goos
func ForPlatform(goos string, runner syscmd.Runner, opts Options) Probe {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.LPStatCommand == "" {
		opts.LPStatCommand = "lpstat"
	}
	if opts.LPOptionsCommand == "" {
		opts.LPOptionsCommand = "lpoptions"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if goos == "windows" {
		return &WindowsProbe{runner: runner, opts: opts}
	}
	return &CUPSProbe{runner: runner, opts: opts, platform: goos}
}

// discoveryError maps a runner failure onto the domain error, keeping the
// platform's own message as the detail.
func discoveryError(platform, what string, err error) error {
	var exitErr *syscmd.ExitError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return printing.NewDiscoveryError(platform, fmt.Sprintf("%s timed out", what), err)
	case errors.As(err, &exitErr) && exitErr.Stderr != "":
		return printing.NewDiscoveryError(platform, fmt.Sprintf("%s failed: %s", what, exitErr.Stderr), exitErr.Err)
	default:
		return printing.NewDiscoveryError(platform, fmt.Sprintf("%s failed", what), err)
	}
}
