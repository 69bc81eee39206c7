//go:build !windows

package printing

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/printd/internal/infrastructure/syscmd"
	"go.uber.org/zap"
)

// cupsSpooler submits RAW jobs with lp and checks queues with lpstat
type cupsSpooler struct {
	runner syscmd.Runner
	lp     string
	lpstat string
	logger *zap.Logger
}

func newSpooler(settings TransportSettings, runner syscmd.Runner, logger *zap.Logger) spooler {
	return &cupsSpooler{runner: runner, lp: settings.LPCommand, lpstat: settings.LPStatCommand, logger: logger}
}

// Available fails when the queue is unknown or disabled, or when no default
// queue exists.
func (s *cupsSpooler) Available(ctx context.Context, name string) error {
	if name == "" {
		res, err := s.runner.Run(ctx, syscmd.Command{Name: s.lpstat, Args: []string{"-d"}, Env: []string{"LC_ALL=C"}})
		if err != nil {
			return err
		}
		if strings.Contains(string(res.Stdout), "no system default destination") {
			return fmt.Errorf("no default printer configured")
		}
		return nil
	}

	res, err := s.runner.Run(ctx, syscmd.Command{Name: s.lpstat, Args: []string{"-p", name}, Env: []string{"LC_ALL=C"}})
	if err != nil {
		return err
	}
	if strings.Contains(string(res.Stdout), "disabled") {
		return fmt.Errorf("queue %s is disabled", name)
	}
	return nil
}

// Submit sends data as a single raw job
func (s *cupsSpooler) Submit(ctx context.Context, name string, data []byte) error {
	args := []string{"-s", "-o", "raw", "-t", "printd"}
	if name != "" {
		args = append([]string{"-d", name}, args...)
	}
	cmd := syscmd.Command{Name: s.lp, Args: args, Stdin: data}
	if _, err := s.runner.Run(ctx, cmd); err != nil {
		return err
	}
	s.logger.Debug("raw job submitted", zap.String("queue", name), zap.Int("bytes", len(data)))
	return nil
}
