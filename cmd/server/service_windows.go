//go:build windows

package main

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows/svc"
)

const serviceName = "printd"

type printService struct {
	run func(ctx context.Context, asService bool) error
}

// Execute answers the service control manager while the server runs in the
// background. Stop and Shutdown cancel the server context and wait for it
// to drain.
func (s *printService) Execute(_ []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.run(ctx, true)
	}()

	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}

	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				if err := <-done; err != nil {
					return false, 1
				}
				return false, 0
			}
		case err := <-done:
			if err != nil {
				return false, 1
			}
			return false, 0
		}
	}
}

// runAsService hands control to the Windows service manager when the
// process was started by it. It reports false for an interactive start.
func runAsService(run func(ctx context.Context, asService bool) error) (bool, error) {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return true, fmt.Errorf("detect service mode: %w", err)
	}
	if !isService {
		return false, nil
	}
	return true, svc.Run(serviceName, &printService{run: run})
}
