//go:build !windows

package main

import "context"

// runAsService is a no-op outside Windows; systemd and launchd run the
// binary in the foreground and stop it with SIGTERM.
func runAsService(func(ctx context.Context, asService bool) error) (bool, error) {
	return false, nil
}
