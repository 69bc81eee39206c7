package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/syscmd"
	"go.uber.org/zap"
)

// Transport is a channel to one printer. A transport is used for a single
// job: Open, IsConnected, Write per op, Commit, then Close.
type Transport interface {
	// Open reaches the printer. Nothing is sent yet.
	Open(ctx context.Context) error
	// IsConnected is the pre-send liveness check
	IsConnected(ctx context.Context) bool
	// Write sends or buffers one chunk
	Write(ctx context.Context, p []byte) error
	// Commit flushes buffered data or submits the spooler job
	Commit(ctx context.Context) error
	// Close releases the channel, discarding anything not committed
	Close() error
}

// Factory creates transports for resolved addresses
type Factory interface {
	New(addr printing.TransportAddress) (Transport, error)
}

// TransportSettings are the host-level knobs shared by every transport
type TransportSettings struct {
	DialTimeout   time.Duration
	SerialBaud    int
	LPCommand     string
	LPStatCommand string
}

// TransportFactory dispatches on the address scheme
type TransportFactory struct {
	settings TransportSettings
	runner   syscmd.Runner
	logger   *zap.Logger
}

// NewTransportFactory creates a factory. runner drives the CUPS utilities.
func NewTransportFactory(settings TransportSettings, runner syscmd.Runner, logger *zap.Logger) *TransportFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.DialTimeout <= 0 {
		settings.DialTimeout = 3 * time.Second
	}
	if settings.SerialBaud <= 0 {
		settings.SerialBaud = 9600
	}
	if settings.LPCommand == "" {
		settings.LPCommand = "lp"
	}
	if settings.LPStatCommand == "" {
		settings.LPStatCommand = "lpstat"
	}
	return &TransportFactory{settings: settings, runner: runner, logger: logger}
}

// New returns an unopened transport for addr
func (f *TransportFactory) New(addr printing.TransportAddress) (Transport, error) {
	switch addr.Scheme {
	case printing.SchemeTCP:
		return newTCPTransport(addr.Target, f.settings.DialTimeout), nil
	case printing.SchemeQueue:
		return newQueueTransport(addr.Target, newSpooler(f.settings, f.runner, f.logger)), nil
	case printing.SchemeSerial:
		if addr.Target == "" {
			return nil, fmt.Errorf("serial address has no device")
		}
		return newSerialTransport(addr.Target, f.settings.SerialBaud), nil
	}
	return nil, fmt.Errorf("unsupported transport scheme %q", addr.Scheme)
}
