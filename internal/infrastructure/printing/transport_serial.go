package printing

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// serialPort is the part of serial.Port the transport drives
type serialPort interface {
	Write(p []byte) (int, error)
	Drain() error
	ResetOutputBuffer() error
	Close() error
}

// serialTransport writes to an RS-232 printer at 8N1. The port has no write
// deadline, so payloads go out in slices of roughly 100 ms of line time and
// the job context is checked between them.
type serialTransport struct {
	device string
	baud   int
	open   func(device string, mode *serial.Mode) (serialPort, error)
	port   serialPort
}

func newSerialTransport(device string, baud int) *serialTransport {
	return &serialTransport{device: device, baud: baud, open: openSerial}
}

func openSerial(device string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(device, mode)
}

func (t *serialTransport) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	port, err := t.open(t.device, &serial.Mode{
		BaudRate: t.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", t.device, err)
	}
	t.port = port
	return nil
}

func (t *serialTransport) IsConnected(context.Context) bool {
	return t.port != nil
}

// sliceSize is about 100 ms worth of bytes at 10 bits per byte on the wire
func (t *serialTransport) sliceSize() int {
	return max(t.baud/100, 16)
}

func (t *serialTransport) Write(ctx context.Context, p []byte) error {
	if t.port == nil {
		return errors.New("port not open")
	}
	size := t.sliceSize()
	for len(p) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := t.port.Write(p[:min(size, len(p))])
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return ctx.Err()
}

// Commit waits for the output buffer to reach the wire. When the job runs
// out of time first, the unsent bytes are discarded.
func (t *serialTransport) Commit(ctx context.Context) error {
	if t.port == nil {
		return errors.New("port not open")
	}
	port := t.port
	done := make(chan error, 1)
	go func() { done <- port.Drain() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = port.ResetOutputBuffer()
		return ctx.Err()
	}
}

func (t *serialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
