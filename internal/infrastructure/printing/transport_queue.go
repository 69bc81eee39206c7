package printing

import (
	"bytes"
	"context"
)

// spooler is the host print system's RAW job interface. An empty name means
// the default queue.
type spooler interface {
	Available(ctx context.Context, name string) error
	Submit(ctx context.Context, name string, data []byte) error
}

// queueTransport prints through a named system queue. The spooler accepts
// whole jobs, so writes are buffered and submitted once on Commit.
type queueTransport struct {
	name    string
	spooler spooler
	buf     bytes.Buffer
	ready   bool
}

func newQueueTransport(name string, s spooler) *queueTransport {
	return &queueTransport{name: name, spooler: s}
}

func (t *queueTransport) Open(ctx context.Context) error {
	t.buf.Reset()
	if err := t.spooler.Available(ctx, t.name); err != nil {
		return err
	}
	t.ready = true
	return nil
}

func (t *queueTransport) IsConnected(context.Context) bool {
	return t.ready
}

func (t *queueTransport) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.buf.Write(p)
	return nil
}

func (t *queueTransport) Commit(ctx context.Context) error {
	if err := t.spooler.Submit(ctx, t.name, t.buf.Bytes()); err != nil {
		return err
	}
	t.buf.Reset()
	return nil
}

func (t *queueTransport) Close() error {
	t.buf.Reset()
	t.ready = false
	return nil
}
