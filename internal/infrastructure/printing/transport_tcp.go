package printing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// livenessTimeout bounds the zero-byte probe after dialing
const livenessTimeout = time.Second

// tcpTransport streams raw bytes to a printer's port 9100 style socket
type tcpTransport struct {
	addr        string
	dialTimeout time.Duration
	conn        net.Conn
}

func newTCPTransport(addr string, dialTimeout time.Duration) *tcpTransport {
	return &tcpTransport{addr: addr, dialTimeout: dialTimeout}
}

func (t *tcpTransport) Open(ctx context.Context) error {
	d := net.Dialer{Timeout: t.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}
	t.conn = conn
	return nil
}

func (t *tcpTransport) IsConnected(ctx context.Context) bool {
	if t.conn == nil {
		return false
	}
	deadline := time.Now().Add(livenessTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return false
	}
	_, err := t.conn.Write(nil)
	return err == nil
}

func (t *tcpTransport) Write(ctx context.Context, p []byte) error {
	if t.conn == nil {
		return errors.New("connection not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dl, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(dl); err != nil {
		return err
	}
	_, err := t.conn.Write(p)
	return err
}

// Commit is a no-op: every Write already reached the socket
func (t *tcpTransport) Commit(context.Context) error {
	return nil
}

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
