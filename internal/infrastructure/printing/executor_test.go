package printing

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// spyTransport records every write. failOnOp is the op index whose write
// fails; the init write is never an op.
type spyTransport struct {
	openErr    error
	connected  bool
	failOnOp   int
	failErr    error
	commitErr  error
	writeDelay time.Duration
	onOpen     func(ctx context.Context) error

	mu        sync.Mutex
	writes    [][]byte
	committed bool
	closed    bool
}

func newSpy() *spyTransport {
	return &spyTransport{connected: true, failOnOp: -1}
}

func (s *spyTransport) Open(ctx context.Context) error {
	if s.onOpen != nil {
		if err := s.onOpen(ctx); err != nil {
			return err
		}
	}
	return s.openErr
}

func (s *spyTransport) IsConnected(context.Context) bool {
	return s.connected
}

func (s *spyTransport) Write(ctx context.Context, p []byte) error {
	if s.writeDelay > 0 {
		select {
		case <-time.After(s.writeDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnOp >= 0 && len(s.writes)-1 == s.failOnOp {
		if s.failErr != nil {
			return s.failErr
		}
		return errors.New("broken pipe")
	}
	s.writes = append(s.writes, p)
	return nil
}

func (s *spyTransport) Commit(context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed = true
	return nil
}

func (s *spyTransport) Close() error {
	s.closed = true
	return nil
}

func (s *spyTransport) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// spyFactory hands out transports built by build, one per job
type spyFactory struct {
	build func(addr printing.TransportAddress) (Transport, error)
	calls atomic.Int32
}

func (f *spyFactory) New(addr printing.TransportAddress) (Transport, error) {
	f.calls.Add(1)
	return f.build(addr)
}

func fixedFactory(tr Transport) *spyFactory {
	return &spyFactory{build: func(printing.TransportAddress) (Transport, error) { return tr, nil }}
}

func newTestExecutor(t *testing.T, factory Factory, timeout time.Duration, opts ...ExecutorOption) *Executor {
	t.Helper()
	opts = append([]ExecutorOption{WithExecutorLogger(zaptest.NewLogger(t))}, opts...)
	return NewExecutor(ExecutorConfig{JobTimeout: timeout, PaperWidth: 48, CodePage: "cp858"}, factory, opts...)
}

func sampleOps() []printing.RenderOp {
	return []printing.RenderOp{
		printing.SetAlign(printing.AlignCenter),
		printing.PrintText("Hola"),
		printing.DrawDivider(),
		printing.LeftRight("TOTAL:", "$100.00"),
		printing.Cut(),
	}
}

func testJob(addr printing.TransportAddress) Job {
	return Job{ID: "job-1", Kind: printing.DocumentTicket, Address: addr, Ops: sampleOps()}
}

func TestExecutor_Success(t *testing.T) {
	spy := newSpy()
	ex := newTestExecutor(t, fixedFactory(spy), time.Second)

	report, err := ex.Execute(context.Background(), testJob(printing.QueueAddress("Caja")))
	require.NoError(t, err)

	assert.Equal(t, 1+len(sampleOps()), spy.writeCount())
	assert.Equal(t, []byte{0x1b, '@', 0x1b, 't', 19}, spy.writes[0])
	assert.Equal(t, []byte{0x1d, 'V', 'A', 0}, spy.writes[len(spy.writes)-1])
	assert.True(t, spy.committed)
	assert.True(t, spy.closed)

	assert.Equal(t, "job-1", report.JobID)
	assert.Equal(t, "printer:Caja", report.Address)
	assert.Equal(t, len(sampleOps()), report.OpsWritten)
	assert.Positive(t, report.BytesSent)
	assert.Zero(t, ex.locks.size())
}

func TestExecutor_NotConnected(t *testing.T) {
	t.Run("liveness false sends nothing", func(t *testing.T) {
		spy := newSpy()
		spy.connected = false
		ex := newTestExecutor(t, fixedFactory(spy), time.Second)

		report, err := ex.Execute(context.Background(), testJob(printing.TCPAddress("10.0.0.9", 9100)))
		assert.Equal(t, printing.ErrPrinterNotConnected, printing.KindOf(err))
		assert.Zero(t, spy.writeCount())
		assert.Zero(t, report.OpsWritten)
		assert.False(t, spy.committed)
		assert.True(t, spy.closed)
	})

	t.Run("open failure sends nothing", func(t *testing.T) {
		spy := newSpy()
		spy.openErr = errors.New("connection refused")
		ex := newTestExecutor(t, fixedFactory(spy), time.Second)

		_, err := ex.Execute(context.Background(), testJob(printing.TCPAddress("10.0.0.9", 9100)))
		pe, ok := printing.AsPrintError(err)
		require.True(t, ok)
		assert.Equal(t, printing.ErrPrinterNotConnected, pe.Kind)
		assert.Contains(t, pe.Diagnostic(), "connection refused")
		assert.Contains(t, pe.Detail(), "tcp://10.0.0.9:9100")
		assert.Zero(t, spy.writeCount())
	})
}

func TestExecutor_WriteFailure(t *testing.T) {
	spy := newSpy()
	spy.failOnOp = 2
	ex := newTestExecutor(t, fixedFactory(spy), time.Second)

	report, err := ex.Execute(context.Background(), testJob(printing.QueueAddress("Caja")))
	pe, ok := printing.AsPrintError(err)
	require.True(t, ok)
	assert.Equal(t, printing.ErrTransportWrite, pe.Kind)
	assert.Equal(t, 2, pe.OpIndex)

	// init plus ops 0 and 1 went out; the rest was never attempted
	assert.Equal(t, 3, spy.writeCount())
	assert.Equal(t, 2, report.OpsWritten)
	assert.False(t, spy.committed)
	assert.True(t, spy.closed)
}

func TestExecutor_CommitFailure(t *testing.T) {
	spy := newSpy()
	spy.commitErr = errors.New("lp: Error - scheduler not responding")
	ex := newTestExecutor(t, fixedFactory(spy), time.Second)

	_, err := ex.Execute(context.Background(), testJob(printing.QueueAddress("Caja")))
	pe, ok := printing.AsPrintError(err)
	require.True(t, ok)
	assert.Equal(t, printing.ErrTransportWrite, pe.Kind)
	assert.Equal(t, len(sampleOps())-1, pe.OpIndex)
}

func TestExecutor_Timeout(t *testing.T) {
	spy := newSpy()
	spy.writeDelay = 40 * time.Millisecond
	ex := newTestExecutor(t, fixedFactory(spy), 100*time.Millisecond)

	start := time.Now()
	report, err := ex.Execute(context.Background(), testJob(printing.QueueAddress("Caja")))
	assert.Equal(t, printing.ErrTimeout, printing.KindOf(err))
	assert.Less(t, time.Since(start), time.Second)
	assert.Less(t, report.OpsWritten, len(sampleOps()))
	assert.False(t, spy.committed)
}

func TestExecutor_SocketDeadlineIsTimeout(t *testing.T) {
	spy := newSpy()
	spy.failOnOp = 1
	spy.failErr = &net.OpError{Op: "write", Net: "tcp", Err: os.ErrDeadlineExceeded}
	ex := newTestExecutor(t, fixedFactory(spy), time.Minute)

	_, err := ex.Execute(context.Background(), testJob(printing.QueueAddress("Caja")))
	assert.Equal(t, printing.ErrTimeout, printing.KindOf(err))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestExecutor_StalledPrinterTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	// accepts and holds every connection without ever reading
	var mu sync.Mutex
	var held []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			held = append(held, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range held {
			conn.Close()
		}
	})

	line := strings.Repeat("x", 64*1024)
	ops := make([]printing.RenderOp, 0, 257)
	for range 256 {
		ops = append(ops, printing.PrintText(line))
	}
	ops = append(ops, printing.Cut())

	addr := ln.Addr().String()
	factory := &spyFactory{build: func(printing.TransportAddress) (Transport, error) {
		return newTCPTransport(addr, time.Second), nil
	}}
	ex := newTestExecutor(t, factory, 150*time.Millisecond)

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		report, err := ex.Execute(context.Background(), Job{
			ID:      "stalled",
			Kind:    printing.DocumentTicket,
			Address: printing.TCPAddress(host, portNum),
			Ops:     ops,
		})
		require.Error(t, err)
		assert.Equal(t, printing.ErrTimeout, printing.KindOf(err), err.Error())
		assert.Less(t, report.OpsWritten, len(ops))
	}
}

func TestExecutor_IgnoresCallerCancellation(t *testing.T) {
	spy := newSpy()
	ex := newTestExecutor(t, fixedFactory(spy), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Execute(ctx, testJob(printing.QueueAddress("Caja")))
	require.NoError(t, err)
	assert.True(t, spy.committed)
}

func TestExecutor_BadJob(t *testing.T) {
	t.Run("unencodable op", func(t *testing.T) {
		factory := fixedFactory(newSpy())
		ex := newTestExecutor(t, factory, time.Second)

		job := testJob(printing.QueueAddress("Caja"))
		job.Ops = append(job.Ops, printing.RenderOp{Kind: "Barcode"})
		_, err := ex.Execute(context.Background(), job)
		assert.Equal(t, printing.ErrValidation, printing.KindOf(err))
		assert.Zero(t, factory.calls.Load())
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		factory := &spyFactory{build: func(addr printing.TransportAddress) (Transport, error) {
			return nil, errors.New("unsupported transport scheme \"usb\"")
		}}
		ex := newTestExecutor(t, factory, time.Second)

		_, err := ex.Execute(context.Background(), testJob(printing.TransportAddress{Scheme: "usb", Target: "1"}))
		assert.Equal(t, printing.ErrConfig, printing.KindOf(err))
	})
}

func TestExecutor_SerializesSameAddress(t *testing.T) {
	var inFlight, peak atomic.Int32
	factory := &spyFactory{build: func(printing.TransportAddress) (Transport, error) {
		spy := newSpy()
		spy.writeDelay = 2 * time.Millisecond
		spy.onOpen = func(context.Context) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return nil
		}
		return &releasingTransport{spyTransport: spy, inFlight: &inFlight}, nil
	}}
	ex := newTestExecutor(t, factory, 5*time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ex.Execute(context.Background(), testJob(printing.TCPAddress("10.0.0.9", 9100)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), peak.Load())
	assert.Zero(t, ex.locks.size())
}

// releasingTransport marks the job finished when the executor closes it
type releasingTransport struct {
	*spyTransport
	inFlight *atomic.Int32
}

func (r *releasingTransport) Close() error {
	r.inFlight.Add(-1)
	return r.spyTransport.Close()
}

func TestExecutor_DifferentAddressesRunInParallel(t *testing.T) {
	// each job waits in Open until both have opened; serialized jobs would time out
	var opened sync.WaitGroup
	opened.Add(2)
	bothOpen := make(chan struct{})
	go func() {
		opened.Wait()
		close(bothOpen)
	}()

	factory := &spyFactory{build: func(printing.TransportAddress) (Transport, error) {
		spy := newSpy()
		spy.onOpen = func(ctx context.Context) error {
			opened.Done()
			select {
			case <-bothOpen:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return spy, nil
	}}
	ex := newTestExecutor(t, factory, 2*time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, addr := range []printing.TransportAddress{printing.QueueAddress("Caja"), printing.QueueAddress("Cocina")} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ex.Execute(context.Background(), testJob(addr))
		}()
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

func TestExecutor_LockWaitCountsTowardTimeout(t *testing.T) {
	factory := fixedFactory(newSpy())
	ex := newTestExecutor(t, factory, 50*time.Millisecond)

	addr := printing.QueueAddress("Caja")
	release, err := ex.locks.acquire(context.Background(), addr.String())
	require.NoError(t, err)
	defer release()

	_, err = ex.Execute(context.Background(), testJob(addr))
	assert.Equal(t, printing.ErrTimeout, printing.KindOf(err))
	assert.Zero(t, factory.calls.Load())
}

func TestExecutor_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewPrintMetrics(provider.Meter("printd"))
	require.NoError(t, err)

	failing := newSpy()
	failing.connected = false
	transports := []Transport{newSpy(), failing}
	var next atomic.Int32
	factory := &spyFactory{build: func(printing.TransportAddress) (Transport, error) {
		return transports[next.Add(1)-1], nil
	}}
	ex := newTestExecutor(t, factory, time.Second, WithMetrics(metrics))

	_, err = ex.Execute(ctx, testJob(printing.QueueAddress("Caja")))
	require.NoError(t, err)
	_, err = ex.Execute(ctx, testJob(printing.QueueAddress("Caja")))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	jobs, ok := byName["printd.jobs"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	outcomes := map[string]int64{}
	for _, dp := range jobs.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrOutcome)
		outcomes[v.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"success": 1, "failure": 1}, outcomes)

	ops, ok := byName["printd.ops_written"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range ops.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(len(sampleOps())), total)
}

func TestAddressLocks(t *testing.T) {
	l := newAddressLocks()
	ctx := context.Background()

	release, err := l.acquire(ctx, "tcp://10.0.0.9:9100")
	require.NoError(t, err)
	assert.Equal(t, 1, l.size())

	other, err := l.acquire(ctx, "printer:Caja")
	require.NoError(t, err)
	assert.Equal(t, 2, l.size())
	other()

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.acquire(short, "tcp://10.0.0.9:9100")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.size())

	release()
	release()
	assert.Zero(t, l.size())
}
