package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/config"
	infra "github.com/erp/printd/internal/infrastructure/printing"
	"github.com/erp/printd/internal/infrastructure/telemetry"
	"github.com/erp/printd/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProbe struct {
	printers []printing.RawPrinter
	err      error
}

func (p *fakeProbe) Platform() string { return "linux" }

func (p *fakeProbe) ListRawPrinters(context.Context) ([]printing.RawPrinter, error) {
	return p.printers, p.err
}

// paper records what each address received
type paper struct {
	mu       sync.Mutex
	sent     map[string]*bytes.Buffer
	offline  map[string]bool
	failFrom int // fail the nth write (1-based) when > 0
}

func newPaper() *paper {
	return &paper{sent: make(map[string]*bytes.Buffer), offline: make(map[string]bool)}
}

func (p *paper) New(addr printing.TransportAddress) (infra.Transport, error) {
	return &paperTransport{paper: p, addr: addr.String()}, nil
}

func (p *paper) text(addr string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if buf, ok := p.sent[addr]; ok {
		return buf.String()
	}
	return ""
}

type paperTransport struct {
	paper  *paper
	addr   string
	writes int
}

func (t *paperTransport) Open(context.Context) error { return nil }

func (t *paperTransport) IsConnected(context.Context) bool {
	t.paper.mu.Lock()
	defer t.paper.mu.Unlock()
	return !t.paper.offline[t.addr]
}

func (t *paperTransport) Write(_ context.Context, b []byte) error {
	t.writes++
	if t.paper.failFrom > 0 && t.writes >= t.paper.failFrom {
		return errors.New("broken pipe")
	}
	t.paper.mu.Lock()
	defer t.paper.mu.Unlock()
	buf, ok := t.paper.sent[t.addr]
	if !ok {
		buf = &bytes.Buffer{}
		t.paper.sent[t.addr] = buf
	}
	buf.Write(b)
	return nil
}

func (t *paperTransport) Commit(context.Context) error { return nil }
func (t *paperTransport) Close() error                 { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Ticket.Currency = "MXN"
	return cfg
}

func newTestServer(t *testing.T, probe *fakeProbe, p *paper) *gin.Engine {
	t.Helper()
	cfg := testConfig(t)
	comp := components{
		probe:   probe,
		factory: p,
		metrics: telemetry.NoopPrintMetrics(),
		tracer:  tracenoop.NewTracerProvider().Tracer("test"),
		meter:   noop.NewMeterProvider().Meter("test"),
	}
	svc, err := newPrintService(cfg, zap.NewNop(), comp)
	require.NoError(t, err)
	return buildEngine(cfg, zap.NewNop(), svc, comp.meter, nil, nil)
}

func call(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

const saleJSON = `{
	"negocio": {"nombre": "Tacos El Guero"},
	"folio": "A-17",
	"fecha": "2024-05-02T13:45:00Z",
	"cajero": "Lucia",
	"tipoOrden": "mostrador",
	"productos": [
		{"nombre": "Taco al pastor", "cantidad": "3", "precioUnitario": "30"},
		{"nombre": "Horchata", "cantidad": "1", "precioUnitario": "25"}
	],
	"subtotal": "115", "total": "115",
	"metodoPago": "Efectivo", "pagoCon": "200"
}`

func TestServer_Health(t *testing.T) {
	engine := newTestServer(t, &fakeProbe{}, newPaper())

	w := call(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "printd", resp.Service)
	assert.Equal(t, "linux", resp.Platform)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_UnknownRoute(t *testing.T) {
	engine := newTestServer(t, &fakeProbe{}, newPaper())

	w := call(engine, http.MethodGet, "/print/receipts", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error)
}

func TestServer_ListPrinters(t *testing.T) {
	probe := &fakeProbe{printers: []printing.RawPrinter{
		{Name: "EPSON TM-T20III", Driver: "EPSON TM-T20III Receipt", Port: "usb://EPSON/TM-T20III"},
		{Name: "HP LaserJet", Driver: "HP LaserJet Pro", Port: "ipp://10.0.0.9/ipp"},
	}}
	engine := newTestServer(t, probe, newPaper())

	w := call(engine, http.MethodGet, "/printers", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.PrintersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Printers, 2)
	assert.True(t, resp.Printers[0].IsThermal)
	assert.False(t, resp.Printers[1].IsThermal)
}

func TestServer_ListPrinters_DiscoveryFailure(t *testing.T) {
	probe := &fakeProbe{err: printing.NewDiscoveryError("linux", "lpstat -v failed", errors.New("exit status 1"))}
	engine := newTestServer(t, probe, newPaper())

	w := call(engine, http.MethodGet, "/printers", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "DiscoveryError")
}

func TestServer_PrintTicketReachesPaper(t *testing.T) {
	p := newPaper()
	engine := newTestServer(t, &fakeProbe{}, p)

	body := `{"config": {"connectionType": "NETWORK", "printerIP": "192.168.1.50"}, "sale": ` + saleJSON + `}`
	w := call(engine, http.MethodPost, "/print/ticket", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.PrintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "tcp://192.168.1.50:9100", resp.Address)
	assert.Equal(t, resp.Ops, resp.OpsWritten)
	assert.NotEmpty(t, resp.JobID)

	sent := p.text("tcp://192.168.1.50:9100")
	assert.True(t, strings.HasPrefix(sent, "\x1b@"), "job starts with printer init")
	assert.Contains(t, sent, "Tacos El Guero")
	assert.Contains(t, sent, "Taco al pastor")
	assert.Contains(t, sent, "\x1dV")
}

func TestServer_PrintTicketWithKitchenCopy(t *testing.T) {
	p := newPaper()
	engine := newTestServer(t, &fakeProbe{}, p)

	body := `{"config": {
		"connectionType": "NETWORK", "printerIP": "192.168.1.50",
		"comandaConfig": {"enabled": true, "printerName": "Cocina", "autoPrint": true}
	}, "sale": ` + saleJSON + `}`
	w := call(engine, http.MethodPost, "/print/ticket", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.PrintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ComandaJobID)
	assert.Contains(t, p.text("printer:Cocina"), "Horchata")
}

func TestServer_PrintFailures(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		prepare    func(*paper)
		wantStatus int
		wantKind   string
	}{
		{
			name:       "network printer without address",
			path:       "/print/test",
			body:       `{"config": {"connectionType": "NETWORK"}}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "ConfigError",
		},
		{
			name:       "ticket without sale",
			path:       "/print/ticket",
			body:       `{"config": {"connectionType": "NETWORK", "printerIP": "10.0.0.5"}}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "ValidationError",
		},
		{
			name:       "printer offline",
			path:       "/print/test",
			body:       `{"config": {"connectionType": "NETWORK", "printerIP": "10.0.0.5"}}`,
			prepare:    func(p *paper) { p.offline["tcp://10.0.0.5:9100"] = true },
			wantStatus: http.StatusInternalServerError,
			wantKind:   "PrinterNotConnected",
		},
		{
			name:       "write fails mid-job",
			path:       "/print/comanda",
			body:       `{"config": {"connectionType": "NETWORK", "printerIP": "10.0.0.5"}, "sale": ` + saleJSON + `}`,
			prepare:    func(p *paper) { p.failFrom = 3 },
			wantStatus: http.StatusInternalServerError,
			wantKind:   "TransportWriteError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPaper()
			if tt.prepare != nil {
				tt.prepare(p)
			}
			engine := newTestServer(t, &fakeProbe{}, p)

			w := call(engine, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantKind, resp.Error)
		})
	}
}

func TestServer_OfflinePrinterGetsNothing(t *testing.T) {
	p := newPaper()
	p.offline["tcp://10.0.0.5:9100"] = true
	engine := newTestServer(t, &fakeProbe{}, p)

	call(engine, http.MethodPost, "/print/test", `{"config": {"connectionType": "NETWORK", "printerIP": "10.0.0.5"}}`)
	assert.Empty(t, p.text("tcp://10.0.0.5:9100"))
}

func TestServer_CORSPreflight(t *testing.T) {
	engine := newTestServer(t, &fakeProbe{}, newPaper())

	req := httptest.NewRequest(http.MethodOptions, "/print/ticket", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.PrometheusEnabled = true

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetryConfig(cfg), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	meter := mp.Meter(instrumentationName)
	printMetrics, err := telemetry.NewPrintMetrics(meter)
	require.NoError(t, err)

	comp := components{
		probe:   &fakeProbe{},
		factory: newPaper(),
		metrics: printMetrics,
		tracer:  tracenoop.NewTracerProvider().Tracer("test"),
		meter:   meter,
	}
	svc, err := newPrintService(cfg, zap.NewNop(), comp)
	require.NoError(t, err)
	engine := buildEngine(cfg, zap.NewNop(), svc, meter, nil, mp.Handler())

	require.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/printers", "").Code)

	w := call(engine, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "printd_discoveries")
	assert.Contains(t, w.Body.String(), "http_server_request")
}

func TestWriteTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.WriteTimeout = 0
	assert.Equal(t, cfg.Printer.JobTimeout+5e9, writeTimeout(cfg))

	cfg.HTTP.WriteTimeout = cfg.Printer.JobTimeout * 4
	assert.Equal(t, cfg.Printer.JobTimeout*4, writeTimeout(cfg))
}
