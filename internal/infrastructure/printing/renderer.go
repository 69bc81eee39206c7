package printing

import (
	"time"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Date and time layouts used on printed documents
const (
	dateLayout     = "02/01/2006"
	timeLayout     = "15:04"
	dateTimeLayout = "02/01/2006 15:04"
)

// feedLines is the blank paper advanced before a cut so the tear bar clears the text
const feedLines = 3

// RenderSettings holds the site-wide wording and assets used by the renderers
type RenderSettings struct {
	Greeting   string
	Disclaimer string
	LogoPath   string
}

// Renderer builds RenderOp sequences. It never touches a transport.
type Renderer struct {
	money    *Money
	settings RenderSettings
	logger   *zap.Logger
	now      func() time.Time
}

// RendererOption customizes a Renderer
type RendererOption func(*Renderer)

// WithClock replaces time.Now for printed-at stamps
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) { r.now = now }
}

// WithRendererLogger sets the logger used for dropped assets
func WithRendererLogger(logger *zap.Logger) RendererOption {
	return func(r *Renderer) { r.logger = logger }
}

// NewRenderer creates a Renderer formatting amounts with money
func NewRenderer(money *Money, settings RenderSettings, opts ...RendererOption) *Renderer {
	r := &Renderer{
		money:    money,
		settings: settings,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Copies repeats a document n times. Only the first copy keeps its drawer
// kick, so reprints never pop the drawer again.
func Copies(ops []printing.RenderOp, n int) []printing.RenderOp {
	if n <= 1 {
		return ops
	}
	out := make([]printing.RenderOp, 0, len(ops)*n)
	out = append(out, ops...)
	for i := 1; i < n; i++ {
		for _, op := range ops {
			if op.Kind == printing.OpOpenDrawer {
				continue
			}
			out = append(out, op)
		}
	}
	return out
}

// formatQuantity prints whole quantities without decimals and weights with
// up to three.
func formatQuantity(q decimal.Decimal) string {
	return q.Round(3).String()
}

// builder accumulates ops with a few shorthands shared by every document
type builder struct {
	ops []printing.RenderOp
}

func (b *builder) add(ops ...printing.RenderOp) {
	b.ops = append(b.ops, ops...)
}

func (b *builder) text(line string) {
	b.add(printing.PrintText(line))
}

func (b *builder) textIf(line string) {
	if line != "" {
		b.text(line)
	}
}

func (b *builder) bold(line string) {
	b.add(printing.SetEmphasis(true), printing.PrintText(line), printing.SetEmphasis(false))
}

func (b *builder) large(line string) {
	b.add(printing.SetTextScale(2, 2), printing.PrintText(line), printing.SetTextScale(1, 1))
}

func (b *builder) small(line string) {
	b.add(printing.SetSmallFont(true), printing.PrintText(line), printing.SetSmallFont(false))
}

func (b *builder) pair(label, value string) {
	b.add(printing.LeftRight(label, value))
}

func (b *builder) feed(n int) {
	for i := 0; i < n; i++ {
		b.add(printing.NewLine())
	}
}
