package printing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // logo decoding
	_ "image/png"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/erp/printd/internal/domain/printing"
	"golang.org/x/text/encoding/charmap"
)

// ESC/POS control bytes
const (
	esc = 0x1b
	gs  = 0x1d
)

// DotsPerChar is the width of Font A in dots; 48 columns make the 576-dot line
// of an 80 mm head, 32 columns the 384-dot line of a 58 mm head.
const DotsPerChar = 12

// codePage pairs a charmap with the ESC t table number that selects it
type codePage struct {
	charmap *charmap.Charmap
	table   byte
}

var codePages = map[string]codePage{
	"cp437":  {charmap.CodePage437, 0},
	"cp850":  {charmap.CodePage850, 2},
	"cp858":  {charmap.CodePage858, 19},
	"cp852":  {charmap.CodePage852, 18},
	"cp866":  {charmap.CodePage866, 17},
	"cp1252": {charmap.Windows1252, 16},
}

// Encoder translates RenderOps into ESC/POS bytes. It tracks the current
// text scale so column layouts shrink with enlarged text, so use one
// Encoder per job.
type Encoder struct {
	columns int
	page    codePage
	scaleW  int
}

// NewEncoder returns an encoder for a paper width in characters and a code
// page name such as "cp858"
func NewEncoder(columns int, codePageName string) (*Encoder, error) {
	page, ok := codePages[strings.ToLower(codePageName)]
	if !ok {
		return nil, fmt.Errorf("unsupported code page %q", codePageName)
	}
	if columns <= 0 {
		return nil, fmt.Errorf("invalid paper width %d", columns)
	}
	return &Encoder{columns: columns, page: page, scaleW: 1}, nil
}

// Init resets the printer and selects the code page
func (e *Encoder) Init() []byte {
	e.scaleW = 1
	return []byte{esc, '@', esc, 't', e.page.table}
}

// Encode renders a single op
func (e *Encoder) Encode(op printing.RenderOp) ([]byte, error) {
	switch op.Kind {
	case printing.OpSetAlign:
		return []byte{esc, 'a', byte(op.Align)}, nil
	case printing.OpSetEmphasis:
		return []byte{esc, 'E', boolByte(op.On)}, nil
	case printing.OpSetTextScale:
		w, h := clampScale(op.Width), clampScale(op.Height)
		e.scaleW = w
		return []byte{gs, '!', byte((w-1)<<4 | (h - 1))}, nil
	case printing.OpSetSmallFont:
		// font B when on, font A when off
		return []byte{esc, 'M', boolByte(op.On)}, nil
	case printing.OpPrintText:
		return e.line(op.Text), nil
	case printing.OpPrintImage:
		return e.raster(op.Image)
	case printing.OpDrawDivider:
		return e.line(strings.Repeat("-", e.width())), nil
	case printing.OpTableRow:
		return e.line(e.layoutRow(op.Cells)), nil
	case printing.OpLeftRight:
		return e.line(e.layoutLeftRight(op.Label, op.Value)), nil
	case printing.OpNewLine:
		return []byte{'\n'}, nil
	case printing.OpOpenDrawer:
		// pin 2, 50 ms on, 500 ms off
		return []byte{esc, 'p', 0, 25, 250}, nil
	case printing.OpCut:
		return []byte{gs, 'V', 'A', 0}, nil
	}
	return nil, fmt.Errorf("unknown render op %q", op.Kind)
}

// EncodeAll renders a whole sequence, one chunk per op
func (e *Encoder) EncodeAll(ops []printing.RenderOp) ([][]byte, error) {
	chunks := make([][]byte, len(ops))
	for i, op := range ops {
		b, err := e.Encode(op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
		chunks[i] = b
	}
	return chunks, nil
}

// width is the number of characters that fit at the current scale
func (e *Encoder) width() int {
	return max(e.columns/e.scaleW, 1)
}

func (e *Encoder) line(s string) []byte {
	return append(e.encodeText(s), '\n')
}

// encodeText maps runes onto the code page, replacing what it lacks with '?'.
// Control characters other than newline become spaces so sale text can never
// reach the printer as a command.
func (e *Encoder) encodeText(s string) []byte {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			buf = append(buf, '\n')
		case unicode.IsControl(r):
			buf = append(buf, ' ')
		case r < utf8.RuneSelf:
			buf = append(buf, byte(r))
		default:
			if b, ok := e.page.charmap.EncodeRune(r); ok && b >= 0x20 && b != 0x7f {
				buf = append(buf, b)
			} else {
				buf = append(buf, '?')
			}
		}
	}
	return buf
}

func (e *Encoder) layoutLeftRight(label, value string) string {
	w := e.width()
	vlen := utf8.RuneCountInString(value)
	if vlen >= w {
		return truncate(value, w)
	}
	label = truncate(label, w-vlen-1)
	gap := w - utf8.RuneCountInString(label) - vlen
	return label + strings.Repeat(" ", gap) + value
}

// layoutRow sizes each cell by its width fraction; the last cell takes the
// remainder so rounding never overflows the line.
func (e *Encoder) layoutRow(cells []printing.Cell) string {
	w := e.width()
	var sb strings.Builder
	used := 0
	for i, c := range cells {
		cw := int(c.Width * float64(w))
		if i == len(cells)-1 || used+cw > w {
			cw = w - used
		}
		if cw <= 0 {
			break
		}
		sb.WriteString(pad(c.Text, cw, c.Align))
		used += cw
	}
	return strings.TrimRight(sb.String(), " ")
}

// raster decodes a PNG or JPEG, scales it down to the printable width and
// emits it as a GS v 0 bit image.
func (e *Encoder) raster(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = fitWidth(img, e.columns*DotsPerChar)

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rowBytes := (w + 7) / 8

	out := make([]byte, 0, 8+rowBytes*h)
	out = append(out, gs, 'v', '0', 0,
		byte(rowBytes), byte(rowBytes>>8),
		byte(h), byte(h>>8))

	for y := 0; y < h; y++ {
		for xb := 0; xb < rowBytes; xb++ {
			var v byte
			for bit := 0; bit < 8; bit++ {
				x := xb*8 + bit
				if x < w && isDark(img.At(b.Min.X+x, b.Min.Y+y)) {
					v |= 0x80 >> bit
				}
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// fitWidth scales img down with nearest-neighbour sampling when it is wider
// than maxW dots. Narrower images are left alone.
func fitWidth(img image.Image, maxW int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW {
		return img
	}
	h := max(b.Dy()*maxW/b.Dx(), 1)
	dst := image.NewRGBA(image.Rect(0, 0, maxW, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < maxW; x++ {
			sx := b.Min.X + x*b.Dx()/maxW
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}

// isDark thresholds a pixel at 50% luminance; transparent pixels are paper.
func isDark(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return false
	}
	lum := (299*r + 587*g + 114*b) / 1000
	return lum < 0x8000
}

func clampScale(n int) int {
	return min(max(n, 1), 8)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func pad(s string, w int, align printing.Align) string {
	s = truncate(s, w)
	gap := w - utf8.RuneCountInString(s)
	switch align {
	case printing.AlignRight:
		return strings.Repeat(" ", gap) + s
	case printing.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
