package printing

import (
	"fmt"
	"strings"
)

// OpKind tags a RenderOp
type OpKind string

const (
	OpSetAlign     OpKind = "SetAlign"
	OpSetEmphasis  OpKind = "SetEmphasis"
	OpSetTextScale OpKind = "SetTextScale"
	OpSetSmallFont OpKind = "SetSmallFont"
	OpPrintText    OpKind = "PrintText"
	OpPrintImage   OpKind = "PrintImage"
	OpDrawDivider  OpKind = "DrawDivider"
	OpTableRow     OpKind = "TableRow"
	OpLeftRight    OpKind = "LeftRight"
	OpNewLine      OpKind = "NewLine"
	OpOpenDrawer   OpKind = "OpenDrawer"
	OpCut          OpKind = "Cut"
)

// Align is a horizontal alignment
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// String returns the alignment name
func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// Cell is one column of a TableRow. Width is a fraction of the line.
type Cell struct {
	Text  string
	Align Align
	Width float64
}

// RenderOp is one device-independent printer instruction. Only the fields
// relevant to Kind are set.
type RenderOp struct {
	Kind   OpKind
	Align  Align
	On     bool
	Width  int // text scale multipliers, 1..8
	Height int
	Text   string
	Image  []byte // encoded PNG or JPEG
	Cells  []Cell
	Label  string
	Value  string
}

// Constructors, one per kind.

func SetAlign(a Align) RenderOp { return RenderOp{Kind: OpSetAlign, Align: a} }
func SetEmphasis(on bool) RenderOp { return RenderOp{Kind: OpSetEmphasis, On: on} }
func SetTextScale(w, h int) RenderOp { return RenderOp{Kind: OpSetTextScale, Width: w, Height: h} }
func SetSmallFont(on bool) RenderOp { return RenderOp{Kind: OpSetSmallFont, On: on} }
func PrintText(line string) RenderOp { return RenderOp{Kind: OpPrintText, Text: line} }
func PrintImage(data []byte) RenderOp { return RenderOp{Kind: OpPrintImage, Image: data} }
func DrawDivider() RenderOp { return RenderOp{Kind: OpDrawDivider} }
func TableRow(cells ...Cell) RenderOp { return RenderOp{Kind: OpTableRow, Cells: cells} }
func LeftRight(l, v string) RenderOp { return RenderOp{Kind: OpLeftRight, Label: l, Value: v} }
func NewLine() RenderOp { return RenderOp{Kind: OpNewLine} }
func OpenDrawer() RenderOp { return RenderOp{Kind: OpOpenDrawer} }
func Cut() RenderOp { return RenderOp{Kind: OpCut} }

// String is a compact human-readable form, used in logs and test failures
func (op RenderOp) String() string {
	switch op.Kind {
	case OpSetAlign:
		return fmt.Sprintf("SetAlign(%s)", op.Align)
	case OpSetEmphasis:
		return fmt.Sprintf("SetEmphasis(%t)", op.On)
	case OpSetTextScale:
		return fmt.Sprintf("SetTextScale(%d,%d)", op.Width, op.Height)
	case OpSetSmallFont:
		return fmt.Sprintf("SetSmallFont(%t)", op.On)
	case OpPrintText:
		return fmt.Sprintf("PrintText(%q)", op.Text)
	case OpPrintImage:
		return fmt.Sprintf("PrintImage(%d bytes)", len(op.Image))
	case OpTableRow:
		parts := make([]string, len(op.Cells))
		for i, c := range op.Cells {
			parts[i] = fmt.Sprintf("%q", c.Text)
		}
		return "TableRow(" + strings.Join(parts, ", ") + ")"
	case OpLeftRight:
		return fmt.Sprintf("LeftRight(%q, %q)", op.Label, op.Value)
	default:
		return string(op.Kind)
	}
}

// Texts returns every printable string an op carries
func (op RenderOp) Texts() []string {
	switch op.Kind {
	case OpPrintText:
		return []string{op.Text}
	case OpLeftRight:
		return []string{op.Label, op.Value}
	case OpTableRow:
		out := make([]string, len(op.Cells))
		for i, c := range op.Cells {
			out[i] = c.Text
		}
		return out
	}
	return nil
}
