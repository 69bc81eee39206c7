package printing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money formats amounts for a locale and currency: symbol, locale digit
// grouping and exactly two decimals. The symbol always leads and negative
// values put the sign before it ("-$7.50").
type Money struct {
	printer *message.Printer
	symbol  string
	point   string
}

// NewMoney builds a formatter for a BCP 47 locale and an ISO 4217 code
func NewMoney(locale, isoCurrency string) (*Money, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(isoCurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", isoCurrency, err)
	}

	p := message.NewPrinter(tag)
	symbol := strings.TrimSpace(p.Sprint(currency.NarrowSymbol(unit)))
	if symbol == "" {
		symbol = unit.String()
	}
	point := strings.Trim(p.Sprint(number.Decimal(1.5, number.Scale(1))), "15")
	if point == "" {
		point = "."
	}
	return &Money{printer: p, symbol: symbol, point: point}, nil
}

// MustMoney is NewMoney for known-good constants
func MustMoney(locale, isoCurrency string) *Money {
	m, err := NewMoney(locale, isoCurrency)
	if err != nil {
		panic(err)
	}
	return m
}

// Symbol returns the currency symbol in use
func (m *Money) Symbol() string {
	return m.symbol
}

// Format renders d, e.g. "$1,234.50"
func (m *Money) Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	d = d.Round(2)
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()

	// grouping goes through the locale printer on the exact integer part;
	// only the fraction is assembled by hand
	var amount string
	if whole.LessThanOrEqual(maxGrouped) {
		amount = m.printer.Sprint(number.Decimal(whole.IntPart()))
	} else {
		amount = whole.String()
	}
	return fmt.Sprintf("%s%s%s%s%02d", sign, m.symbol, amount, m.point, cents)
}

var maxGrouped = decimal.NewFromInt(math.MaxInt64)

// Negative renders d as a deduction, e.g. a 7.50 discount as "-$7.50"
func (m *Money) Negative(d decimal.Decimal) string {
	return m.Format(d.Abs().Neg())
}
