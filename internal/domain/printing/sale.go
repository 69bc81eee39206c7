package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment method literals as sent by the POS
const (
	PaymentCash  = "Efectivo"
	PaymentMixed = "Mixto"
)

// StoreProfile is the business header printed on tickets
type StoreProfile struct {
	Name          string `json:"nombre"`
	Address       string `json:"direccion"`
	Phone         string `json:"telefono"`
	TaxID         string `json:"rfc"`
	ShowTaxID     bool   `json:"mostrarRfc"`
	Logo          string `json:"logo,omitempty"` // base64, optionally a data: URL
	HeaderMessage string `json:"mensajeEncabezado,omitempty"`
	FooterMessage string `json:"mensajePie,omitempty"`
}

// Customer is the optional buyer of a sale
type Customer struct {
	Name    string `json:"nombre"`
	Address string `json:"direccion,omitempty"`
}

// LineItem is one product line. Quantities are decimal to allow sales by weight.
type LineItem struct {
	Name      string          `json:"nombre"`
	Quantity  decimal.Decimal `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precioUnitario"`
	Note      string          `json:"notas,omitempty"`
}

// LineTotal is quantity times unit price, computed at render time
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// SaleDocument is the business document to print. Its amounts are printed
// as given: the renderer never recomputes subtotal or total.
type SaleDocument struct {
	Store         StoreProfile        `json:"negocio"`
	Folio         string              `json:"folio"`
	Timestamp     time.Time           `json:"fecha"`
	Cashier       string              `json:"cajero"`
	OrderType     OrderType           `json:"tipoOrden"`
	Customer      *Customer           `json:"cliente,omitempty"`
	Items         []LineItem          `json:"productos"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"descuento"`
	Tax           decimal.Decimal     `json:"iva"`
	Tip           decimal.Decimal     `json:"propina"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod string              `json:"metodoPago"`
	CashTendered  decimal.NullDecimal `json:"pagoCon"`
}

// Validate rejects documents the renderers cannot lay out
func (s *SaleDocument) Validate() error {
	if s == nil {
		return NewValidationError("sale is required")
	}
	if len(s.Items) == 0 {
		return NewValidationError("sale has no items")
	}
	for i, item := range s.Items {
		if strings.TrimSpace(item.Name) == "" {
			return NewValidationError(fmt.Sprintf("item %d has no name", i))
		}
		if !item.Quantity.IsPositive() {
			return NewValidationError(fmt.Sprintf("item %d (%s) must have a positive quantity", i, item.Name))
		}
		if item.UnitPrice.IsNegative() {
			return NewValidationError(fmt.Sprintf("item %d (%s) has a negative price", i, item.Name))
		}
	}
	if s.Timestamp.IsZero() {
		return NewValidationError("sale timestamp is required")
	}
	if s.Total.IsNegative() {
		return NewValidationError("sale total cannot be negative")
	}
	return nil
}

// IsCash reports whether the sale was paid in cash
func (s *SaleDocument) IsCash() bool {
	return strings.EqualFold(strings.TrimSpace(s.PaymentMethod), PaymentCash)
}

// IsMixed reports whether the sale was split across payment methods
func (s *SaleDocument) IsMixed() bool {
	return strings.EqualFold(strings.TrimSpace(s.PaymentMethod), PaymentMixed)
}

// Change returns tendered minus total for cash sales with a tendered amount.
// The result is not clamped: an underpayment yields a negative value.
func (s *SaleDocument) Change() (tendered, change decimal.Decimal, ok bool) {
	if !s.IsCash() || !s.CashTendered.Valid {
		return decimal.Zero, decimal.Zero, false
	}
	return s.CashTendered.Decimal, s.CashTendered.Decimal.Sub(s.Total), true
}

// TotalUnits sums the quantities of every line
func (s *SaleDocument) TotalUnits() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.Quantity)
	}
	return sum
}
