package printing

import (
	"github.com/erp/printd/internal/domain/printing"
)

// Ticket table columns: quantity, description, unit price, line total
var ticketColumns = [4]float64{0.15, 0.50, 0.15, 0.20}

const mixedPaymentLabel = "Pago mixto"

// RenderTicket lays out the customer receipt. Amounts are printed as given;
// only the per-line totals are computed here.
func (r *Renderer) RenderTicket(sale *printing.SaleDocument, cfg printing.PrinterConfig, opts printing.DisplayOptions) []printing.RenderOp {
	b := &builder{}

	r.ticketHeader(b, sale.Store)
	b.add(printing.DrawDivider())

	b.add(printing.SetAlign(printing.AlignLeft))
	r.ticketInfo(b, sale, opts)
	b.add(printing.DrawDivider())

	r.ticketItems(b, sale.Items)
	b.add(printing.DrawDivider())

	r.ticketTotals(b, sale, opts)
	r.ticketPayment(b, sale, opts)
	b.add(printing.DrawDivider())

	b.add(printing.SetAlign(printing.AlignCenter))
	footer := sale.Store.FooterMessage
	if footer == "" {
		footer = r.settings.Greeting
	}
	b.textIf(footer)
	b.textIf(r.settings.Disclaimer)
	b.feed(feedLines)

	if cfg.AutoOpenCashDrawer {
		b.add(printing.OpenDrawer())
	}
	b.add(printing.Cut())
	return b.ops
}

func (r *Renderer) ticketHeader(b *builder, store printing.StoreProfile) {
	b.add(printing.SetAlign(printing.AlignCenter))
	if logo := r.logo(store); logo != nil {
		b.add(printing.PrintImage(logo))
	}
	b.bold(store.Name)
	b.textIf(store.Address)
	if store.Phone != "" {
		b.text("Tel: " + store.Phone)
	}
	if store.ShowTaxID && store.TaxID != "" {
		b.text("RFC: " + store.TaxID)
	}
	b.textIf(store.HeaderMessage)
}

func (r *Renderer) ticketInfo(b *builder, sale *printing.SaleDocument, opts printing.DisplayOptions) {
	if opts.Enabled(printing.OptFolio) && sale.Folio != "" {
		b.pair("Folio:", sale.Folio)
	}
	if opts.Enabled(printing.OptDate) {
		b.pair("Fecha:", sale.Timestamp.Format(dateLayout))
	}
	if opts.Enabled(printing.OptTime) {
		b.pair("Hora:", sale.Timestamp.Format(timeLayout))
	}
	if opts.Enabled(printing.OptCashier) && sale.Cashier != "" {
		b.pair("Cajero:", sale.Cashier)
	}
	if opts.Enabled(printing.OptCustomer) && sale.Customer != nil && sale.Customer.Name != "" {
		b.pair("Cliente:", sale.Customer.Name)
		if sale.OrderType.IsDelivery() && sale.Customer.Address != "" {
			b.pair("Dirección:", sale.Customer.Address)
		}
	}
}

func (r *Renderer) ticketItems(b *builder, items []printing.LineItem) {
	b.add(printing.SetEmphasis(true))
	b.add(ticketRow("Cant", "Descripción", "P.U.", "Importe"))
	b.add(printing.SetEmphasis(false))

	for _, item := range items {
		b.add(ticketRow(
			formatQuantity(item.Quantity),
			item.Name,
			r.money.Format(item.UnitPrice),
			r.money.Format(item.LineTotal()),
		))
		if item.Note != "" {
			b.text("  * " + item.Note)
		}
	}
}

func ticketRow(qty, name, unit, total string) printing.RenderOp {
	return printing.TableRow(
		printing.Cell{Text: qty, Align: printing.AlignLeft, Width: ticketColumns[0]},
		printing.Cell{Text: name, Align: printing.AlignLeft, Width: ticketColumns[1]},
		printing.Cell{Text: unit, Align: printing.AlignRight, Width: ticketColumns[2]},
		printing.Cell{Text: total, Align: printing.AlignRight, Width: ticketColumns[3]},
	)
}

func (r *Renderer) ticketTotals(b *builder, sale *printing.SaleDocument, opts printing.DisplayOptions) {
	if opts.Enabled(printing.OptSubtotal) {
		b.pair("Subtotal:", r.money.Format(sale.Subtotal))
	}
	if opts.Enabled(printing.OptDiscount) && sale.Discount.IsPositive() {
		b.pair("Descuento:", r.money.Negative(sale.Discount))
	}
	if opts.Enabled(printing.OptTax) && sale.Tax.IsPositive() {
		b.pair("IVA:", r.money.Format(sale.Tax))
	}
	if opts.Enabled(printing.OptTip) && sale.Tip.IsPositive() {
		b.pair("Propina:", r.money.Format(sale.Tip))
	}

	b.add(printing.SetEmphasis(true), printing.SetTextScale(2, 2))
	b.pair("TOTAL:", r.money.Format(sale.Total))
	b.add(printing.SetTextScale(1, 1), printing.SetEmphasis(false))
}

func (r *Renderer) ticketPayment(b *builder, sale *printing.SaleDocument, opts printing.DisplayOptions) {
	if opts.Enabled(printing.OptPayment) && sale.PaymentMethod != "" {
		method := sale.PaymentMethod
		if sale.IsMixed() {
			method = mixedPaymentLabel
		}
		b.pair("Método de pago:", method)
	}
	if !opts.Enabled(printing.OptChange) {
		return
	}
	if tendered, change, ok := sale.Change(); ok {
		b.pair("Pago con:", r.money.Format(tendered))
		b.pair("Cambio:", r.money.Format(change))
	}
}
