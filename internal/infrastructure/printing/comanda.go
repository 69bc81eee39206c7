package printing

import (
	"fmt"

	"github.com/erp/printd/internal/domain/printing"
)

// RenderComanda lays out the kitchen slip. It carries no prices and never
// kicks the drawer.
func (r *Renderer) RenderComanda(sale *printing.SaleDocument) []printing.RenderOp {
	b := &builder{}

	b.add(printing.SetAlign(printing.AlignCenter), printing.SetEmphasis(true))
	b.large("COMANDA")
	b.add(printing.SetEmphasis(false))
	b.textIf(sale.Store.Name)
	b.add(printing.DrawDivider())

	if sale.Folio != "" {
		b.large("Orden #" + sale.Folio)
	}
	b.bold(sale.OrderType.Banner())
	b.text(sale.Timestamp.Format(dateTimeLayout))
	if sale.Customer != nil && sale.Customer.Name != "" {
		b.text("Cliente: " + sale.Customer.Name)
	}
	if sale.Cashier != "" {
		b.small("Cajero: " + sale.Cashier)
	}
	b.add(printing.DrawDivider())

	b.bold("PRODUCTOS A PREPARAR")
	b.add(printing.SetAlign(printing.AlignLeft))
	for _, item := range sale.Items {
		b.add(printing.SetEmphasis(true))
		b.large(fmt.Sprintf("%sx %s", formatQuantity(item.Quantity), item.Name))
		b.add(printing.SetEmphasis(false))
		if item.Note != "" {
			b.bold("  >> " + item.Note)
		}
		b.add(printing.NewLine())
	}
	b.add(printing.DrawDivider())

	b.text("Total de piezas: " + formatQuantity(sale.TotalUnits()))
	b.text(fmt.Sprintf("Productos distintos: %d", len(sale.Items)))

	b.add(printing.SetAlign(printing.AlignCenter))
	b.bold("*** VERIFICAR ANTES DE ENTREGAR ***")
	b.small("Impreso: " + r.now().Format(dateTimeLayout))
	b.feed(feedLines)
	b.add(printing.Cut())
	return b.ops
}
