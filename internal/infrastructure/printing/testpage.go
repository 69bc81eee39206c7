package printing

import (
	"strconv"
	"time"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/shopspring/decimal"
)

var sampleAmount = decimal.RequireFromString("1234.50")

// RenderTestPage builds the diagnostic page: the config the request carried,
// alignment and table samples, the currency format and the code page.
func (r *Renderer) RenderTestPage(cfg printing.PrinterConfig, printedAt time.Time, platform string) []printing.RenderOp {
	b := &builder{}

	b.add(printing.SetAlign(printing.AlignCenter), printing.SetEmphasis(true))
	b.large("PRUEBA DE IMPRESIÓN")
	b.add(printing.SetEmphasis(false))
	b.text("printd")
	b.add(printing.DrawDivider())

	b.add(printing.SetAlign(printing.AlignLeft))
	name := cfg.PrinterName
	if name == "" {
		name = "(predeterminada)"
	}
	b.pair("Impresora:", name)
	b.pair("Conexión:", cfg.ConnectionType.String())
	if cfg.ConnectionType == printing.ConnectionNetwork {
		port := cfg.PrinterPort
		if port == 0 {
			port = printing.DefaultNetworkPort
		}
		b.pair("IP:", cfg.PrinterIP+":"+strconv.Itoa(port))
	}
	b.pair("Marca:", cfg.BrandType.String())
	b.pair("Copias:", strconv.Itoa(cfg.DefaultCopies))
	b.pair("Cajón automático:", yesNo(cfg.AutoOpenCashDrawer))
	b.pair("Plataforma:", platform)
	b.pair("Fecha:", printedAt.Format(dateTimeLayout))
	b.add(printing.DrawDivider())

	b.text("Izquierda")
	b.add(printing.SetAlign(printing.AlignCenter))
	b.text("Centro")
	b.add(printing.SetAlign(printing.AlignRight))
	b.text("Derecha")
	b.add(printing.SetAlign(printing.AlignLeft))
	b.bold("Texto en negritas")
	b.add(printing.DrawDivider())

	b.add(ticketRow("Cant", "Descripción", "P.U.", "Importe"))
	b.add(ticketRow("2", "Producto de prueba", r.money.Format(sampleAmount), r.money.Format(sampleAmount.Mul(decimal.NewFromInt(2)))))
	b.pair("Moneda:", r.money.Format(sampleAmount))
	b.text("Acentos: áéíóú ÁÉÍÓÚ ñÑ ¿¡ €")
	b.add(printing.DrawDivider())

	b.add(printing.SetAlign(printing.AlignCenter))
	b.text("Si puede leer esto, la impresora funciona.")
	b.feed(feedLines)
	b.add(printing.Cut())
	return b.ops
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
