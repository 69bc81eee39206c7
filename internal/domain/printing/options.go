package printing

// Display option keys recognized on tickets
const (
	OptFolio    = "folio"
	OptDate     = "fecha"
	OptTime     = "hora"
	OptCashier  = "cajero"
	OptCustomer = "cliente"
	OptPayment  = "metodoPago"
	OptSubtotal = "subtotal"
	OptDiscount = "descuento"
	OptTax      = "iva"
	OptTip      = "propina"
	OptChange   = "cambio"
)

var displayDefaults = map[string]bool{
	OptFolio:    true,
	OptDate:     true,
	OptTime:     true,
	OptCashier:  true,
	OptCustomer: true,
	OptPayment:  true,
	OptSubtotal: true,
	OptDiscount: true,
	OptTax:      false,
	OptTip:      false,
	OptChange:   true,
}

// DisplayOptions toggles optional ticket fields. A nil map uses the defaults;
// unknown keys are ignored.
type DisplayOptions map[string]bool

// Enabled reports whether the field named key should be printed
func (o DisplayOptions) Enabled(key string) bool {
	if v, ok := o[key]; ok {
		if _, known := displayDefaults[key]; known {
			return v
		}
	}
	return displayDefaults[key]
}

// DisplayOptionKeys lists the recognized keys
func DisplayOptionKeys() []string {
	return []string{OptFolio, OptDate, OptTime, OptCashier, OptCustomer, OptPayment,
		OptSubtotal, OptDiscount, OptTax, OptTip, OptChange}
}
