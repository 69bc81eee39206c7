package printing

import "fmt"

// DefaultNetworkPort is the raw printing port most receipt printers listen on
const DefaultNetworkPort = 9100

// ComandaConfig routes kitchen slips to a dedicated printer
type ComandaConfig struct {
	Enabled     bool   `json:"enabled"`
	PrinterName string `json:"printerName"`
	AutoPrint   bool   `json:"autoPrint"`
}

// PrinterConfig is supplied by the caller on every request; never stored here.
type PrinterConfig struct {
	ConnectionType     ConnectionType `json:"connectionType" binding:"omitempty,oneof=USB NETWORK SERIAL"`
	PrinterName        string         `json:"printerName"`
	PrinterIP          string         `json:"printerIP" binding:"omitempty,ip|hostname"`
	PrinterPort        int            `json:"printerPort" binding:"omitempty,min=1,max=65535"`
	BrandType          BrandType      `json:"brandType" binding:"omitempty,oneof=EPSON STAR TANCA DARUMA BEMATECH"`
	AutoOpenCashDrawer bool           `json:"autoOpenCashDrawer"`
	DefaultCopies      int            `json:"defaultCopies" binding:"omitempty,min=1,max=10"`
	ComandaConfig      ComandaConfig  `json:"comandaConfig"`
}

// Normalize fills zero values with their documented defaults.
// The port is only defaulted at resolve time so a NETWORK config without an
// address is still reported as such.
func (c PrinterConfig) Normalize() PrinterConfig {
	if c.ConnectionType == "" {
		c.ConnectionType = ConnectionUSB
	}
	if c.BrandType == "" {
		c.BrandType = BrandEpson
	}
	if c.DefaultCopies == 0 {
		c.DefaultCopies = 1
	}
	return c
}

// Validate checks field ranges. Address completeness is the resolver's job.
func (c PrinterConfig) Validate() error {
	if c.ConnectionType != "" && !c.ConnectionType.IsValid() {
		return NewValidationError(fmt.Sprintf("unknown connectionType %q", c.ConnectionType))
	}
	if c.BrandType != "" && !c.BrandType.IsValid() {
		return NewValidationError(fmt.Sprintf("unknown brandType %q", c.BrandType))
	}
	if c.DefaultCopies < 0 {
		return NewValidationError("defaultCopies must be at least 1")
	}
	if c.PrinterPort < 0 || c.PrinterPort > 65535 {
		return NewValidationError(fmt.Sprintf("printerPort %d out of range", c.PrinterPort))
	}
	return nil
}

// ForKitchen returns the config a comanda prints with. When a dedicated
// kitchen printer is enabled and named, it replaces the main printer as a
// named queue; otherwise the main printer is used unchanged.
func (c PrinterConfig) ForKitchen() PrinterConfig {
	if !c.ComandaConfig.Enabled || c.ComandaConfig.PrinterName == "" {
		return c
	}
	k := c
	k.PrinterName = c.ComandaConfig.PrinterName
	k.PrinterIP = ""
	k.PrinterPort = 0
	if k.ConnectionType == ConnectionNetwork {
		k.ConnectionType = ConnectionUSB
	}
	k.AutoOpenCashDrawer = false
	k.DefaultCopies = 1
	return k
}

// WantsKitchenCopy reports whether a ticket should also send a comanda
func (c PrinterConfig) WantsKitchenCopy() bool {
	return c.ComandaConfig.Enabled && c.ComandaConfig.AutoPrint
}
