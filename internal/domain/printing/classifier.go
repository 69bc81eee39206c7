package printing

import (
	"sort"
	"strings"
)

// RawPrinter is one entry of the OS printer registry, as reported by a probe
type RawPrinter struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
	Port   string `json:"port"`
}

// PrinterDescriptor is a classified printer. Built fresh on each discovery call.
type PrinterDescriptor struct {
	Name           string         `json:"name"`
	DisplayName    string         `json:"displayName"`
	BrandType      BrandType      `json:"brandType"`
	ConnectionType ConnectionType `json:"connectionType"`
	PortName       string         `json:"portName"`
	DriverName     string         `json:"driverName"`
	IsThermal      bool           `json:"isThermal"`
}

type keywordRule[T any] struct {
	keywords []string
	value    T
}

// thermalKeywords flags receipt-class devices by name or driver.
var thermalKeywords = []string{
	"thermal", "tm-", "tsp", "star", "epson", "receipt", "pos", "ticket",
	"tanca", "daruma", "bematech", "rp", "ct-", "kitchen", "comanda",
}

// brandRules are evaluated in order; the first group with a hit wins.
var brandRules = []keywordRule[BrandType]{
	{keywords: []string{"epson", "tm-"}, value: BrandEpson},
	{keywords: []string{"star", "tsp"}, value: BrandStar},
	{keywords: []string{"tanca"}, value: BrandTanca},
	{keywords: []string{"daruma"}, value: BrandDaruma},
	{keywords: []string{"bematech"}, value: BrandBematech},
}

// connectionRules look at the port only. Order matters: "usb" must win over
// "com" for ports like "usb001:comanda".
var connectionRules = []keywordRule[ConnectionType]{
	{keywords: []string{"usb"}, value: ConnectionUSB},
	{keywords: []string{"ip_", "tcp"}, value: ConnectionNetwork},
	{keywords: []string{"com", "serial"}, value: ConnectionSerial},
}

func firstMatch[T any](haystack string, rules []keywordRule[T], fallback T) T {
	for _, r := range rules {
		if containsAny(haystack, r.keywords) {
			return r.value
		}
	}
	return fallback
}

func containsAny(haystack string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(haystack, k) {
			return true
		}
	}
	return false
}

// IsThermalName reports whether name and driver look like a receipt printer
func IsThermalName(name, driver string) bool {
	return containsAny(strings.ToLower(name+" "+driver), thermalKeywords)
}

// Classify turns a registry entry into a descriptor
func Classify(raw RawPrinter) PrinterDescriptor {
	haystack := strings.ToLower(raw.Name + " " + raw.Driver)
	port := strings.ToLower(raw.Port)

	display := raw.Name
	if raw.Driver != "" && !strings.EqualFold(raw.Driver, raw.Name) {
		display = raw.Name + " (" + raw.Driver + ")"
	}

	return PrinterDescriptor{
		Name:           raw.Name,
		DisplayName:    display,
		BrandType:      firstMatch(haystack, brandRules, BrandEpson),
		ConnectionType: firstMatch(port, connectionRules, ConnectionUSB),
		PortName:       raw.Port,
		DriverName:     raw.Driver,
		IsThermal:      containsAny(haystack, thermalKeywords),
	}
}

// ClassifyAll classifies every entry and moves thermal printers to the front,
// keeping the registry order inside each group.
func ClassifyAll(raws []RawPrinter) []PrinterDescriptor {
	out := make([]PrinterDescriptor, 0, len(raws))
	for _, r := range raws {
		out = append(out, Classify(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsThermal && !out[j].IsThermal
	})
	return out
}
