package printing

import (
	"regexp"
	"strings"
)

// resolveRule inspects a config and either claims it (ok=true) or passes.
type resolveRule struct {
	name  string
	apply func(PrinterConfig) (addr TransportAddress, ok bool, err error)
}

var serialDevicePattern = regexp.MustCompile(`(?i)^(com\d+|/dev/tty\S+|/dev/cu\.\S+)$`)

// resolveRules is evaluated top to bottom; the first rule that claims the
// config decides the address. A NETWORK config never falls through.
var resolveRules = []resolveRule{
	{
		name: "network",
		apply: func(c PrinterConfig) (TransportAddress, bool, error) {
			if c.ConnectionType != ConnectionNetwork {
				return TransportAddress{}, false, nil
			}
			ip := strings.TrimSpace(c.PrinterIP)
			if ip == "" {
				return TransportAddress{}, true, NewConfigError("printerIP is required for NETWORK printers")
			}
			port := c.PrinterPort
			if port == 0 {
				port = DefaultNetworkPort
			}
			return TCPAddress(ip, port), true, nil
		},
	},
	{
		name: "serial-device",
		apply: func(c PrinterConfig) (TransportAddress, bool, error) {
			name := strings.TrimSpace(c.PrinterName)
			if c.ConnectionType != ConnectionSerial || !serialDevicePattern.MatchString(name) {
				return TransportAddress{}, false, nil
			}
			return SerialAddress(name), true, nil
		},
	},
	{
		name: "named-queue",
		apply: func(c PrinterConfig) (TransportAddress, bool, error) {
			name := strings.TrimSpace(c.PrinterName)
			if name == "" {
				return TransportAddress{}, false, nil
			}
			return QueueAddress(name), true, nil
		},
	},
	{
		name: "default-queue",
		apply: func(PrinterConfig) (TransportAddress, bool, error) {
			return DefaultQueueAddress(), true, nil
		},
	},
}

// Resolve maps a printer config to the address a job is sent to
func Resolve(c PrinterConfig) (TransportAddress, error) {
	for _, r := range resolveRules {
		addr, ok, err := r.apply(c)
		if err != nil {
			return TransportAddress{}, err
		}
		if ok {
			return addr, nil
		}
	}
	return DefaultQueueAddress(), nil
}
