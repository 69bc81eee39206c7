package printing

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// AddressScheme names the transport family of a TransportAddress
type AddressScheme string

const (
	SchemeTCP    AddressScheme = "tcp"
	SchemeQueue  AddressScheme = "printer"
	SchemeSerial AddressScheme = "serial"
)

// TransportAddress is a resolved printer location. An empty Target on the
// queue scheme means the system default queue.
type TransportAddress struct {
	Scheme AddressScheme
	Target string
}

// TCPAddress builds a tcp://host:port address
func TCPAddress(host string, port int) TransportAddress {
	return TransportAddress{Scheme: SchemeTCP, Target: net.JoinHostPort(host, strconv.Itoa(port))}
}

// QueueAddress builds a printer:{name} address
func QueueAddress(name string) TransportAddress {
	return TransportAddress{Scheme: SchemeQueue, Target: name}
}

// DefaultQueueAddress is the system default queue
func DefaultQueueAddress() TransportAddress {
	return TransportAddress{Scheme: SchemeQueue}
}

// SerialAddress builds a serial:{device} address
func SerialAddress(device string) TransportAddress {
	return TransportAddress{Scheme: SchemeSerial, Target: device}
}

// IsDefaultQueue reports whether the address targets the system default queue
func (a TransportAddress) IsDefaultQueue() bool {
	return a.Scheme == SchemeQueue && a.Target == ""
}

// String renders the canonical form, which is also the lock key
func (a TransportAddress) String() string {
	if a.Scheme == SchemeTCP {
		return "tcp://" + a.Target
	}
	return string(a.Scheme) + ":" + a.Target
}

// ParseAddress is the inverse of String
func ParseAddress(s string) (TransportAddress, error) {
	if rest, ok := strings.CutPrefix(s, "tcp://"); ok {
		if _, _, err := net.SplitHostPort(rest); err != nil {
			return TransportAddress{}, fmt.Errorf("invalid tcp address %q: %w", s, err)
		}
		return TransportAddress{Scheme: SchemeTCP, Target: rest}, nil
	}
	scheme, target, ok := strings.Cut(s, ":")
	if !ok {
		return TransportAddress{}, fmt.Errorf("invalid transport address %q", s)
	}
	switch AddressScheme(scheme) {
	case SchemeQueue:
		return QueueAddress(target), nil
	case SchemeSerial:
		if target == "" {
			return TransportAddress{}, fmt.Errorf("serial address %q has no device", s)
		}
		return SerialAddress(target), nil
	}
	return TransportAddress{}, fmt.Errorf("unknown transport scheme in %q", s)
}
