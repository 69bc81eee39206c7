package printing

import "strings"

// BrandType is the printer manufacturer family, used to pick command dialects
type BrandType string

const (
	BrandEpson    BrandType = "EPSON"
	BrandStar     BrandType = "STAR"
	BrandTanca    BrandType = "TANCA"
	BrandDaruma   BrandType = "DARUMA"
	BrandBematech BrandType = "BEMATECH"
)

// IsValid checks if the BrandType is a valid value
func (b BrandType) IsValid() bool {
	switch b {
	case BrandEpson, BrandStar, BrandTanca, BrandDaruma, BrandBematech:
		return true
	}
	return false
}

// String returns the string representation of BrandType
func (b BrandType) String() string {
	return string(b)
}

// AllBrandTypes returns all valid BrandType values
func AllBrandTypes() []BrandType {
	return []BrandType{BrandEpson, BrandStar, BrandTanca, BrandDaruma, BrandBematech}
}

// ConnectionType is how the host reaches the printer
type ConnectionType string

const (
	ConnectionUSB     ConnectionType = "USB"
	ConnectionNetwork ConnectionType = "NETWORK"
	ConnectionSerial  ConnectionType = "SERIAL"
)

// IsValid checks if the ConnectionType is a valid value
func (c ConnectionType) IsValid() bool {
	switch c {
	case ConnectionUSB, ConnectionNetwork, ConnectionSerial:
		return true
	}
	return false
}

// String returns the string representation of ConnectionType
func (c ConnectionType) String() string {
	return string(c)
}

// AllConnectionTypes returns all valid ConnectionType values
func AllConnectionTypes() []ConnectionType {
	return []ConnectionType{ConnectionUSB, ConnectionNetwork, ConnectionSerial}
}

// OrderType is the service mode of a sale as sent by the POS
type OrderType string

const (
	OrderCounter  OrderType = "mostrador"
	OrderDelivery OrderType = "domicilio"
	OrderPickup   OrderType = "llevar"
)

// IsDelivery reports whether the order goes to the customer's address
func (o OrderType) IsDelivery() bool {
	return strings.EqualFold(string(o), string(OrderDelivery))
}

// Banner returns the kitchen banner for the order type. Unknown types are
// printed as sent, upper-cased.
func (o OrderType) Banner() string {
	switch OrderType(strings.ToLower(string(o))) {
	case OrderCounter, "":
		return "PARA COMER AQUÍ"
	case OrderDelivery:
		return "A DOMICILIO"
	case OrderPickup:
		return "PARA LLEVAR"
	default:
		return strings.ToUpper(string(o))
	}
}

// DocumentKind identifies which document a job prints
type DocumentKind string

const (
	DocumentTest    DocumentKind = "test"
	DocumentTicket  DocumentKind = "ticket"
	DocumentComanda DocumentKind = "comanda"
)

// String returns the string representation of DocumentKind
func (d DocumentKind) String() string {
	return string(d)
}
