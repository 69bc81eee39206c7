// Package printing contains the receipt printing domain.
//
// It models the printers a host can see, the per-request printer
// configuration sent by the POS front-end, the sale document to print and the
// device-independent operation stream (RenderOp) a renderer produces. The
// classifier and transport resolver live here because they are pure rules
// over these types; everything that touches the operating system or a device
// lives in infrastructure.
package printing
