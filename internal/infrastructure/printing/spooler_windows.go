//go:build windows

package printing

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/erp/printd/internal/infrastructure/syscmd"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	winspool = windows.NewLazySystemDLL("winspool.drv")

	procOpenPrinter       = winspool.NewProc("OpenPrinterW")
	procClosePrinter      = winspool.NewProc("ClosePrinter")
	procStartDocPrinter   = winspool.NewProc("StartDocPrinterW")
	procEndDocPrinter     = winspool.NewProc("EndDocPrinter")
	procStartPagePrinter  = winspool.NewProc("StartPagePrinter")
	procEndPagePrinter    = winspool.NewProc("EndPagePrinter")
	procWritePrinter      = winspool.NewProc("WritePrinter")
	procGetDefaultPrinter = winspool.NewProc("GetDefaultPrinterW")
)

// docInfo1 mirrors DOC_INFO_1W
type docInfo1 struct {
	DocName    *uint16
	OutputFile *uint16
	Datatype   *uint16
}

// winSpooler writes RAW jobs through the Windows print spooler API
type winSpooler struct {
	logger *zap.Logger
}

func newSpooler(_ TransportSettings, _ syscmd.Runner, logger *zap.Logger) spooler {
	return &winSpooler{logger: logger}
}

// Available succeeds when the spooler can open the queue
func (s *winSpooler) Available(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := openPrinter(name)
	if err != nil {
		return err
	}
	closePrinter(h)
	return nil
}

// Submit sends data as one RAW document with a single page
func (s *winSpooler) Submit(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty job")
	}
	h, err := openPrinter(name)
	if err != nil {
		return err
	}
	defer closePrinter(h)

	docName, _ := windows.UTF16PtrFromString("printd")
	datatype, _ := windows.UTF16PtrFromString("RAW")
	doc := docInfo1{DocName: docName, Datatype: datatype}

	job, _, callErr := procStartDocPrinter.Call(uintptr(h), 1, uintptr(unsafe.Pointer(&doc)))
	if job == 0 {
		return fmt.Errorf("StartDocPrinter: %w", callErr)
	}
	defer procEndDocPrinter.Call(uintptr(h))

	if r, _, callErr := procStartPagePrinter.Call(uintptr(h)); r == 0 {
		return fmt.Errorf("StartPagePrinter: %w", callErr)
	}
	defer procEndPagePrinter.Call(uintptr(h))

	var written uint32
	r, _, callErr := procWritePrinter.Call(uintptr(h),
		uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)),
		uintptr(unsafe.Pointer(&written)))
	if r == 0 {
		return fmt.Errorf("WritePrinter: %w", callErr)
	}
	if int(written) != len(data) {
		return fmt.Errorf("WritePrinter: short write %d of %d bytes", written, len(data))
	}
	s.logger.Debug("raw job submitted", zap.String("queue", name), zap.Uintptr("job", job), zap.Int("bytes", len(data)))
	return nil
}

// openPrinter opens name, or the default printer when name is empty
func openPrinter(name string) (windows.Handle, error) {
	if name == "" {
		def, err := defaultPrinter()
		if err != nil {
			return 0, err
		}
		name = def
	}
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	var h windows.Handle
	r, _, callErr := procOpenPrinter.Call(uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(&h)), 0)
	if r == 0 {
		return 0, fmt.Errorf("OpenPrinter %q: %w", name, callErr)
	}
	return h, nil
}

func closePrinter(h windows.Handle) {
	procClosePrinter.Call(uintptr(h))
}

func defaultPrinter() (string, error) {
	var n uint32
	procGetDefaultPrinter.Call(0, uintptr(unsafe.Pointer(&n)))
	if n == 0 {
		return "", errors.New("no default printer configured")
	}
	buf := make([]uint16, n)
	r, _, callErr := procGetDefaultPrinter.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&n)))
	if r == 0 {
		return "", fmt.Errorf("GetDefaultPrinter: %w", callErr)
	}
	return windows.UTF16ToString(buf), nil
}
