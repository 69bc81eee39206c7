package discovery

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/syscmd"
	"go.uber.org/zap"
)

// getPrinterScript forces UTF-8 so accented queue names survive the console code page.
const getPrinterScript = `[Console]::OutputEncoding=[Text.Encoding]::UTF8; ` +
	`Get-Printer | Select-Object Name,DriverName,PortName | ConvertTo-Json -Compress`

// WindowsProbe asks the print spooler through PowerShell's Get-Printer
type WindowsProbe struct {
	runner syscmd.Runner
	opts   Options
}

// Platform returns "windows"
func (p *WindowsProbe) Platform() string { return "windows" }

type spoolerEntry struct {
	Name       string `json:"Name"`
	DriverName string `json:"DriverName"`
	PortName   string `json:"PortName"`
}

// ListRawPrinters runs Get-Printer and parses its JSON
func (p *WindowsProbe) ListRawPrinters(ctx context.Context) ([]printing.RawPrinter, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	res, err := p.runner.Run(ctx, syscmd.Command{
		Name: "powershell.exe",
		Args: []string{"-NoProfile", "-NonInteractive", "-Command", getPrinterScript},
	})
	if err != nil {
		return nil, discoveryError(p.Platform(), "Get-Printer", err)
	}

	printers, err := parseSpoolerJSON(res.Stdout)
	if err != nil {
		return nil, printing.NewDiscoveryError(p.Platform(), "unparsable Get-Printer output", err)
	}
	p.opts.Logger.Debug("spooler queried", zap.Int("printers", len(printers)))
	return printers, nil
}

// parseSpoolerJSON accepts what ConvertTo-Json emits: nothing for zero
// printers, a bare object for one, an array otherwise.
func parseSpoolerJSON(out []byte) ([]printing.RawPrinter, error) {
	out = bytes.TrimSpace(bytes.TrimPrefix(out, []byte("\xef\xbb\xbf")))
	if len(out) == 0 {
		return []printing.RawPrinter{}, nil
	}

	var entries []spoolerEntry
	if out[0] == '[' {
		if err := json.Unmarshal(out, &entries); err != nil {
			return nil, err
		}
	} else {
		var one spoolerEntry
		if err := json.Unmarshal(out, &one); err != nil {
			return nil, err
		}
		entries = []spoolerEntry{one}
	}

	printers := make([]printing.RawPrinter, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		printers = append(printers, printing.RawPrinter{Name: e.Name, Driver: e.DriverName, Port: e.PortName})
	}
	return printers, nil
}
