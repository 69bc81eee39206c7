package discovery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/erp/printd/internal/domain/printing"
	"github.com/erp/printd/internal/infrastructure/syscmd"
	"go.uber.org/zap"
)

var (
	deviceLine   = regexp.MustCompile(`^device for ([^:]+):\s*(\S+)\s*$`)
	makeAndModel = regexp.MustCompile(`printer-make-and-model=(?:'([^']*)'|"([^"]*)"|(\S+))`)
)

// localeC keeps lpstat output in the English form the parser expects.
var localeC = []string{"LC_ALL=C", "LANG=C"}

// CUPSProbe reads the CUPS registry with lpstat and lpoptions
type CUPSProbe struct {
	runner   syscmd.Runner
	opts     Options
	platform string
}

// Platform returns the GOOS the probe was built for
func (p *CUPSProbe) Platform() string { return p.platform }

// ListRawPrinters lists queues with `lpstat -v`, then looks up each driver
// with `lpoptions -p`. A failed driver lookup leaves the driver empty.
func (p *CUPSProbe) ListRawPrinters(ctx context.Context) ([]printing.RawPrinter, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	res, err := p.runner.Run(ctx, syscmd.Command{Name: p.opts.LPStatCommand, Args: []string{"-v"}, Env: localeC})
	if err != nil {
		var exitErr *syscmd.ExitError
		if errors.As(err, &exitErr) && strings.Contains(exitErr.Stderr, "No destinations added") {
			return []printing.RawPrinter{}, nil
		}
		return nil, discoveryError(p.platform, "lpstat -v", err)
	}

	printers, err := parseDeviceList(res.Stdout)
	if err != nil {
		return nil, printing.NewDiscoveryError(p.platform, "unparsable lpstat output", err)
	}

	for i := range printers {
		printers[i].Driver = p.driverFor(ctx, printers[i].Name)
	}
	p.opts.Logger.Debug("cups queried", zap.Int("printers", len(printers)))
	return printers, nil
}

func (p *CUPSProbe) driverFor(ctx context.Context, name string) string {
	res, err := p.runner.Run(ctx, syscmd.Command{Name: p.opts.LPOptionsCommand, Args: []string{"-p", name}, Env: localeC})
	if err != nil {
		p.opts.Logger.Debug("lpoptions failed", zap.String("printer", name), zap.Error(err))
		return ""
	}
	return parseMakeAndModel(res.Stdout)
}

// parseDeviceList parses `lpstat -v`. Lines that do not match are skipped,
// but output with content and no match at all is an error.
func parseDeviceList(out []byte) ([]printing.RawPrinter, error) {
	printers := []printing.RawPrinter{}
	var unmatched []string

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m := deviceLine.FindStringSubmatch(line)
		if m == nil {
			unmatched = append(unmatched, line)
			continue
		}
		printers = append(printers, printing.RawPrinter{
			Name: strings.TrimSpace(m[1]),
			Port: normalizeDeviceURI(m[2]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(printers) == 0 && len(unmatched) > 0 {
		return nil, fmt.Errorf("no device lines in output: %q", unmatched[0])
	}
	return printers, nil
}

func parseMakeAndModel(out []byte) string {
	m := makeAndModel.FindSubmatch(out)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if len(g) > 0 {
			return string(g)
		}
	}
	return ""
}

// normalizeDeviceURI rewrites network backends into the IP_host form the
// Windows spooler uses for TCP/IP ports, so a hostname that happens to
// contain "com" is not mistaken for a serial port.
func normalizeDeviceURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return uri
	}
	switch strings.ToLower(u.Scheme) {
	case "socket", "ipp", "ipps", "lpd", "http", "https", "dnssd":
		if host := u.Hostname(); host != "" {
			return "IP_" + host
		}
		return "IP_" + u.Opaque
	}
	return uri
}
