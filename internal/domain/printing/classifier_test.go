package printing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawPrinter
		brand   BrandType
		conn    ConnectionType
		thermal bool
	}{
		{
			name:    "epson on usb",
			raw:     RawPrinter{Name: "EPSON TM-T20II Receipt", Driver: "EPSON TM-T20II", Port: "USB001"},
			brand:   BrandEpson,
			conn:    ConnectionUSB,
			thermal: true,
		},
		{
			name:    "star over tcp",
			raw:     RawPrinter{Name: "Caja 2", Driver: "Star TSP100 Cutter", Port: "IP_192.168.1.40"},
			brand:   BrandStar,
			conn:    ConnectionNetwork,
			thermal: true,
		},
		{
			name:    "bematech on serial",
			raw:     RawPrinter{Name: "MP-4200", Driver: "Bematech MP-4200 TH", Port: "COM3:"},
			brand:   BrandBematech,
			conn:    ConnectionSerial,
			thermal: true,
		},
		{
			name:    "daruma",
			raw:     RawPrinter{Name: "DR800", Driver: "Daruma DR800", Port: "serial0"},
			brand:   BrandDaruma,
			conn:    ConnectionSerial,
			thermal: true,
		},
		{
			name:    "tanca",
			raw:     RawPrinter{Name: "Tanca TP-650", Port: "tcp://10.0.0.5"},
			brand:   BrandTanca,
			conn:    ConnectionNetwork,
			thermal: true,
		},
		{
			name:    "office laser defaults",
			raw:     RawPrinter{Name: "HP LaserJet 1020", Driver: "HP LaserJet 1020", Port: "LPT1:"},
			brand:   BrandEpson,
			conn:    ConnectionUSB,
			thermal: false,
		},
		{
			name:    "usb wins over com",
			raw:     RawPrinter{Name: "Kitchen", Port: "usb://comanda"},
			brand:   BrandEpson,
			conn:    ConnectionUSB,
			thermal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.raw)
			assert.Equal(t, tt.raw.Name, d.Name)
			assert.Equal(t, tt.brand, d.BrandType)
			assert.Equal(t, tt.conn, d.ConnectionType)
			assert.Equal(t, tt.thermal, d.IsThermal)
			assert.Equal(t, tt.raw.Port, d.PortName)
			assert.Equal(t, tt.raw.Driver, d.DriverName)
		})
	}
}

func TestClassify_DisplayName(t *testing.T) {
	assert.Equal(t, "Caja (Star TSP100)", Classify(RawPrinter{Name: "Caja", Driver: "Star TSP100"}).DisplayName)
	assert.Equal(t, "Caja", Classify(RawPrinter{Name: "Caja"}).DisplayName)
}

func TestIsThermalName_EveryKeyword(t *testing.T) {
	for _, kw := range thermalKeywords {
		assert.True(t, IsThermalName("Printer "+strings.ToUpper(kw), ""), kw)
		assert.True(t, IsThermalName("Printer", "drv-"+kw), kw)
	}
	assert.False(t, IsThermalName("HP LaserJet", "HP Universal"))
	assert.False(t, IsThermalName("Brother HL-L2350DW", "Brother Laser"))
}

func TestClassifyAll_StableThermalFirst(t *testing.T) {
	raws := []RawPrinter{
		{Name: "HP LaserJet"},
		{Name: "EPSON TM-T88"},
		{Name: "Microsoft Print to PDF"},
		{Name: "Star TSP650"},
		{Name: "Fax"},
		{Name: "Kitchen Bar"},
	}

	got := ClassifyAll(raws)
	require.Len(t, got, len(raws))

	names := make([]string, len(got))
	for i, d := range got {
		names[i] = d.Name
	}
	assert.Equal(t, []string{
		"EPSON TM-T88", "Star TSP650", "Kitchen Bar",
		"HP LaserJet", "Microsoft Print to PDF", "Fax",
	}, names)

	lastThermal := -1
	for i, d := range got {
		if d.IsThermal {
			lastThermal = i
		}
	}
	for i := 0; i <= lastThermal; i++ {
		assert.True(t, got[i].IsThermal)
	}
}

func TestClassifyAll_Empty(t *testing.T) {
	assert.Empty(t, ClassifyAll(nil))
}
