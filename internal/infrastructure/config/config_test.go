package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "printd", cfg.App.Name)
	assert.Equal(t, "9123", cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Printer.JobTimeout)
	assert.Equal(t, 3*time.Second, cfg.Printer.DialTimeout)
	assert.Equal(t, 48, cfg.Printer.PaperWidth)
	assert.Equal(t, "cp858", cfg.Printer.CodePage)
	assert.Equal(t, 9600, cfg.Printer.SerialBaud)
	assert.Equal(t, "lpoptions", cfg.Printer.LPOptionsCommand)
	assert.Equal(t, "es-MX", cfg.Ticket.Locale)
	assert.Equal(t, "MXN", cfg.Ticket.Currency)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowOrigins)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "printd", cfg.Telemetry.ServiceName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRINTD_APP_PORT", "9999")
	t.Setenv("PRINTD_PRINTER_JOB_TIMEOUT", "5s")
	t.Setenv("PRINTD_PRINTER_PAPER_WIDTH", "32")
	t.Setenv("PRINTD_TICKET_LOCALE", "es-ES")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, 5*time.Second, cfg.Printer.JobTimeout)
	assert.Equal(t, 32, cfg.Printer.PaperWidth)
	assert.Equal(t, "es-ES", cfg.Ticket.Locale)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printd.toml")
	content := `
[app]
port = "8088"

[printer]
dial_timeout = "1s"
serial_baud = 19200
logo_path = "/opt/logo.png"
lpoptions_command = "/usr/local/bin/lpoptions"

[ticket]
greeting = "Vuelva pronto"

[telemetry]
sampling_ratio = 0.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.App.Port)
	assert.Equal(t, time.Second, cfg.Printer.DialTimeout)
	assert.Equal(t, 19200, cfg.Printer.SerialBaud)
	assert.Equal(t, "/opt/logo.png", cfg.Printer.LogoPath)
	assert.Equal(t, "/usr/local/bin/lpoptions", cfg.Printer.LPOptionsCommand)
	assert.Equal(t, "Vuelva pronto", cfg.Ticket.Greeting)
	assert.Equal(t, 0.0, cfg.Telemetry.SamplingRatio)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Telemetry.SamplingRatio = 1
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "negative job timeout", mutate: func(c *Config) { c.Printer.JobTimeout = -time.Second }, wantErr: "timeouts"},
		{name: "paper too narrow", mutate: func(c *Config) { c.Printer.PaperWidth = 10 }, wantErr: "paper_width"},
		{name: "bad sampling ratio", mutate: func(c *Config) { c.Telemetry.SamplingRatio = 2 }, wantErr: "sampling_ratio"},
		{
			name:    "telemetry without endpoint",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true },
			wantErr: "collector_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
