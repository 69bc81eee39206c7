package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all daemon configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Printer   PrinterConfig
	Ticket    TicketConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxBodySize       int64
	CORSAllowOrigins  []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// PrinterConfig holds device-facing settings shared by every job
type PrinterConfig struct {
	JobTimeout       time.Duration // bound on a whole print job, lock wait included
	DialTimeout      time.Duration
	DiscoveryTimeout time.Duration
	PaperWidth       int // characters per line at normal size
	CodePage         string
	SerialBaud       int
	LogoPath         string
	LPCommand        string
	LPStatCommand    string
	LPOptionsCommand string
}

// TicketConfig holds receipt presentation settings
type TicketConfig struct {
	Locale     string
	Currency   string
	Greeting   string
	Disclaimer string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	PrometheusEnabled bool // serve /metrics for scraping
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with PRINTD_ prefix (e.g., PRINTD_PRINTER_JOB_TIMEOUT)
// 2. config.toml in ., ./config or /etc/printd
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/printd")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return load(v)
}

// LoadFile loads configuration from an explicit file path, still honoring
// environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PRINTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Printer: PrinterConfig{
			JobTimeout:       v.GetDuration("printer.job_timeout"),
			DialTimeout:      v.GetDuration("printer.dial_timeout"),
			DiscoveryTimeout: v.GetDuration("printer.discovery_timeout"),
			PaperWidth:       v.GetInt("printer.paper_width"),
			CodePage:         v.GetString("printer.code_page"),
			SerialBaud:       v.GetInt("printer.serial_baud"),
			LogoPath:         v.GetString("printer.logo_path"),
			LPCommand:        v.GetString("printer.lp_command"),
			LPStatCommand:    v.GetString("printer.lpstat_command"),
			LPOptionsCommand: v.GetString("printer.lpoptions_command"),
		},
		Ticket: TicketConfig{
			Locale:     v.GetString("ticket.locale"),
			Currency:   v.GetString("ticket.currency"),
			Greeting:   v.GetString("ticket.greeting"),
			Disclaimer: v.GetString("ticket.disclaimer"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			PrometheusEnabled: v.GetBool("telemetry.prometheus_enabled"),
		},
	}

	// A sampling ratio of exactly zero is a legitimate setting, so only
	// default it when the key was never provided.
	if !v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = 1.0
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "printd"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "9123"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // logos travel inline as base64
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}

	if cfg.Printer.JobTimeout == 0 {
		cfg.Printer.JobTimeout = 30 * time.Second
	}
	if cfg.Printer.DialTimeout == 0 {
		cfg.Printer.DialTimeout = 3 * time.Second
	}
	if cfg.Printer.DiscoveryTimeout == 0 {
		cfg.Printer.DiscoveryTimeout = 10 * time.Second
	}
	if cfg.Printer.PaperWidth == 0 {
		cfg.Printer.PaperWidth = 48
	}
	if cfg.Printer.CodePage == "" {
		cfg.Printer.CodePage = "cp858"
	}
	if cfg.Printer.SerialBaud == 0 {
		cfg.Printer.SerialBaud = 9600
	}
	if cfg.Printer.LPCommand == "" {
		cfg.Printer.LPCommand = "lp"
	}
	if cfg.Printer.LPStatCommand == "" {
		cfg.Printer.LPStatCommand = "lpstat"
	}
	if cfg.Printer.LPOptionsCommand == "" {
		cfg.Printer.LPOptionsCommand = "lpoptions"
	}

	if cfg.Ticket.Locale == "" {
		cfg.Ticket.Locale = "es-MX"
	}
	if cfg.Ticket.Currency == "" {
		cfg.Ticket.Currency = "MXN"
	}
	if cfg.Ticket.Greeting == "" {
		cfg.Ticket.Greeting = "¡Gracias por su compra!"
	}
	if cfg.Ticket.Disclaimer == "" {
		cfg.Ticket.Disclaimer = "Este ticket no es un comprobante fiscal"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c.Printer.JobTimeout < 0 || c.Printer.DialTimeout < 0 {
		return fmt.Errorf("printer timeouts cannot be negative")
	}
	if c.Printer.PaperWidth < 24 || c.Printer.PaperWidth > 64 {
		return fmt.Errorf("printer.paper_width must be between 24 and 64 characters, got %d", c.Printer.PaperWidth)
	}
	if c.Printer.SerialBaud <= 0 {
		return fmt.Errorf("printer.serial_baud must be positive")
	}
	if c.HTTP.MaxBodySize < 0 {
		return fmt.Errorf("http.max_body_size cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.Enabled && c.Telemetry.CollectorEndpoint == "" {
		return fmt.Errorf("telemetry.collector_endpoint is required when telemetry is enabled")
	}
	return nil
}
