package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// Source format and layout values recognized by the loader.
const (
	FormatAuto     = "auto"
	FormatWorkbook = "workbook"
	FormatCSV      = "csv"
	FormatGSheets  = "gsheets"

	LayoutAuto   = "auto"
	LayoutLong   = "long"
	LayoutSheets = "sheets"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Source        SourceConfig        `yaml:"source" envconfig:"SOURCE"`
	KPI           KPIConfig           `yaml:"kpi" envconfig:"KPI"`
	WebSocket     WebSocketConfig     `yaml:"websocket" envconfig:"WEBSOCKET"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// SourceConfig describes where the metrics come from and how to read them.
type SourceConfig struct {
	Path   string `yaml:"path" envconfig:"PATH" default:"data/metrics.xlsx"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"auto"`
	Layout string `yaml:"layout" envconfig:"LAYOUT" default:"auto"`
	// Sheet restricts long-layout workbook reading to one named sheet.
	// Empty means the first sheet.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`

	// Google Sheets settings, used when Format is gsheets.
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	APIKey          string `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	ValueRange      string `yaml:"value_range" envconfig:"VALUE_RANGE" default:"A:E"`
}

// KPIConfig holds the per-KPI presentation and comparison settings. Both
// maps are YAML-only; envconfig cannot express them.
type KPIConfig struct {
	// Directions maps a KPI name to its comparison direction
	// (higher_is_better or lower_is_better). A KPI whose achievement must
	// be computed but has no entry here fails the load cycle; directions
	// are never inferred from KPI names.
	Directions map[string]string `yaml:"directions" ignored:"true"`

	// Overview pins one headline KPI per function on the overview pane.
	Overview map[string]string `yaml:"overview" ignored:"true"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// ObservabilityConfig contains metrics and tracing configuration
type ObservabilityConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"tfc-dashboard"`
	TraceStdout bool   `yaml:"trace_stdout" envconfig:"TRACE_STDOUT" default:"false"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("TFC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// Env vars left unset keep their envconfig defaults, so only fields the
// file actually sets and the env left at zero are taken from the file.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if fileConfig.Server.IdleTimeout != 0 {
		envConfig.Server.IdleTimeout = fileConfig.Server.IdleTimeout
	}
	if fileConfig.Server.ShutdownTimeout != 0 {
		envConfig.Server.ShutdownTimeout = fileConfig.Server.ShutdownTimeout
	}
	if fileConfig.Server.RequestTimeout != 0 {
		envConfig.Server.RequestTimeout = fileConfig.Server.RequestTimeout
	}

	if len(fileConfig.Security.AllowedOrigins) > 0 {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if fileConfig.Security.RateLimit.RPS != 0 {
		envConfig.Security.RateLimit.RPS = fileConfig.Security.RateLimit.RPS
	}
	if fileConfig.Security.RateLimit.Burst != 0 {
		envConfig.Security.RateLimit.Burst = fileConfig.Security.RateLimit.Burst
	}

	if fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Format != "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}

	if fileConfig.Source.Path != "" {
		envConfig.Source.Path = fileConfig.Source.Path
	}
	if fileConfig.Source.Format != "" {
		envConfig.Source.Format = fileConfig.Source.Format
	}
	if fileConfig.Source.Layout != "" {
		envConfig.Source.Layout = fileConfig.Source.Layout
	}
	if fileConfig.Source.Sheet != "" {
		envConfig.Source.Sheet = fileConfig.Source.Sheet
	}
	if fileConfig.Source.SpreadsheetID != "" {
		envConfig.Source.SpreadsheetID = fileConfig.Source.SpreadsheetID
	}
	if fileConfig.Source.APIKey != "" {
		envConfig.Source.APIKey = fileConfig.Source.APIKey
	}
	if fileConfig.Source.CredentialsFile != "" {
		envConfig.Source.CredentialsFile = fileConfig.Source.CredentialsFile
	}
	if fileConfig.Source.ValueRange != "" {
		envConfig.Source.ValueRange = fileConfig.Source.ValueRange
	}

	// Maps only ever come from the file.
	envConfig.KPI.Directions = fileConfig.KPI.Directions
	envConfig.KPI.Overview = fileConfig.KPI.Overview

	if fileConfig.Observability.ServiceName != "" {
		envConfig.Observability.ServiceName = fileConfig.Observability.ServiceName
	}

	return envConfig
}

// DirectionMap parses the configured KPI directions into typed values.
// Unknown direction strings are configuration errors.
func (k KPIConfig) DirectionMap() (map[string]domain.Direction, error) {
	directions := make(map[string]domain.Direction, len(k.Directions))
	for kpi, raw := range k.Directions {
		dir, ok := domain.ParseDirection(raw)
		if !ok {
			return nil, fmt.Errorf("invalid direction %q for KPI %q", raw, kpi)
		}
		directions[kpi] = dir
	}
	return directions, nil
}

// OverviewPins parses the configured overview map into typed function keys.
// When the map is empty the original dashboard's pins are used.
func (k KPIConfig) OverviewPins() (map[domain.Function]string, error) {
	if len(k.Overview) == 0 {
		return DefaultOverviewPins(), nil
	}
	pins := make(map[domain.Function]string, len(k.Overview))
	for label, kpi := range k.Overview {
		fn, ok := domain.ParseFunction(label)
		if !ok {
			return nil, fmt.Errorf("invalid function %q in overview config", label)
		}
		pins[fn] = kpi
	}
	return pins, nil
}

// DefaultOverviewPins returns the headline KPI per function shown on the
// overview pane when nothing is configured.
func DefaultOverviewPins() map[domain.Function]string {
	return map[domain.Function]string{
		domain.FunctionSales:       "ROI (%)",
		domain.FunctionSupplyChain: "Availability components (%)",
		domain.FunctionOperations:  "Production plan adherence (%)",
		domain.FunctionPurchasing:  "Delivery reliability suppliers (%)",
	}
}

// SourcePath returns the configured source path resolved to an absolute
// path where possible.
func (c *Config) SourcePath() string {
	if filepath.IsAbs(c.Source.Path) {
		return c.Source.Path
	}
	abs, err := filepath.Abs(c.Source.Path)
	if err != nil {
		return c.Source.Path
	}
	return abs
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch c.Source.Format {
	case FormatAuto, FormatWorkbook, FormatCSV, FormatGSheets:
	default:
		return fmt.Errorf("invalid source format: %q", c.Source.Format)
	}

	switch c.Source.Layout {
	case LayoutAuto, LayoutLong, LayoutSheets:
	default:
		return fmt.Errorf("invalid source layout: %q", c.Source.Layout)
	}

	if c.Source.Format == FormatGSheets && c.Source.SpreadsheetID == "" {
		return fmt.Errorf("source format gsheets requires a spreadsheet_id")
	}
	if c.Source.Format != FormatGSheets && c.Source.Path == "" {
		return fmt.Errorf("source path must not be empty")
	}

	if _, err := c.KPI.DirectionMap(); err != nil {
		return err
	}
	if _, err := c.KPI.OverviewPins(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Source: SourceConfig{
			Path:       "data/metrics.xlsx",
			Format:     FormatAuto,
			Layout:     LayoutAuto,
			ValueRange: "A:E",
		},
		KPI: KPIConfig{},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Observability: ObservabilityConfig{
			Enabled:     true,
			ServiceName: "tfc-dashboard",
		},
	}
}
