// =============================================================================
// Kasir - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. Values come from three layers, later layers winning:
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The YAML configuration file (kasir.yaml)
//   3. Environment variables (KASIR_*), optionally seeded from a .env file
//
// SECTIONS:
//   - studio  : Fixed metadata printed on every receipt
//   - ledger  : Where transaction rows are appended
//   - form    : Input rules (minimum price)
//   - receipt : Receipt file naming and CLI output directory
//   - server  : HTTP listener for the operator form
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	Studio  StudioConfig  `yaml:"studio"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Form    FormConfig    `yaml:"form"`
	Receipt ReceiptConfig `yaml:"receipt"`
	Server  ServerConfig  `yaml:"server"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional path that receives a copy of every log line.
	// Empty means stderr only.
	LogFile string `yaml:"log_file" env:"KASIR_LOG_FILE"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" env:"KASIR_LOG_LEVEL"`
}

// StudioConfig is the fixed studio metadata embedded in every receipt.
type StudioConfig struct {
	Name      string `yaml:"name" env:"KASIR_STUDIO_NAME"`
	Address   string `yaml:"address" env:"KASIR_STUDIO_ADDRESS"`
	Contact   string `yaml:"contact" env:"KASIR_STUDIO_CONTACT"`
	ThankYou  string `yaml:"thank_you" env:"KASIR_STUDIO_THANK_YOU"`
	Instagram string `yaml:"instagram" env:"KASIR_STUDIO_INSTAGRAM"`
	Facebook  string `yaml:"facebook" env:"KASIR_STUDIO_FACEBOOK"`

	// Timezone decides what "today" means when rejecting future dates.
	// Default: "Asia/Makassar" (Bali)
	Timezone string `yaml:"timezone" env:"KASIR_STUDIO_TIMEZONE"`
}

// =============================================================================
// LEDGER CONFIGURATION
// =============================================================================

// Ledger backends.
const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
)

// LedgerConfig selects and addresses the append-only ledger.
type LedgerConfig struct {
	// Backend is "sheets" (Google Sheets) or "xlsx" (a local workbook).
	// Default: "sheets"
	Backend string `yaml:"backend" env:"KASIR_LEDGER_BACKEND"`

	// SpreadsheetName is the document title looked up through Google Drive.
	// Ignored when SpreadsheetID is set.
	SpreadsheetName string `yaml:"spreadsheet_name" env:"KASIR_LEDGER_SPREADSHEET_NAME"`

	// SpreadsheetID addresses the document directly, skipping the Drive lookup.
	SpreadsheetID string `yaml:"spreadsheet_id" env:"KASIR_LEDGER_SPREADSHEET_ID"`

	// Worksheet is the tab that receives the rows.
	// Default: "Transaksi"
	Worksheet string `yaml:"worksheet" env:"KASIR_LEDGER_WORKSHEET"`

	// CredentialsFile is a service account JSON key on disk.
	CredentialsFile string `yaml:"credentials_file" env:"KASIR_LEDGER_CREDENTIALS_FILE"`

	// CredentialsJSON is the service account key itself. It is only read from
	// the environment so that secrets stay out of the YAML file.
	CredentialsJSON string `yaml:"-" env:"KASIR_SERVICE_ACCOUNT"`

	// WorkbookPath is the .xlsx file used by the "xlsx" backend.
	// Default: "./ledger.xlsx"
	WorkbookPath string `yaml:"workbook_path" env:"KASIR_LEDGER_WORKBOOK_PATH"`

	// Timeout bounds opening the ledger and each append.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" env:"KASIR_LEDGER_TIMEOUT"`
}

// FormConfig holds input rules that are configuration rather than code.
type FormConfig struct {
	// MinPrice is the smallest accepted price in Rupiah (inclusive).
	// Default: 50000
	MinPrice int64 `yaml:"min_price" env:"KASIR_FORM_MIN_PRICE"`
}

// ReceiptConfig controls receipt naming and where the CLI writes receipts.
type ReceiptConfig struct {
	// FilePrefix starts every receipt file name.
	// Default: "Struk"
	FilePrefix string `yaml:"file_prefix" env:"KASIR_RECEIPT_FILE_PREFIX"`

	// OutputDir is where `kasir submit` saves receipts.
	// Default: "./receipts"
	OutputDir string `yaml:"output_dir" env:"KASIR_RECEIPT_OUTPUT_DIR"`

	// DateSubdirs groups CLI receipts in YYYY/MM/DD subdirectories.
	// Default: false
	DateSubdirs bool `yaml:"date_subdirs" env:"KASIR_RECEIPT_DATE_SUBDIRS"`
}

// ServerConfig configures `kasir serve`.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr" env:"KASIR_SERVER_ADDR"`

	// CORSOrigins enables CORS on the JSON API for these origins.
	// Empty disables CORS handling.
	CORSOrigins []string `yaml:"cors_origins" env:"KASIR_SERVER_CORS_ORIGINS" envSeparator:","`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file and the environment.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is not
//     an error; defaults and environment variables are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults + environment only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Studio.Name == "" {
		config.Studio.Name = "DORY INK BALI"
	}
	if config.Studio.Address == "" {
		config.Studio.Address = "Jl. Poppies Lane II, Kuta, Bali"
	}
	if config.Studio.Contact == "" {
		config.Studio.Contact = "Whats app : 0811-3982-040"
	}
	if config.Studio.ThankYou == "" {
		config.Studio.ThankYou = "Thank you for trusting us with your art"
	}
	if config.Studio.Instagram == "" {
		config.Studio.Instagram = "Instagram: @doryinkbali"
	}
	if config.Studio.Facebook == "" {
		config.Studio.Facebook = "Facebook : Dory Ink Bali"
	}
	if config.Studio.Timezone == "" {
		config.Studio.Timezone = "Asia/Makassar"
	}

	if config.Ledger.Backend == "" {
		config.Ledger.Backend = BackendSheets
	}
	if config.Ledger.SpreadsheetName == "" {
		config.Ledger.SpreadsheetName = "Data Kasir Studio"
	}
	if config.Ledger.Worksheet == "" {
		config.Ledger.Worksheet = "Transaksi"
	}
	if config.Ledger.WorkbookPath == "" {
		config.Ledger.WorkbookPath = "./ledger.xlsx"
	}
	if config.Ledger.Timeout == 0 {
		config.Ledger.Timeout = 30 * time.Second
	}

	if config.Form.MinPrice == 0 {
		config.Form.MinPrice = 50000
	}

	if config.Receipt.FilePrefix == "" {
		config.Receipt.FilePrefix = "Struk"
	}
	if config.Receipt.OutputDir == "" {
		config.Receipt.OutputDir = "./receipts"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// validateMainConfig validates the configuration after defaults are applied.
func validateMainConfig(config *MainConfig) error {
	switch config.Ledger.Backend {
	case BackendSheets, BackendXLSX:
	default:
		return fmt.Errorf("unknown ledger backend %q (want %q or %q)",
			config.Ledger.Backend, BackendSheets, BackendXLSX)
	}

	if config.Ledger.Timeout < 0 {
		return fmt.Errorf("ledger timeout must be positive, got %s", config.Ledger.Timeout)
	}

	if config.Form.MinPrice < 1 {
		return fmt.Errorf("form min_price must be at least 1, got %d", config.Form.MinPrice)
	}

	if _, err := time.LoadLocation(config.Studio.Timezone); err != nil {
		return fmt.Errorf("studio timezone: %w", err)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.LogLevel)
	}

	return nil
}

// Location returns the studio time zone. LoadMainConfig has already checked it.
func (s StudioConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
