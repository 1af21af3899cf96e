// =============================================================================
// INVOIC EDIFACT Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the main
// configuration file (config.yaml). It covers:
//   - Output location and file naming
//   - Logging
//   - Invoice store connection
//   - Reference table locations
//   - Trading partner identity (the "edifact" section)
//
// SECRETS:
//   The database DSN can be kept out of the YAML file. INVOIC_DATABASE_DSN
//   (from the environment or a .env file loaded by the CLI) overrides it.
//
// SENDER OVERRIDE:
//   The UNB sender identification is always replaced by the override passed
//   to LoadMainConfig, whatever the YAML says.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultSenderIdentification is the UNB sender used by the CLI unless
// --sender-id says otherwise.
const DefaultSenderIdentification = "KYBREC_TEST"

// DSNEnvVar overrides database.dsn when set.
const DSNEnvVar = "INVOIC_DATABASE_DSN"

// ErrMissingPartySection is returned when the edifact section is absent.
var ErrMissingPartySection = errors.New("edifact settings missing in configuration")

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where generated .edi files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputArchiveDir receives a copy of every generated file.
	// Empty disables archiving.
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveByDate stores archive copies under YYYY/MM/DD subdirectories.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// FilePrefix starts every output file name:
	//   {prefix}_{yyyyMMddHHmmss}_{invoice number}.edi
	// Default: "INVOICE_KYBREC"
	FilePrefix string `yaml:"file_prefix"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is appended to in addition to the console. Empty logs to the
	// console only.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the number of invoices processed at once.
	// Default: 1
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing the remaining invoices after a
	// failure. Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	Database  DatabaseConfig  `yaml:"database"`
	Reference ReferenceConfig `yaml:"reference"`

	// Edifact is the trading partner identity. Required.
	Edifact *types.PartyConfig `yaml:"edifact"`
}

// DatabaseConfig locates the invoice store.
type DatabaseConfig struct {
	// DSN is a lib/pq connection string.
	DSN string `yaml:"dsn"`

	// QueryFile holds the invoice query, as plain SQL or as JSON
	// {"InvoiceQuery": "..."}.
	// Default: "./queries/invoice_query.sql"
	QueryFile string `yaml:"query_file"`

	// Timeout bounds one invoice query. Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ReferenceConfig locates the mapping tables.
type ReferenceConfig struct {
	// Default: "./data/ChargeCodeMappings.json"
	ChargeCodeFile string `yaml:"charge_code_file"`

	// Default: "./data/ContainerSizeMappings.json"
	ContainerSizeFile string `yaml:"container_size_file"`
}

// ShouldContinueOnError reports the effective continue_on_error value.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// Party returns the trading partner identity.
func (c *MainConfig) Party() types.PartyConfig {
	if c.Edifact == nil {
		return types.PartyConfig{}
	}
	return *c.Edifact
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - senderOverride: The UNB sender identification. Applied after the file
//     is bound; must not be empty.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath, senderOverride string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseMainConfig(data, senderOverride)
}

// ParseMainConfig is LoadMainConfig for in-memory YAML.
func ParseMainConfig(data []byte, senderOverride string) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if senderOverride == "" {
		return nil, fmt.Errorf("invalid configuration: sender identification override is required")
	}
	if config.Edifact == nil {
		return nil, fmt.Errorf("invalid configuration: %w", ErrMissingPartySection)
	}
	config.Edifact.SenderIdentification = senderOverride

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *MainConfig) {
	if dsn, ok := os.LookupEnv(DSNEnvVar); ok && dsn != "" {
		config.Database.DSN = dsn
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.FilePrefix == "" {
		config.FilePrefix = "INVOICE_KYBREC"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	if config.Database.QueryFile == "" {
		config.Database.QueryFile = "./queries/invoice_query.sql"
	}
	if config.Database.Timeout <= 0 {
		config.Database.Timeout = 30 * time.Second
	}
	if config.Reference.ChargeCodeFile == "" {
		config.Reference.ChargeCodeFile = "./data/ChargeCodeMappings.json"
	}
	if config.Reference.ContainerSizeFile == "" {
		config.Reference.ContainerSizeFile = "./data/ContainerSizeMappings.json"
	}

	p := config.Edifact
	if p.ReceiverIdentification == "" {
		p.ReceiverIdentification = "KIK"
	}
	if p.SellerPartyID == "" {
		p.SellerPartyID = "DEDTM01"
	}
}

// validateMainConfig checks the party identity.
func validateMainConfig(config *MainConfig) error {
	p := config.Edifact
	if p.SenderCompanyName == "" {
		return fmt.Errorf("edifact.sender_company_name is required")
	}
	if p.ReceiverCompanyName == "" {
		return fmt.Errorf("edifact.receiver_company_name is required")
	}
	return nil
}
