// =============================================================================
// INVOIC EDIFACT Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (invoic)
//   ├── generateCmd (invoic generate <invoice-number>...)
//   ├── validateCmd (invoic validate)
//   └── versionCmd  (invoic version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --env-file, --verbose)
//   2. Loading the .env file before any configuration is read
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ginjaninja78/invoic-edifact/internal/config"
	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to the optional .env file.
var envFile string

// verbose forces debug logging.
var verbose bool

// senderID is the UNB sender identification override.
var senderID string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "invoic",
	Short: "INVOIC EDIFACT Generator - Turn stored invoices into EDIFACT INVOIC D.01B files",
	Long: `The INVOIC EDIFACT Generator reads invoices from the invoice store and
writes one EDIFACT INVOIC D.01B message per invoice.

Key Features:
  - Charge code and container size mapping tables (JSON, YAML or XLSX)
  - PostgreSQL invoice store, or a CSV export for offline runs
  - Non-fatal invoice checks with an error log
  - Concurrent generation with a processing summary

Example Usage:
  invoic generate INV-2025-001 INV-2025-002   # Generate two messages
  invoic generate --dry-run INV-2025-001      # Print instead of writing
  invoic validate                             # Check configuration and mapping tables`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file with secrets such as "+config.DSNEnvVar,
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().StringVar(
		&senderID,
		"sender-id",
		config.DefaultSenderIdentification,
		"UNB sender identification, overrides the configuration file",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadEnvFile loads path into the environment. A missing file is fine;
// variables already set are not overwritten.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadConfig loads the main configuration with the sender override.
func loadConfig() (*config.MainConfig, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	return mainConfig, nil
}

// newLogger builds the console/file logger for mainConfig.
func newLogger(mainConfig *config.MainConfig) (*logging.StdLogger, error) {
	level := logging.ParseLevel(mainConfig.LogLevel)
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewFile(mainConfig.LogFile, level)
}
