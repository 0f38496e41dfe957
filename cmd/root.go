// =============================================================================
// Kasir - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (kasir)
//   ├── serveCmd   (kasir serve)    operator form over HTTP
//   ├── submitCmd  (kasir submit)   one transaction from the terminal
//   ├── checkCmd   (kasir check)    verify credentials and worksheet
//   └── versionCmd (kasir version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --env-file, --verbose)
//   2. Loading the .env file and the configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doryinkbali/kasir/internal/checkout"
	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/ledger"
	"github.com/doryinkbali/kasir/internal/logging"
	"github.com/doryinkbali/kasir/internal/receipt"
	"github.com/doryinkbali/kasir/internal/validation"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is loaded into the environment before the configuration.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// Set by PersistentPreRunE for every command except version.
var (
	mainConfig *config.MainConfig
	logger     zerolog.Logger
	closeLog   func() error
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kasir",
	Short: "Kasir - point of sale for a tattoo studio",
	Long: `Kasir records tattoo studio transactions. Each submission is validated,
appended as one row to the studio's spreadsheet ledger, and turned into a
printable A5 PDF receipt.

Example Usage:
  kasir serve                          # Operator form on :8080
  kasir submit --name "John Doe" --service Medium --payment Card \
               --price 100000 --artist-share 45 --confirm
  kasir check                          # Verify ledger credentials
  kasir serve --config ./studio.yaml   # Use a custom configuration file`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
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
		"kasir.yaml",
		"Path to the configuration file (missing file means defaults)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file loaded before the configuration",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initialize loads .env, the configuration and the logger.
func initialize() error {
	if envFile != "" {
		// Variables already set in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, closeFn, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}

	mainConfig = cfg
	logger = log
	closeLog = closeFn

	logger.Debug().
		Str("config", cfgFile).
		Str("backend", cfg.Ledger.Backend).
		Str("timezone", cfg.Studio.Timezone).
		Msg("configuration loaded")

	return nil
}

// =============================================================================
// SHARED WIRING
// =============================================================================

// openLedger opens the configured ledger within the ledger timeout.
func openLedger(ctx context.Context, cfg *config.MainConfig) (ledger.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Ledger.Timeout)
	defer cancel()

	return ledger.Open(ctx, cfg.Ledger)
}

// newValidator applies the configured form rules.
func newValidator(cfg *config.MainConfig) *validation.Validator {
	return validation.NewValidator(validation.ValidationOptions{
		MinPrice: cfg.Form.MinPrice,
		Location: cfg.Studio.Location(),
	})
}

// newCheckout builds the workflow around an opened ledger.
func newCheckout(cfg *config.MainConfig, w ledger.Writer, log zerolog.Logger) *checkout.Service {
	return checkout.New(checkout.Options{
		Validator:     newValidator(cfg),
		Ledger:        w,
		Renderer:      receipt.NewPDFRenderer(receipt.StudioFromConfig(cfg.Studio), cfg.Receipt.FilePrefix),
		LedgerTimeout: cfg.Ledger.Timeout,
		Logger:        log,
	})
}

// ledgerTarget describes where rows go, for log lines and CLI output.
func ledgerTarget(cfg config.LedgerConfig) string {
	switch cfg.Backend {
	case config.BackendXLSX:
		return fmt.Sprintf("%s [%s]", cfg.WorkbookPath, cfg.Worksheet)
	default:
		name := cfg.SpreadsheetName
		if cfg.SpreadsheetID != "" {
			name = cfg.SpreadsheetID
		}
		return fmt.Sprintf("%s [%s]", name, cfg.Worksheet)
	}
}
