// =============================================================================
// INVOIC EDIFACT Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool.
//
// COMMAND USAGE:
//   invoic generate <invoice-number>... [flags]
//
// FLAGS:
//   --dry-run     : Print the messages instead of writing files
//   --debug       : Log every detail line of each invoice
//   --sender-id   : UNB sender identification (persistent, default KYBREC_TEST)
//   --csv         : Read invoices from a CSV export instead of PostgreSQL
//   --output-dir  : Override output_dir from the configuration
//
// PROCESSING PIPELINE:
//   1. Load configuration (with the sender override)
//   2. Open the invoice store
//   3. Load the reference tables
//   4. Generate one message per invoice number (concurrently)
//   5. Write the error log and the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/config"
	"github.com/ginjaninja78/invoic-edifact/internal/generator"
	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/ginjaninja78/invoic-edifact/internal/reference"
	"github.com/ginjaninja78/invoic-edifact/internal/store"
	"github.com/ginjaninja78/invoic-edifact/internal/validation"
	"github.com/ginjaninja78/invoic-edifact/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun    bool
	debugMode bool
	csvFile   string
	csvComma  string
	outputDir string
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate <invoice-number>...",
	Short: "Generate EDIFACT INVOIC files for the given invoice numbers",
	Long: `The generate command fetches each invoice from the invoice store, builds
its EDIFACT INVOIC D.01B message and writes it to the output directory as

  {file_prefix}_{yyyyMMddHHmmss}_{invoice number}.edi

Invoices that cannot be found are logged and skipped. Other failures are
recorded in an error log; processing continues unless continue_on_error is
false in the configuration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Print the generated messages without writing output files",
	)

	generateCmd.Flags().BoolVar(
		&debugMode,
		"debug",
		false,
		"Log every detail line of each invoice",
	)

	generateCmd.Flags().StringVar(
		&csvFile,
		"csv",
		"",
		"Read invoices from a CSV export of the invoice query instead of PostgreSQL",
	)

	generateCmd.Flags().StringVar(
		&csvComma,
		"csv-delimiter",
		",",
		"Field delimiter of the CSV export",
	)

	generateCmd.Flags().StringVar(
		&outputDir,
		"output-dir",
		"",
		"Override output_dir from the configuration",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(ctx context.Context, numbers []string) error {
	startTime := time.Now()
	runID := utils.NewRunID()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadConfig()
	if err != nil {
		return err
	}
	if outputDir != "" {
		mainConfig.OutputDir = outputDir
	}

	logger, err := newLogger(mainConfig)
	if err != nil {
		return err
	}
	defer logger.Close()

	if debugMode {
		logger.SetLevel(logging.LevelDebug)
	}

	logger.Info("=== INVOIC EDIFACT Generator (run %s) ===", runID)
	logger.Info("Sender identification: %s", mainConfig.Party().SenderIdentification)

	files := utils.NewFileManager(mainConfig.OutputDir, mainConfig.OutputArchiveDir, mainConfig.FilePrefix)
	files.UseTimestampSubdirs = mainConfig.ArchiveByDate
	if !dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: OPEN INVOICE STORE
	// =========================================================================

	repo, closeRepo, err := openRepository(ctx, mainConfig, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	// =========================================================================
	// STEP 3-4: GENERATE
	// =========================================================================

	refs := reference.NewProvider(mainConfig.Reference.ChargeCodeFile, mainConfig.Reference.ContainerSizeFile, logger)

	bar := progressbar.NewOptions(len(numbers),
		progressbar.OptionSetDescription("Generating invoices"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	gen := generator.New(repo, refs, mainConfig.Party(), files, generator.Options{
		MaxConcurrency:  mainConfig.MaxConcurrency,
		ContinueOnError: mainConfig.ShouldContinueOnError(),
		DryRun:          dryRun,
		Debug:           debugMode,
	}, logger).OnResult(func(generator.Result) { bar.Add(1) })

	results, runErr := gen.Run(ctx, numbers)
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if dryRun {
		for _, r := range results {
			if r.Success {
				fmt.Printf("--- %s ---\n%s\n", r.InvoiceNumber, r.Content)
				fmt.Fprintf(os.Stderr, "%s: %s\n", r.InvoiceNumber, validation.FormatErrors(r.Warnings))
			}
		}
	}

	// =========================================================================
	// STEP 5: REPORTS
	// =========================================================================

	endTime := time.Now()
	summary := generator.Summarize(runID, startTime, endTime, dryRun, results)

	if !dryRun && results != nil {
		if logPath, err := utils.WriteErrorLog(generator.ErrorLogEntries(results, endTime), mainConfig.OutputDir); err != nil {
			logger.Warn("Failed to write error log: %v", err)
		} else if logPath != "" {
			logger.Info("Error log written to: %s", logPath)
		}

		if summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
			logger.Warn("Failed to write summary: %v", err)
		} else {
			logger.Info("Summary written to: %s", summaryPath)
		}
	}

	logger.Info("Done: %d generated, %d skipped, %d failed in %s",
		summary.SuccessfulInvoices, summary.SkippedInvoices, summary.FailedInvoices, endTime.Sub(startTime))

	if runErr != nil {
		return runErr
	}
	if summary.FailedInvoices > 0 {
		return fmt.Errorf("%d invoice(s) failed", summary.FailedInvoices)
	}
	return nil
}

// openRepository returns the CSV export repository when --csv is set and
// the PostgreSQL repository otherwise.
func openRepository(ctx context.Context, mainConfig *config.MainConfig, logger logging.Logger) (generator.InvoiceRepository, func(), error) {
	if csvFile != "" {
		comma := ','
		if r := []rune(csvComma); len(r) == 1 {
			comma = r[0]
		} else if csvComma != "" {
			return nil, nil, fmt.Errorf("--csv-delimiter must be a single character")
		}
		logger.Info("Reading invoices from CSV export: %s", csvFile)
		return store.NewCSVRepository(csvFile, comma, logger), func() {}, nil
	}

	query, err := store.LoadQuery(mainConfig.Database.QueryFile)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.OpenPostgres(ctx, mainConfig.Database.DSN)
	if err != nil {
		return nil, nil, err
	}

	repo := store.NewPostgresRepository(db, query, mainConfig.Database.Timeout, logger)
	return repo, func() { repo.Close() }, nil
}
