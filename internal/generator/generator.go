// =============================================================================
// INVOIC EDIFACT Generator - Generator Module
// =============================================================================
//
// This module orchestrates message generation for a list of invoice numbers.
// It holds no business logic of its own: every rule lives in the edifact
// builder.
//
// GENERATION PIPELINE (per invoice):
//   1. Fetch the invoice from the repository
//   2. Check it against the reference tables (warnings only)
//   3. Build the INVOIC message
//   4. Render it to text
//   5. Write the output file
//   6. Archive the output file
//
// CONCURRENCY:
//   Invoices are processed by at most MaxConcurrency goroutines. The
//   reference snapshot is loaded once before the fan-out and shared
//   read-only. Results come back in the order of the input numbers.
//
// FAILURES:
//   - Invoice not found: logged, skipped, the run continues
//   - Any other failure: recorded in the Result; the run stops early only
//     when ContinueOnError is false
//   - Reference tables cannot be loaded: the run is aborted
//
// =============================================================================

package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/edifact"
	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/ginjaninja78/invoic-edifact/internal/reference"
	"github.com/ginjaninja78/invoic-edifact/internal/store"
	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"github.com/ginjaninja78/invoic-edifact/internal/validation"
	"github.com/ginjaninja78/invoic-edifact/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single invoice.
type Result struct {
	// InvoiceNumber is the transaction number that was requested.
	InvoiceNumber string

	// OutputFile is the path to the generated file.
	// This is empty for dry runs and failures.
	OutputFile string

	// ArchivePath is the archived copy, if archiving is enabled.
	ArchivePath string

	// Content is the rendered message. Set on success, including dry runs.
	Content string

	// Success indicates whether a message was produced.
	Success bool

	// Skipped is true when the invoice was not found.
	Skipped bool

	// Error contains the error if processing failed or was skipped.
	Error error

	// Warnings are the non-fatal findings of the invoice checks.
	Warnings []*validation.ValidationError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	DetailLines     int
	ContainerGroups int
	Segments        int
	ProcessingTime  time.Duration
}

// =============================================================================
// GENERATOR STRUCTURE
// =============================================================================

// Options tune a generation run.
type Options struct {
	// MaxConcurrency bounds the number of invoices processed at once.
	// Values below 1 mean 1.
	MaxConcurrency int

	// ContinueOnError keeps going after a failed invoice.
	ContinueOnError bool

	// DryRun renders messages without writing files.
	DryRun bool

	// Debug logs every detail line of each fetched invoice.
	Debug bool
}

// Generator turns invoice numbers into INVOIC files.
type Generator struct {
	repo   InvoiceRepository
	refs   ReferenceSource
	party  types.PartyConfig
	files  *utils.FileManager
	opts   Options
	logger logging.Logger

	now      func() time.Time
	onResult func(Result)
}

// New creates a new Generator.
func New(repo InvoiceRepository, refs ReferenceSource, party types.PartyConfig, files *utils.FileManager, opts Options, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard{}
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	return &Generator{
		repo:   repo,
		refs:   refs,
		party:  party,
		files:  files,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for message dates and file names.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// OnResult registers a callback invoked once per finished invoice. It may be
// called from several goroutines at once.
func (g *Generator) OnResult(fn func(Result)) *Generator {
	g.onResult = fn
	return g
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run processes every invoice number and returns one Result per number, in
// input order. A repeated number is processed once and logged; it would
// otherwise write the same output file twice. The error is non-nil when the reference tables cannot be
// loaded, or when an invoice failed and ContinueOnError is false.
func (g *Generator) Run(ctx context.Context, numbers []string) ([]Result, error) {
	snapshot, err := g.refs.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	numbers = g.unique(numbers)
	results := make([]Result, len(numbers))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.MaxConcurrency)

	for i, number := range numbers {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i] = Result{InvoiceNumber: number, Error: err}
				return nil
			}

			r := g.process(egCtx, snapshot, number)
			results[i] = r
			if g.onResult != nil {
				g.onResult(r)
			}

			if !r.Success && !r.Skipped && !g.opts.ContinueOnError {
				return fmt.Errorf("invoice %s: %w", number, r.Error)
			}
			return nil
		})
	}

	return results, eg.Wait()
}

// unique drops repeated invoice numbers, keeping the first occurrence.
func (g *Generator) unique(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if seen[n] {
			g.logger.Warn("Invoice %s requested more than once, processing it once", n)
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// process runs the pipeline for one invoice.
func (g *Generator) process(ctx context.Context, snapshot *reference.Snapshot, number string) Result {
	start := time.Now()
	result := Result{InvoiceNumber: number}

	// =========================================================================
	// STEP 1: FETCH INVOICE
	// =========================================================================

	g.logger.Info("Processing invoice: %s", number)

	inv, err := g.repo.GetInvoice(ctx, number)
	if inv == nil && err == nil {
		err = fmt.Errorf("%w: %s", store.ErrInvoiceNotFound, number)
	}
	if errors.Is(err, store.ErrInvoiceNotFound) {
		g.logger.Warn("Invoice %s not found, skipping", number)
		result.Skipped = true
		result.Error = err
		return result
	}
	if err != nil {
		g.logger.Error("Failed to load invoice %s: %v", number, err)
		result.Error = fmt.Errorf("failed to load invoice: %w", err)
		return result
	}

	result.Stats.DetailLines = len(inv.Details)
	g.logger.Info("Found invoice %s with %d details", number, len(inv.Details))

	if g.opts.Debug {
		for _, d := range inv.Details {
			g.logger.Debug("Detail %d: charge=%s amount=%s vat=%s container=%s size=%s qty=%d",
				d.ID, d.ChargeCode, d.Amount.String(), d.VatRate.String(), d.ContainerNo, d.ContainerSize, d.Quantity)
		}
	}

	// =========================================================================
	// STEP 2: CHECK INVOICE
	// =========================================================================

	result.Warnings = validation.NewValidator(snapshot.Charges, snapshot.Sizes).Validate(*inv)
	for _, w := range result.Warnings {
		g.logger.Warn("Validation warning: %s", w.Error())
	}

	// =========================================================================
	// STEP 3-4: BUILD AND RENDER
	// =========================================================================

	now := g.now()
	msg := edifact.BuildMessage(*inv, snapshot.Charges, snapshot.Sizes, g.party, now)
	result.Content = msg.String()
	result.Stats.Segments = len(msg.Segments)
	result.Stats.ContainerGroups = msg.ContainerGroups

	g.logger.Debug("Built message %s with %d segments, total %s",
		msg.Reference, len(msg.Segments), edifact.FormatDecimal(msg.Totals.Grand))

	if g.opts.DryRun {
		g.logger.Info("Dry run, not writing invoice %s", number)
		result.Success = true
		result.Stats.ProcessingTime = time.Since(start)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := g.files.WriteOutput(number, result.Content, now)
	if err != nil {
		g.logger.Error("Failed to write invoice %s: %v", number, err)
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	result.OutputFile = outputPath
	g.logger.Info("Generated EDIFACT file: %s", outputPath)

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	archivePath, err := g.files.ArchiveOutputFile(outputPath, now)
	if err != nil {
		// Log the error but don't fail the processing.
		g.logger.Warn("Failed to archive %s: %v", outputPath, err)
	}
	result.ArchivePath = archivePath

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)

	return result
}
