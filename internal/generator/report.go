package generator

import (
	"time"

	"github.com/ginjaninja78/invoic-edifact/pkg/utils"
)

// Error types used in error logs and summaries.
const (
	ErrorTypeNotFound = "not_found"
	ErrorTypeFailed   = "failed"
	ErrorTypeWarning  = "validation_warning"
)

// Summarize folds run results into a processing summary.
func Summarize(runID string, start, end time.Time, dryRun bool, results []Result) utils.ProcessingSummary {
	s := utils.ProcessingSummary{
		RunID:         runID,
		StartTime:     start,
		EndTime:       end,
		DryRun:        dryRun,
		TotalInvoices: len(results),
	}

	for _, r := range results {
		s.ValidationWarnings += len(r.Warnings)

		switch {
		case r.Success:
			s.SuccessfulInvoices++
			s.ProcessedInvoices = append(s.ProcessedInvoices, utils.ProcessedInvoiceInfo{
				InvoiceNumber: r.InvoiceNumber,
				OutputFile:    r.OutputFile,
				ArchivePath:   r.ArchivePath,
				Segments:      r.Stats.Segments,
				ProcessTime:   r.Stats.ProcessingTime,
			})
		case r.Skipped:
			s.SkippedInvoices++
			s.FailedInvoicesList = append(s.FailedInvoicesList, failedInfo(r, ErrorTypeNotFound))
		default:
			s.FailedInvoices++
			s.FailedInvoicesList = append(s.FailedInvoicesList, failedInfo(r, ErrorTypeFailed))
		}
	}

	return s
}

func failedInfo(r Result, errorType string) utils.FailedInvoiceInfo {
	info := utils.FailedInvoiceInfo{InvoiceNumber: r.InvoiceNumber, ErrorType: errorType}
	if r.Error != nil {
		info.ErrorMessage = r.Error.Error()
	}
	return info
}

// ErrorLogEntries lists failures, skips and validation warnings of a run.
func ErrorLogEntries(results []Result, at time.Time) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry

	for _, r := range results {
		if r.Error != nil {
			errorType := ErrorTypeFailed
			if r.Skipped {
				errorType = ErrorTypeNotFound
			}
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:     at,
				InvoiceNumber: r.InvoiceNumber,
				ErrorType:     errorType,
				ErrorMessage:  r.Error.Error(),
			})
		}

		for _, w := range r.Warnings {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:     at,
				InvoiceNumber: r.InvoiceNumber,
				ErrorType:     ErrorTypeWarning,
				ErrorMessage:  w.Message,
				FieldName:     w.Field,
				FieldValue:    w.Value,
				DetailID:      w.DetailID,
			})
		}
	}

	return entries
}
