// =============================================================================
// INVOIC EDIFACT Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Output file naming
//   - Writing generated messages
//   - Archival of generated messages
//   - Error log and processing summary generation
//   - Directory management
//
// OUTPUT NAMING:
//   {prefix}_{yyyyMMddHHmmss}_{invoice number}.edi
//
// ARCHIVAL STRATEGY:
//   - Output files are copied to the output archive for long-term storage
//   - Archive copies can be sorted into YYYY/MM/DD subdirectories
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutputExtension is the extension of generated message files.
const OutputExtension = ".edi"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generator.
type FileManager struct {
	// OutputDir is the directory where generated messages are placed.
	OutputDir string

	// OutputArchiveDir is the directory for archived messages.
	// Empty disables archiving.
	OutputArchiveDir string

	// FilePrefix starts every output file name.
	FilePrefix string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: output_archive/2024/01/15/file.edi
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager.
func NewFileManager(outputDir, outputArchiveDir, filePrefix string) *FileManager {
	return &FileManager{
		OutputDir:        outputDir,
		OutputArchiveDir: outputArchiveDir,
		FilePrefix:       filePrefix,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output and archive directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.OutputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")

// OutputFileName returns the file name for one invoice's message.
//
// EXAMPLE:
//   prefix: "INVOICE_KYBREC", number: "INV-1", now: 2025-04-15 09:07:03
//   output: "INVOICE_KYBREC_20250415090703_INV-1.edi"
func OutputFileName(prefix, invoiceNumber string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s%s",
		prefix,
		now.Format("20060102150405"),
		unsafeNameChars.Replace(invoiceNumber),
		OutputExtension)
}

// WriteOutput writes a generated message into the output directory.
//
// RETURNS:
//   - The path to the written file.
//   - An error if writing fails.
func (fm *FileManager) WriteOutput(invoiceNumber, content string, now time.Time) (string, error) {
	outputPath := filepath.Join(fm.OutputDir, OutputFileName(fm.FilePrefix, invoiceNumber, now))

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

// ArchiveOutputFile copies an output file to the archive directory.
// It is a no-op returning "" when no archive directory is configured.
//
// NOTE: Output files are copied, not moved, so they remain in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string, now time.Time) (string, error) {
	if fm.OutputArchiveDir == "" {
		return "", nil
	}

	archivePath := fm.getArchivePath(filePath, now)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string, now time.Time) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.OutputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.OutputArchiveDir, fileName)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp     time.Time
	InvoiceNumber string
	ErrorType     string
	ErrorMessage  string
	FieldName     string
	FieldValue    string
	DetailID      int
}

// WriteErrorLog writes error entries to a log file in outputDir.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "INVOIC EDIFACT Generator - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  Invoice:        %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.InvoiceNumber,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		if entry.DetailID > 0 {
			fmt.Fprintf(writer, "  Detail ID:      %d\n", entry.DetailID)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a generation run.
type ProcessingSummary struct {
	// RunID identifies the run in logs and summary files.
	RunID string

	StartTime          time.Time
	EndTime            time.Time
	DryRun             bool
	TotalInvoices      int
	SuccessfulInvoices int
	SkippedInvoices    int
	FailedInvoices     int
	ValidationWarnings int
	ProcessedInvoices  []ProcessedInvoiceInfo
	FailedInvoicesList []FailedInvoiceInfo
}

// ProcessedInvoiceInfo describes a successfully generated message.
type ProcessedInvoiceInfo struct {
	InvoiceNumber string
	OutputFile    string
	ArchivePath   string
	Segments      int
	ProcessTime   time.Duration
}

// FailedInvoiceInfo describes an invoice that produced no message.
type FailedInvoiceInfo struct {
	InvoiceNumber string
	ErrorMessage  string
	ErrorType     string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// WriteSummaryLog writes a processing summary to a file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "INVOIC EDIFACT Generator - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Dry Run:        %t\n\n"+
		"Statistics:\n"+
		"  Total Invoices:      %d\n"+
		"  Successful:          %d\n"+
		"  Skipped (not found): %d\n"+
		"  Failed:              %d\n"+
		"  Validation Warnings: %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.DryRun,
		summary.TotalInvoices,
		summary.SuccessfulInvoices,
		summary.SkippedInvoices,
		summary.FailedInvoices,
		summary.ValidationWarnings)

	if len(summary.ProcessedInvoices) > 0 {
		writer.WriteString("Successful Invoices:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pi := range summary.ProcessedInvoices {
			fmt.Fprintf(writer, "  Invoice:      %s\n", pi.InvoiceNumber)
			fmt.Fprintf(writer, "  Output:       %s\n", pi.OutputFile)
			if pi.ArchivePath != "" {
				fmt.Fprintf(writer, "  Archive:      %s\n", pi.ArchivePath)
			}
			fmt.Fprintf(writer, "  Segments:     %d\n", pi.Segments)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pi.ProcessTime.String())
		}
	}

	if len(summary.FailedInvoicesList) > 0 {
		writer.WriteString("Failed Invoices:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, fi := range summary.FailedInvoicesList {
			fmt.Fprintf(writer, "  Invoice: %s\n", fi.InvoiceNumber)
			fmt.Fprintf(writer, "  Type:    %s\n", fi.ErrorType)
			fmt.Fprintf(writer, "  Error:   %s\n\n", fi.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
