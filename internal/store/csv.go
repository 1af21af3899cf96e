package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/ginjaninja78/invoic-edifact/internal/types"
)

// CSVRepository reads invoices from a CSV export of the invoice query.
// The first row holds the column names; rows are matched on
// transaction_number.
type CSVRepository struct {
	path      string
	delimiter rune
	logger    logging.Logger
}

// NewCSVRepository returns a repository over the given export. A zero
// delimiter means comma.
func NewCSVRepository(path string, delimiter rune, logger logging.Logger) *CSVRepository {
	if delimiter == 0 {
		delimiter = ','
	}
	if logger == nil {
		logger = logging.Discard{}
	}
	return &CSVRepository{path: path, delimiter: delimiter, logger: logger}
}

// GetInvoice scans the export for rows of one invoice.
func (r *CSVRepository) GetInvoice(ctx context.Context, invoiceNumber string) (*types.Invoice, error) {
	rows, err := r.readRows(ctx, invoiceNumber)
	if err != nil {
		r.logger.Error("Error reading invoice export %s for invoice number %s: %v", r.path, invoiceNumber, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrInvoiceNotFound, invoiceNumber, err)
	}

	r.logger.Info("Retrieved %d invoice detail records for %s", len(rows), invoiceNumber)

	if len(rows) == 0 {
		r.logger.Warn("No data found for invoice: %s", invoiceNumber)
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceNumber)
	}
	return Assemble(rows)
}

func (r *CSVRepository) readRows(ctx context.Context, invoiceNumber string) ([]Row, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.Comma = r.delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header row: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []Row
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", line, err)
		}
		if isRowEmpty(raw) {
			continue
		}

		rec := make(record, len(header))
		for i, h := range header {
			if i < len(raw) {
				rec[h] = strings.TrimSpace(raw[i])
			}
		}
		if rec[ColTransactionNumber] != invoiceNumber {
			continue
		}

		row, err := rec.toRow()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
