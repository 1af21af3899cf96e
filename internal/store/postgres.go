package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/ginjaninja78/invoic-edifact/internal/types"
	_ "github.com/lib/pq"
)

// legacyPlaceholder is the parameter name used by older query files.
const legacyPlaceholder = "@InvoiceNumbers"

// PostgresRepository reads invoices from PostgreSQL.
type PostgresRepository struct {
	db      *sql.DB
	query   string
	timeout time.Duration
	logger  logging.Logger
}

// NewPostgresRepository wraps an open database handle. query must bind the
// invoice number as $1.
func NewPostgresRepository(db *sql.DB, query string, timeout time.Duration, logger logging.Logger) *PostgresRepository {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &PostgresRepository{
		db:      db,
		query:   query,
		timeout: timeout,
		logger:  logger,
	}
}

// OpenPostgres opens a lib/pq connection pool and checks it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// LoadQuery reads the invoice query. The file holds plain SQL, or JSON of
// the form {"InvoiceQuery": "..."}. Legacy @InvoiceNumbers placeholders are
// rewritten to $1.
func LoadQuery(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read query file: %w", err)
	}
	return ParseQuery(data)
}

// ParseQuery is LoadQuery for in-memory content.
func ParseQuery(data []byte) (string, error) {
	text := strings.TrimSpace(string(data))

	if strings.HasPrefix(text, "{") {
		var wrapped struct {
			InvoiceQuery string `json:"InvoiceQuery"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return "", fmt.Errorf("failed to parse query file: %w", err)
		}
		text = strings.TrimSpace(wrapped.InvoiceQuery)
	}

	if text == "" {
		return "", fmt.Errorf("invoice query is empty")
	}

	return strings.ReplaceAll(text, legacyPlaceholder, "$1"), nil
}

// GetInvoice returns the invoice for a transaction number. No matching rows
// and storage failures both yield ErrInvoiceNotFound; failures are logged
// here.
func (r *PostgresRepository) GetInvoice(ctx context.Context, invoiceNumber string) (*types.Invoice, error) {
	r.logger.Info("Executing invoice query for invoice number: %s", invoiceNumber)

	rows, err := r.queryRows(ctx, invoiceNumber)
	if err != nil {
		r.logger.Error("Error executing invoice query for invoice number %s: %v", invoiceNumber, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrInvoiceNotFound, invoiceNumber, err)
	}

	r.logger.Info("Retrieved %d invoice detail records for %s", len(rows), invoiceNumber)

	inv, err := Assemble(rows)
	if errors.Is(err, ErrInvoiceNotFound) {
		r.logger.Warn("No data found for invoice: %s", invoiceNumber)
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceNumber)
	}
	return inv, err
}

func (r *PostgresRepository) queryRows(ctx context.Context, invoiceNumber string) ([]Row, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := r.db.QueryContext(ctx, r.query, invoiceNumber)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	columns, err := result.Columns()
	if err != nil {
		return nil, err
	}
	for i, c := range columns {
		columns[i] = strings.ToLower(c)
	}

	var rows []Row
	values := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for result.Next() {
		if err := result.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(rows)+1, err)
		}

		rec := make(record, len(columns))
		for i, c := range columns {
			if values[i].Valid {
				rec[c] = values[i].String
			}
		}

		row, err := rec.toRow()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	return rows, result.Err()
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
