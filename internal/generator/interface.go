package generator

import (
	"context"

	"github.com/ginjaninja78/invoic-edifact/internal/reference"
	"github.com/ginjaninja78/invoic-edifact/internal/types"
)

// InvoiceRepository supplies invoices by transaction number. A missing
// invoice is reported as an error wrapping store.ErrInvoiceNotFound.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type InvoiceRepository interface {
	GetInvoice(ctx context.Context, invoiceNumber string) (*types.Invoice, error)
}

// ReferenceSource supplies the loaded mapping tables.
type ReferenceSource interface {
	Snapshot(ctx context.Context) (*reference.Snapshot, error)
}
