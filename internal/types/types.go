// =============================================================================
// INVOIC EDIFACT Generator - Shared Types
// =============================================================================
//
// This package contains the domain types shared across modules to avoid
// import cycles. Types defined here are used by:
//   - store      (produces Invoice records)
//   - reference  (produces the mapping tables)
//   - edifact    (consumes everything to assemble the message)
//   - validation (inspects invoices before a build)
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// CreditNoteType is the transaction type code that marks an invoice as a
// credit note.
const CreditNoteType = "CN"

// =============================================================================
// INVOICE TYPES
// =============================================================================

// Invoice is one billing record as delivered by the invoice provider.
// The builder treats it as read-only.
type Invoice struct {
	// ID is the numeric store identifier. It doubles as the message and
	// interchange reference.
	ID int `json:"id" yaml:"id"`

	SerialNo string `json:"serialNo" yaml:"serial_no"`

	// TransactionType selects the document type ("CN" = credit note).
	TransactionType string `json:"transactionType" yaml:"transaction_type"`

	// TransactionNumber is the business reference printed as the document number.
	TransactionNumber string `json:"transactionNumber" yaml:"transaction_number"`

	// TransactionDate is kept in the source format; the builder reformats it.
	TransactionDate string `json:"transactionDate" yaml:"transaction_date"`

	Description string `json:"description" yaml:"description"`

	// BaseValue and BaseVat are informational and never re-derived.
	BaseValue decimal.Decimal `json:"baseValue" yaml:"base_value"`
	BaseVat   decimal.Decimal `json:"baseVat" yaml:"base_vat"`

	Trans        string          `json:"trans" yaml:"trans"`
	ExchangeRate decimal.Decimal `json:"exchangeRate" yaml:"exchange_rate"`

	// Ocean shipment linkage.
	OceanID       int    `json:"oceanId" yaml:"ocean_id"`
	OceanSerialNo string `json:"oceanSerialNo" yaml:"ocean_serial_no"`

	// HouseBOL and MasterBOL are the bill-of-lading references.
	HouseBOL  string `json:"hbol" yaml:"hbol"`
	MasterBOL string `json:"mbol" yaml:"mbol"`

	// Reference is emitted in the RFF+ABQ segment.
	Reference string `json:"reference" yaml:"reference"`

	// Details keeps the order delivered by the store.
	Details []InvoiceDetail `json:"details" yaml:"details"`
}

// InvoiceDetail is a single charge line of an invoice.
type InvoiceDetail struct {
	ID          int    `json:"id" yaml:"id"`
	ReferenceID int    `json:"referenceId" yaml:"reference_id"`
	ChargeCode  string `json:"chargeCode" yaml:"charge_code"`
	Description string `json:"description" yaml:"description"`

	// Amount is the net line amount.
	Amount decimal.Decimal `json:"amount" yaml:"amount"`

	// VatRate is a percentage; zero means the line is not taxed.
	VatRate decimal.Decimal `json:"vatRate" yaml:"vat_rate"`
	BaseVat decimal.Decimal `json:"baseVat" yaml:"base_vat"`
	VatCode string          `json:"vatCode" yaml:"vat_code"`

	// ContainerNo is empty for shipment-level charges.
	ContainerNo   string          `json:"containerNo" yaml:"container_no"`
	ContainerSize string          `json:"containerSize" yaml:"container_size"`
	GrossWeight   decimal.Decimal `json:"grossWeight" yaml:"gross_weight"`
	Volume        decimal.Decimal `json:"volume" yaml:"volume"`
	Quantity      int             `json:"quantity" yaml:"quantity"`
}

// IsContainerLevel reports whether the line belongs to a container.
func (d InvoiceDetail) IsContainerLevel() bool {
	return d.ContainerNo != ""
}

// IsTaxed reports whether the line carries a positive VAT rate.
func (d InvoiceDetail) IsTaxed() bool {
	return d.VatRate.IsPositive()
}

// VatAmount returns Amount * VatRate / 100.
func (d InvoiceDetail) VatAmount() decimal.Decimal {
	return d.Amount.Mul(d.VatRate).Div(decimal.NewFromInt(100))
}

// ContainerGroup is the ordered set of detail lines sharing a container number.
type ContainerGroup struct {
	ContainerNo string
	Lines       []InvoiceDetail
}

// First returns the line whose attributes describe the container
// (size, weight, volume, quantity).
func (g ContainerGroup) First() InvoiceDetail {
	return g.Lines[0]
}

// ShipmentLines returns the lines without a container number, in order.
func (inv Invoice) ShipmentLines() []InvoiceDetail {
	var lines []InvoiceDetail
	for _, d := range inv.Details {
		if !d.IsContainerLevel() {
			lines = append(lines, d)
		}
	}
	return lines
}

// ContainerGroups groups container-level lines by container number.
// Groups appear in the order their container number is first seen and lines
// keep their original order within a group.
func (inv Invoice) ContainerGroups() []ContainerGroup {
	index := make(map[string]int)
	var groups []ContainerGroup

	for _, d := range inv.Details {
		if !d.IsContainerLevel() {
			continue
		}
		i, exists := index[d.ContainerNo]
		if !exists {
			i = len(groups)
			index[d.ContainerNo] = i
			groups = append(groups, ContainerGroup{ContainerNo: d.ContainerNo})
		}
		groups[i].Lines = append(groups[i].Lines, d)
	}

	return groups
}
