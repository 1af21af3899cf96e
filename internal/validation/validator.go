// =============================================================================
// INVOIC EDIFACT Generator - Invoice Checks
// =============================================================================
//
// This module inspects an invoice against the loaded reference tables before
// the message is built. Every finding is a warning: the builder always has a
// documented fallback, so nothing here blocks generation. The warnings point
// at data that will produce sentinel codes or surprising totals.
//
// CHECKS:
//   Invoice level:
//   - Empty transaction number (BGM document number would be empty)
//   - Transaction date in an unknown format (emitted as-is in DTM+3)
//   - More than one distinct VAT rate (summary uses the highest)
//
//   Line level:
//   - Charge code missing from the charge code table (ZZZ fallback)
//   - Container size missing from the container size table (ZZZ fallback)
//
//   Container level:
//   - Lines of one container disagreeing on the size code (the first line
//     wins)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/invoic-edifact/internal/edifact"
	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"github.com/shopspring/decimal"
)

// Severity levels.
const (
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleTransactionNumber = "transaction_number"
	RuleTransactionDate   = "transaction_date"
	RuleMultipleVatRates  = "multiple_vat_rates"
	RuleUnmappedCharge    = "unmapped_charge_code"
	RuleUnmappedSize      = "unmapped_container_size"
	RuleInconsistentSize  = "inconsistent_container_size"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single finding.
type ValidationError struct {
	// Severity is always "warning" for invoice checks.
	Severity string

	// Rule names the check that produced the finding.
	Rule string

	// Field is the invoice or detail field concerned.
	Field string

	// Value is the offending value.
	Value string

	Message string

	// InvoiceNumber is the transaction number of the invoice.
	InvoiceNumber string

	// DetailID is the detail line concerned; 0 for invoice-level findings.
	DetailID int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.DetailID == 0 {
		return fmt.Sprintf("[%s] Invoice %s, Field '%s': %s (value: '%s')",
			strings.ToUpper(e.Severity), e.InvoiceNumber, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("[%s] Invoice %s, Detail %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity), e.InvoiceNumber, e.DetailID, e.Field, e.Message, e.Value)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks invoices against one reference snapshot.
type Validator struct {
	charges types.ChargeCodeTable
	sizes   types.ContainerSizeTable
}

// NewValidator creates a Validator for the given tables.
func NewValidator(charges types.ChargeCodeTable, sizes types.ContainerSizeTable) *Validator {
	return &Validator{charges: charges, sizes: sizes}
}

// Validate returns the findings for one invoice, invoice-level first, then
// per line in detail order, then per container.
func (v *Validator) Validate(inv types.Invoice) []*ValidationError {
	var errs []*ValidationError
	warn := func(rule, field, value string, detailID int, format string, args ...interface{}) {
		errs = append(errs, &ValidationError{
			Severity:      SeverityWarning,
			Rule:          rule,
			Field:         field,
			Value:         value,
			Message:       fmt.Sprintf(format, args...),
			InvoiceNumber: inv.TransactionNumber,
			DetailID:      detailID,
		})
	}

	if strings.TrimSpace(inv.TransactionNumber) == "" {
		warn(RuleTransactionNumber, "transaction_number", "", 0, "transaction number is empty")
	}
	if _, ok := edifact.ParseTransactionDate(inv.TransactionDate); !ok {
		warn(RuleTransactionDate, "transaction_date", inv.TransactionDate, 0,
			"transaction date format not recognized, emitted unchanged")
	}
	if rates := distinctVatRates(inv.Details); len(rates) > 1 {
		warn(RuleMultipleVatRates, "vat_rate", strings.Join(rates, ","), 0,
			"invoice carries %d VAT rates, summary uses the highest", len(rates))
	}

	for _, d := range inv.Details {
		if _, ok := v.charges.Lookup(d.ChargeCode); !ok {
			warn(RuleUnmappedCharge, "charge_code", d.ChargeCode, d.ID,
				"charge code not in mapping table, default codes used")
		}
		if d.IsContainerLevel() {
			if _, ok := v.sizes.Lookup(d.ContainerSize); !ok {
				warn(RuleUnmappedSize, "container_size", d.ContainerSize, d.ID,
					"container size not in mapping table, default codes used")
			}
		}
	}

	for _, g := range inv.ContainerGroups() {
		want := g.First().ContainerSize
		for _, d := range g.Lines[1:] {
			if !strings.EqualFold(d.ContainerSize, want) {
				warn(RuleInconsistentSize, "container_size", d.ContainerSize, d.ID,
					"container %s has size %s on its first line, %s used", g.ContainerNo, want, want)
			}
		}
	}

	return errs
}

// distinctVatRates returns the positive VAT rates in first-seen order.
func distinctVatRates(details []types.InvoiceDetail) []string {
	var seen []decimal.Decimal
	var out []string
	for _, d := range details {
		if !d.IsTaxed() {
			continue
		}
		dup := false
		for _, s := range seen {
			if s.Equal(d.VatRate) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, d.VatRate)
			out = append(out, d.VatRate.String())
		}
	}
	return out
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation warnings."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d warning(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
