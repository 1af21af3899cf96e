package validation

import (
	"testing"

	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tables() (types.ChargeCodeTable, types.ContainerSizeTable) {
	charges := types.NewChargeCodeTable([]types.ChargeCodeMapping{
		{ChargeCode: "THC", ChargeType: "C", ServiceCategoryCode: "SC", EdifactCode: "106"},
		{ChargeCode: "OFR", ChargeType: "C", ServiceCategoryCode: "DD", EdifactCode: "64"},
	})
	sizes := types.NewContainerSizeTable([]types.ContainerSizeMapping{
		{SourceSize: "20", EdifactCode: "22G1", EquipmentSizeTypeCode: "2210", Size: "20"},
		{SourceSize: "40HC", EdifactCode: "45G1", EquipmentSizeTypeCode: "4510", Size: "40"},
	})
	return charges, sizes
}

func rules(errs []*ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Rule
	}
	return out
}

func TestValidate_CleanInvoice(t *testing.T) {
	v := NewValidator(tables())
	inv := types.Invoice{
		TransactionNumber: "INV-1",
		TransactionDate:   "2025-03-01",
		Details: []types.InvoiceDetail{
			{ID: 1, ChargeCode: "OFR", VatRate: decimal.NewFromInt(19)},
			{ID: 2, ChargeCode: "THC", ContainerNo: "C1", ContainerSize: "40hc", VatRate: decimal.NewFromInt(19)},
			{ID: 3, ChargeCode: "THC", ContainerNo: "C1", ContainerSize: "40HC"},
		},
	}

	assert.Empty(t, v.Validate(inv))
}

func TestValidate_Findings(t *testing.T) {
	v := NewValidator(tables())
	inv := types.Invoice{
		TransactionNumber: "",
		TransactionDate:   "sometime",
		Details: []types.InvoiceDetail{
			{ID: 1, ChargeCode: "XXX", VatRate: decimal.NewFromInt(19)},
			{ID: 2, ChargeCode: "THC", ContainerNo: "C1", ContainerSize: "20", VatRate: decimal.NewFromInt(7)},
			{ID: 3, ChargeCode: "THC", ContainerNo: "C1", ContainerSize: "45R1"},
		},
	}

	errs := v.Validate(inv)

	assert.Equal(t, []string{
		RuleTransactionNumber,
		RuleTransactionDate,
		RuleMultipleVatRates,
		RuleUnmappedCharge,
		RuleUnmappedSize,
		RuleInconsistentSize,
	}, rules(errs))

	for _, e := range errs {
		assert.Equal(t, SeverityWarning, e.Severity)
	}
	assert.Equal(t, "19,7", errs[2].Value)
	assert.Equal(t, 1, errs[3].DetailID)
	assert.Equal(t, "45R1", errs[4].Value)
	assert.Equal(t, 3, errs[5].DetailID)
}

func TestValidate_ShipmentLinesSkipSizeCheck(t *testing.T) {
	v := NewValidator(tables())
	inv := types.Invoice{
		TransactionNumber: "INV-2",
		TransactionDate:   "01.03.2025",
		Details:           []types.InvoiceDetail{{ID: 1, ChargeCode: "OFR", ContainerSize: "??"}},
	}

	assert.Empty(t, v.Validate(inv))
}

func TestValidationError_Error(t *testing.T) {
	e := &ValidationError{Severity: SeverityWarning, Field: "charge_code", Value: "XXX",
		Message: "unmapped", InvoiceNumber: "INV-1", DetailID: 4}
	assert.Equal(t, "[WARNING] Invoice INV-1, Detail 4, Field 'charge_code': unmapped (value: 'XXX')", e.Error())

	e.DetailID = 0
	assert.Equal(t, "[WARNING] Invoice INV-1, Field 'charge_code': unmapped (value: 'XXX')", e.Error())
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation warnings.", FormatErrors(nil))

	out := FormatErrors([]*ValidationError{{Severity: SeverityWarning, InvoiceNumber: "A", Field: "f", Message: "m"}})
	require.Contains(t, out, "1 warning(s)")
	assert.Contains(t, out, "1. [WARNING] Invoice A")
}
