package edifact

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 15, 9, 7, 0, 0, time.UTC)

func testParty() types.PartyConfig {
	return types.PartyConfig{
		SenderIdentification:   "KYBREC_TEST",
		ReceiverIdentification: "KIK",
		SellerPartyID:          "DEDTM01",
		SenderCompanyName:      "Sender GmbH",
		SenderDepartment:       "Billing",
		SenderStreet:           "Street 1",
		SenderCity:             "Bremen",
		SenderPostcode:         "28195",
		SenderCountry:          "DE",
		SenderVatNumber:        "DE123",
		ReceiverCompanyName:    "Receiver AG",
		ReceiverStreet:         "Road 21",
		ReceiverCity:           "Boenen",
		ReceiverPostcode:       "59199",
		ReceiverCountry:        "DE",
		ReceiverVatNumber:      "DE456",
	}
}

func testInvoice(details ...types.InvoiceDetail) types.Invoice {
	return types.Invoice{
		ID:                42,
		TransactionType:   "II",
		TransactionNumber: "BRESII25040002",
		TransactionDate:   "2025-04-14",
		Reference:         "HBL123",
		ExchangeRate:      decimal.NewFromInt(1),
		Details:           details,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func build(inv types.Invoice, charges types.ChargeCodeTable, sizes types.ContainerSizeTable) []string {
	return Build(inv, charges, sizes, testParty(), fixedNow)
}

// tail returns the segments from the first one starting with prefix.
func tail(t *testing.T, segments []string, prefix string) []string {
	t.Helper()
	for i, s := range segments {
		if strings.HasPrefix(s, prefix) {
			return segments[i:]
		}
	}
	t.Fatalf("no segment starting with %q", prefix)
	return nil
}

func withPrefix(segments []string, prefix string) []string {
	var out []string
	for _, s := range segments {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func TestBuild_EmptyInvoice(t *testing.T) {
	got := build(testInvoice(), types.ChargeCodeTable{}, types.ContainerSizeTable{})

	want := []string{
		"UNA:+,? '",
		"UNB+UNOC:2+KYBREC_TEST+KIK+150425:0907+42'",
		"UNH+42+INVOIC:D:01B:UN'",
		"BGM+331+BRESII25040002+9'",
		"DTM+137:20250415:102'",
		"DTM+3:14042025:102'",
		"FTX+INV+++" + TaxExemptionNotice + "'",
		"RFF+ABQ:HBL123'",
		"NAD+IV+DEDTM01:ZZZ++Sender GmbH:Billing+Street 1+Bremen++28195+DE'",
		"RFF+VA:DE123'",
		"NAD+II+KIK++Receiver AG+Road 21+Boenen++59199+DE'",
		"RFF+VA:DE456'",
		"CUX+6:EUR++1,00'",
		"CUX+1:EUR++1,00'",
		"UNS+S'",
		"MOA+388:0,00:EUR'",
		"UNT+15+42'",
		"UNZ+1+42'",
	}

	assert.Equal(t, want, got)
	assert.Empty(t, withPrefix(got, "TAX"))
}

func TestBuild_ShipmentLevelTaxedCharge(t *testing.T) {
	inv := testInvoice(types.InvoiceDetail{
		ChargeCode:  "OFR",
		Description: "Ocean freight",
		Amount:      dec("100.00"),
		VatRate:     dec("19"),
	})

	msg := BuildMessage(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{}, testParty(), fixedNow)

	assert.Equal(t, []string{
		"ALC+C+:C+++DD:OFR:Ocean freight'",
		"MOA+23:100,00:EUR'",
		"TAX+7+VAT+++:::19,00'",
		"MOA+150:19,00:EUR'",
		"UNS+S'",
		"MOA+388:0,00:EUR'",
		"TAX+7+VAT+++:::19,00'",
		"MOA+124:0,00:EUR'",
	}, tail(t, msg.Segments, "ALC")[:8])

	assert.True(t, msg.Totals.Taxable.IsZero())
	assert.True(t, msg.Totals.NonTaxable.IsZero())
	assert.Equal(t, "19", msg.Totals.HighestVatRate.String())
	assert.Empty(t, withPrefix(msg.Segments, "MOA+125"))
	assert.Empty(t, withPrefix(msg.Segments, "LIN"))
}

func TestBuild_SingleContainerMixedTax(t *testing.T) {
	sizes := types.NewContainerSizeTable([]types.ContainerSizeMapping{
		{SourceSize: "20", EdifactCode: "22G1", EquipmentSizeTypeCode: "2210", Size: "20"},
	})
	inv := testInvoice(
		types.InvoiceDetail{ChargeCode: "THC", Description: "Terminal handling", Amount: dec("50"), VatRate: dec("19"), ContainerNo: "C1", ContainerSize: "20"},
		types.InvoiceDetail{ChargeCode: "DOC", Description: "Documentation", Amount: dec("10"), ContainerNo: "C1", ContainerSize: "20"},
	)

	msg := BuildMessage(inv, types.ChargeCodeTable{}, sizes, testParty(), fixedNow)

	want := []string{
		"LIN+1++C1:RC::22G1'",
		"QTY+128:000001:PK'",
		"EQD+CN+C1+20::2210++4'",
		"ALC+C+:C+++SC:THC:Terminal handling'",
		"MOA+23:50,00:EUR'",
		"MOA+150:9,50:EUR'",
		"ALC+C+:C+++SC:DOC:Documentation'",
		"MOA+342:10,00:EUR'",
		"UNS+S'",
		"MOA+125:50,00:EUR'",
		"MOA+342:10,00:EUR'",
		"MOA+388:69,50:EUR'",
		"TAX+7+VAT+++:::19,00'",
		"MOA+124:9,50:EUR'",
	}
	assert.Equal(t, want, tail(t, msg.Segments, "LIN")[:len(want)])
	assert.Len(t, withPrefix(msg.Segments, "LIN"), 1)
	assert.Equal(t, "50", msg.Totals.Taxable.String())
	assert.Equal(t, "10", msg.Totals.NonTaxable.String())
	assert.Equal(t, "69.5", msg.Totals.Grand.String())
	assert.Equal(t, 1, msg.ContainerGroups)
}

func TestBuild_Deterministic(t *testing.T) {
	inv := testInvoice(
		types.InvoiceDetail{ChargeCode: "A", Amount: dec("12.345"), VatRate: dec("7"), ContainerNo: "C1"},
		types.InvoiceDetail{ChargeCode: "B", Amount: dec("3")},
	)

	first := Render(build(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{}))
	second := Render(build(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{}))

	assert.Equal(t, first, second)
}

func TestBuild_GroupingAndLineNumbers(t *testing.T) {
	inv := testInvoice(
		types.InvoiceDetail{ChargeCode: "X1", Amount: dec("1"), ContainerNo: "MSCU2"},
		types.InvoiceDetail{ChargeCode: "S1", Amount: dec("1")},
		types.InvoiceDetail{ChargeCode: "X2", Amount: dec("1"), ContainerNo: "MSCU1"},
		types.InvoiceDetail{ChargeCode: "X3", Amount: dec("1"), ContainerNo: "MSCU2"},
		types.InvoiceDetail{ChargeCode: "X4", Amount: dec("1"), ContainerNo: "MSCU3"},
	)

	got := build(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{})

	assert.Equal(t, []string{
		"LIN+1++MSCU2:RC::ZZZ'",
		"LIN+2++MSCU1:RC::ZZZ'",
		"LIN+3++MSCU3:RC::ZZZ'",
	}, withPrefix(got, "LIN"))

	// Charges of one container stay contiguous after its LIN.
	assert.Equal(t, []string{
		"ALC+C+:C+++DD:S1:'",
		"ALC+C+:C+++SC:X1:'",
		"ALC+C+:C+++SC:X3:'",
		"ALC+C+:C+++SC:X2:'",
		"ALC+C+:C+++SC:X4:'",
	}, withPrefix(got, "ALC"))
	assert.Equal(t, "MOA+342:4,00:EUR'", withPrefix(tail(t, got, "UNS"), "MOA+342")[0])
}

func TestBuild_QuantityAndMeasurements(t *testing.T) {
	tests := []struct {
		name   string
		detail types.InvoiceDetail
		want   []string
	}{
		{
			name:   "zero quantity defaults to one",
			detail: types.InvoiceDetail{ContainerNo: "C1"},
			want:   []string{"QTY+128:000001:PK'"},
		},
		{
			name:   "quantity is zero padded",
			detail: types.InvoiceDetail{ContainerNo: "C1", Quantity: 7},
			want:   []string{"QTY+128:000007:PK'"},
		},
		{
			name:   "weight and volume emitted when positive",
			detail: types.InvoiceDetail{ContainerNo: "C1", GrossWeight: dec("12500.5"), Volume: dec("33.2"), Quantity: 120},
			want: []string{
				"MEA+WT+G+KGM:12500,50'",
				"MEA+VOL+AAW+MTQ:33,20'",
				"QTY+128:000120:PK'",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := build(testInvoice(tt.detail), types.ChargeCodeTable{}, types.ContainerSizeTable{})
			after := tail(t, got, "LIN")[1:]
			assert.Equal(t, tt.want, after[:len(tt.want)])
		})
	}
}

func TestBuild_GroupAttributesComeFromFirstLine(t *testing.T) {
	sizes := types.NewContainerSizeTable([]types.ContainerSizeMapping{
		{SourceSize: "40HC", EdifactCode: "45G1", EquipmentSizeTypeCode: "4510", Size: "40"},
		{SourceSize: "20", EdifactCode: "22G1", EquipmentSizeTypeCode: "2210", Size: "20"},
	})
	inv := testInvoice(
		types.InvoiceDetail{ContainerNo: "C1", ContainerSize: "40hc", Quantity: 3},
		types.InvoiceDetail{ContainerNo: "C1", ContainerSize: "20", Quantity: 9},
	)

	got := build(inv, types.ChargeCodeTable{}, sizes)

	assert.Equal(t, []string{"LIN+1++C1:RC::45G1'"}, withPrefix(got, "LIN"))
	assert.Equal(t, []string{"QTY+128:000003:PK'"}, withPrefix(got, "QTY"))
	assert.Equal(t, []string{"EQD+CN+C1+40::4510++4'"}, withPrefix(got, "EQD"))
}

func TestBuild_MappedChargeCode(t *testing.T) {
	charges := types.NewChargeCodeTable([]types.ChargeCodeMapping{
		{ChargeCode: "THC", EdifactCode: "TH1", ChargeType: "A", ServiceCategoryCode: "TX"},
	})
	inv := testInvoice(
		types.InvoiceDetail{ChargeCode: "THC", Description: "Terminal", Amount: dec("5")},
		types.InvoiceDetail{ChargeCode: "THC", Description: "Terminal", Amount: dec("5"), ContainerNo: "C1"},
	)

	got := build(inv, charges, types.ContainerSizeTable{})

	assert.Equal(t, []string{
		"ALC+A+:C+++TX:THC:Terminal'",
		"ALC+A+:C+++TX:THC:Terminal'",
	}, withPrefix(got, "ALC"))
}

func TestBuild_CreditNote(t *testing.T) {
	inv := testInvoice()
	inv.TransactionType = types.CreditNoteType

	got := build(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{})

	assert.Equal(t, "BGM+381+BRESII25040002+9'", got[3])
}

func TestBuild_HighestVatRateDrivesSummary(t *testing.T) {
	inv := testInvoice(
		types.InvoiceDetail{ChargeCode: "S", Amount: dec("10"), VatRate: dec("19")},
		types.InvoiceDetail{ChargeCode: "A", Amount: dec("100"), VatRate: dec("7"), ContainerNo: "C1"},
		types.InvoiceDetail{ChargeCode: "B", Amount: dec("20"), ContainerNo: "C1"},
	)

	msg := BuildMessage(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{}, testParty(), fixedNow)
	summary := tail(t, msg.Segments, "UNS")

	assert.Equal(t, []string{
		"UNS+S'",
		"MOA+125:100,00:EUR'",
		"MOA+342:20,00:EUR'",
		"MOA+388:139,00:EUR'",
		"TAX+7+VAT+++:::19,00'",
		"MOA+124:19,00:EUR'",
	}, summary[:6])
}

func TestBuild_SegmentCount(t *testing.T) {
	inv := testInvoice(
		types.InvoiceDetail{ChargeCode: "A", Amount: dec("1"), VatRate: dec("19"), ContainerNo: "C1"},
	)

	got := build(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{})
	require.GreaterOrEqual(t, len(got), 2)

	unt := got[len(got)-2]
	assert.Equal(t, segment("UNT", strconv.Itoa(len(got)-3), "42"), unt)
	assert.Equal(t, "UNZ+1+42'", got[len(got)-1])
}

func TestBuild_EscapesServiceCharacters(t *testing.T) {
	inv := testInvoice(types.InvoiceDetail{ChargeCode: "X", Description: "50% off: it's +1?"})
	inv.Reference = "A:B"

	got := build(inv, types.ChargeCodeTable{}, types.ContainerSizeTable{})

	assert.Contains(t, got, "RFF+ABQ:A?:B'")
	assert.Contains(t, got, "ALC+C+:C+++DD:X:50% off?: it?'s ?+1??'")
}

func TestResolve_Defaults(t *testing.T) {
	charge := ResolveCharge(types.ChargeCodeTable{}, "NOPE", DefaultShipmentServiceCategory)
	assert.Equal(t, "ZZZ", charge.EdifactCode)
	assert.Equal(t, "C", charge.ChargeType)
	assert.Equal(t, "DD", charge.ServiceCategoryCode)

	charge = ResolveCharge(types.ChargeCodeTable{}, "NOPE", DefaultContainerServiceCategory)
	assert.Equal(t, "ZZZ", charge.EdifactCode)
	assert.Equal(t, "SC", charge.ServiceCategoryCode)

	size := ResolveSize(types.ContainerSizeTable{}, "53")
	assert.Equal(t, "ZZZ", size.EdifactCode)
	assert.Equal(t, "ZZZ", size.EquipmentSizeTypeCode)
	assert.Empty(t, size.Size)
}
