// =============================================================================
// INVOIC EDIFACT Generator - Message Builder
// =============================================================================
//
// This module assembles an EDIFACT INVOIC D.01B message from one invoice
// record. It is a pure function of its inputs: no I/O, no clock, no state
// kept between calls. Concurrent builds are safe as long as each call gets
// its own invoice and a loaded, read-only snapshot of the mapping tables.
//
// SEGMENT ORDER:
//   UNA UNB UNH BGM DTM(137) DTM(3) FTX RFF(ABQ)
//   NAD(IV) RFF(VA) NAD(II) RFF(VA) CUX(6) CUX(1)
//   shipment-level charges   : ALC MOA(23) [TAX MOA(150)]
//   per container group      : LIN [MEA WT] [MEA VOL] QTY EQD
//                              then per line ALC + MOA(23) MOA(150) | MOA(342)
//   UNS [MOA(125)] [MOA(342)] MOA(388) [TAX MOA(124)] UNT UNZ
//
// TOTALS:
//   Only container-level lines feed the taxable / non-taxable accumulators.
//   Shipment-level lines only raise the highest VAT rate.
//
// =============================================================================

package edifact

import (
	"strconv"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FIXED VALUES
// =============================================================================

const (
	// Document types for BGM.
	DocumentTypeCreditNote = "381"
	DocumentTypeInvoice    = "331"

	// Currency used for every amount.
	Currency = "EUR"

	// MessageType is the UNH message identifier composite.
	MessageType = "INVOIC:D:01B:UN"

	// SyntaxIdentifier is the UNB syntax identifier composite.
	SyntaxIdentifier = "UNOC:2"

	// TaxExemptionNotice is the fixed FTX free text.
	TaxExemptionNotice = "STEUERFREIE LEISTUNGEN SIND STEUERFREIE BEFOERDERUNGSLEISTUNGEN NACH PAR. 4 NR. 3 USTG"

	// Lookup-miss defaults.
	DefaultEdifactCode              = "ZZZ"
	DefaultChargeType               = "C"
	DefaultShipmentServiceCategory  = "DD"
	DefaultContainerServiceCategory = "SC"
	DefaultSizeCode                 = "ZZZ"
	DefaultEquipmentSizeType        = "ZZZ"
)

// Monetary amount qualifiers (MOA).
const (
	AmountLine       = "23"
	AmountVat        = "150"
	AmountTaxable    = "125"
	AmountNonTaxable = "342"
	AmountTotal      = "388"
	AmountTotalVat   = "124"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Totals are the running sums computed while building.
type Totals struct {
	Taxable        decimal.Decimal
	NonTaxable     decimal.Decimal
	HighestVatRate decimal.Decimal
	Vat            decimal.Decimal
	Grand          decimal.Decimal
}

// Message is a built INVOIC message.
type Message struct {
	// Reference is the message and interchange reference.
	Reference string

	// Segments are the ordered segment lines, UNA through UNZ.
	Segments []string

	Totals Totals

	// ContainerGroups is the number of LIN groups emitted.
	ContainerGroups int
}

// String renders the message as the text artifact.
func (m *Message) String() string {
	return Render(m.Segments)
}

// =============================================================================
// LOOKUP RESOLUTION
// =============================================================================

// ResolveCharge returns the charge mapping for code, substituting defaults on
// a miss. serviceCategory is the category used when the code is unmapped.
func ResolveCharge(charges types.ChargeCodeTable, code, serviceCategory string) types.ChargeCodeMapping {
	m, ok := charges.Lookup(code)
	if !ok {
		return types.ChargeCodeMapping{
			ChargeCode:          code,
			EdifactCode:         DefaultEdifactCode,
			ChargeType:          DefaultChargeType,
			ServiceCategoryCode: serviceCategory,
		}
	}
	return m
}

// ResolveSize returns the container size mapping for size, substituting
// defaults on a miss.
func ResolveSize(sizes types.ContainerSizeTable, size string) types.ContainerSizeMapping {
	m, ok := sizes.Lookup(size)
	if !ok {
		return types.ContainerSizeMapping{
			SourceSize:            size,
			EdifactCode:           DefaultSizeCode,
			EquipmentSizeTypeCode: DefaultEquipmentSizeType,
		}
	}
	return m
}

// =============================================================================
// BUILD
// =============================================================================

// Build returns the ordered segment lines for inv. now supplies every
// generated date and time.
func Build(inv types.Invoice, charges types.ChargeCodeTable, sizes types.ContainerSizeTable, party types.PartyConfig, now time.Time) []string {
	return BuildMessage(inv, charges, sizes, party, now).Segments
}

// BuildMessage is Build with the computed totals attached.
func BuildMessage(inv types.Invoice, charges types.ChargeCodeTable, sizes types.ContainerSizeTable, party types.PartyConfig, now time.Time) *Message {
	b := &builder{
		inv:     inv,
		charges: charges,
		sizes:   sizes,
		party:   party,
		now:     now,
		ref:     strconv.Itoa(inv.ID),
	}

	b.header()
	b.shipmentCharges()
	b.containerCharges()
	b.summary()

	return &Message{
		Reference:       b.ref,
		Segments:        b.segments,
		Totals:          b.totals,
		ContainerGroups: b.groups,
	}
}

type builder struct {
	inv     types.Invoice
	charges types.ChargeCodeTable
	sizes   types.ContainerSizeTable
	party   types.PartyConfig
	now     time.Time
	ref     string

	segments []string
	totals   Totals
	groups   int
}

func (b *builder) add(seg string) {
	b.segments = append(b.segments, seg)
}

func (b *builder) amount(qualifier string, value decimal.Decimal) {
	b.add(segment("MOA", composite(qualifier, FormatDecimal(value), Currency)))
}

func (b *builder) tax(rate decimal.Decimal) {
	b.add(segment("TAX", "7", "VAT", "", "", composite("", "", "", FormatDecimal(rate))))
}

func (b *builder) allowance(charge types.ChargeCodeMapping, detail types.InvoiceDetail) {
	b.add(segment("ALC",
		escape(charge.ChargeType),
		composite("", "C"),
		"",
		"",
		composite(escape(charge.ServiceCategoryCode), escape(detail.ChargeCode), escape(detail.Description)),
	))
}

func (b *builder) raiseVatRate(rate decimal.Decimal) {
	if rate.GreaterThan(b.totals.HighestVatRate) {
		b.totals.HighestVatRate = rate
	}
}

// header emits UNA through the two CUX segments.
func (b *builder) header() {
	p := b.party
	inv := b.inv

	documentType := DocumentTypeInvoice
	if inv.TransactionType == types.CreditNoteType {
		documentType = DocumentTypeCreditNote
	}
	rate := FormatDecimal(inv.ExchangeRate)

	b.add(ServiceStringAdvice)
	b.add(segment("UNB",
		SyntaxIdentifier,
		escape(p.SenderIdentification),
		escape(p.ReceiverIdentification),
		composite(b.now.Format("020106"), b.now.Format("1504")),
		b.ref,
	))
	b.add(segment("UNH", b.ref, MessageType))
	b.add(segment("BGM", documentType, escape(inv.TransactionNumber), "9"))
	b.add(segment("DTM", composite("137", b.now.Format("20060102"), "102")))
	b.add(segment("DTM", composite("3", escape(FormatTransactionDate(inv.TransactionDate)), "102")))
	b.add(segment("FTX", "INV", "", "", TaxExemptionNotice))
	b.add(segment("RFF", composite("ABQ", escape(inv.Reference))))

	b.add(segment("NAD",
		"IV",
		composite(escape(p.SellerPartyID), "ZZZ"),
		"",
		composite(escape(p.SenderCompanyName), escape(p.SenderDepartment)),
		escape(p.SenderStreet),
		escape(p.SenderCity),
		"",
		escape(p.SenderPostcode),
		escape(p.SenderCountry),
	))
	b.add(segment("RFF", composite("VA", escape(p.SenderVatNumber))))

	b.add(segment("NAD",
		"II",
		escape(p.BuyerID()),
		"",
		escape(p.ReceiverCompanyName),
		escape(p.ReceiverStreet),
		escape(p.ReceiverCity),
		"",
		escape(p.ReceiverPostcode),
		escape(p.ReceiverCountry),
	))
	b.add(segment("RFF", composite("VA", escape(p.ReceiverVatNumber))))

	b.add(segment("CUX", composite("6", Currency), "", rate))
	b.add(segment("CUX", composite("1", Currency), "", rate))
}

// shipmentCharges emits lines without a container. Their amounts stay out of
// the summary accumulators.
func (b *builder) shipmentCharges() {
	for _, d := range b.inv.ShipmentLines() {
		charge := ResolveCharge(b.charges, d.ChargeCode, DefaultShipmentServiceCategory)

		b.allowance(charge, d)
		b.amount(AmountLine, d.Amount)

		if d.IsTaxed() {
			b.raiseVatRate(d.VatRate)
			b.tax(d.VatRate)
			b.amount(AmountVat, d.VatAmount())
		}
	}
}

// containerCharges emits one LIN group per container, numbered from 1.
func (b *builder) containerCharges() {
	line := 1

	for _, g := range b.inv.ContainerGroups() {
		first := g.First()
		size := ResolveSize(b.sizes, first.ContainerSize)

		b.add(segment("LIN",
			strconv.Itoa(line),
			"",
			composite(escape(g.ContainerNo), "RC", "", escape(size.EdifactCode)),
		))

		if first.GrossWeight.IsPositive() {
			b.add(segment("MEA", "WT", "G", composite("KGM", FormatDecimal(first.GrossWeight))))
		}
		if first.Volume.IsPositive() {
			b.add(segment("MEA", "VOL", "AAW", composite("MTQ", FormatDecimal(first.Volume))))
		}

		qty := first.Quantity
		if qty <= 0 {
			qty = 1
		}
		b.add(segment("QTY", composite("128", formatQuantity(qty), "PK")))

		b.add(segment("EQD",
			"CN",
			escape(g.ContainerNo),
			composite(escape(size.Size), "", escape(size.EquipmentSizeTypeCode)),
			"",
			"4",
		))

		for _, d := range g.Lines {
			charge := ResolveCharge(b.charges, d.ChargeCode, DefaultContainerServiceCategory)
			b.allowance(charge, d)

			if d.IsTaxed() {
				b.raiseVatRate(d.VatRate)
				b.amount(AmountLine, d.Amount)
				b.amount(AmountVat, d.VatAmount())
				b.totals.Taxable = b.totals.Taxable.Add(d.Amount)
			} else {
				b.amount(AmountNonTaxable, d.Amount)
				b.totals.NonTaxable = b.totals.NonTaxable.Add(d.Amount)
			}
		}

		line++
		b.groups++
	}
}

// summary emits UNS through UNZ.
func (b *builder) summary() {
	t := &b.totals

	b.add(segment("UNS", "S"))

	if t.Taxable.IsPositive() {
		b.amount(AmountTaxable, t.Taxable)
	}
	if t.NonTaxable.IsPositive() {
		b.amount(AmountNonTaxable, t.NonTaxable)
	}

	t.Vat = t.Taxable.Mul(t.HighestVatRate).Div(hundred)
	t.Grand = t.Taxable.Add(t.NonTaxable).Add(t.Vat)
	b.amount(AmountTotal, t.Grand)

	if t.HighestVatRate.IsPositive() {
		b.tax(t.HighestVatRate)
		b.amount(AmountTotalVat, t.Vat)
	}

	// The count covers everything emitted so far, UNA included, minus one.
	b.add(segment("UNT", strconv.Itoa(len(b.segments)-1), b.ref))
	b.add(segment("UNZ", "1", b.ref))
}
