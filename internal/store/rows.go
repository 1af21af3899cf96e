// =============================================================================
// INVOIC EDIFACT Generator - Invoice Store
// =============================================================================
//
// This module is the invoice provider. It turns the flat result of the
// invoice query (one row per detail line, header columns repeated on every
// row) into one Invoice record.
//
// SOURCES:
//   1. PostgreSQL (PostgresRepository) - the production invoice store
//   2. CSV export (CSVRepository)      - offline runs and fixtures
//
// Both sources produce the same column set, named as in the query:
//
//   header: id, serial_no, transaction_type, transaction_number,
//           transaction_date, description_3, base_value, base_vat, trans,
//           exrate, ocean_id, ocean_serial_no, h_bol, m_bol
//   detail: detail_id, reference_id, vat_rate, charge_code, description,
//           detail_base_value, detail_base_vat, vat_code, container_no,
//           size, grs_kgs, cbm, qty
//
// Missing or NULL columns become the empty string or zero.
//
// =============================================================================

package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"github.com/shopspring/decimal"
)

// ErrInvoiceNotFound is returned when no rows match an invoice number.
// Storage failures are reported wrapped in it as well.
var ErrInvoiceNotFound = errors.New("invoice not found")

// Column names of the invoice query.
const (
	ColID                = "id"
	ColSerialNo          = "serial_no"
	ColTransactionType   = "transaction_type"
	ColTransactionNumber = "transaction_number"
	ColTransactionDate   = "transaction_date"
	ColDescription3      = "description_3"
	ColBaseValue         = "base_value"
	ColBaseVat           = "base_vat"
	ColTrans             = "trans"
	ColExchangeRate      = "exrate"
	ColOceanID           = "ocean_id"
	ColOceanSerialNo     = "ocean_serial_no"
	ColHouseBOL          = "h_bol"
	ColMasterBOL         = "m_bol"

	ColDetailID        = "detail_id"
	ColReferenceID     = "reference_id"
	ColVatRate         = "vat_rate"
	ColChargeCode      = "charge_code"
	ColDescription     = "description"
	ColDetailBaseValue = "detail_base_value"
	ColDetailBaseVat   = "detail_base_vat"
	ColVatCode         = "vat_code"
	ColContainerNo     = "container_no"
	ColSize            = "size"
	ColGrossWeight     = "grs_kgs"
	ColVolume          = "cbm"
	ColQuantity        = "qty"
)

// Row is one flat row of the invoice query.
type Row struct {
	ID                int
	SerialNo          string
	TransactionType   string
	TransactionNumber string
	TransactionDate   string
	Description3      string
	BaseValue         decimal.Decimal
	BaseVat           decimal.Decimal
	Trans             string
	ExchangeRate      decimal.Decimal
	OceanID           int
	OceanSerialNo     string
	HouseBOL          string
	MasterBOL         string

	DetailID        int
	ReferenceID     int
	VatRate         decimal.Decimal
	ChargeCode      string
	Description     string
	DetailBaseValue decimal.Decimal
	DetailBaseVat   decimal.Decimal
	VatCode         string
	ContainerNo     string
	ContainerSize   string
	GrossWeight     decimal.Decimal
	Volume          decimal.Decimal
	Quantity        int
}

// Assemble folds query rows into one invoice. The header comes from the
// first row; every row with a non-zero detail id contributes one detail
// line, in row order.
func Assemble(rows []Row) (*types.Invoice, error) {
	if len(rows) == 0 {
		return nil, ErrInvoiceNotFound
	}

	first := rows[0]
	inv := &types.Invoice{
		ID:                first.ID,
		SerialNo:          first.SerialNo,
		TransactionType:   first.TransactionType,
		TransactionNumber: first.TransactionNumber,
		TransactionDate:   first.TransactionDate,
		Description:       first.Description3,
		BaseValue:         first.BaseValue,
		BaseVat:           first.BaseVat,
		Trans:             first.Trans,
		ExchangeRate:      first.ExchangeRate,
		OceanID:           first.OceanID,
		OceanSerialNo:     first.OceanSerialNo,
		HouseBOL:          first.HouseBOL,
		MasterBOL:         first.MasterBOL,
		Reference:         first.HouseBOL,
	}
	if inv.Reference == "" {
		inv.Reference = first.MasterBOL
	}

	for _, r := range rows {
		// detail_id 0 is the outer-join row of an invoice without details
		if r.DetailID == 0 {
			continue
		}
		inv.Details = append(inv.Details, types.InvoiceDetail{
			ID:            r.DetailID,
			ReferenceID:   r.ReferenceID,
			ChargeCode:    r.ChargeCode,
			Description:   r.Description,
			Amount:        r.DetailBaseValue,
			VatRate:       r.VatRate,
			BaseVat:       r.DetailBaseVat,
			VatCode:       r.VatCode,
			ContainerNo:   r.ContainerNo,
			ContainerSize: r.ContainerSize,
			GrossWeight:   r.GrossWeight,
			Volume:        r.Volume,
			Quantity:      r.Quantity,
		})
	}

	return inv, nil
}

// record is one row keyed by column name. Both repositories reduce their
// source rows to records before converting them.
type record map[string]string

// toRow converts a record into a Row. Empty values become zero; a value
// that is present but not numeric is an error.
func (rec record) toRow() (Row, error) {
	var r Row
	p := fieldParser{rec: rec}

	r.ID = p.parseInt(ColID)
	r.SerialNo = rec[ColSerialNo]
	r.TransactionType = rec[ColTransactionType]
	r.TransactionNumber = rec[ColTransactionNumber]
	r.TransactionDate = rec[ColTransactionDate]
	r.Description3 = rec[ColDescription3]
	r.BaseValue = p.parseDecimal(ColBaseValue)
	r.BaseVat = p.parseDecimal(ColBaseVat)
	r.Trans = rec[ColTrans]
	r.ExchangeRate = p.parseDecimal(ColExchangeRate)
	r.OceanID = p.parseInt(ColOceanID)
	r.OceanSerialNo = rec[ColOceanSerialNo]
	r.HouseBOL = rec[ColHouseBOL]
	r.MasterBOL = rec[ColMasterBOL]

	r.DetailID = p.parseInt(ColDetailID)
	r.ReferenceID = p.parseInt(ColReferenceID)
	r.VatRate = p.parseDecimal(ColVatRate)
	r.ChargeCode = rec[ColChargeCode]
	r.Description = rec[ColDescription]
	r.DetailBaseValue = p.parseDecimal(ColDetailBaseValue)
	r.DetailBaseVat = p.parseDecimal(ColDetailBaseVat)
	r.VatCode = rec[ColVatCode]
	r.ContainerNo = rec[ColContainerNo]
	r.ContainerSize = rec[ColSize]
	r.GrossWeight = p.parseDecimal(ColGrossWeight)
	r.Volume = p.parseDecimal(ColVolume)
	r.Quantity = p.parseInt(ColQuantity)

	if len(p.errs) > 0 {
		return r, fmt.Errorf("invalid row: %s", strings.Join(p.errs, "; "))
	}
	return r, nil
}

// fieldParser collects conversion errors so one bad row reports all of
// its bad columns at once.
type fieldParser struct {
	rec  record
	errs []string
}

func (p *fieldParser) parseInt(col string) int {
	v := strings.TrimSpace(p.rec[col])
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// numeric columns arrive as "12.0"
		d, derr := decimal.NewFromString(v)
		if derr != nil {
			p.errs = append(p.errs, fmt.Sprintf("%s=%q is not an integer", col, v))
			return 0
		}
		return int(d.IntPart())
	}
	return n
}

func (p *fieldParser) parseDecimal(col string) decimal.Decimal {
	v := strings.TrimSpace(p.rec[col])
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s=%q is not a number", col, v))
		return decimal.Zero
	}
	return d
}
