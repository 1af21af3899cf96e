package types

import "strings"

// =============================================================================
// REFERENCE MAPPINGS
// =============================================================================

// ChargeCodeMapping translates a source charge code into its EDIFACT codes.
type ChargeCodeMapping struct {
	ChargeCode          string `json:"chargeCode" yaml:"charge_code"`
	Description         string `json:"description" yaml:"description"`
	BillingType         string `json:"billingType" yaml:"billing_type"`
	EdifactCode         string `json:"edifactCode" yaml:"edifact_code"`
	ChargeType          string `json:"chargeType" yaml:"charge_type"`
	ServiceCategoryCode string `json:"serviceCategoryCode" yaml:"service_category_code"`
}

// ContainerSizeMapping translates a source container size into EDIFACT codes.
type ContainerSizeMapping struct {
	SourceSize            string `json:"sourceSize" yaml:"source_size"`
	Description           string `json:"description" yaml:"description"`
	EdifactCode           string `json:"edifactCode" yaml:"edifact_code"`
	EquipmentSizeTypeCode string `json:"equipmentSizeTypeCode" yaml:"equipment_size_type_code"`
	Size                  string `json:"size" yaml:"size"`
}

// ChargeCodeTable is an immutable charge-code lookup. Codes match exactly;
// when a code appears more than once the first entry wins.
type ChargeCodeTable struct {
	entries []ChargeCodeMapping
	byCode  map[string]int
}

// NewChargeCodeTable indexes the given entries. The slice is copied.
func NewChargeCodeTable(entries []ChargeCodeMapping) ChargeCodeTable {
	t := ChargeCodeTable{
		entries: append([]ChargeCodeMapping(nil), entries...),
		byCode:  make(map[string]int, len(entries)),
	}
	for i, e := range t.entries {
		if _, exists := t.byCode[e.ChargeCode]; !exists {
			t.byCode[e.ChargeCode] = i
		}
	}
	return t
}

// Lookup returns the mapping for code. A miss is not an error.
func (t ChargeCodeTable) Lookup(code string) (ChargeCodeMapping, bool) {
	i, ok := t.byCode[code]
	if !ok {
		return ChargeCodeMapping{}, false
	}
	return t.entries[i], true
}

// Len returns the number of loaded entries, duplicates included.
func (t ChargeCodeTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the loaded entries in file order.
func (t ChargeCodeTable) Entries() []ChargeCodeMapping {
	return append([]ChargeCodeMapping(nil), t.entries...)
}

// ContainerSizeTable is an immutable container-size lookup. Size codes match
// case-insensitively; the first entry for a code wins.
type ContainerSizeTable struct {
	entries []ContainerSizeMapping
	bySize  map[string]int
}

// NewContainerSizeTable indexes the given entries. The slice is copied.
func NewContainerSizeTable(entries []ContainerSizeMapping) ContainerSizeTable {
	t := ContainerSizeTable{
		entries: append([]ContainerSizeMapping(nil), entries...),
		bySize:  make(map[string]int, len(entries)),
	}
	for i, e := range t.entries {
		key := strings.ToUpper(e.SourceSize)
		if _, exists := t.bySize[key]; !exists {
			t.bySize[key] = i
		}
	}
	return t
}

// Lookup returns the mapping for size. A miss is not an error.
func (t ContainerSizeTable) Lookup(size string) (ContainerSizeMapping, bool) {
	i, ok := t.bySize[strings.ToUpper(size)]
	if !ok {
		return ContainerSizeMapping{}, false
	}
	return t.entries[i], true
}

// Len returns the number of loaded entries, duplicates included.
func (t ContainerSizeTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the loaded entries in file order.
func (t ContainerSizeTable) Entries() []ContainerSizeMapping {
	return append([]ContainerSizeMapping(nil), t.entries...)
}

// =============================================================================
// PARTY CONFIGURATION
// =============================================================================

// PartyConfig holds the static trading-partner identity used in the
// interchange header and the NAD/RFF party segments.
type PartyConfig struct {
	// SenderIdentification is the UNB sender. It is always replaced by the
	// override passed to config.LoadMainConfig.
	SenderIdentification string `yaml:"sender_identification"`

	// ReceiverIdentification is the UNB recipient.
	ReceiverIdentification string `yaml:"receiver_identification"`

	// SellerPartyID is the NAD+IV party id (code list qualifier ZZZ).
	SellerPartyID string `yaml:"seller_party_id"`

	// BuyerPartyID is the NAD+II party id. Empty falls back to
	// ReceiverIdentification.
	BuyerPartyID string `yaml:"buyer_party_id"`

	SenderCompanyName string `yaml:"sender_company_name"`
	SenderDepartment  string `yaml:"sender_department"`
	SenderStreet      string `yaml:"sender_street"`
	SenderCity        string `yaml:"sender_city"`
	SenderPostcode    string `yaml:"sender_postcode"`
	SenderCountry     string `yaml:"sender_country"`
	SenderVatNumber   string `yaml:"sender_vat_number"`

	ReceiverCompanyName string `yaml:"receiver_company_name"`
	ReceiverStreet      string `yaml:"receiver_street"`
	ReceiverCity        string `yaml:"receiver_city"`
	ReceiverPostcode    string `yaml:"receiver_postcode"`
	ReceiverCountry     string `yaml:"receiver_country"`
	ReceiverVatNumber   string `yaml:"receiver_vat_number"`
}

// BuyerID returns the NAD+II party id.
func (p PartyConfig) BuyerID() string {
	if p.BuyerPartyID != "" {
		return p.BuyerPartyID
	}
	return p.ReceiverIdentification
}
