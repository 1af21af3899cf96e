package edifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service characters declared by the UNA segment.
const (
	ComponentSeparator = ':'
	ElementSeparator   = '+'
	DecimalMark        = ','
	ReleaseCharacter   = '?'
	SegmentTerminator  = '\''
)

// ServiceStringAdvice is the fixed UNA line.
const ServiceStringAdvice = "UNA:+,? '"

var releaser = strings.NewReplacer(
	"?", "??",
	"+", "?+",
	":", "?:",
	"'", "?'",
)

// escape prefixes every service character in a data value with the release
// character.
func escape(value string) string {
	return releaser.Replace(value)
}

// segment joins a tag and its data elements and appends the terminator.
// Elements are written as given; escape data values before passing them in.
func segment(tag string, elements ...string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, e := range elements {
		b.WriteByte(ElementSeparator)
		b.WriteString(e)
	}
	b.WriteByte(SegmentTerminator)
	return b.String()
}

// composite joins component data elements.
func composite(components ...string) string {
	return strings.Join(components, string(ComponentSeparator))
}

// FormatDecimal renders a value with exactly two fraction digits, the comma
// as decimal mark and no grouping. Midpoints round away from zero.
func FormatDecimal(value decimal.Decimal) string {
	return strings.Replace(value.StringFixed(2), ".", string(DecimalMark), 1)
}

// formatQuantity renders a package count as six zero-padded digits.
func formatQuantity(qty int) string {
	return fmt.Sprintf("%06d", qty)
}

// transactionDateLayouts are the source formats accepted for the invoice
// date, tried in order. Slash and dot dates are day first.
var transactionDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"20060102",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
}

// FormatTransactionDate rewrites a source date as DDMMYYYY. Values that match
// no known layout are returned trimmed but otherwise unchanged.
func FormatTransactionDate(source string) string {
	source = strings.TrimSpace(source)
	if t, ok := ParseTransactionDate(source); ok {
		return t.Format("02012006")
	}
	return source
}

// ParseTransactionDate parses a source date using the accepted layouts.
func ParseTransactionDate(source string) (time.Time, bool) {
	source = strings.TrimSpace(source)
	for _, layout := range transactionDateLayouts {
		if t, err := time.Parse(layout, source); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Render joins segments into the final text artifact, one segment per line.
func Render(segments []string) string {
	return strings.Join(segments, "\n")
}
