// =============================================================================
// INVOIC EDIFACT Generator - XLSX Mapping Sheets
// =============================================================================
//
// Mapping tables maintained in Excel are read from the first sheet. The
// first non-empty row is the header; column order is free and header names
// are matched case-insensitively, ignoring spaces, underscores and dashes:
//
//   | Charge Code | Description | EDIFACT Code | Charge Type | Service Category Code |
//   | THC         | Terminal    | 106          | C           | SC                    |
//
// =============================================================================

package reference

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetRow is one data row keyed by normalized header name.
type sheetRow map[string]string

// get returns the first non-empty value among the given header names.
func (r sheetRow) get(names ...string) string {
	for _, n := range names {
		if v := r[n]; v != "" {
			return v
		}
	}
	return ""
}

// readSheet parses the first sheet of an XLSX workbook.
func readSheet(data []byte) ([]sheetRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var header []string
	var out []sheetRow
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		if header == nil {
			header = make([]string, len(row))
			for i, cell := range row {
				header[i] = normalizeHeader(cell)
			}
			continue
		}

		r := make(sheetRow, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			r[name] = strings.TrimSpace(row[i])
		}
		out = append(out, r)
	}

	return out, nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var headerStripper = strings.NewReplacer(" ", "", "_", "", "-", "")

func normalizeHeader(s string) string {
	return headerStripper.Replace(strings.ToLower(strings.TrimSpace(s)))
}
