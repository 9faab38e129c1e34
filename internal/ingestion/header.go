package ingestion

import "strings"

// HeaderScanRows bounds how far down a sheet the header search looks.
const HeaderScanRows = 3

const minHeaderCells = 3

// IsHeaderRow reports whether row looks like a column header: at least three
// non-empty cells, one of which contains a unit-number alias.
func IsHeaderRow(row []string) bool {
	if len(row) < minHeaderCells {
		return false
	}

	nonEmpty := make([]string, 0, len(row))
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			nonEmpty = append(nonEmpty, cell)
		}
	}
	if len(nonEmpty) < minHeaderCells {
		return false
	}

	for _, cell := range nonEmpty {
		lc := strings.ToLower(cell)
		for _, alt := range ColumnAliases[FieldUnitNumber] {
			if strings.Contains(lc, strings.ToLower(alt)) {
				return true
			}
		}
	}
	return false
}

// FindHeaderRow returns the index of the first header-like row among the
// first HeaderScanRows rows. It falls back to 0 when none qualifies.
func FindHeaderRow(rows [][]string) int {
	limit := HeaderScanRows
	if len(rows) < limit {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		if IsHeaderRow(rows[i]) {
			return i
		}
	}
	return 0
}
