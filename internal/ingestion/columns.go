package ingestion

import "strings"

// Field is a canonical unit attribute that spreadsheet columns map onto.
type Field string

const (
	FieldUnitNumber Field = "unit_number"
	FieldUnitCode   Field = "unit_code"
	FieldFloor      Field = "floor"
	FieldCategory   Field = "category"
	FieldSubType    Field = "sub_type"
	FieldArea       Field = "area"
	FieldBalcony    Field = "balcony"
	FieldPrice      Field = "price"
	FieldView       Field = "view"
	FieldProject    Field = "project"
)

// Fields lists every canonical field in mapping order.
var Fields = []Field{
	FieldUnitNumber,
	FieldUnitCode,
	FieldFloor,
	FieldCategory,
	FieldSubType,
	FieldArea,
	FieldBalcony,
	FieldPrice,
	FieldView,
	FieldProject,
}

// ColumnAliases is the static header vocabulary per field.
var ColumnAliases = map[Field][]string{
	FieldUnitNumber: {"UNIT NO.", "Unit", "UNIT NO", "Unit Number"},
	FieldUnitCode:   {"UNIT CODE", "Unit Code", "CODE"},
	FieldFloor:      {"LEVEL", "FLOOR", "Floor", "Level"},
	FieldCategory:   {"UNIT CATEGORY", "Type", "CATEGORY", "Unit Category"},
	FieldSubType:    {"Unit Sub Type", "SUB UNIT TYPE", "Sub Type"},
	FieldArea:       {"AREA", "Net(sqft)", "Area", "SQFT"},
	FieldBalcony:    {"Balcony", "BALCONY"},
	FieldPrice:      {"PRICE", "Original Price", "Base Price"},
	FieldView:       {"Unit View", "Views", "ACTUAL VIEW", "View"},
	FieldProject:    {"TOWER", "PROJECT", "Project Name"},
}

// Absent marks a field with no matching header column.
const Absent = -1

// ColumnMapping maps each field to a header column index, or Absent.
type ColumnMapping map[Field]int

// Index returns the column for f, or Absent.
func (m ColumnMapping) Index(f Field) int {
	if idx, ok := m[f]; ok {
		return idx
	}
	return Absent
}

// Mapped lists the fields that found a column.
func (m ColumnMapping) Mapped() []Field {
	out := make([]Field, 0, len(m))
	for _, f := range Fields {
		if m.Index(f) != Absent {
			out = append(out, f)
		}
	}
	return out
}

// MapColumns matches header cells against the alias table. Matching is
// case-insensitive on trimmed text and exact; the first matching column wins.
func MapColumns(headers []string) ColumnMapping {
	mapping := make(ColumnMapping, len(Fields))
	for _, field := range Fields {
		mapping[field] = findColumn(headers, ColumnAliases[field])
	}
	return mapping
}

func findColumn(headers []string, aliases []string) int {
	for i, header := range headers {
		h := normalizeHeader(header)
		if h == "" {
			continue
		}
		for _, alt := range aliases {
			if h == normalizeHeader(alt) {
				return i
			}
		}
	}
	return Absent
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
