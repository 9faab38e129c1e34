package ingestion

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseNumber reads a money or area figure. Thousands separators, dollar
// signs and whitespace are dropped, then the longest numeric prefix is used,
// so "1,250 sqft" reads as 1250.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == '$' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	m := floatPrefix.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseFloor reads the leading integer of a floor cell. Zero counts as
// absent, so ground floors labelled "0" carry no floor.
func ParseFloor(s string) (int, bool) {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// RawUnit is one spreadsheet row after column mapping and value cleaning.
// Optional numeric fields are nil when the cell was empty or unparseable.
type RawUnit struct {
	Sheet       string   `json:"sheet"`
	RowIndex    int      `json:"row_index"`
	ProjectName string   `json:"project_name,omitempty"`
	UnitNumber  string   `json:"unit_number,omitempty"`
	UnitCode    string   `json:"unit_code,omitempty"`
	Floor       *int     `json:"floor,omitempty"`
	Category    string   `json:"category,omitempty"`
	SubType     string   `json:"sub_type,omitempty"`
	Area        *float64 `json:"area,omitempty"`
	Balcony     *float64 `json:"balcony,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	View        string   `json:"view,omitempty"`
	Tower       string   `json:"tower,omitempty"`
}

// Set cleans raw according to field and stores it. Empty cells leave the
// field unset.
func (u *RawUnit) Set(field Field, raw string) {
	str := strings.TrimSpace(raw)
	if str == "" {
		return
	}

	switch field {
	case FieldArea, FieldPrice, FieldBalcony:
		v, ok := ParseNumber(str)
		if !ok {
			return
		}
		switch field {
		case FieldArea:
			u.Area = &v
		case FieldPrice:
			u.Price = &v
		default:
			u.Balcony = &v
		}
	case FieldFloor:
		if v, ok := ParseFloor(str); ok {
			u.Floor = &v
		}
	case FieldUnitNumber:
		u.UnitNumber = str
	case FieldUnitCode:
		u.UnitCode = str
	case FieldCategory:
		u.Category = str
	case FieldSubType:
		u.SubType = str
	case FieldView:
		u.View = str
	case FieldProject:
		u.Tower = str
	}
}

// blank reports whether the row carried nothing a unit could be built from.
func (u *RawUnit) blank() bool {
	return u.UnitNumber == "" &&
		u.UnitCode == "" &&
		u.Floor == nil &&
		u.Category == "" &&
		u.SubType == "" &&
		u.Area == nil &&
		u.Balcony == nil &&
		u.Price == nil &&
		u.View == ""
}
