package ingestion

// SheetData is the mapped content of one worksheet.
type SheetData struct {
	SheetName string        `json:"sheet_name"`
	Project   ProjectInfo   `json:"project"`
	Headers   []string      `json:"headers"`
	HeaderRow int           `json:"header_row"`
	Mapping   ColumnMapping `json:"mapping"`
	Units     []RawUnit     `json:"units"`
}

// ExtractData maps every sheet with at least a header and one data row.
// RowIndex on each unit is the 1-based spreadsheet row number.
func ExtractData(wb *Workbook, structure Structure) []SheetData {
	out := make([]SheetData, 0, len(wb.Sheets))

	for _, sheet := range wb.Sheets {
		if len(sheet.Rows) < 2 {
			continue
		}

		headerRow := FindHeaderRow(sheet.Rows)
		headers := sheet.Rows[headerRow]
		mapping := MapColumns(headers)

		projectName := ""
		if structure.Type == MultiProject {
			projectName = sheet.Name
		}

		out = append(out, SheetData{
			SheetName: sheet.Name,
			Project:   structure.ProjectFor(sheet.Name),
			Headers:   headers,
			HeaderRow: headerRow,
			Mapping:   mapping,
			Units:     mapRows(sheet.Name, mapping, sheet.Rows[headerRow+1:], headerRow, projectName),
		})
	}

	return out
}

func mapRows(sheetName string, mapping ColumnMapping, rows [][]string, headerRow int, projectName string) []RawUnit {
	units := make([]RawUnit, 0, len(rows))
	mapped := mapping.Mapped()

	for i, row := range rows {
		u := RawUnit{
			Sheet:       sheetName,
			RowIndex:    headerRow + i + 2,
			ProjectName: projectName,
		}
		for _, field := range mapped {
			idx := mapping.Index(field)
			if idx < len(row) {
				u.Set(field, row[idx])
			}
		}
		if u.blank() {
			continue
		}
		units = append(units, u)
	}

	return units
}
