package ingestion

import "time"

// DefaultLocation is stamped on every ingested project; sheets carry no
// location column.
const DefaultLocation = "Business Bay, Dubai"

type Unit struct {
	UnitNumber      string   `json:"unit_number"`
	UnitCode        string   `json:"unit_code"`
	Floor           *int     `json:"floor,omitempty"`
	Category        string   `json:"category,omitempty"`
	SubType         string   `json:"sub_type,omitempty"`
	Area            float64  `json:"area"`
	BalconyArea     *float64 `json:"balcony_area,omitempty"`
	ViewDescription string   `json:"view_description,omitempty"`
	Tower           string   `json:"tower,omitempty"`
	BasePrice       float64  `json:"base_price"`
	CurrentPrice    float64  `json:"current_price"`
	SourceRow       int      `json:"source_row"`
}

type Project struct {
	Name         string `json:"name"`
	SheetName    string `json:"sheet_name"`
	Location     string `json:"location"`
	HandoverDate string `json:"handover_date,omitempty"`
	Units        []Unit `json:"units"`
}

type Summary struct {
	ProjectsProcessed int    `json:"projectsProcessed"`
	UnitsProcessed    int    `json:"unitsProcessed"`
	Timestamp         string `json:"timestamp"`
}

// Processed is a validated workbook ready to be written to the store.
type Processed struct {
	DeveloperID int64     `json:"developer_id"`
	Projects    []Project `json:"projects"`
	Summary     Summary   `json:"summary"`
}

// Assemble turns validated sheets into projects, one per sheet.
func Assemble(sheets []SheetData, developerID int64, now time.Time) Processed {
	projects := make([]Project, 0, len(sheets))
	total := 0

	for _, sheet := range sheets {
		p := Project{
			Name:         sheet.Project.Name,
			SheetName:    sheet.SheetName,
			Location:     DefaultLocation,
			HandoverDate: sheet.Project.HandoverDate,
			Units:        make([]Unit, 0, len(sheet.Units)),
		}

		for _, raw := range sheet.Units {
			code := raw.UnitCode
			if code == "" {
				code = p.Name + "-" + raw.UnitNumber
			}
			price := deref(raw.Price)
			p.Units = append(p.Units, Unit{
				UnitNumber:      raw.UnitNumber,
				UnitCode:        code,
				Floor:           raw.Floor,
				Category:        raw.Category,
				SubType:         raw.SubType,
				Area:            deref(raw.Area),
				BalconyArea:     raw.Balcony,
				ViewDescription: raw.View,
				Tower:           raw.Tower,
				BasePrice:       price,
				CurrentPrice:    price,
				SourceRow:       raw.RowIndex,
			})
		}

		total += len(p.Units)
		projects = append(projects, p)
	}

	return Processed{
		DeveloperID: developerID,
		Projects:    projects,
		Summary: Summary{
			ProjectsProcessed: len(projects),
			UnitsProcessed:    total,
			Timestamp:         now.UTC().Format(time.RFC3339),
		},
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
