package ingestion

import "fmt"

// Price-per-area bounds outside which a row is flagged.
const (
	MinPricePerArea = 100.0
	MaxPricePerArea = 50000.0
)

// Issue is a validation finding tied to a spreadsheet row.
type Issue struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("Row %d: %s", i.Row, i.Message)
}

// ValidationResult separates blocking findings from advisory ones.
type ValidationResult struct {
	CriticalErrors []Issue `json:"critical_errors"`
	Warnings       []Issue `json:"warnings"`
}

func (r ValidationResult) HasCritical() bool {
	return len(r.CriticalErrors) > 0
}

// Err returns a *ValidationError when any critical issue was found.
func (r ValidationResult) Err() error {
	if !r.HasCritical() {
		return nil
	}
	return &ValidationError{Critical: r.CriticalErrors}
}

func (r ValidationResult) WarningMessages() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.String()
	}
	return out
}

// Validate checks every mapped row. A unit number, a positive area and a
// positive price are mandatory; an unusual price per area only warns.
func Validate(sheets []SheetData) ValidationResult {
	res := ValidationResult{
		CriticalErrors: []Issue{},
		Warnings:       []Issue{},
	}

	for _, sheet := range sheets {
		for _, u := range sheet.Units {
			critical := func(msg string) {
				res.CriticalErrors = append(res.CriticalErrors, Issue{Sheet: sheet.SheetName, Row: u.RowIndex, Message: msg})
			}

			if u.UnitNumber == "" {
				critical("Unit number is required")
			}
			if u.Area == nil || *u.Area <= 0 {
				critical("Valid area is required")
			}
			if u.Price == nil || *u.Price <= 0 {
				critical("Valid price is required")
			}

			if u.Area != nil && u.Price != nil && *u.Area != 0 && *u.Price != 0 {
				ppa := *u.Price / *u.Area
				if ppa < MinPricePerArea || ppa > MaxPricePerArea {
					res.Warnings = append(res.Warnings, Issue{
						Sheet:   sheet.SheetName,
						Row:     u.RowIndex,
						Message: fmt.Sprintf("Price per sq ft (%.2f) seems unusual", ppa),
					})
				}
			}
		}
	}

	return res
}
