package domain

import (
	"strings"
	"time"
)

type UnitStatus string

const (
	UnitAvailable UnitStatus = "AVAILABLE"
	UnitReserved  UnitStatus = "RESERVED"
	UnitSold      UnitStatus = "SOLD"
)

// UnknownProject labels units whose project record is gone.
const UnknownProject = "Unknown Project"

// Project is a development owned by one developer.
type Project struct {
	ID           int64     `json:"id"`
	DeveloperID  int64     `json:"developer_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	HandoverDate string    `json:"handover_date,omitempty"`
	UploadID     int64     `json:"upload_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Unit is a sellable property within a project. Unit numbers are not unique.
type Unit struct {
	ID              int64      `json:"id"`
	ProjectID       int64      `json:"project_id"`
	UnitNumber      string     `json:"unit_number"`
	UnitCode        string     `json:"unit_code"`
	Floor           *int       `json:"floor"`
	Category        string     `json:"category,omitempty"`
	SubType         string     `json:"sub_type,omitempty"`
	Area            float64    `json:"area"`
	BalconyArea     *float64   `json:"balcony_area"`
	ViewDescription string     `json:"view_description,omitempty"`
	Tower           string     `json:"tower,omitempty"`
	BasePrice       float64    `json:"base_price"`
	CurrentPrice    float64    `json:"current_price"`
	Status          UnitStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ProjectSummary struct {
	Project
	UnitCount int `json:"unit_count"`
}

type ProjectDetail struct {
	Project
	Units []Unit `json:"units"`
}

// InventoryItem is an available unit joined with its project.
type InventoryItem struct {
	Unit
	ProjectName     string  `json:"project_name"`
	ProjectLocation *string `json:"project_location"`
	HandoverDate    *string `json:"handover_date"`
}

// Filter narrows the agent inventory. Zero values match everything.
type Filter struct {
	Project  string
	Location string
	PriceMin *float64
	PriceMax *float64
}

// Matches reports whether a unit priced at price in project p passes the filter.
func (f Filter) Matches(p *Project, price float64) bool {
	if f.PriceMin != nil && price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && price > *f.PriceMax {
		return false
	}
	if f.Project != "" && (p == nil || !containsFold(p.Name, f.Project)) {
		return false
	}
	if f.Location != "" && (p == nil || !containsFold(p.Location, f.Location)) {
		return false
	}
	return true
}

type DeveloperStats struct {
	TotalProjects  int   `json:"total_projects"`
	TotalUnits     int   `json:"total_units"`
	AvailableUnits int   `json:"available_units"`
	SoldUnits      int   `json:"sold_units"`
	RecentUploads  int64 `json:"recent_uploads"`
}

type AgentStats struct {
	TotalProjects  int   `json:"total_projects"`
	AvailableUnits int   `json:"available_units"`
	MyLeads        int   `json:"my_leads"`
	ActiveBookings int   `json:"active_bookings"`
	Notifications  int64 `json:"notifications"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
