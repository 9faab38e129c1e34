package ingestion

import (
	"regexp"
	"strings"
)

type StructureType string

const (
	SingleProject StructureType = "SINGLE_PROJECT"
	MultiProject  StructureType = "MULTI_PROJECT"
)

var (
	handoverPattern = regexp.MustCompile(`(?i)(Q[1-4]\s+\d{4}|[A-Z]{3}\s+\d{4}|\d{4})`)
	handoverSuffix  = regexp.MustCompile(`(?i)\s*-\s*(Q[1-4]\s+\d{4}|[A-Z]{3}\s+\d{4}).*$`)
)

// ProjectInfo is what a sheet name tells us about its project.
type ProjectInfo struct {
	Name         string `json:"name"`
	SheetName    string `json:"sheetName"`
	HandoverDate string `json:"handoverDate,omitempty"`
}

// Structure describes how a workbook lays out its projects.
type Structure struct {
	Type        StructureType `json:"type"`
	Projects    []ProjectInfo `json:"projects"`
	TotalSheets int           `json:"totalSheets"`
}

// ProjectFor returns the project a sheet belongs to. Single-project workbooks
// attribute every sheet to the one inferred project.
func (s Structure) ProjectFor(sheetName string) ProjectInfo {
	if s.Type == MultiProject {
		for _, p := range s.Projects {
			if p.SheetName == sheetName {
				return p
			}
		}
		return ExtractProjectInfo(sheetName)
	}
	if len(s.Projects) > 0 {
		return s.Projects[0]
	}
	return ExtractProjectInfo(sheetName)
}

// ExtractProjectInfo splits a handover suffix such as "- Q4 2025" off a sheet
// name. A bare four-digit year anywhere in the name is reported as the
// handover date as well; there is no disambiguation.
func ExtractProjectInfo(sheetName string) ProjectInfo {
	info := ProjectInfo{
		SheetName: sheetName,
		Name:      strings.TrimSpace(handoverSuffix.ReplaceAllString(sheetName, "")),
	}
	if m := handoverPattern.FindString(sheetName); m != "" {
		info.HandoverDate = m
	}
	return info
}

// DetectStructure tags a workbook as single- or multi-project from its sheet
// names.
func DetectStructure(sheetNames []string) (Structure, error) {
	if len(sheetNames) == 0 {
		return Structure{}, ErrEmptyWorkbook
	}

	if len(sheetNames) > 1 {
		projects := make([]ProjectInfo, len(sheetNames))
		for i, name := range sheetNames {
			projects[i] = ExtractProjectInfo(name)
		}
		return Structure{
			Type:        MultiProject,
			Projects:    projects,
			TotalSheets: len(sheetNames),
		}, nil
	}

	return Structure{
		Type:        SingleProject,
		Projects:    []ProjectInfo{ExtractProjectInfo(sheetNames[0])},
		TotalSheets: 1,
	}, nil
}
