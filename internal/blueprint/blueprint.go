// Package blueprint defines the structural plan of a report and validates
// model-produced documents into it.
package blueprint

import (
	"fmt"
	"time"

	"reportforge/internal/research"
)

// ReportType selects the section-template skeleton used for planning and for
// the deterministic fallback.
type ReportType string

const (
	ReportTypeMarketResearch    ReportType = "market_research"
	ReportTypeCompanyAnalysis   ReportType = "company_analysis"
	ReportTypeIndustryReport    ReportType = "industry_report"
	ReportTypeTechnicalAnalysis ReportType = "technical_analysis"
)

// ParseReportType maps a user-supplied string to a ReportType, defaulting to
// market research for unknown values.
func ParseReportType(s string) ReportType {
	switch ReportType(s) {
	case ReportTypeCompanyAnalysis, ReportTypeIndustryReport, ReportTypeTechnicalAnalysis:
		return ReportType(s)
	default:
		return ReportTypeMarketResearch
	}
}

// ChartType enumerates the chart renderings a section may request.
type ChartType string

const (
	ChartNone    ChartType = "none"
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
)

// ValidChartType reports whether s names a known chart type.
func ValidChartType(s string) bool {
	switch ChartType(s) {
	case ChartNone, ChartBar, ChartLine, ChartPie, ChartScatter:
		return true
	}
	return false
}

// Series is one named series of chart values.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartData holds the labels and series of a section chart. Every series must
// have exactly one value per label; the validator enforces this before a
// blueprint is handed to the renderer, which performs no further checking.
type ChartData struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// SectionSpec is one planned report section. Content is empty at blueprint
// time; a later narrative pass fills it before rendering.
type SectionSpec struct {
	Title     string     `json:"title"`
	ChartType ChartType  `json:"chart_type"`
	ChartData *ChartData `json:"chart_data,omitempty"`
	Content   string     `json:"content"`
}

// ReportBlueprint is the validated structural plan of a report. Section order
// is rendering order. Once built it is never mutated.
type ReportBlueprint struct {
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle"`
	Sections   []SectionSpec `json:"sections"`
	ReportType ReportType    `json:"report_type"`
}

// RenderPayload is the handoff contract to the external document renderer.
type RenderPayload struct {
	Blueprint *ReportBlueprint `json:"blueprint"`
	Research  *research.Digest `json:"research,omitempty"`
	LogoPath  string           `json:"logo_path,omitempty"`
	Company   string           `json:"company"`
	Author    string           `json:"author"`
	Date      time.Time        `json:"date"`
}

// SectionCount converts a page budget into a section count: roughly one
// section per 1.5 pages, clamped to [8, 12].
func SectionCount(pageCount int) int {
	sections := pageCount * 2 / 3
	if sections < 8 {
		return 8
	}
	if sections > 12 {
		return 12
	}
	return sections
}

// Fallback synthesizes a deterministic blueprint from the report type's
// section template alone. It is used when model-based planning cannot be
// validated within the retry budget, so it must always succeed.
func Fallback(topic string, rt ReportType, pageCount int) *ReportBlueprint {
	template := SectionTemplates(rt)

	sections := make([]SectionSpec, len(template))
	for i, entry := range template {
		sections[i] = SectionSpec{
			Title:     entry.Title,
			ChartType: entry.ChartType,
		}
	}

	return &ReportBlueprint{
		Title:      topic,
		Subtitle:   fmt.Sprintf("A %s report", templateLabel(rt)),
		Sections:   sections,
		ReportType: rt,
	}
}

func templateLabel(rt ReportType) string {
	switch rt {
	case ReportTypeCompanyAnalysis:
		return "company analysis"
	case ReportTypeIndustryReport:
		return "industry"
	case ReportTypeTechnicalAnalysis:
		return "technical analysis"
	default:
		return "market research"
	}
}
