package blueprint

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"reportforge/internal/research"
)

func parseDoc(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Failed to parse test document: %v", err)
	}
	return doc
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	doc := parseDoc(t, `{
		"title": "Electric Vehicles",
		"subtitle": "A market research report",
		"sections": [
			{"title": "Executive Summary"},
			{"title": "Market Size & Growth", "chart_type": "line", "chart_data": {
				"labels": ["2023", "2024", "2025"],
				"series": [{"name": "Revenue", "values": [1.2, 2.4, 4.8]}]
			}}
		]
	}`)

	bp, discrepancy, err := Validate(doc, 2)
	if err != nil {
		t.Fatalf("Expected valid document, got error: %v", err)
	}
	if discrepancy != nil {
		t.Errorf("Expected no discrepancy for matching section count, got %+v", discrepancy)
	}
	if bp.Title != "Electric Vehicles" {
		t.Errorf("Expected title 'Electric Vehicles', got %q", bp.Title)
	}
	if len(bp.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(bp.Sections))
	}
	if bp.Sections[0].ChartType != ChartNone {
		t.Errorf("Expected absent chart_type to default to none, got %q", bp.Sections[0].ChartType)
	}
	chart := bp.Sections[1].ChartData
	if chart == nil {
		t.Fatal("Expected chart data on charted section")
	}
	if len(chart.Series) != 1 || chart.Series[0].Name != "Revenue" {
		t.Errorf("Unexpected series: %+v", chart.Series)
	}
	if !reflect.DeepEqual(chart.Series[0].Values, []float64{1.2, 2.4, 4.8}) {
		t.Errorf("Unexpected values: %v", chart.Series[0].Values)
	}
}

func TestValidateNormalizesFlatValuesForm(t *testing.T) {
	doc := parseDoc(t, `{
		"title": "T", "subtitle": "S",
		"sections": [
			{"title": "Share", "chart_type": "pie", "chart_data": {
				"labels": ["A", "B"],
				"values": [60, 40]
			}}
		]
	}`)

	bp, _, err := Validate(doc, 0)
	if err != nil {
		t.Fatalf("Expected flat values form to validate, got: %v", err)
	}
	chart := bp.Sections[0].ChartData
	if len(chart.Series) != 1 {
		t.Fatalf("Expected one normalized series, got %d", len(chart.Series))
	}
	if !reflect.DeepEqual(chart.Series[0].Values, []float64{60, 40}) {
		t.Errorf("Unexpected normalized values: %v", chart.Series[0].Values)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		section int
		field   string
	}{
		{
			name:    "missing title",
			doc:     `{"subtitle": "S", "sections": [{"title": "A"}]}`,
			section: -1,
			field:   "title",
		},
		{
			name:    "empty sections",
			doc:     `{"title": "T", "subtitle": "S", "sections": []}`,
			section: -1,
			field:   "sections",
		},
		{
			name:    "section title empty",
			doc:     `{"title": "T", "subtitle": "S", "sections": [{"title": ""}]}`,
			section: 0,
			field:   "title",
		},
		{
			name:    "unknown chart type",
			doc:     `{"title": "T", "subtitle": "S", "sections": [{"title": "A", "chart_type": "donut"}]}`,
			section: 0,
			field:   "chart_type",
		},
		{
			name:    "charted section without data",
			doc:     `{"title": "T", "subtitle": "S", "sections": [{"title": "A", "chart_type": "bar"}]}`,
			section: 0,
			field:   "chart_data",
		},
		{
			name: "label value length mismatch",
			doc: `{"title": "T", "subtitle": "S", "sections": [
				{"title": "A", "chart_type": "bar", "chart_data": {"labels": ["x", "y", "z"], "values": [1, 2]}}
			]}`,
			section: 0,
			field:   "chart_data",
		},
		{
			name: "non-numeric chart value",
			doc: `{"title": "T", "subtitle": "S", "sections": [
				{"title": "A", "chart_type": "bar", "chart_data": {"labels": ["x"], "values": ["NaN"]}}
			]}`,
			section: 0,
			field:   "chart_data.values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Validate(parseDoc(t, tt.doc), 0)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if verr.Section != tt.section {
				t.Errorf("Expected section %d, got %d", tt.section, verr.Section)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestValidateReportsSectionCountDiscrepancy(t *testing.T) {
	doc := parseDoc(t, `{
		"title": "T", "subtitle": "S",
		"sections": [{"title": "A"}, {"title": "B"}, {"title": "C"}]
	}`)

	bp, discrepancy, err := Validate(doc, 9)
	if err != nil {
		t.Fatalf("Section count mismatch must not reject the document: %v", err)
	}
	if discrepancy == nil {
		t.Fatal("Expected a discrepancy report")
	}
	if discrepancy.Expected != 9 || discrepancy.Actual != 3 {
		t.Errorf("Expected discrepancy 9/3, got %d/%d", discrepancy.Expected, discrepancy.Actual)
	}
	if len(bp.Sections) != 3 {
		t.Errorf("Expected sections preserved as produced, got %d", len(bp.Sections))
	}
}

func TestSectionCountClamping(t *testing.T) {
	tests := []struct {
		pages    int
		expected int
	}{
		{1, 8},
		{12, 8},
		{15, 10},
		{18, 12},
		{40, 12},
	}

	for _, tt := range tests {
		if got := SectionCount(tt.pages); got != tt.expected {
			t.Errorf("SectionCount(%d) = %d, expected %d", tt.pages, got, tt.expected)
		}
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	first := Fallback("Quantum Computing", ReportTypeMarketResearch, 12)
	second := Fallback("Quantum Computing", ReportTypeMarketResearch, 12)

	if !reflect.DeepEqual(first, second) {
		t.Error("Fallback must produce identical blueprints for identical inputs")
	}
	if first.Title != "Quantum Computing" {
		t.Errorf("Expected topic as title, got %q", first.Title)
	}
	if !strings.Contains(first.Subtitle, "market research") {
		t.Errorf("Expected subtitle to name the report type, got %q", first.Subtitle)
	}

	template := SectionTemplates(ReportTypeMarketResearch)
	if len(first.Sections) != len(template) {
		t.Fatalf("Expected %d sections from template, got %d", len(template), len(first.Sections))
	}
	for i, section := range first.Sections {
		if section.Title != template[i].Title {
			t.Errorf("Section %d: expected title %q, got %q", i, template[i].Title, section.Title)
		}
		if section.ChartType != template[i].ChartType {
			t.Errorf("Section %d: expected chart type %q, got %q", i, template[i].ChartType, section.ChartType)
		}
	}
}

func TestParseReportTypeDefaults(t *testing.T) {
	if got := ParseReportType("company_analysis"); got != ReportTypeCompanyAnalysis {
		t.Errorf("Expected company_analysis, got %q", got)
	}
	if got := ParseReportType("quarterly_vibes"); got != ReportTypeMarketResearch {
		t.Errorf("Unknown types should default to market research, got %q", got)
	}
}

func TestRenderPayloadCarriesDigest(t *testing.T) {
	payload := RenderPayload{
		Blueprint: Fallback("EV Batteries", ReportTypeMarketResearch, 12),
		Research: &research.Digest{
			Topic:       "EV Batteries",
			KeyFindings: []string{"Demand is accelerating."},
		},
		Company: "Acme",
		Author:  "Analyst",
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Failed to reparse payload: %v", err)
	}
	dig, ok := doc["research"].(map[string]any)
	if !ok {
		t.Fatal("Expected research object in payload")
	}
	if dig["topic"] != "EV Batteries" {
		t.Errorf("Expected digest topic in payload, got %v", dig["topic"])
	}

	payload.Research = nil
	raw, err = json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload without digest: %v", err)
	}
	if strings.Contains(string(raw), `"research"`) {
		t.Error("Expected research omitted when no digest is attached")
	}
}
