package blueprint

import (
	"fmt"
	"math"
)

// ValidationError describes the first schema violation found in a document.
// Section is the zero-based section index, or -1 for top-level failures.
type ValidationError struct {
	Section int
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Section < 0 {
		return fmt.Sprintf("invalid blueprint: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid blueprint: section %d: %s: %s", e.Section, e.Field, e.Reason)
}

// Discrepancy reports a section count that differs from the requested target.
// Page count is a target, not a contract, so this is informational only.
type Discrepancy struct {
	Expected int
	Actual   int
}

// Validate checks a parsed JSON document against the blueprint schema and
// converts it into a typed ReportBlueprint. Checks run in order and
// short-circuit on the first failure. A section count differing from
// expectedSections is accepted and reported via the returned Discrepancy.
func Validate(doc any, expectedSections int) (*ReportBlueprint, *Discrepancy, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, nil, &ValidationError{Section: -1, Field: "document", Reason: "top level is not an object"}
	}

	title, ok := stringField(obj, "title")
	if !ok || title == "" {
		return nil, nil, &ValidationError{Section: -1, Field: "title", Reason: "missing or empty"}
	}

	subtitle, ok := stringField(obj, "subtitle")
	if !ok {
		return nil, nil, &ValidationError{Section: -1, Field: "subtitle", Reason: "missing"}
	}

	rawSections, ok := obj["sections"].([]any)
	if !ok || len(rawSections) == 0 {
		return nil, nil, &ValidationError{Section: -1, Field: "sections", Reason: "missing or empty"}
	}

	sections := make([]SectionSpec, 0, len(rawSections))
	for i, raw := range rawSections {
		section, err := validateSection(i, raw)
		if err != nil {
			return nil, nil, err
		}
		sections = append(sections, section)
	}

	var discrepancy *Discrepancy
	if expectedSections > 0 && len(sections) != expectedSections {
		discrepancy = &Discrepancy{Expected: expectedSections, Actual: len(sections)}
	}

	return &ReportBlueprint{
		Title:    title,
		Subtitle: subtitle,
		Sections: sections,
	}, discrepancy, nil
}

func validateSection(index int, raw any) (SectionSpec, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return SectionSpec{}, &ValidationError{Section: index, Field: "section", Reason: "not an object"}
	}

	title, ok := stringField(obj, "title")
	if !ok || title == "" {
		return SectionSpec{}, &ValidationError{Section: index, Field: "title", Reason: "missing or empty"}
	}

	chartType := ChartNone
	if rawType, present := obj["chart_type"]; present {
		s, ok := rawType.(string)
		if !ok || !ValidChartType(s) {
			return SectionSpec{}, &ValidationError{Section: index, Field: "chart_type", Reason: fmt.Sprintf("unknown value %v", rawType)}
		}
		chartType = ChartType(s)
	}

	section := SectionSpec{Title: title, ChartType: chartType}

	if chartType == ChartNone {
		return section, nil
	}

	chartData, err := validateChartData(index, obj["chart_data"])
	if err != nil {
		return SectionSpec{}, err
	}
	section.ChartData = chartData

	return section, nil
}

// validateChartData accepts either the multi-series form
// {labels, series: [{name, values}]} or the flat form {labels, values},
// which is normalized into a single series.
func validateChartData(index int, raw any) (*ChartData, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Section: index, Field: "chart_data", Reason: "missing for charted section"}
	}

	labels, ok := stringSlice(obj["labels"])
	if !ok || len(labels) == 0 {
		return nil, &ValidationError{Section: index, Field: "chart_data.labels", Reason: "missing or empty"}
	}

	var series []Series
	switch {
	case obj["series"] != nil:
		rawSeries, ok := obj["series"].([]any)
		if !ok || len(rawSeries) == 0 {
			return nil, &ValidationError{Section: index, Field: "chart_data.series", Reason: "not a non-empty array"}
		}
		for si, rawEntry := range rawSeries {
			entry, ok := rawEntry.(map[string]any)
			if !ok {
				return nil, &ValidationError{Section: index, Field: fmt.Sprintf("chart_data.series[%d]", si), Reason: "not an object"}
			}
			name, _ := stringField(entry, "name")
			if name == "" {
				name = fmt.Sprintf("Series %d", si+1)
			}
			values, ok := numberSlice(entry["values"])
			if !ok {
				return nil, &ValidationError{Section: index, Field: fmt.Sprintf("chart_data.series[%d].values", si), Reason: "values must be finite numbers"}
			}
			series = append(series, Series{Name: name, Values: values})
		}
	case obj["values"] != nil:
		values, ok := numberSlice(obj["values"])
		if !ok {
			return nil, &ValidationError{Section: index, Field: "chart_data.values", Reason: "values must be finite numbers"}
		}
		series = []Series{{Name: "Values", Values: values}}
	default:
		return nil, &ValidationError{Section: index, Field: "chart_data", Reason: "needs series or values"}
	}

	for _, s := range series {
		if len(s.Values) != len(labels) {
			return nil, &ValidationError{
				Section: index,
				Field:   "chart_data",
				Reason:  fmt.Sprintf("series %q has %d values for %d labels", s.Name, len(s.Values), len(labels)),
			}
		}
	}

	return &ChartData{Labels: labels, Series: series}, nil
}

func stringField(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok
}

func stringSlice(raw any) ([]string, bool) {
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func numberSlice(raw any) ([]float64, bool) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		n, ok := item.(float64)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
