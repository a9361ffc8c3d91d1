package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reportforge/internal/blueprint"
	"reportforge/internal/llm"
	"reportforge/internal/research"
)

// fakeGenerator replays a scripted sequence of responses, one per call.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (g *fakeGenerator) GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error) {
	g.prompts = append(g.prompts, prompt)
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("unscripted call")
}

const validResponse = `{
	"title": "Electric Vehicles",
	"subtitle": "A market research report",
	"sections": [
		{"title": "Executive Summary"},
		{"title": "Market Size & Growth", "chart_type": "line", "chart_data": {"labels": ["2024", "2025"], "values": [10, 20]}}
	]
}`

func TestPlanAcceptsValidFirstAttempt(t *testing.T) {
	model := &fakeGenerator{responses: []string{validResponse}}
	planner := NewPlanner(model, 3, 0.3, 0)

	result, err := planner.Plan(context.Background(), Request{
		Topic:      "Electric Vehicles",
		PageCount:  12,
		ReportType: blueprint.ReportTypeMarketResearch,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if result.FallbackUsed {
		t.Error("Expected model blueprint, not fallback")
	}
	if result.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", result.Attempts)
	}
	if result.Blueprint.Title != "Electric Vehicles" {
		t.Errorf("Unexpected title %q", result.Blueprint.Title)
	}
	if result.Blueprint.ReportType != blueprint.ReportTypeMarketResearch {
		t.Errorf("Expected report type stamped on blueprint, got %q", result.Blueprint.ReportType)
	}
}

func TestPlanRetriesOnMalformedThenSucceeds(t *testing.T) {
	model := &fakeGenerator{responses: []string{
		"I could not produce the report you asked for.",
		"```json\n" + validResponse + "\n```",
	}}
	planner := NewPlanner(model, 3, 0.3, 0)

	result, err := planner.Plan(context.Background(), Request{Topic: "Electric Vehicles", PageCount: 12})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if result.FallbackUsed {
		t.Error("Expected recovery on second attempt, not fallback")
	}
	if result.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", result.Attempts)
	}
	if len(model.prompts) != 2 {
		t.Fatalf("Expected 2 prompts, got %d", len(model.prompts))
	}
	if !strings.Contains(model.prompts[1], "previous response was not valid JSON") {
		t.Error("Retry prompt must restate the JSON-only requirement")
	}
	if strings.Contains(model.prompts[0], "previous response") {
		t.Error("First prompt must not mention a previous attempt")
	}
}

func TestPlanFallsBackAfterBudgetExhausted(t *testing.T) {
	model := &fakeGenerator{responses: []string{"nope", "still nope", "not json either"}}
	planner := NewPlanner(model, 3, 0.3, 0)

	result, err := planner.Plan(context.Background(), Request{Topic: "Electric Vehicles", PageCount: 12})
	if err != nil {
		t.Fatalf("Budget exhaustion must degrade, not fail: %v", err)
	}
	if !result.FallbackUsed {
		t.Error("Expected fallback flag after exhausting attempts")
	}
	if result.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", result.Attempts)
	}
	if model.calls != 3 {
		t.Errorf("Expected exactly 3 model calls, got %d", model.calls)
	}
}

func TestPlanFallsBackImmediatelyOnGatewayError(t *testing.T) {
	gerr := &llm.GatewayError{Kind: llm.KindTimeout, Err: context.DeadlineExceeded}
	model := &fakeGenerator{errs: []error{gerr}}
	planner := NewPlanner(model, 3, 0.3, 0)

	result, err := planner.Plan(context.Background(), Request{
		Topic:      "Electric Vehicles",
		PageCount:  12,
		ReportType: blueprint.ReportTypeCompanyAnalysis,
	})
	if err != nil {
		t.Fatalf("Gateway failure must degrade, not fail: %v", err)
	}
	if !result.FallbackUsed {
		t.Error("Expected fallback flag on gateway failure")
	}
	if model.calls != 1 {
		t.Errorf("Gateway failures must not be retried, got %d calls", model.calls)
	}

	template := blueprint.SectionTemplates(blueprint.ReportTypeCompanyAnalysis)
	if len(result.Blueprint.Sections) != len(template) {
		t.Fatalf("Expected %d template sections, got %d", len(template), len(result.Blueprint.Sections))
	}
	for i, section := range result.Blueprint.Sections {
		if section.Title != template[i].Title {
			t.Errorf("Section %d: expected template title %q, got %q", i, template[i].Title, section.Title)
		}
	}
}

func TestPlanPreconditions(t *testing.T) {
	planner := NewPlanner(&fakeGenerator{}, 3, 0.3, 0)

	_, err := planner.Plan(context.Background(), Request{Topic: "  ", PageCount: 12})
	if !errors.Is(err, ErrEmptyTopic) {
		t.Errorf("Expected ErrEmptyTopic, got %v", err)
	}

	_, err = planner.Plan(context.Background(), Request{Topic: "Electric Vehicles", PageCount: 0})
	if !errors.Is(err, ErrInvalidPageCount) {
		t.Errorf("Expected ErrInvalidPageCount, got %v", err)
	}
}

func TestPromptEmbedsResearchDigest(t *testing.T) {
	model := &fakeGenerator{responses: []string{validResponse}}
	planner := NewPlanner(model, 3, 0.3, 0)

	digest := &research.Digest{
		Topic:       "Electric Vehicles",
		KeyFindings: []string{"Battery costs fell 14% year over year."},
		Sources: []research.SourceRecord{
			{Title: "Battery Price Survey", URL: "https://example.com/survey", ReliabilityScore: 0.9},
		},
	}

	_, err := planner.Plan(context.Background(), Request{
		Topic:     "Electric Vehicles",
		PageCount: 12,
		Digest:    digest,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	prompt := model.prompts[0]
	if !strings.Contains(prompt, "Battery costs fell 14% year over year.") {
		t.Error("Prompt must embed key findings verbatim")
	}
	if !strings.Contains(prompt, "https://example.com/survey") {
		t.Error("Prompt must list top sources")
	}
}

func TestPromptEmbedsTemplateSkeleton(t *testing.T) {
	model := &fakeGenerator{responses: []string{validResponse}}
	planner := NewPlanner(model, 3, 0.3, 0)

	_, err := planner.Plan(context.Background(), Request{
		Topic:      "Electric Vehicles",
		PageCount:  12,
		ReportType: blueprint.ReportTypeMarketResearch,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	prompt := model.prompts[0]
	for _, entry := range blueprint.SectionTemplates(blueprint.ReportTypeMarketResearch) {
		if !strings.Contains(prompt, entry.Title) {
			t.Errorf("Prompt missing template section %q", entry.Title)
		}
	}
}
