// Package planner turns a topic into a validated report blueprint. It drives
// the model gateway through a bounded extract-validate retry loop and
// degrades to a deterministic template blueprint rather than failing when the
// model cannot produce usable JSON.
package planner

import (
	"context"
	"errors"
	"strings"

	"reportforge/internal/blueprint"
	"reportforge/internal/extract"
	"reportforge/internal/llm"
	"reportforge/internal/logger"
	"reportforge/internal/research"
)

var (
	// ErrEmptyTopic is returned when planning is requested without a topic.
	ErrEmptyTopic = errors.New("report topic cannot be empty")
	// ErrInvalidPageCount is returned for a non-positive page budget.
	ErrInvalidPageCount = errors.New("page count must be positive")
)

// TextGenerator is the model capability the planner needs. *llm.Client
// satisfies it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

const (
	defaultMaxAttempts = 3
	defaultTemperature = 0.3
	defaultMaxTokens   = 16384
)

// Planner orchestrates prompt building, model calls, JSON extraction, and
// blueprint validation. It holds no per-request state; the attempt counter
// lives in the call frame.
type Planner struct {
	model       TextGenerator
	maxAttempts int
	temperature float32
	maxTokens   int32
}

// Request describes one planning invocation. Digest is optional research
// evidence injected into the prompt.
type Request struct {
	Topic      string
	PageCount  int
	ReportType blueprint.ReportType
	Digest     *research.Digest
}

// Result carries the blueprint plus how it was obtained. FallbackUsed must be
// surfaced to the end user; a silently degraded report is a correctness
// issue.
type Result struct {
	Blueprint    *blueprint.ReportBlueprint
	FallbackUsed bool
	Attempts     int
}

// NewPlanner creates a Planner over the given text generator. Non-positive
// tuning values take the package defaults.
func NewPlanner(model TextGenerator, maxAttempts int, temperature float32, maxTokens int32) *Planner {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Planner{
		model:       model,
		maxAttempts: maxAttempts,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Plan produces a validated blueprint for the request. Malformed or invalid
// model responses are retried within the attempt budget; gateway failures and
// budget exhaustion degrade to the deterministic fallback. The only hard
// errors are precondition violations.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return Result{}, ErrEmptyTopic
	}
	if req.PageCount <= 0 {
		return Result{}, ErrInvalidPageCount
	}
	if req.ReportType == "" {
		req.ReportType = blueprint.ReportTypeMarketResearch
	}

	sectionCount := blueprint.SectionCount(req.PageCount)

	attempt := 0
	for attempt < p.maxAttempts {
		attempt++

		prompt := buildPrompt(req, sectionCount, attempt)
		raw, err := p.model.GenerateText(ctx, prompt, llm.TextGenerationOptions{
			Temperature: p.temperature,
			MaxTokens:   p.maxTokens,
		})
		if err != nil {
			// Gateway faults are not recoverable by rephrasing; spend no
			// more of the budget and degrade.
			logger.Warn("Model gateway failed during planning, using fallback",
				"topic", req.Topic, "attempt", attempt, "error", err.Error())
			return p.fallback(req, attempt), nil
		}

		doc, err := extract.Extract(raw)
		if err != nil {
			logger.Warn("Model response held no parseable JSON",
				"topic", req.Topic, "attempt", attempt)
			continue
		}

		bp, discrepancy, err := blueprint.Validate(doc, sectionCount)
		if err != nil {
			logger.Warn("Model blueprint failed validation",
				"topic", req.Topic, "attempt", attempt, "error", err.Error())
			continue
		}
		if discrepancy != nil {
			logger.Info("Blueprint section count differs from target",
				"expected", discrepancy.Expected, "actual", discrepancy.Actual)
		}

		bp.ReportType = req.ReportType
		return Result{Blueprint: bp, Attempts: attempt}, nil
	}

	logger.Warn("Planning attempts exhausted, using fallback",
		"topic", req.Topic, "attempts", attempt)
	return p.fallback(req, attempt), nil
}

func (p *Planner) fallback(req Request, attempts int) Result {
	return Result{
		Blueprint:    blueprint.Fallback(req.Topic, req.ReportType, req.PageCount),
		FallbackUsed: true,
		Attempts:     attempts,
	}
}
