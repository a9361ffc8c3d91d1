package planner

import (
	"fmt"
	"strings"

	"reportforge/internal/blueprint"
	"reportforge/internal/research"
)

// promptTopSources bounds how many research sources are quoted in the prompt.
const promptTopSources = 5

// buildPrompt composes the single planning prompt: topic, section-template
// skeleton, page target, JSON-only output rules, and the research digest when
// one is available. Retries past the first attempt restate the JSON-only
// requirement more forcefully; the topic never changes between attempts.
func buildPrompt(req Request, sectionCount, attempt int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert report writer and analyst. Create the structural blueprint of a comprehensive %d-page report for: %q\n\n", req.PageCount, req.Topic)

	b.WriteString("CRITICAL: Output ONLY valid JSON. No explanations, no markdown formatting, just pure JSON.\n\n")
	if attempt > 1 {
		b.WriteString("Your previous response was not valid JSON. This attempt MUST contain nothing but a single JSON object. Do not write any prose before or after it.\n\n")
	}

	fmt.Fprintf(&b, "REPORT REQUIREMENTS:\n- Total sections: %d\n- Report type: %s\n- Target length: %d pages\n\n", sectionCount, req.ReportType, req.PageCount)

	b.WriteString("REQUIRED JSON FORMAT:\n")
	b.WriteString(`{
  "title": "Report Title",
  "subtitle": "One-line subtitle",
  "sections": [
    {
      "title": "Section Title",
      "chart_type": "bar|line|pie|scatter|none",
      "chart_data": {"labels": ["A", "B"], "values": [10, 20]}
    }
  ]
}
`)
	b.WriteString("\nSECTION TEMPLATES (strong suggestion, adapt titles to the topic):\n")
	for i, entry := range blueprint.SectionTemplates(req.ReportType) {
		fmt.Fprintf(&b, "%d. %q (chart_type: %s)\n", i+1, entry.Title, entry.ChartType)
	}

	b.WriteString("\nCHART DATA RULES:\n")
	b.WriteString("- Sections with chart_type \"none\" omit chart_data entirely.\n")
	b.WriteString("- labels and values must have the same length.\n")
	b.WriteString("- Multi-series form: {\"labels\": [...], \"series\": [{\"name\": \"...\", \"values\": [...]}]}.\n")
	b.WriteString("- All numbers must be plain finite JSON numbers.\n")

	b.WriteString("\nJSON RULES:\n")
	b.WriteString("1. All property names and string values in double quotes.\n")
	b.WriteString("2. No trailing commas before } or ].\n")
	b.WriteString("3. Escape quotes inside strings and use \\n for line breaks.\n")

	writeDigest(&b, req.Digest)

	return b.String()
}

// writeDigest injects the research key findings and top sources verbatim so
// the model grounds its blueprint in gathered evidence.
func writeDigest(b *strings.Builder, digest *research.Digest) {
	if digest == nil || (len(digest.KeyFindings) == 0 && len(digest.Sources) == 0) {
		return
	}

	b.WriteString("\nRESEARCH FINDINGS (ground your section titles and chart choices in these):\n")
	for _, finding := range digest.KeyFindings {
		fmt.Fprintf(b, "- %s\n", finding)
	}

	if len(digest.Sources) > 0 {
		b.WriteString("\nTOP SOURCES:\n")
		limit := len(digest.Sources)
		if limit > promptTopSources {
			limit = promptTopSources
		}
		for _, source := range digest.Sources[:limit] {
			fmt.Fprintf(b, "- %s (%s, reliability %.2f)\n", source.Title, source.URL, source.ReliabilityScore)
		}
	}
}
