package llm

import (
	"context"
	"fmt"
	"strings"
)

// SummarizeFindings rewrites a list of raw research findings into concise,
// deduplicated statements with a single model call. It satisfies the research
// package's Summarizer interface.
func (c *Client) SummarizeFindings(ctx context.Context, topic string, findings []string) ([]string, error) {
	if len(findings) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(`You are condensing research notes about %q into key findings for a report.

RAW FINDINGS:
- %s

REQUIREMENTS:
- Rewrite each distinct fact as one clear, standalone sentence
- Merge findings that say the same thing
- Keep concrete numbers and names, drop boilerplate
- At most %d findings

FORMAT: Return as a plain list, one finding per line, prefixed with "- ", without additional formatting:`,
		topic, strings.Join(findings, "\n- "), len(findings))

	response, err := c.GenerateText(ctx, prompt, TextGenerationOptions{Temperature: 0.2})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize findings: %w", err)
	}

	// Parse the bulleted list, tolerating numbered output
	var summarized []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if len(line) > 2 && line[1] == '.' && line[0] >= '1' && line[0] <= '9' {
			line = strings.TrimSpace(line[2:])
		}
		if line != "" {
			summarized = append(summarized, line)
		}
	}

	if len(summarized) == 0 {
		return nil, fmt.Errorf("summarizer returned no findings")
	}
	return summarized, nil
}
