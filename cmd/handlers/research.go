package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reportforge/internal/config"
	"reportforge/internal/llm"
	"reportforge/internal/research"
)

// NewResearchCmd creates the standalone research command
func NewResearchCmd() *cobra.Command {
	researchCmd := &cobra.Command{
		Use:   "research [topic]",
		Short: "Run a web-research traversal and emit the digest",
		Long: `Expands the topic into a breadth-by-depth tree of search queries, scores
and deduplicates the returned sources, and writes the condensed digest as
JSON. The same digest feeds "reportforge report --research".

Examples:
  reportforge research "AI coding tools"
  reportforge research "AI coding tools" --breadth 4 --depth 2 --provider duckduckgo`,
		Args: cobra.ExactArgs(1),
		Run:  researchRunFunc,
	}

	researchCmd.Flags().Int("breadth", 0, "Queries per level (default from config)")
	researchCmd.Flags().Int("depth", 0, "Expansion levels (default from config)")
	researchCmd.Flags().String("provider", "", "Search provider: firecrawl, duckduckgo, mock")
	researchCmd.Flags().String("timeframe", "", "Restrict results: day, week, month, year")
	researchCmd.Flags().Bool("summarize", false, "Rewrite key findings with one model call")
	researchCmd.Flags().String("output", "", "Output directory (default from config)")

	return researchCmd
}

func researchRunFunc(cmd *cobra.Command, args []string) {
	cfg := config.Get()
	topic := args[0]

	providerName, _ := cmd.Flags().GetString("provider")
	provider, err := newSearchProvider(cfg, providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating search provider: %v\n", err)
		os.Exit(1)
	}

	breadth, _ := cmd.Flags().GetInt("breadth")
	if breadth <= 0 {
		breadth = cfg.Research.Breadth
	}
	depth, _ := cmd.Flags().GetInt("depth")
	if depth <= 0 {
		depth = cfg.Research.Depth
	}
	timeframe, _ := cmd.Flags().GetString("timeframe")

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ResearchTimeout())
	defer cancel()

	traverser := research.NewTraverser(provider, research.TraverserConfig{
		Workers:         cfg.Research.Workers,
		ResultsPerQuery: cfg.Search.MaxResults,
		MaxSources:      cfg.Research.MaxSources,
		MaxFindings:     cfg.Research.MaxFindings,
		QualityFloor:    cfg.Research.QualityFloor,
		QueryTimeout:    cfg.SearchTimeout(),
	})

	if summarize, _ := cmd.Flags().GetBool("summarize"); summarize {
		client, err := llm.NewClient(cfg.AI.Gemini.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: summarizer unavailable: %v\n", err)
		} else {
			defer client.Close()
			traverser.SetSummarizer(client)
		}
	}

	digest, err := traverser.Traverse(ctx, research.Query{Topic: topic, Timeframe: timeframe}, breadth, depth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running research: %v\n", err)
		os.Exit(1)
	}

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}
	name := fmt.Sprintf("research-%s-%s.json", time.Now().UTC().Format("2006-01-02"), digest.ID[:8])
	path, err := writeJSONFile(outputDir, name, digest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing digest: %v\n", err)
		os.Exit(1)
	}

	metrics := digest.Metrics
	fmt.Printf("Research digest for %q (provider %s)\n", topic, provider.GetName())
	fmt.Printf("  Sources: %d total, %d high quality, avg reliability %.2f\n",
		metrics.TotalSources, metrics.HighQualitySources, metrics.AverageReliability)
	fmt.Printf("  Queries: %d breadth, %d depth\n", metrics.BreadthQueries, metrics.DepthQueries)
	fmt.Printf("  Key findings: %d\n", len(digest.KeyFindings))
	fmt.Printf("Wrote %s\n", path)
}
