package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reportforge/internal/blueprint"
	"reportforge/internal/config"
	"reportforge/internal/llm"
	"reportforge/internal/logger"
	"reportforge/internal/planner"
	"reportforge/internal/research"
)

// NewReportCmd creates the report planning command
func NewReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report [topic]",
		Short: "Plan a structured report blueprint for a topic",
		Long: `Plans a report blueprint: section titles, chart types, and chart data,
validated against the document schema. With --research the topic is first
expanded into a web-research digest that grounds the plan.

The output is a render-ready JSON payload. When the model cannot produce a
valid blueprint within the retry budget, a deterministic template blueprint
is used instead and a warning is printed.

Examples:
  reportforge report "Electric vehicle batteries"
  reportforge report "Anthropic" --type company_analysis --pages 15
  reportforge report "Solid state batteries" --research --breadth 4 --depth 2`,
		Args: cobra.ExactArgs(1),
		Run:  reportRunFunc,
	}

	reportCmd.Flags().Int("pages", 0, "Target page count (default from config)")
	reportCmd.Flags().String("type", "", "Report type: market_research, company_analysis, industry_report, technical_analysis")
	reportCmd.Flags().Bool("research", false, "Run a web-research traversal before planning")
	reportCmd.Flags().Int("breadth", 0, "Queries per research level (default from config)")
	reportCmd.Flags().Int("depth", 0, "Research expansion levels (default from config)")
	reportCmd.Flags().String("provider", "", "Search provider: firecrawl, duckduckgo, mock")
	reportCmd.Flags().String("output", "", "Output directory (default from config)")

	return reportCmd
}

func reportRunFunc(cmd *cobra.Command, args []string) {
	cfg := config.Get()
	topic := args[0]

	pages, _ := cmd.Flags().GetInt("pages")
	if pages <= 0 {
		pages = cfg.Report.DefaultPages
	}
	typeName, _ := cmd.Flags().GetString("type")
	if typeName == "" {
		typeName = cfg.Report.DefaultType
	}
	reportType := blueprint.ParseReportType(typeName)

	var digest *research.Digest
	if withResearch, _ := cmd.Flags().GetBool("research"); withResearch {
		digest = runResearch(cmd, cfg, topic)
	}

	result := planBlueprint(cmd.Context(), cfg, planner.Request{
		Topic:      topic,
		PageCount:  pages,
		ReportType: reportType,
		Digest:     digest,
	})

	payload := blueprint.RenderPayload{
		Blueprint: result.Blueprint,
		Research:  digest,
		LogoPath:  cfg.Report.LogoPath,
		Company:   cfg.Report.Company,
		Author:    cfg.Report.Author,
		Date:      time.Now().UTC(),
	}

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}
	name := fmt.Sprintf("report-%s-%s.json", time.Now().UTC().Format("2006-01-02"), uuid.NewString()[:8])
	path, err := writeJSONFile(outputDir, name, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report blueprint: %q (%d sections, type %s)\n",
		result.Blueprint.Title, len(result.Blueprint.Sections), result.Blueprint.ReportType)
	if digest != nil {
		fmt.Printf("Research: %d sources, %d key findings\n",
			len(digest.Sources), len(digest.KeyFindings))
	}
	if result.FallbackUsed {
		fmt.Println("Warning: model planning failed; the blueprint is the deterministic template fallback.")
	}
	fmt.Printf("Wrote %s\n", path)
}

// runResearch performs the pre-planning traversal. Research is best-effort:
// a missing provider degrades to planning without a digest, only a bad
// request aborts.
func runResearch(cmd *cobra.Command, cfg *config.Config, topic string) *research.Digest {
	providerName, _ := cmd.Flags().GetString("provider")
	provider, err := newSearchProvider(cfg, providerName)
	if err != nil {
		logger.Warn("Search provider unavailable, planning without research", "error", err.Error())
		fmt.Fprintln(os.Stderr, "Warning: search provider unavailable; planning without research.")
		return nil
	}

	breadth, _ := cmd.Flags().GetInt("breadth")
	if breadth <= 0 {
		breadth = cfg.Research.Breadth
	}
	depth, _ := cmd.Flags().GetInt("depth")
	if depth <= 0 {
		depth = cfg.Research.Depth
	}

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

	digest, err := traverser.Traverse(ctx, research.Query{Topic: topic}, breadth, depth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running research: %v\n", err)
		os.Exit(1)
	}
	return digest
}

// planBlueprint runs the planner, degrading to the template fallback when no
// model client can be built at all.
func planBlueprint(ctx context.Context, cfg *config.Config, req planner.Request) planner.Result {
	client, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		logger.Warn("Model gateway unavailable, using fallback blueprint", "error", err.Error())
		return planner.Result{
			Blueprint:    blueprint.Fallback(req.Topic, req.ReportType, req.PageCount),
			FallbackUsed: true,
		}
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.GeminiTimeout())
	defer cancel()

	p := planner.NewPlanner(client, cfg.Report.MaxAttempts, cfg.AI.Gemini.Temperature, cfg.AI.Gemini.MaxTokens)
	result, err := p.Plan(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error planning report: %v\n", err)
		os.Exit(1)
	}
	return result
}
