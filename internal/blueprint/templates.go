package blueprint

// TemplateSection is one suggested section in a report-type skeleton: a title
// and a suggested chart type. The planner offers these to the model as a
// strong hint; the fallback uses them verbatim.
type TemplateSection struct {
	Title     string
	ChartType ChartType
}

// SectionTemplates returns the ordered section skeleton for a report type.
func SectionTemplates(rt ReportType) []TemplateSection {
	switch rt {
	case ReportTypeCompanyAnalysis:
		return []TemplateSection{
			{"Executive Summary", ChartNone},
			{"Company Overview & History", ChartNone},
			{"Financial Performance & Growth", ChartLine},
			{"Market Position & Share", ChartBar},
			{"Product Portfolio Analysis", ChartPie},
			{"Competitive Landscape", ChartBar},
			{"Innovation & Future Outlook", ChartLine},
			{"Risk Assessment", ChartNone},
			{"Strategic Recommendations", ChartNone},
		}
	case ReportTypeMarketResearch:
		return []TemplateSection{
			{"Executive Summary", ChartNone},
			{"Market Overview", ChartNone},
			{"Market Size & Growth", ChartLine},
			{"Market Segmentation", ChartPie},
			{"Competitive Analysis", ChartBar},
			{"Customer Analysis", ChartBar},
			{"Trend Analysis", ChartLine},
			{"Market Opportunities", ChartScatter},
			{"Strategic Recommendations", ChartNone},
		}
	default:
		// Industry and technical reports share the generic skeleton.
		return []TemplateSection{
			{"Executive Summary", ChartNone},
			{"Background & Context", ChartNone},
			{"Key Findings", ChartBar},
			{"Trend Analysis", ChartLine},
			{"Comparative Analysis", ChartBar},
			{"Impact Assessment", ChartPie},
			{"Future Projections", ChartLine},
			{"Strategic Recommendations", ChartNone},
		}
	}
}
