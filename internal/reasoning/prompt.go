package reasoning

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
)

// maxSummaryChars bounds each side of the contradiction prompt. The assembler
// already bounds the full context; this guards the second, cheaper call.
const maxSummaryChars = 2000

// metricLine pairs a display label with an accessor so the formatting loop
// stays declarative.
type metricLine struct {
	label   string
	value   func(financials.MetricRecord) decimal.NullDecimal
	percent bool
}

var metricLines = []metricLine{
	{"Revenue", func(m financials.MetricRecord) decimal.NullDecimal { return m.Revenue }, false},
	{"Net Income", func(m financials.MetricRecord) decimal.NullDecimal { return m.NetIncome }, false},
	{"Profit Margin", func(m financials.MetricRecord) decimal.NullDecimal { return m.ProfitMarginPct }, true},
	{"ROE", func(m financials.MetricRecord) decimal.NullDecimal { return m.ROEPct }, true},
	{"Revenue Growth", func(m financials.MetricRecord) decimal.NullDecimal { return m.RevenueGrowthPct }, true},
	{"Total Assets", func(m financials.MetricRecord) decimal.NullDecimal { return m.Assets }, false},
	{"Equity", func(m financials.MetricRecord) decimal.NullDecimal { return m.Equity }, false},
	{"Debt/Equity", func(m financials.MetricRecord) decimal.NullDecimal { return m.DebtToEquity }, true},
}

// FormatNumericSection renders the structured metrics with source identity.
// Returns "" when there are no metrics.
func FormatNumericSection(metrics []financials.MetricRecord) string {
	if len(metrics) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("FINANCIAL METRICS DATA\n")

	for _, m := range metrics {
		fmt.Fprintf(&b, "\n%s (%s) - FY %d\n", m.Company, m.Ticker, m.Year)
		for _, line := range metricLines {
			v := line.value(m)
			if !v.Valid {
				continue
			}
			if line.percent {
				fmt.Fprintf(&b, "  - %s: %s%%\n", line.label, v.Decimal.StringFixed(2))
			} else {
				fmt.Fprintf(&b, "  - %s: %s\n", line.label, formatUSD(v.Decimal))
			}
		}
	}

	return b.String()
}

// FormatNarrativeSection renders every chunk under an explicit [Source: ...]
// label with its relevance score. Returns "" when there are no chunks.
func FormatNarrativeSection(chunks []narrative.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("EARNINGS COMMENTARY & NARRATIVE CONTEXT\n")

	for _, c := range chunks {
		fmt.Fprintf(&b, "\n[Source: %s]\n", retrieval.SourceLabel(c))
		if c.SectionTitle != "" {
			fmt.Fprintf(&b, "Section: %s\n", c.SectionTitle)
		}
		fmt.Fprintf(&b, "Relevance Score: %.3f\n", c.Similarity)
		fmt.Fprintf(&b, "```\n%s\n```\n", c.Text)
	}

	return b.String()
}

// FormatContext renders the full hybrid context plus retrieval metadata for
// inclusion in the analysis prompt.
func FormatContext(hc retrieval.HybridContext) string {
	var b strings.Builder

	if numeric := FormatNumericSection(hc.Metrics); numeric != "" {
		b.WriteString(numeric)
		b.WriteString("\n")
	}
	if narr := FormatNarrativeSection(hc.Chunks); narr != "" {
		b.WriteString(narr)
		b.WriteString("\n")
	}

	b.WriteString("RETRIEVAL METADATA\n")
	fmt.Fprintf(&b, "- Mode: %s\n", hc.Summary.Mode)
	fmt.Fprintf(&b, "- Numeric Records: %d\n", hc.Summary.NumericCount)
	fmt.Fprintf(&b, "- Narrative Chunks: %d\n", hc.Summary.NarrativeCount)

	return b.String()
}

// BuildAnalysisPrompt assembles the primary reasoning prompt: role, query,
// citation-labeled evidence, and analysis instructions.
func BuildAnalysisPrompt(query string, hc retrieval.HybridContext) string {
	var b strings.Builder

	b.WriteString(`You are a financial research agent. Analyze the following financial data and provide insights grounded in the data. Always cite your sources and explain your reasoning.

---

USER QUERY:
`)
	b.WriteString(query)
	b.WriteString("\n\n---\n\nRETRIEVED CONTEXT:\n")
	b.WriteString(FormatContext(hc))
	b.WriteString(`
---

INSTRUCTIONS:
1. Ground all claims in the provided metrics or citations
2. Use [Source: ...] labels to cite where each insight originates
3. Compare numeric data with narrative insights where relevant
4. If data is missing, note what additional information would help
5. Identify any contradictions between quantitative metrics and qualitative commentary
6. Structure analysis: Summary, Key Metrics, Narrative Insights, Risks, Conclusions

RESPONSE:`)

	return b.String()
}

// BuildContradictionPrompt assembles the auditor prompt for the secondary
// check. The model must lead its reply with exactly one of the three tags.
func BuildContradictionPrompt(numericSummary, narrativeSummary string) string {
	var b strings.Builder

	b.WriteString(`You are a financial auditor. Review the following financial metrics and narrative excerpts for contradictions.

FINANCIAL METRICS:
`)
	b.WriteString(truncateChars(numericSummary, maxSummaryChars))
	b.WriteString("\n\nNARRATIVE (from earnings calls and filings):\n")
	b.WriteString(truncateChars(narrativeSummary, maxSummaryChars))
	b.WriteString(`

Identify ANY statements in the narrative that contradict the metrics. Examples:
- Claims of growth when metrics show decline
- Confidence in outlook when metrics deteriorated
- Company denying risks that metrics show

CRITICAL: Your response MUST start with one of these three keywords:
[CONTRADICTION] - if you found contradictions, followed by the specific contradiction with evidence
[ALIGNED] - if metrics and narrative are consistent
[UNCLEAR] - if insufficient data to determine`)

	return b.String()
}

// formatUSD renders dollar amounts in billions or millions.
func formatUSD(d decimal.Decimal) string {
	v := d.InexactFloat64()
	if v >= 1e9 || v <= -1e9 {
		return fmt.Sprintf("$%.2fB", v/1e9)
	}
	return fmt.Sprintf("$%.2fM", v/1e6)
}

func truncateChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
