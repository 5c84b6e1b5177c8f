package retrieval

import (
	"fmt"
	"sort"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Hard bounds on the assembled context. These keep the reasoning prompt
// auditable and the provider bill predictable.
const (
	MaxContextMetrics  = 15
	MaxContextChunks   = 5
	MaxChunkChars      = 800
	MaxNarrativeChars  = 5000
	MaxSectionTitleLen = 100
)

// HybridContext is the assembled, bounded union of both evidence sources.
// It is owned by exactly one in-flight query and discarded after the
// response is formed.
type HybridContext struct {
	Query   string
	Mode    Mode
	Metrics []financials.MetricRecord
	Chunks  []narrative.Chunk
	Summary Summary
}

// Summary reports what retrieval actually contributed, post-truncation.
type Summary struct {
	Mode           Mode
	NumericCount   int
	NarrativeCount int
	LatencyMs      int64
}

// Empty reports whether no evidence survived assembly.
func (c HybridContext) Empty() bool {
	return len(c.Metrics) == 0 && len(c.Chunks) == 0
}

// Assembler merges retriever outputs into a single bounded, citation-labeled
// context object.
type Assembler struct {
	log *logger.Logger
}

// NewAssembler creates a context assembler
func NewAssembler() *Assembler {
	return &Assembler{log: logger.Get().With("component", "context_assembler")}
}

// Assemble builds a HybridContext from raw retriever output. Deterministic
// for a fixed input: metrics ordered most-recent-first, chunks by descending
// similarity, ties broken by identity. Malformed records and chunks without
// a ticker are dropped, never surfaced unlabeled.
func (a *Assembler) Assemble(query string, mode Mode, metrics []financials.MetricRecord, chunks []narrative.Chunk) HybridContext {
	kept := make([]financials.MetricRecord, 0, len(metrics))
	for _, m := range metrics {
		if !m.Valid() {
			a.log.Warnw("Skipping malformed metric record", "ticker", m.Ticker, "year", m.Year)
			continue
		}
		kept = append(kept, m)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Year != kept[j].Year {
			return kept[i].Year > kept[j].Year
		}
		if kept[i].Ticker != kept[j].Ticker {
			return kept[i].Ticker < kept[j].Ticker
		}
		return kept[i].Company < kept[j].Company
	})

	if len(kept) > MaxContextMetrics {
		a.log.Debugw("Metric records capped", "had", len(kept), "cap", MaxContextMetrics)
		kept = kept[:MaxContextMetrics]
	}

	selected := a.selectChunks(chunks)

	return HybridContext{
		Query:   query,
		Mode:    mode,
		Metrics: kept,
		Chunks:  selected,
		Summary: Summary{
			Mode:           mode,
			NumericCount:   len(kept),
			NarrativeCount: len(selected),
		},
	}
}

// selectChunks enforces the narrative bounds: citation integrity first, then
// per-chunk and total character budgets, dropping the lowest-similarity
// chunks when the budget runs out.
func (a *Assembler) selectChunks(chunks []narrative.Chunk) []narrative.Chunk {
	citable := make([]narrative.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !c.Citable() {
			// Hard citation-integrity rule: no ticker, no surface.
			a.log.Warnw("Dropping narrative chunk without ticker", "doc_type", c.DocType, "year", c.Year)
			continue
		}
		if c.Text == "" {
			continue
		}
		citable = append(citable, c)
	}

	sort.SliceStable(citable, func(i, j int) bool {
		if citable[i].Similarity != citable[j].Similarity {
			return citable[i].Similarity > citable[j].Similarity
		}
		return citable[i].ID < citable[j].ID
	})

	selected := make([]narrative.Chunk, 0, MaxContextChunks)
	budget := MaxNarrativeChars

	for _, c := range citable {
		if len(selected) == MaxContextChunks || budget <= 0 {
			break
		}

		c.Similarity = clampFloat(c.Similarity, 0.0, 1.0)
		c.Text = truncateRunes(c.Text, MaxChunkChars)
		c.SectionTitle = truncateRunes(c.SectionTitle, MaxSectionTitleLen)

		length := len([]rune(c.Text))
		if length > budget {
			c.Text = truncateRunes(c.Text, budget)
			length = budget
		}

		selected = append(selected, c)
		budget -= length
	}

	if len(citable) > len(selected) {
		a.log.Debugw("Narrative chunks capped", "had", len(citable), "kept", len(selected))
	}

	return selected
}

// SourceLabel renders a chunk's provenance for citation, e.g.
// "AAPL Earnings Call FY2024".
func SourceLabel(c narrative.Chunk) string {
	return fmt.Sprintf("%s %s FY%d", c.Ticker, docTypeTitle(c.DocType), c.Year)
}

func docTypeTitle(d narrative.DocType) string {
	switch d {
	case narrative.DocEarningsCall:
		return "Earnings Call"
	case narrative.DocRiskFactors:
		return "Risk Factors"
	case narrative.DocManagementDiscussion:
		return "Management Discussion"
	case narrative.DocPressRelease:
		return "Press Release"
	default:
		return "Document"
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
