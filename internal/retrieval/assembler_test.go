package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
)

func metricFixture(ticker, company string, year int) financials.MetricRecord {
	return financials.MetricRecord{
		Company: company,
		Ticker:  ticker,
		Year:    year,
	}
}

func chunkFixture(id int64, ticker string, similarity float64, text string) narrative.Chunk {
	return narrative.Chunk{
		ID:         id,
		Company:    "Alpha Corp",
		Ticker:     ticker,
		Year:       2024,
		DocType:    narrative.DocEarningsCall,
		Text:       text,
		Similarity: similarity,
	}
}

func TestAssembleCapsMetricsAtFifteen(t *testing.T) {
	a := NewAssembler()

	metrics := make([]financials.MetricRecord, 0, 30)
	for year := 2000; year < 2030; year++ {
		metrics = append(metrics, metricFixture("AAPL", "Apple", year))
	}

	hc := a.Assemble("q", ModeNumeric, metrics, nil)

	assert.Len(t, hc.Metrics, MaxContextMetrics)
	assert.Equal(t, MaxContextMetrics, hc.Summary.NumericCount)
	// Most recent years kept.
	assert.Equal(t, 2029, hc.Metrics[0].Year)
}

func TestAssembleDropsMalformedMetrics(t *testing.T) {
	a := NewAssembler()

	metrics := []financials.MetricRecord{
		metricFixture("AAPL", "Apple", 2024),
		{Company: "No Ticker Inc", Year: 2024},            // missing ticker
		{Ticker: "XYZ", Year: 2024},                       // missing company
		metricFixture("OLD", "Old Corp", 1999),            // year below range
		metricFixture("FUT", "Future Corp", 2101),         // year above range
		metricFixture("MSFT", "Microsoft", 2023),
	}

	hc := a.Assemble("q", ModeNumeric, metrics, nil)

	require.Len(t, hc.Metrics, 2)
	assert.Equal(t, "AAPL", hc.Metrics[0].Ticker)
	assert.Equal(t, "MSFT", hc.Metrics[1].Ticker)
}

func TestAssembleMetricOrderingIsDeterministic(t *testing.T) {
	a := NewAssembler()

	metrics := []financials.MetricRecord{
		metricFixture("MSFT", "Microsoft", 2023),
		metricFixture("AAPL", "Apple", 2024),
		metricFixture("AAPL", "Apple", 2023),
		metricFixture("MSFT", "Microsoft", 2024),
	}

	first := a.Assemble("q", ModeNumeric, metrics, nil)
	second := a.Assemble("q", ModeNumeric, metrics, nil)

	assert.Equal(t, first.Metrics, second.Metrics)
	// Year descending, then ticker ascending.
	assert.Equal(t, 2024, first.Metrics[0].Year)
	assert.Equal(t, "AAPL", first.Metrics[0].Ticker)
	assert.Equal(t, "MSFT", first.Metrics[1].Ticker)
	assert.Equal(t, 2023, first.Metrics[2].Year)
}

func TestAssembleCapsChunksAtFive(t *testing.T) {
	a := NewAssembler()

	chunks := make([]narrative.Chunk, 0, 8)
	for i := int64(0); i < 8; i++ {
		chunks = append(chunks, chunkFixture(i, "AAPL", 0.9-float64(i)*0.05, "text"))
	}

	hc := a.Assemble("q", ModeNarrative, nil, chunks)

	assert.Len(t, hc.Chunks, MaxContextChunks)
	assert.Equal(t, MaxContextChunks, hc.Summary.NarrativeCount)
	// Highest similarity first.
	assert.Equal(t, int64(0), hc.Chunks[0].ID)
}

func TestAssembleTruncatesLongChunks(t *testing.T) {
	a := NewAssembler()

	long := strings.Repeat("a", 2000)
	hc := a.Assemble("q", ModeNarrative, nil, []narrative.Chunk{
		chunkFixture(1, "AAPL", 0.9, long),
	})

	require.Len(t, hc.Chunks, 1)
	assert.Len(t, []rune(hc.Chunks[0].Text), MaxChunkChars)
}

func TestAssembleEnforcesTotalNarrativeBudget(t *testing.T) {
	a := NewAssembler()

	// Seven chunks of 800 chars each would total 5600; the budget allows 5000.
	chunks := make([]narrative.Chunk, 0, 7)
	for i := int64(0); i < 7; i++ {
		chunks = append(chunks, chunkFixture(i, "AAPL", 0.9-float64(i)*0.01, strings.Repeat("x", 800)))
	}

	hc := a.Assemble("q", ModeNarrative, nil, chunks)

	total := 0
	for _, c := range hc.Chunks {
		total += len([]rune(c.Text))
	}
	assert.LessOrEqual(t, total, MaxNarrativeChars)
	assert.LessOrEqual(t, len(hc.Chunks), MaxContextChunks)
}

func TestAssembleDropsUncitableChunks(t *testing.T) {
	a := NewAssembler()

	chunks := []narrative.Chunk{
		chunkFixture(1, "", 0.99, "no ticker, must not surface"),
		chunkFixture(2, "AAPL", 0.5, "citable"),
		chunkFixture(3, "AAPL", 0.8, ""), // empty text
	}

	hc := a.Assemble("q", ModeNarrative, nil, chunks)

	require.Len(t, hc.Chunks, 1)
	assert.Equal(t, int64(2), hc.Chunks[0].ID)
}

func TestAssembleChunkTieBreakIsStable(t *testing.T) {
	a := NewAssembler()

	chunks := []narrative.Chunk{
		chunkFixture(5, "AAPL", 0.7, "b"),
		chunkFixture(2, "AAPL", 0.7, "a"),
	}

	hc := a.Assemble("q", ModeNarrative, nil, chunks)

	require.Len(t, hc.Chunks, 2)
	assert.Equal(t, int64(2), hc.Chunks[0].ID)
	assert.Equal(t, int64(5), hc.Chunks[1].ID)
}

func TestAssembleEmptyInputs(t *testing.T) {
	a := NewAssembler()

	hc := a.Assemble("q", ModeHybrid, nil, nil)

	assert.True(t, hc.Empty())
	assert.Zero(t, hc.Summary.NumericCount)
	assert.Zero(t, hc.Summary.NarrativeCount)
}

func TestSourceLabelRoundTrip(t *testing.T) {
	tests := []struct {
		docType narrative.DocType
		want    string
	}{
		{narrative.DocEarningsCall, "AAPL Earnings Call FY2024"},
		{narrative.DocRiskFactors, "AAPL Risk Factors FY2024"},
		{narrative.DocManagementDiscussion, "AAPL Management Discussion FY2024"},
		{narrative.DocPressRelease, "AAPL Press Release FY2024"},
		{narrative.DocType("unknown"), "AAPL Document FY2024"},
	}

	for _, tt := range tests {
		c := narrative.Chunk{Ticker: "AAPL", Year: 2024, DocType: tt.docType}
		assert.Equal(t, tt.want, SourceLabel(c))
	}
}

func TestAssembleClampsSimilarity(t *testing.T) {
	a := NewAssembler()

	hc := a.Assemble("q", ModeNarrative, nil, []narrative.Chunk{
		chunkFixture(1, "AAPL", 1.7, "over"),
	})

	require.Len(t, hc.Chunks, 1)
	assert.Equal(t, 1.0, hc.Chunks[0].Similarity)
}
