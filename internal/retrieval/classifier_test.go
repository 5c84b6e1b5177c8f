package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyModeSelection(t *testing.T) {
	c := NewClassifier(DefaultRules)

	tests := []struct {
		name  string
		query string
		want  Mode
	}{
		{
			name:  "metric comparison is numeric",
			query: "Compare revenue of Alpha Corp vs Beta Inc for 2023",
			want:  ModeNumeric,
		},
		{
			name:  "causal question about margins is narrative",
			query: "Why are Alpha Corp's margins improving?",
			want:  ModeNarrative,
		},
		{
			name:  "risk question is narrative",
			query: "What risks does management see for next year?",
			want:  ModeNarrative,
		},
		{
			name:  "mixed numeric and narrative keywords is hybrid",
			query: "Explain the revenue growth drivers",
			want:  ModeHybrid,
		},
		{
			name:  "no keywords falls back to hybrid",
			query: "Tell me about Alpha Corp",
			want:  ModeHybrid,
		},
		{
			name:  "empty query falls back to hybrid",
			query: "",
			want:  ModeHybrid,
		},
		{
			name:  "roe question is numeric",
			query: "What is the ROE of Beta Inc?",
			want:  ModeNumeric,
		},
		{
			name:  "outlook question is narrative",
			query: "Summarize the outlook from the latest transcript",
			want:  ModeNarrative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.query))
		})
	}
}

func TestClassifyMatchesWholeWordsOnly(t *testing.T) {
	c := NewClassifier(DefaultRules)

	// "margins" must not trigger the "margin" rule; the only signal left in
	// this query is the narrative "why".
	numeric, narrative := c.Score("Why are margins improving?")
	assert.Zero(t, numeric)
	assert.Positive(t, narrative)

	// The singular form still matches.
	numeric, _ = c.Score("What is the profit margin?")
	assert.Positive(t, numeric)
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	c := NewClassifier(DefaultRules)

	assert.Equal(t, c.Classify("COMPARE REVENUE OF ALPHA AND BETA"), c.Classify("compare revenue of alpha and beta"))
	assert.Equal(t, ModeNumeric, c.Classify("COMPARE REVENUE"))
}

func TestClassifyPunctuationDoesNotHideKeywords(t *testing.T) {
	c := NewClassifier(DefaultRules)

	assert.Equal(t, ModeNumeric, c.Classify("revenue?"))
	assert.Equal(t, ModeNarrative, c.Classify("...why?!"))
}

func TestClassifyMultiWordPhrases(t *testing.T) {
	c := NewClassifier(DefaultRules)

	numeric, _ := c.Score("how much cash does Alpha hold")
	// "how much" and "cash" both score.
	assert.GreaterOrEqual(t, numeric, 2)

	_, narrative := c.Score("describe the business model")
	assert.Positive(t, narrative)
}

func TestClassifyWeightsDoNotAffectPresenceDecision(t *testing.T) {
	c := NewClassifier(DefaultRules)

	// One weak narrative keyword against two strong numeric ones still means
	// both sides are present, so the mode is hybrid.
	mode := c.Classify("compare revenue guidance")
	assert.Equal(t, ModeHybrid, mode)
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(DefaultRules)

	query := "Why did profit decline despite revenue growth?"
	first := c.Classify(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(query))
	}
}
