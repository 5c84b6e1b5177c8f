package retrieval

import (
	"strings"
	"unicode"

	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Mode selects which evidence sources a query needs. It is derived per query
// and logged for auditability, never persisted as ground truth.
type Mode string

const (
	ModeNumeric   Mode = "numeric"
	ModeNarrative Mode = "narrative"
	ModeHybrid    Mode = "hybrid"
)

// Valid checks if the mode is a known retrieval mode
func (m Mode) Valid() bool {
	switch m {
	case ModeNumeric, ModeNarrative, ModeHybrid:
		return true
	}
	return false
}

// String returns string representation
func (m Mode) String() string {
	return string(m)
}

// Category labels which evidence source a keyword indicates.
type Category string

const (
	CategoryNumeric   Category = "numeric"
	CategoryNarrative Category = "narrative"
)

// Rule maps one keyword phrase to a category with a weight. The rule table is
// data, consumed by a single evaluator, so it can be tested and tuned without
// touching classification logic.
type Rule struct {
	Keyword  string
	Category Category
	Weight   int
}

// DefaultRules is the production rule table. Strong single-purpose indicators
// carry extra weight; generic phrasing counts once.
var DefaultRules = []Rule{
	// Numeric: metric names, comparison phrasing
	{"compare", CategoryNumeric, 2},
	{"revenue", CategoryNumeric, 2},
	{"profit", CategoryNumeric, 2},
	{"margin", CategoryNumeric, 2},
	{"roe", CategoryNumeric, 2},
	{"roa", CategoryNumeric, 2},
	{"ratio", CategoryNumeric, 2},
	{"earnings", CategoryNumeric, 1},
	{"growth", CategoryNumeric, 1},
	{"metric", CategoryNumeric, 1},
	{"assets", CategoryNumeric, 1},
	{"balance", CategoryNumeric, 1},
	{"cash", CategoryNumeric, 1},
	{"debt", CategoryNumeric, 1},
	{"financial", CategoryNumeric, 1},
	{"higher", CategoryNumeric, 1},
	{"lower", CategoryNumeric, 1},
	{"vs", CategoryNumeric, 1},
	{"how much", CategoryNumeric, 1},
	{"what is", CategoryNumeric, 1},

	// Narrative: causal and qualitative phrasing
	{"why", CategoryNarrative, 2},
	{"risk", CategoryNarrative, 2},
	{"strategy", CategoryNarrative, 2},
	{"outlook", CategoryNarrative, 2},
	{"explain", CategoryNarrative, 2},
	{"management", CategoryNarrative, 1},
	{"commentary", CategoryNarrative, 1},
	{"discussion", CategoryNarrative, 1},
	{"analyst", CategoryNarrative, 1},
	{"transcript", CategoryNarrative, 1},
	{"guidance", CategoryNarrative, 1},
	{"challenges", CategoryNarrative, 1},
	{"opportunities", CategoryNarrative, 1},
	{"competitive", CategoryNarrative, 1},
	{"threat", CategoryNarrative, 1},
	{"strength", CategoryNarrative, 1},
	{"business model", CategoryNarrative, 1},
}

// Classifier scores a query against the rule table and picks a retrieval
// mode. Deterministic, total: it always returns a valid mode.
type Classifier struct {
	rules []Rule
	log   *logger.Logger
}

// NewClassifier creates a classifier over the given rule table.
// Pass DefaultRules for production behavior.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{
		rules: rules,
		log:   logger.Get().With("component", "query_classifier"),
	}
}

// Classify selects the retrieval mode for a query.
// A query matching only numeric rules is numeric, only narrative rules is
// narrative; everything else (mixed, empty, ambiguous) falls back to hybrid,
// the safe default since hybrid retrieval is a superset.
func (c *Classifier) Classify(query string) Mode {
	numericScore, narrativeScore := c.Score(query)

	var mode Mode
	switch {
	case numericScore > 0 && narrativeScore == 0:
		mode = ModeNumeric
	case narrativeScore > 0 && numericScore == 0:
		mode = ModeNarrative
	default:
		mode = ModeHybrid
	}

	c.log.Debugw("Query classified",
		"numeric_score", numericScore,
		"narrative_score", narrativeScore,
		"mode", mode)

	return mode
}

// Score returns the weighted keyword score per category.
func (c *Classifier) Score(query string) (numeric, narrative int) {
	normalized := normalize(query)

	for _, rule := range c.rules {
		if !containsPhrase(normalized, rule.Keyword) {
			continue
		}
		switch rule.Category {
		case CategoryNumeric:
			numeric += rule.Weight
		case CategoryNarrative:
			narrative += rule.Weight
		}
	}
	return numeric, narrative
}

// normalize lowercases the query and collapses punctuation to spaces so rule
// keywords match on word boundaries ("margins" does not trigger "margin").
func normalize(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 2)
	b.WriteByte(' ')
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	return b.String()
}

func containsPhrase(normalized, keyword string) bool {
	return strings.Contains(normalized, " "+keyword+" ")
}
