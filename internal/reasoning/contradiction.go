package reasoning

import (
	"context"
	"strings"

	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Verdict is the contradiction detector's classification of the assembled
// context. It is always exactly one of the four values below.
type Verdict string

const (
	VerdictContradiction Verdict = "contradiction"
	VerdictAligned       Verdict = "aligned"
	VerdictUnclear       Verdict = "unclear"

	// VerdictSkipped means no contradiction signal is available: the check
	// did not run or its provider call failed. Never surfaced as an error.
	VerdictSkipped Verdict = "skipped"
)

// String returns string representation
func (v Verdict) String() string {
	return string(v)
}

// Finding is the detector's output: a verdict plus supporting detail when a
// contradiction was found.
type Finding struct {
	Verdict Verdict `json:"verdict"`
	Detail  string  `json:"detail,omitempty"`
}

// maxDetailChars caps the detail carried back to the caller.
const maxDetailChars = 500

// Detector runs a secondary, non-blocking-on-failure LLM pass that labels the
// assembled context as aligned, conflicting, or unclear. It never raises: any
// provider failure becomes VerdictSkipped.
type Detector struct {
	router *Router
	log    *logger.Logger
}

// NewDetector creates a contradiction detector over the model router
func NewDetector(router *Router) *Detector {
	return &Detector{
		router: router,
		log:    logger.Get().With("component", "contradiction_detector"),
	}
}

// Detect labels the assembled context. The prompt is sent on the fast tier;
// detection never needs a deep pass.
func (d *Detector) Detect(ctx context.Context, hc retrieval.HybridContext) Finding {
	numericSummary := FormatNumericSection(hc.Metrics)
	narrativeSummary := FormatNarrativeSection(hc.Chunks)

	if numericSummary == "" && narrativeSummary == "" {
		d.log.Debug("Skipping contradiction detection: no evidence to compare")
		return Finding{Verdict: VerdictSkipped}
	}

	prompt := BuildContradictionPrompt(numericSummary, narrativeSummary)

	result, err := d.router.Reason(ctx, prompt, TierFast)
	if err != nil {
		d.log.Warnw("Contradiction detection skipped", "error", err)
		return Finding{Verdict: VerdictSkipped}
	}

	finding := ParseVerdict(result.Text)
	d.log.Debugw("Contradiction detection completed", "verdict", finding.Verdict)
	return finding
}

// ParseVerdict strictly maps raw provider output onto a Finding. Output that
// does not carry exactly one of the three expected tags is treated as
// unclear; this function is total over arbitrary input.
func ParseVerdict(raw string) Finding {
	text := strings.TrimSpace(raw)
	if len([]rune(text)) > maxDetailChars {
		text = string([]rune(text)[:maxDetailChars])
	}

	upper := strings.ToUpper(text)

	switch {
	case strings.Contains(upper, "[CONTRADICTION]"):
		detail := text
		if idx := strings.Index(text, "[CONTRADICTION]"); idx >= 0 {
			detail = text[:idx] + text[idx+len("[CONTRADICTION]"):]
		}
		return Finding{Verdict: VerdictContradiction, Detail: strings.TrimSpace(detail)}
	case strings.Contains(upper, "[ALIGNED]"):
		return Finding{Verdict: VerdictAligned}
	case strings.Contains(upper, "[UNCLEAR]"):
		return Finding{Verdict: VerdictUnclear}
	default:
		return Finding{Verdict: VerdictUnclear, Detail: "output format error"}
	}
}
