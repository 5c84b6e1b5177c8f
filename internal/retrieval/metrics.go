package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Result-size bound for a single metrics fetch.
const (
	MinMetricsLimit = 1
	MaxMetricsLimit = 100
)

// MetricsRetriever fetches structured financial records under input
// sanitization and result-size bounds. It never raises past its boundary: a
// total store failure yields an empty list plus a recoverable error signal.
type MetricsRetriever struct {
	repo    financials.Repository
	timeout time.Duration
	log     *logger.Logger
}

// NewMetricsRetriever creates a metrics retriever.
// timeout bounds each store call; zero means 5s.
func NewMetricsRetriever(repo financials.Repository, timeout time.Duration) *MetricsRetriever {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &MetricsRetriever{
		repo:    repo,
		timeout: timeout,
		log:     logger.Get().With("component", "metrics_retriever"),
	}
}

// Fetch retrieves metric records for the given tickers within the year range.
// Tickers are upper-cased and blanks dropped; years are clamped to the
// supported fiscal range; limit is clamped to [1,100]. A failure on one
// ticker is skipped without aborting the others. When every call fails the
// returned error wraps errors.ErrStoreUnavailable and the slice is empty.
func (r *MetricsRetriever) Fetch(ctx context.Context, tickers []string, yearMin, yearMax, limit int) ([]financials.MetricRecord, error) {
	limit = clampInt(limit, MinMetricsLimit, MaxMetricsLimit)

	if yearMin == 0 {
		yearMin = financials.MinYear
	}
	if yearMax == 0 {
		yearMax = financials.MaxYear
	}
	// A range entirely outside the supported window means no data can match.
	if yearMin > financials.MaxYear || yearMax < financials.MinYear {
		r.log.Debugw("Year range outside supported window", "year_min", yearMin, "year_max", yearMax)
		return []financials.MetricRecord{}, nil
	}
	yearMin = clampInt(yearMin, financials.MinYear, financials.MaxYear)
	yearMax = clampInt(yearMax, financials.MinYear, financials.MaxYear)
	if yearMin > yearMax {
		return []financials.MetricRecord{}, nil
	}

	sanitized := sanitizeTickers(tickers)
	if len(tickers) > 0 && len(sanitized) == 0 {
		r.log.Debug("All tickers filtered out as empty strings")
		return []financials.MetricRecord{}, nil
	}

	if len(sanitized) == 0 {
		return r.fetchRecent(ctx, limit)
	}

	records := make([]financials.MetricRecord, 0, limit)
	failed := 0

	for _, ticker := range sanitized {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := r.repo.GetByTicker(callCtx, ticker, yearMin, yearMax, limit)
		cancel()

		if err != nil {
			// Per-ticker isolation: skip and keep going.
			failed++
			r.log.Warnw("Metrics fetch failed for ticker", "ticker", ticker, "error", err)
			continue
		}

		kept := 0
		for _, rec := range result {
			if !rec.Valid() {
				r.log.Warnw("Skipping malformed metric record", "ticker", ticker, "year", rec.Year)
				continue
			}
			records = append(records, rec)
			kept++
		}
		r.log.Debugw("Retrieved metrics for ticker", "ticker", ticker, "count", kept)
	}

	if failed == len(sanitized) {
		return []financials.MetricRecord{}, errors.Wrap(errors.ErrStoreUnavailable, "all ticker fetches failed")
	}

	r.log.Infow("Retrieved structured metric records", "count", len(records))
	return records, nil
}

// fetchRecent handles the no-ticker default query.
func (r *MetricsRetriever) fetchRecent(ctx context.Context, limit int) ([]financials.MetricRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.repo.GetRecent(callCtx, limit)
	if err != nil {
		r.log.Warnw("Default metrics fetch failed", "error", err)
		return []financials.MetricRecord{}, errors.Wrap(errors.ErrStoreUnavailable, "recent metrics fetch failed")
	}

	records := make([]financials.MetricRecord, 0, len(result))
	for _, rec := range result {
		if !rec.Valid() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func sanitizeTickers(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
