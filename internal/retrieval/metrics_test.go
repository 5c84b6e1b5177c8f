package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

// fakeFinancialsRepo records calls and serves canned per-ticker responses.
type fakeFinancialsRepo struct {
	byTicker map[string][]financials.MetricRecord
	errs     map[string]error
	recent   []financials.MetricRecord

	calls       []string
	limitsSeen  []int
	recentCalls int
}

func (f *fakeFinancialsRepo) GetByTicker(ctx context.Context, ticker string, yearMin, yearMax, limit int) ([]financials.MetricRecord, error) {
	f.calls = append(f.calls, ticker)
	f.limitsSeen = append(f.limitsSeen, limit)
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	return f.byTicker[ticker], nil
}

func (f *fakeFinancialsRepo) GetRecent(ctx context.Context, limit int) ([]financials.MetricRecord, error) {
	f.recentCalls++
	return f.recent, nil
}

func TestFetchSanitizesTickers(t *testing.T) {
	repo := &fakeFinancialsRepo{
		byTicker: map[string][]financials.MetricRecord{
			"AAPL": {metricFixture("AAPL", "Apple", 2024)},
			"MSFT": {metricFixture("MSFT", "Microsoft", 2024)},
		},
	}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{" aapl ", "", "msft", "  "}, 0, 0, 10)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, repo.calls)
}

func TestFetchAllTickersBlankReturnsEmpty(t *testing.T) {
	repo := &fakeFinancialsRepo{}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{"", "   "}, 0, 0, 10)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, repo.calls)
	assert.Zero(t, repo.recentCalls)
}

func TestFetchNoTickersFallsBackToRecent(t *testing.T) {
	repo := &fakeFinancialsRepo{
		recent: []financials.MetricRecord{metricFixture("AAPL", "Apple", 2024)},
	}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), nil, 0, 0, 10)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, repo.recentCalls)
}

func TestFetchClampsLimit(t *testing.T) {
	repo := &fakeFinancialsRepo{
		byTicker: map[string][]financials.MetricRecord{"AAPL": nil},
	}
	r := NewMetricsRetriever(repo, 0)

	_, err := r.Fetch(context.Background(), []string{"AAPL"}, 0, 0, 5000)
	require.NoError(t, err)
	_, err = r.Fetch(context.Background(), []string{"AAPL"}, 0, 0, -3)
	require.NoError(t, err)

	require.Len(t, repo.limitsSeen, 2)
	assert.Equal(t, MaxMetricsLimit, repo.limitsSeen[0])
	assert.Equal(t, MinMetricsLimit, repo.limitsSeen[1])
}

func TestFetchYearRangeOutsideWindowReturnsEmptyWithoutError(t *testing.T) {
	repo := &fakeFinancialsRepo{}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{"AAPL"}, 1980, 1995, 10)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, repo.calls, "store must not be queried for an impossible range")
}

func TestFetchInvertedYearRangeReturnsEmpty(t *testing.T) {
	repo := &fakeFinancialsRepo{}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{"AAPL"}, 2025, 2020, 10)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchPerTickerIsolation(t *testing.T) {
	repo := &fakeFinancialsRepo{
		byTicker: map[string][]financials.MetricRecord{
			"AAPL": {metricFixture("AAPL", "Apple", 2024)},
		},
		errs: map[string]error{
			"MSFT": errors.ErrStoreUnavailable,
		},
	}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{"AAPL", "MSFT"}, 0, 0, 10)

	require.NoError(t, err, "one failed ticker must not fail the fetch")
	assert.Len(t, records, 1)
	assert.Equal(t, "AAPL", records[0].Ticker)
}

func TestFetchAllTickersFailingSignalsStoreUnavailable(t *testing.T) {
	repo := &fakeFinancialsRepo{
		errs: map[string]error{
			"AAPL": errors.ErrStoreUnavailable,
			"MSFT": errors.ErrTimeout,
		},
	}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{"AAPL", "MSFT"}, 0, 0, 10)

	assert.Empty(t, records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
}

func TestFetchDropsMalformedRecords(t *testing.T) {
	repo := &fakeFinancialsRepo{
		byTicker: map[string][]financials.MetricRecord{
			"AAPL": {
				metricFixture("AAPL", "Apple", 2024),
				{Ticker: "AAPL", Year: 2024}, // missing company
			},
		},
	}
	r := NewMetricsRetriever(repo, 0)

	records, err := r.Fetch(context.Background(), []string{"AAPL"}, 0, 0, 10)

	require.NoError(t, err)
	assert.Len(t, records, 1)
}
