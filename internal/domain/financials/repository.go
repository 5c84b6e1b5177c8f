package financials

import "context"

// Repository provides read access to the structured metrics store. The core
// never writes metrics; ingestion is an external pipeline.
type Repository interface {
	// GetByTicker returns records for one ticker within the year range,
	// most recent year first.
	GetByTicker(ctx context.Context, ticker string, yearMin, yearMax, limit int) ([]MetricRecord, error)

	// GetRecent returns the most recent records across all companies.
	GetRecent(ctx context.Context, limit int) ([]MetricRecord, error)
}
