package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

// Compile-time check
var _ financials.Repository = (*FinancialsRepository)(nil)

// FinancialsRepository implements financials.Repository using sqlx
type FinancialsRepository struct {
	db *sqlx.DB
}

// NewFinancialsRepository creates a new financials repository
func NewFinancialsRepository(db *sqlx.DB) *FinancialsRepository {
	return &FinancialsRepository{db: db}
}

const metricColumns = `
	id, company, ticker, year,
	revenue, net_income, gross_profit, operating_income,
	assets, equity, cash, long_term_debt,
	profit_margin_pct, gross_margin_pct, roe_pct, roa_pct,
	current_ratio, debt_to_equity,
	revenue_growth_pct, net_income_growth_pct`

// GetByTicker returns records for one ticker within the year range, most recent first
func (r *FinancialsRepository) GetByTicker(ctx context.Context, ticker string, yearMin, yearMax, limit int) ([]financials.MetricRecord, error) {
	var records []financials.MetricRecord

	query := `
		SELECT ` + metricColumns + `
		FROM financial_metrics
		WHERE ticker = $1 AND year BETWEEN $2 AND $3
		ORDER BY year DESC
		LIMIT $4`

	err := r.db.SelectContext(ctx, &records, query, ticker, yearMin, yearMax, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return records, nil
}

// GetRecent returns the most recent records across all companies
func (r *FinancialsRepository) GetRecent(ctx context.Context, limit int) ([]financials.MetricRecord, error) {
	var records []financials.MetricRecord

	query := `
		SELECT ` + metricColumns + `
		FROM financial_metrics
		ORDER BY year DESC, company
		LIMIT $1`

	err := r.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return records, nil
}

// mapStoreError converts driver failures into the retrieval error taxonomy so
// no raw database error crosses the repository boundary.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return errors.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Wrap(errors.ErrTimeout, err.Error())
	}
	return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
}
