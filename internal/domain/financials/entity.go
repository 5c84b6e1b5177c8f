package financials

import (
	"github.com/shopspring/decimal"
)

// Fiscal year bounds accepted anywhere in the pipeline. Years outside this
// range are treated as absent rather than rejected with an error.
const (
	MinYear = 2000
	MaxYear = 2100
)

// MetricRecord is one company-year row of structured financial data ingested
// from SEC filings. Every numeric field is nullable; ingestion writes what it
// can extract and leaves the rest NULL.
type MetricRecord struct {
	ID      int64  `db:"id"`
	Company string `db:"company"`
	Ticker  string `db:"ticker"`
	Year    int    `db:"year"`

	// Income statement (USD)
	Revenue         decimal.NullDecimal `db:"revenue"`
	NetIncome       decimal.NullDecimal `db:"net_income"`
	GrossProfit     decimal.NullDecimal `db:"gross_profit"`
	OperatingIncome decimal.NullDecimal `db:"operating_income"`

	// Balance sheet (USD)
	Assets       decimal.NullDecimal `db:"assets"`
	Equity       decimal.NullDecimal `db:"equity"`
	Cash         decimal.NullDecimal `db:"cash"`
	LongTermDebt decimal.NullDecimal `db:"long_term_debt"`

	// Ratios (percentage/decimal)
	ProfitMarginPct decimal.NullDecimal `db:"profit_margin_pct"`
	GrossMarginPct  decimal.NullDecimal `db:"gross_margin_pct"`
	ROEPct          decimal.NullDecimal `db:"roe_pct"`
	ROAPct          decimal.NullDecimal `db:"roa_pct"`
	CurrentRatio    decimal.NullDecimal `db:"current_ratio"`
	DebtToEquity    decimal.NullDecimal `db:"debt_to_equity"`

	// Growth rates (YoY %)
	RevenueGrowthPct   decimal.NullDecimal `db:"revenue_growth_pct"`
	NetIncomeGrowthPct decimal.NullDecimal `db:"net_income_growth_pct"`
}

// Valid reports whether the record carries the identity fields required to
// surface it in a user-facing response.
func (m MetricRecord) Valid() bool {
	if m.Ticker == "" || m.Company == "" {
		return false
	}
	return m.Year >= MinYear && m.Year <= MaxYear
}
