package models

import "github.com/shopspring/decimal"

// RateQuote is a single polled market quote for a symbol.
type RateQuote struct {
	Symbol           string          `json:"symbol"`
	Rate             decimal.Decimal `json:"rate"`
	PercentChange24h decimal.Decimal `json:"percent_change_24h"` // signed, trailing 24h window
}

// RateChangeEvent asserts that a symbol's market rate moved.
// On the polling path the source has no distinct prior rate at fetch time,
// so OldRate and NewRate both carry the freshly fetched rate.
type RateChangeEvent struct {
	Symbol  string          `json:"symbol"`
	OldRate decimal.Decimal `json:"old_rate"`
	NewRate decimal.Decimal `json:"new_rate"`
}

// AppliedRateUpdate is the payload mirrored to Redis after the ledger accepts
// an update, for downstream streaming consumers.
type AppliedRateUpdate struct {
	Symbol    string          `json:"symbol"`
	Rate      decimal.Decimal `json:"rate"`
	Positions int             `json:"positions"`  // positions the update touched
	AppliedAt int64           `json:"applied_at"` // unix micro
}
