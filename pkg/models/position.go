package models

import "github.com/shopspring/decimal"

// Position is a held quantity of an instrument at a tracked current rate.
// InstrumentID, Symbol, Quantity and InitialRate are immutable after creation;
// CurrentRate moves with accepted rate-change events.
type Position struct {
	InstrumentID string          `json:"instrument_id"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	InitialRate  decimal.Decimal `json:"initial_rate"`
	CurrentRate  decimal.Decimal `json:"current_rate"`
}

// NewPosition creates a position whose current rate starts at the initial rate.
func NewPosition(instrumentID, symbol string, quantity, initialRate decimal.Decimal) Position {
	return Position{
		InstrumentID: instrumentID,
		Symbol:       symbol,
		Quantity:     quantity,
		InitialRate:  initialRate,
		CurrentRate:  initialRate,
	}
}

// TotalValue is Quantity * CurrentRate, recomputed on every read.
func (p Position) TotalValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentRate)
}
