package model

import (
	"github.com/shopspring/decimal"

	"volbreak/internal/model/enum"
)

// Candle is one bar of a fixed interval. An unconfirmed candle may be
// delivered repeatedly with the same StartTime until its interval elapses.
type Candle struct {
	StartTime int64 // unix ms
	Open      decimal.Decimal
	Close     decimal.Decimal
	Confirm   bool
}

// PriceChange returns close/open - 1.
func (c Candle) PriceChange() decimal.Decimal {
	return c.Close.Div(c.Open).Sub(decimal.NewFromInt(1))
}

// Position is the venue's view of the open position for one symbol.
// It is queried at decision time and never cached across ticks.
type Position struct {
	Side enum.PositionSide
	Size decimal.Decimal
}

func (p Position) IsOpen() bool {
	return p.Side == enum.PositionSideLong || p.Side == enum.PositionSideShort
}

// InstrumentInfo carries the instrument constraints used for sizing.
type InstrumentInfo struct {
	Symbol  string
	QtyStep decimal.Decimal
}

// OrderRequest is a market order submission. Qty is always a multiple
// of the instrument's qty step.
type OrderRequest struct {
	Symbol     string
	Side       enum.OrderSide
	Qty        decimal.Decimal
	ReduceOnly bool
}

// OrderResult is the venue acknowledgment of a submitted order.
type OrderResult struct {
	OrderID    string
	SubmitTime int64 // unix ms
}

// OrderFill is the venue's fill record for an executed order.
type OrderFill struct {
	OrderID  string
	AvgPrice decimal.Decimal
	FillTime int64 // unix ms
}
