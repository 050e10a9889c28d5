// Package signal maps one bar's realized return against the rolling
// volatility threshold.
package signal

import (
	"github.com/shopspring/decimal"

	"volbreak/internal/model"
	"volbreak/internal/model/enum"
)

// Evaluate decides the action for the latest bar. stdDev is the rolling
// sample standard deviation; hasStdDev is false while the window holds
// fewer than two records, in which case no signal exists.
//
// A return at or beyond +stdDev signals long, at or beyond -stdDev
// signals short, anything between is flat. An already open position is
// always closed first; the caller sequences close before open, this
// function only names the target.
func Evaluate(priceChange decimal.Decimal, stdDev float64, hasStdDev bool, pos model.Position) enum.Action {
	if !hasStdDev {
		return enum.ActionNoAction
	}

	threshold := decimal.NewFromFloat(stdDev)
	switch {
	case priceChange.GreaterThanOrEqual(threshold):
		return enum.ActionOpenLong
	case priceChange.LessThanOrEqual(threshold.Neg()):
		return enum.ActionOpenShort
	case pos.IsOpen():
		return enum.ActionCloseOnly
	default:
		return enum.ActionNoAction
	}
}
