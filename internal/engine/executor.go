package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"volbreak/internal/model"
	"volbreak/internal/model/enum"
	"volbreak/internal/obs"
)

// Executor submits market orders for one symbol and reconciles each
// against its fill record.
type Executor struct {
	symbol string
	usd    decimal.Decimal
	delay  time.Duration
	venue  Venue
	ledger Ledger
	now    func() time.Time
}

// NewExecutor creates an executor spending usd notional per open order
// and waiting delay before the single reconciliation poll.
func NewExecutor(symbol string, usd decimal.Decimal, delay time.Duration, venue Venue, ledger Ledger) *Executor {
	return &Executor{
		symbol: symbol,
		usd:    usd,
		delay:  delay,
		venue:  venue,
		ledger: ledger,
		now:    time.Now,
	}
}

// Quantize converts a usd notional into a quantity that is an exact
// multiple of the instrument's step, rounding to the nearest multiple.
// Nearest rounding can request slightly more than the notional; this
// mirrors the strategy's sizing rule and is covered by tests.
func Quantize(usd, referencePrice, qtyStep decimal.Decimal) decimal.Decimal {
	return usd.Div(referencePrice).Div(qtyStep).Round(0).Mul(qtyStep)
}

// Open submits a market order opening a position on side, sized from
// the configured usd notional at referencePrice.
func (e *Executor) Open(ctx context.Context, side enum.OrderSide, referencePrice decimal.Decimal) error {
	info, err := e.venue.InstrumentInfo(ctx, e.symbol)
	if err != nil {
		return errors.Wrap(err, "instrument info")
	}

	req := model.OrderRequest{
		Symbol: e.symbol,
		Side:   side,
		Qty:    Quantize(e.usd, referencePrice, info.QtyStep),
	}
	return e.submit(ctx, req, referencePrice)
}

// Close submits a reduce-only market order flattening pos. Reduce-only
// guarantees the order can shrink or close the position, never flip it.
func (e *Executor) Close(ctx context.Context, pos model.Position, referencePrice decimal.Decimal) error {
	req := model.OrderRequest{
		Symbol:     e.symbol,
		Side:       pos.Side.Inverse(),
		Qty:        pos.Size,
		ReduceOnly: true,
	}
	return e.submit(ctx, req, referencePrice)
}

func (e *Executor) submit(ctx context.Context, req model.OrderRequest, expectedPrice decimal.Decimal) error {
	timeExpected := e.now().UnixMilli()
	result, err := e.venue.PlaceOrder(ctx, req)
	if err != nil {
		return errors.Wrap(err, "place order").With("side", req.Side.Venue())
	}

	obs.Orders.WithLabelValues(e.symbol, req.Side.Venue(), strconv.FormatBool(req.ReduceOnly)).Inc()

	return e.reconcile(ctx, result, timeExpected, expectedPrice)
}

// reconcile waits the fixed delay, fetches the fill record once and
// appends exactly one trade. There is no retry: a fill that is not yet
// final after the delay is recorded as-is and surfaced as a warning.
func (e *Executor) reconcile(ctx context.Context, result model.OrderResult, timeExpected int64, expectedPrice decimal.Decimal) error {
	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	fill, err := e.venue.OrderHistory(ctx, result.OrderID)
	if err != nil {
		return errors.Wrap(err, "order history").With("orderID", result.OrderID)
	}

	if fill.AvgPrice.IsZero() {
		logs.Warnf("[%s] order %s has no final fill after reconcile delay, recording stale data",
			e.symbol, result.OrderID)
		obs.StaleFills.WithLabelValues(e.symbol).Inc()
	} else {
		slippage, _ := fill.AvgPrice.Sub(expectedPrice).Abs().Float64()
		obs.PriceSlippage.WithLabelValues(e.symbol).Observe(slippage)
	}

	trade := model.Trade{
		OrderID:       result.OrderID,
		Symbol:        e.symbol,
		TimeExpected:  timeExpected,
		TimeExecuted:  result.SubmitTime,
		PriceExpected: expectedPrice.String(),
		PriceExecuted: fill.AvgPrice.String(),
	}

	logs.Infof("[%s] trade %s expected=(%d, %s) executed=(%d, %s)",
		e.symbol, trade.OrderID, trade.TimeExpected, trade.PriceExpected, trade.TimeExecuted, trade.PriceExecuted)

	if err := e.ledger.InsertTrade(ctx, trade); err != nil {
		return errors.Wrap(err, "record trade").With("orderID", result.OrderID)
	}
	return nil
}
