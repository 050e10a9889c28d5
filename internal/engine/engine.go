/*
Engine runs the per-symbol strategy state machine.

# States

	Bootstrapping -> Streaming -> Evaluating -> Executing -> Streaming (loop)

Halted is terminal and reachable from any state on a fatal fault.

# Per tick

A confirmed candle, or an unconfirmed one whose start time rolled past
the previous bar, triggers evaluation: close any open position, record
the realized return, recompute the rolling deviation and act on the
breakout signal. Execution blocks the dispatch loop for the fixed
reconcile delay; ticks arriving meanwhile queue in the stream buffer.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"volbreak/internal/model"
	"volbreak/internal/model/enum"
	"volbreak/internal/notify"
	"volbreak/internal/obs"
	"volbreak/internal/signal"
	"volbreak/internal/window"
)

// State tracks the engine lifecycle.
type State uint8

const (
	StateBootstrapping State = iota
	StateStreaming
	StateEvaluating
	StateExecuting
	StateHalted
)

// Config is one engine's static parameters.
type Config struct {
	Symbol         string
	IntervalMin    int
	USD            decimal.Decimal
	RowLimit       int
	ReconcileDelay time.Duration
	StreamBuffer   int
}

// Engine is one symbol's strategy unit. Engines share no mutable state
// with each other; each is driven by its own candle subscription on a
// single goroutine.
type Engine struct {
	cfg      Config
	venue    Venue
	ledger   Ledger
	source   CandleSource
	notifier notify.Notifier

	win  *window.Window
	exec *Executor
	now  func() time.Time

	state     State
	prevStart int64
	hasPrev   bool
}

// New creates an engine for cfg.Symbol.
func New(cfg Config, venue Venue, ledger Ledger, source CandleSource, notifier notify.Notifier) *Engine {
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = 64
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{
		cfg:      cfg,
		venue:    venue,
		ledger:   ledger,
		source:   source,
		notifier: notifier,
		win:      window.New(cfg.Symbol, cfg.RowLimit),
		exec:     NewExecutor(cfg.Symbol, cfg.USD, cfg.ReconcileDelay, venue, ledger),
		now:      time.Now,
	}
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Window() *window.Window {
	return e.win
}

// Run bootstraps the window, then consumes candles until ctx is done or
// a fatal fault halts the engine. Any returned error already had its
// notification sent; the supervisor only decides what to do with the
// remaining engines.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.bootstrap(ctx); err != nil {
		return e.halt(ctx, err)
	}

	e.state = StateStreaming
	if err := e.source.Start(ctx); err != nil {
		return e.halt(ctx, errors.Wrap(ErrConnectivity, err.Error()))
	}
	defer e.source.Close()

	candles, cancel := e.source.Candles(ctx, e.cfg.StreamBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-candles:
			if !ok {
				return nil
			}
			if err := e.onCandle(ctx, c); err != nil {
				return e.halt(ctx, err)
			}
			e.state = StateStreaming
		}
	}
}

// bootstrap resets the symbol's persisted history and repopulates it
// from the historical backfill, then seeds the in-memory window.
func (e *Engine) bootstrap(ctx context.Context) error {
	e.state = StateBootstrapping

	if err := e.ledger.Reset(ctx, e.cfg.Symbol); err != nil {
		return errors.Wrap(ErrConnectivity, err.Error())
	}

	recs, err := e.backfill(ctx)
	if err != nil {
		return err
	}

	if err := e.ledger.BulkInsertVolatility(ctx, recs); err != nil {
		return errors.Wrap(ErrIntegrity, err.Error())
	}
	if err := e.win.Seed(recs); err != nil {
		return errors.Wrap(ErrIntegrity, err.Error())
	}

	logs.Infof("[%s] %d rows written to database", e.cfg.Symbol, len(recs))
	obs.WindowSize.WithLabelValues(e.cfg.Symbol).Set(float64(e.win.Size()))
	return nil
}

// backfill pages candles from (aligned now - rowLimit intervals) up to
// the last fully closed bar, advancing each page past the newest start
// time it returned.
func (e *Engine) backfill(ctx context.Context) ([]model.VolatilityRecord, error) {
	intervalMS := int64(e.cfg.IntervalMin) * 60 * 1000
	last := e.now().UnixMilli() / intervalMS * intervalMS
	start := last - int64(e.cfg.RowLimit)*intervalMS

	var recs []model.VolatilityRecord
	for start < last-intervalMS {
		page, err := e.venue.Kline(ctx, e.cfg.Symbol, e.cfg.IntervalMin, start)
		if err != nil {
			return nil, errors.Wrap(ErrVenueProtocol, err.Error())
		}

		next := start
		for _, c := range page {
			if c.StartTime >= last || c.StartTime < start {
				continue
			}
			recs = append(recs, model.NewVolatilityRecord(c.StartTime, e.cfg.Symbol, c.PriceChange()))
			if c.StartTime > next {
				next = c.StartTime
			}
		}
		if next == start {
			break
		}
		start = next + intervalMS
	}
	return recs, nil
}

// onCandle advances the state machine for one delivered tick.
func (e *Engine) onCandle(ctx context.Context, c model.Candle) error {
	rollover := e.hasPrev && e.prevStart < c.StartTime
	if !c.Confirm && !rollover {
		return nil
	}
	e.prevStart = c.StartTime + int64(e.cfg.IntervalMin)*60*1000
	e.hasPrev = true

	e.state = StateEvaluating
	priceChange := c.PriceChange()
	logs.Infof("[%s] %d: %s%%", e.cfg.Symbol, c.StartTime,
		priceChange.Mul(decimal.NewFromInt(100)).Round(4).String())

	pos, err := e.venue.CurrentPosition(ctx, e.cfg.Symbol)
	if err != nil {
		return errors.Wrap(ErrVenueProtocol, err.Error())
	}

	// An open position is always flattened before a new signal may act,
	// so exposure can never double across bars.
	if pos.IsOpen() {
		e.state = StateExecuting
		if err := e.exec.Close(ctx, pos, c.Close); err != nil {
			return errors.Wrap(ErrVenueProtocol, err.Error())
		}
		e.state = StateEvaluating
	}

	rec := model.NewVolatilityRecord(c.StartTime, e.cfg.Symbol, priceChange)
	if err := e.ledger.InsertVolatility(ctx, rec, e.cfg.RowLimit); err != nil {
		return errors.Wrap(ErrIntegrity, err.Error())
	}
	if err := e.win.Insert(rec); err != nil {
		return errors.Wrap(ErrIntegrity, err.Error())
	}
	obs.WindowSize.WithLabelValues(e.cfg.Symbol).Set(float64(e.win.Size()))

	stdDev, hasStdDev := e.win.StdDev()
	if hasStdDev {
		obs.StdDev.WithLabelValues(e.cfg.Symbol).Set(stdDev)
	}

	action := signal.Evaluate(priceChange, stdDev, hasStdDev, model.Position{Side: enum.PositionSideFlat})
	obs.Decisions.WithLabelValues(e.cfg.Symbol, action.String()).Inc()

	if side, open := action.OpenSide(); open {
		e.state = StateExecuting
		if err := e.exec.Open(ctx, side, c.Close); err != nil {
			return errors.Wrap(ErrVenueProtocol, err.Error())
		}
	}
	return nil
}

// halt marks the terminal state, notifies the operator and reports the
// fault upward. Only this symbol's engine stops.
func (e *Engine) halt(ctx context.Context, err error) error {
	e.state = StateHalted
	obs.EngineFaults.WithLabelValues(e.cfg.Symbol).Inc()
	e.notifier.Notify(ctx, fmt.Sprintf("[!] %s | %v", e.cfg.Symbol, err))
	return err
}
