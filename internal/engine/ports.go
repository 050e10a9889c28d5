package engine

import (
	"context"

	"volbreak/internal/model"
)

// Venue is the trading venue collaborator. Position queries always
// reflect venue truth at call time; nothing is cached across ticks.
type Venue interface {
	InstrumentInfo(ctx context.Context, symbol string) (model.InstrumentInfo, error)
	CurrentPosition(ctx context.Context, symbol string) (model.Position, error)
	PlaceOrder(ctx context.Context, req model.OrderRequest) (model.OrderResult, error)
	OrderHistory(ctx context.Context, orderID string) (model.OrderFill, error)
	Kline(ctx context.Context, symbol string, intervalMin int, start int64) ([]model.Candle, error)
}

// Ledger is the append-only persistence collaborator.
type Ledger interface {
	Reset(ctx context.Context, symbol string) error
	InsertVolatility(ctx context.Context, rec model.VolatilityRecord, limit int) error
	BulkInsertVolatility(ctx context.Context, recs []model.VolatilityRecord) error
	InsertTrade(ctx context.Context, trade model.Trade) error
}

// CandleSource is one symbol's live candle subscription, consumed as a
// pull-based channel by the engine loop.
type CandleSource interface {
	Start(ctx context.Context) error
	Candles(ctx context.Context, buffer int) (<-chan model.Candle, func())
	Close()
}
