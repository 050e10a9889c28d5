package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"volbreak/internal/model"
	"volbreak/internal/model/enum"
)

type fakeVenue struct {
	mu sync.Mutex

	qtyStep  decimal.Decimal
	position model.Position
	avgPrice decimal.Decimal
	fillTime int64
	klines   []model.Candle

	instrumentErr error
	positionErr   error
	placeErr      error
	historyErr    error
	klineErr      error

	orders []model.OrderRequest
	nextID int
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		qtyStep:  decimal.RequireFromString("0.001"),
		position: model.Position{Side: enum.PositionSideFlat},
		avgPrice: decimal.RequireFromString("50000"),
		fillTime: 1700000001000,
	}
}

func (v *fakeVenue) InstrumentInfo(ctx context.Context, symbol string) (model.InstrumentInfo, error) {
	if v.instrumentErr != nil {
		return model.InstrumentInfo{}, v.instrumentErr
	}
	return model.InstrumentInfo{Symbol: symbol, QtyStep: v.qtyStep}, nil
}

func (v *fakeVenue) CurrentPosition(ctx context.Context, symbol string) (model.Position, error) {
	if v.positionErr != nil {
		return model.Position{}, v.positionErr
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.position, nil
}

func (v *fakeVenue) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	if v.placeErr != nil {
		return model.OrderResult{}, v.placeErr
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orders = append(v.orders, req)
	v.nextID++
	if req.ReduceOnly {
		v.position = model.Position{Side: enum.PositionSideFlat}
	}
	return model.OrderResult{
		OrderID:    fmt.Sprintf("order-%d", v.nextID),
		SubmitTime: 1700000000500,
	}, nil
}

func (v *fakeVenue) OrderHistory(ctx context.Context, orderID string) (model.OrderFill, error) {
	if v.historyErr != nil {
		return model.OrderFill{}, v.historyErr
	}
	return model.OrderFill{OrderID: orderID, AvgPrice: v.avgPrice, FillTime: v.fillTime}, nil
}

func (v *fakeVenue) Kline(ctx context.Context, symbol string, intervalMin int, start int64) ([]model.Candle, error) {
	if v.klineErr != nil {
		return nil, v.klineErr
	}
	return v.klines, nil
}

func (v *fakeVenue) placedOrders() []model.OrderRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.OrderRequest, len(v.orders))
	copy(out, v.orders)
	return out
}

type fakeLedger struct {
	mu sync.Mutex

	resets  []string
	bulk    []model.VolatilityRecord
	inserts []model.VolatilityRecord
	trades  []model.Trade

	resetErr  error
	bulkErr   error
	insertErr error
	tradeErr  error
}

func (l *fakeLedger) Reset(ctx context.Context, symbol string) error {
	if l.resetErr != nil {
		return l.resetErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets = append(l.resets, symbol)
	return nil
}

func (l *fakeLedger) InsertVolatility(ctx context.Context, rec model.VolatilityRecord, limit int) error {
	if l.insertErr != nil {
		return l.insertErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inserts = append(l.inserts, rec)
	return nil
}

func (l *fakeLedger) BulkInsertVolatility(ctx context.Context, recs []model.VolatilityRecord) error {
	if l.bulkErr != nil {
		return l.bulkErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bulk = append(l.bulk, recs...)
	return nil
}

func (l *fakeLedger) InsertTrade(ctx context.Context, trade model.Trade) error {
	if l.tradeErr != nil {
		return l.tradeErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = append(l.trades, trade)
	return nil
}

func (l *fakeLedger) recordedTrades() []model.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

type fakeSource struct {
	ch       chan model.Candle
	startErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan model.Candle, 16)}
}

func (s *fakeSource) Start(ctx context.Context) error {
	return s.startErr
}

func (s *fakeSource) Candles(ctx context.Context, buffer int) (<-chan model.Candle, func()) {
	return s.ch, func() {}
}

func (s *fakeSource) Close() {}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) received() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
