// Package stream subscribes to the Bybit public linear kline feed and
// turns raw frames into candles.
package stream

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"volbreak/internal/model"
	"volbreak/internal/venue"
)

const _bybitPublicLinearWsUrl = "wss://stream.bybit.com/v5/public/linear"

// Stream is one websocket kline subscription for one symbol.
type Stream struct {
	wss      *ws.WebSocket
	symbol   string
	interval int
}

// New creates a stream for the given symbol and interval in minutes.
func New(ctx context.Context, symbol string, intervalMin int) *Stream {
	return &Stream{
		wss:      ws.New(ctx, _bybitPublicLinearWsUrl),
		symbol:   symbol,
		interval: intervalMin,
	}
}

// NewWithURL is New against a non-default endpoint, used by tests.
func NewWithURL(ctx context.Context, wsURL, symbol string, intervalMin int) *Stream {
	return &Stream{
		wss:      ws.New(ctx, wsURL),
		symbol:   symbol,
		interval: intervalMin,
	}
}

func (s *Stream) Close() {
	s.wss.Close()
}

func (s *Stream) topic() string {
	return fmt.Sprintf("kline.%s.%s", venue.IntervalWire(s.interval), s.symbol)
}

type bybitSubscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bybitSubscribeResponse struct {
	Op      string `json:"op"`
	Success bool   `json:"success"`
	RetMsg  string `json:"ret_msg"`
}

// Start opens the connection and subscribes the kline topic. The
// subscribe payload is registered so it replays on reconnect.
func (s *Stream) Start(ctx context.Context) error {
	if err := s.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	appendIntoRegister := true
	if err := s.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := bybitSubscribeRequest{
				Op:   "subscribe",
				Args: []string{s.topic()},
			}
			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[bybitSubscribeResponse](m)
			if !ok || resp.Op != "subscribe" {
				return false, nil
			}
			if !resp.Success {
				return false, errors.Errorf("subscribe rejected, err: %s", resp.RetMsg)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

type bybitKlineEvent struct {
	Topic string `json:"topic"`
	Data  []struct {
		Start   int64  `json:"start"`
		Open    string `json:"open"`
		Close   string `json:"close"`
		Confirm bool   `json:"confirm"`
	} `json:"data"`
}

// Observe decodes kline frames and hands candles to handler in arrival
// order on a single goroutine. The returned function unsubscribes.
func (s *Stream) Observe(ctx context.Context, handler func(c model.Candle)) (unsubscribe func()) {
	ch, cancel := s.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				event, ok := ws.ReadMessage[bybitKlineEvent](m)
				if !ok || event.Topic != s.topic() {
					continue
				}

				for _, data := range event.Data {
					open, err := decimal.NewFromString(data.Open)
					if err != nil {
						logs.Errorf("parse kline open, err: %+v", err)
						continue
					}
					closePx, err := decimal.NewFromString(data.Close)
					if err != nil {
						logs.Errorf("parse kline close, err: %+v", err)
						continue
					}

					handler(model.Candle{
						StartTime: data.Start,
						Open:      open,
						Close:     closePx,
						Confirm:   data.Confirm,
					})
				}
			}
		}
	}()

	return cancel
}

// Candles adapts Observe into a pull-based channel the engine consumes
// in its own loop. The buffer absorbs ticks arriving while an order is
// being placed and reconciled.
func (s *Stream) Candles(ctx context.Context, buffer int) (<-chan model.Candle, func()) {
	out := make(chan model.Candle, buffer)
	cancel := s.Observe(ctx, func(c model.Candle) {
		select {
		case out <- c:
		case <-ctx.Done():
		}
	})
	return out, cancel
}
