package venue

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"volbreak/internal/model"
)

// IntervalWire maps an interval in minutes to the kline API argument.
// The API refuses 1440 and wants "D" for daily bars.
func IntervalWire(minutes int) string {
	if minutes == 1440 {
		return "D"
	}
	return strconv.Itoa(minutes)
}

// Kline fetches one page of historical candles for symbol starting at
// start (unix ms), returned in ascending start-time order. The venue
// delivers pages newest-first; this reverses them.
func (c *Client) Kline(ctx context.Context, symbol string, intervalMin int, start int64) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)
	q.Set("interval", IntervalWire(intervalMin))
	q.Set("start", strconv.FormatInt(start, 10))

	resp, err := c.get(ctx, "/v5/market/kline", q, false)
	if err != nil {
		return nil, err
	}

	var result struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, errors.Wrap(err, "unmarshal kline")
	}
	if len(result.List) == 0 {
		return nil, errors.Errorf("empty kline page: %s start=%d", symbol, start)
	}

	candles := make([]model.Candle, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		row := result.List[i]
		if len(row) < 5 {
			return nil, errors.Errorf("malformed kline row: %v", row)
		}
		startTime, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parse kline start time").With("row", row)
		}
		open, err := decimal.NewFromString(row[1])
		if err != nil {
			return nil, errors.Wrap(err, "parse kline open").With("row", row)
		}
		closePx, err := decimal.NewFromString(row[4])
		if err != nil {
			return nil, errors.Wrap(err, "parse kline close").With("row", row)
		}
		candles = append(candles, model.Candle{
			StartTime: startTime,
			Open:      open,
			Close:     closePx,
			Confirm:   true,
		})
	}
	return candles, nil
}
