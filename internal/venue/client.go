// Package venue implements the Bybit v5 linear-perpetual REST client
// used for instrument info, positions, order placement and historical
// kline backfill.
package venue

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"volbreak/internal/model"
	"volbreak/internal/model/enum"
)

const (
	defaultBaseURL    = "https://api.bybit.com"
	defaultRecvWindow = 5000

	category = "linear"
)

// Client talks to the Bybit v5 REST API. Market-data endpoints are
// unsigned; account endpoints are signed with the v5 HMAC scheme.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow int64
	hc         *http.Client
	now        func() time.Time
}

// Option overrides client defaults.
type Option struct {
	BaseURL    string
	RecvWindow int64
	HTTPClient *http.Client
	Now        func() time.Time
}

// New creates a Bybit client. API credentials may be empty for
// market-data only usage.
func New(apiKey, apiSecret string, opt Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		recvWindow: defaultRecvWindow,
		hc:         &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	if opt.BaseURL != "" {
		c.baseURL = opt.BaseURL
	}
	if opt.RecvWindow > 0 {
		c.recvWindow = opt.RecvWindow
	}
	if opt.HTTPClient != nil {
		c.hc = opt.HTTPClient
	}
	if opt.Now != nil {
		c.now = opt.Now
	}
	return c
}

type response struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

func (c *Client) sign(timestamp string, payload string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	_, _ = io.WriteString(mac, timestamp+c.apiKey+strconv.FormatInt(c.recvWindow, 10)+payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) get(ctx context.Context, path string, q url.Values, signed bool) (*response, error) {
	query := q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if signed {
		c.applyAuth(req, query)
	}
	return c.do(req, path)
}

func (c *Client) post(ctx context.Context, path string, body any) (*response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req, string(data))
	return c.do(req, path)
}

func (c *Client) applyAuth(req *http.Request, payload string) {
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", c.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", strconv.FormatInt(c.recvWindow, 10))
	req.Header.Set("X-BAPI-SIGN", c.sign(timestamp, payload))
}

func (c *Client) do(req *http.Request, path string) (*response, error) {
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request").With("path", path)
	}
	defer res.Body.Close()

	bs, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body").With("path", path)
	}
	if res.StatusCode/100 != 2 {
		return nil, errors.Errorf("bybit %s: status %d: %s", path, res.StatusCode, string(bs))
	}

	var resp response
	if err := json.Unmarshal(bs, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal response").With("path", path)
	}
	if resp.RetCode != 0 {
		return nil, errors.Errorf("bybit %s: retCode %d: %s", path, resp.RetCode, resp.RetMsg)
	}
	return &resp, nil
}

// InstrumentInfo returns the instrument constraints for symbol.
func (c *Client) InstrumentInfo(ctx context.Context, symbol string) (model.InstrumentInfo, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)

	resp, err := c.get(ctx, "/v5/market/instruments-info", q, false)
	if err != nil {
		return model.InstrumentInfo{}, err
	}

	var result struct {
		List []struct {
			Symbol        string `json:"symbol"`
			LotSizeFilter struct {
				QtyStep decimal.Decimal `json:"qtyStep"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return model.InstrumentInfo{}, errors.Wrap(err, "unmarshal instruments info")
	}
	if len(result.List) == 0 {
		return model.InstrumentInfo{}, errors.Errorf("instrument not found: %s", symbol)
	}

	return model.InstrumentInfo{
		Symbol:  result.List[0].Symbol,
		QtyStep: result.List[0].LotSizeFilter.QtyStep,
	}, nil
}

// CurrentPosition returns the open position for symbol. A venue "None"
// side maps to a flat position.
func (c *Client) CurrentPosition(ctx context.Context, symbol string) (model.Position, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)

	resp, err := c.get(ctx, "/v5/position/list", q, true)
	if err != nil {
		return model.Position{}, err
	}

	var result struct {
		List []struct {
			Side string `json:"side"`
			Size string `json:"size"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return model.Position{}, errors.Wrap(err, "unmarshal position list")
	}
	if len(result.List) == 0 {
		return model.Position{}, errors.Errorf("position not found: %s", symbol)
	}

	entry := result.List[0]
	pos := model.Position{Side: enum.PositionSideFromVenue(entry.Side)}
	if pos.IsOpen() {
		size, err := decimal.NewFromString(entry.Size)
		if err != nil {
			return model.Position{}, errors.Wrap(err, "parse position size").With("size", entry.Size)
		}
		pos.Size = size
	}
	return pos, nil
}

// PlaceOrder submits a market order and returns the venue order id and
// submit time.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	body := map[string]any{
		"category":    category,
		"symbol":      req.Symbol,
		"side":        req.Side.Venue(),
		"orderType":   "Market",
		"qty":         req.Qty.String(),
		"orderLinkId": uuid.NewString(),
	}
	if req.ReduceOnly {
		body["reduceOnly"] = true
	}

	resp, err := c.post(ctx, "/v5/order/create", body)
	if err != nil {
		return model.OrderResult{}, err
	}

	var result struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return model.OrderResult{}, errors.Wrap(err, "unmarshal order create")
	}

	return model.OrderResult{
		OrderID:    result.OrderID,
		SubmitTime: resp.Time,
	}, nil
}

// OrderHistory returns the fill record of an order by its id.
func (c *Client) OrderHistory(ctx context.Context, orderID string) (model.OrderFill, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("orderId", orderID)

	resp, err := c.get(ctx, "/v5/order/history", q, true)
	if err != nil {
		return model.OrderFill{}, err
	}

	var result struct {
		List []struct {
			OrderID     string `json:"orderId"`
			AvgPrice    string `json:"avgPrice"`
			UpdatedTime string `json:"updatedTime"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return model.OrderFill{}, errors.Wrap(err, "unmarshal order history")
	}
	if len(result.List) == 0 {
		return model.OrderFill{}, errors.Errorf("order not found: %s", orderID)
	}

	entry := result.List[0]
	fill := model.OrderFill{OrderID: entry.OrderID}
	if entry.AvgPrice != "" {
		price, err := decimal.NewFromString(entry.AvgPrice)
		if err != nil {
			return model.OrderFill{}, errors.Wrap(err, "parse avg price").With("avgPrice", entry.AvgPrice)
		}
		fill.AvgPrice = price
	}
	if entry.UpdatedTime != "" {
		ts, err := strconv.ParseInt(entry.UpdatedTime, 10, 64)
		if err != nil {
			return model.OrderFill{}, errors.Wrap(err, "parse updated time").With("updatedTime", entry.UpdatedTime)
		}
		fill.FillTime = ts
	}
	return fill, nil
}
