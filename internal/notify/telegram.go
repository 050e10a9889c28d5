// Package notify delivers best-effort operator alerts. Delivery
// failures are logged and swallowed, never escalated.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yanun0323/logs"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier is the alert sink consumed by engines and the supervisor.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Telegram sends messages through the Telegram bot API. A zero-value
// token disables it.
type Telegram struct {
	apiBase string
	token   string
	chatID  string
	enabled bool
	hc      *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		apiBase: defaultAPIBase,
		token:   token,
		chatID:  chatID,
		enabled: token != "" && chatID != "",
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTelegramWithBase is NewTelegram against a non-default API host,
// used by tests.
func NewTelegramWithBase(apiBase, token, chatID string) *Telegram {
	n := NewTelegram(token, chatID)
	n.apiBase = apiBase
	return n
}

// Notify sends the message prefixed with the current time, matching the
// operator alert format. Errors are logged only.
func (t *Telegram) Notify(ctx context.Context, message string) {
	logs.Warn(message)
	if !t.enabled {
		return
	}

	text := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), message)
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage?chat_id=%s&text=%s",
		t.apiBase, t.token, url.QueryEscape(t.chatID), url.QueryEscape(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logs.Errorf("build telegram request, err: %+v", err)
		return
	}

	resp, err := t.hc.Do(req)
	if err != nil {
		logs.Errorf("send telegram notification, err: %+v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logs.Errorf("telegram returned status %d", resp.StatusCode)
	}
}

// Noop discards every message. Used when no notifier is configured.
type Noop struct{}

func (Noop) Notify(context.Context, string) {}
