package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramNotify(t *testing.T) {
	var gotPath, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotText = r.URL.Query().Get("text")
	}))
	defer server.Close()

	n := NewTelegramWithBase(server.URL, "token-1", "chat-1")
	n.Notify(context.Background(), "[!] BTCUSDT | venue protocol fault")

	assert.Equal(t, "/bottoken-1/sendMessage", gotPath)
	require.NotEmpty(t, gotText)
	assert.Contains(t, gotText, "[!] BTCUSDT | venue protocol fault")
}

func TestTelegramSwallowsDeliveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewTelegramWithBase(server.URL, "token-1", "chat-1")
	// Must not panic or escalate.
	n.Notify(context.Background(), "message")
}

func TestTelegramDisabledWithoutCredentials(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	n := NewTelegramWithBase(server.URL, "", "")
	n.Notify(context.Background(), "message")
	assert.False(t, called)
}
