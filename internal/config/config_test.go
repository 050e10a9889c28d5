package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("BYBIT_API_KEY", "key")
	t.Setenv("BYBIT_API_SECRET", "secret")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "chat")

	path := writeConfig(t, `{
		"symbols": ["BTCUSDT", "SCUSDT"],
		"intervalMin": 15,
		"usd": 1000,
		"rowLimit": 10000,
		"database": {"host": "db", "port": 5432, "user": "trader", "database": "volbreak"}
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "SCUSDT"}, loaded.Symbols)
	assert.Equal(t, 15, loaded.IntervalMin)
	assert.True(t, loaded.USD.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 10000, loaded.RowLimit)
	assert.Equal(t, time.Second, loaded.ReconcileDelay, "reconcile delay defaults to 1s")
	assert.Equal(t, 64, loaded.StreamBuffer)
	assert.Equal(t, ":9090", loaded.MetricsAddr)
	assert.Equal(t, "db", loaded.Database.Host)

	assert.Equal(t, "key", loaded.Secrets.APIKey)
	assert.Equal(t, "secret", loaded.Secrets.APISecret)
	assert.Equal(t, "pw", loaded.Secrets.PostgresPassword)
	assert.Equal(t, "token", loaded.Secrets.TelegramToken)
	assert.Equal(t, "chat", loaded.Secrets.TelegramChatID)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []struct {
		desc    string
		content string
	}{
		{"no symbols", `{"intervalMin": 15, "usd": 1000, "rowLimit": 10}`},
		{"empty symbol", `{"symbols": [""], "intervalMin": 15, "usd": 1000, "rowLimit": 10}`},
		{"duplicate symbol", `{"symbols": ["BTCUSDT", "BTCUSDT"], "intervalMin": 15, "usd": 1000, "rowLimit": 10}`},
		{"zero interval", `{"symbols": ["BTCUSDT"], "usd": 1000, "rowLimit": 10}`},
		{"zero usd", `{"symbols": ["BTCUSDT"], "intervalMin": 15, "rowLimit": 10}`},
		{"row limit below two", `{"symbols": ["BTCUSDT"], "intervalMin": 15, "usd": 1000, "rowLimit": 1}`},
		{"pyroscope without address", `{"symbols": ["BTCUSDT"], "intervalMin": 15, "usd": 1000, "rowLimit": 10, "pyroscope": {"enabled": true}}`},
		{"malformed json", `{`},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
