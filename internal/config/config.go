// Package config loads the trader's JSON configuration file and
// resolves secrets from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Symbols           []string        `json:"symbols"`
	IntervalMin       int             `json:"intervalMin"`
	USD               decimal.Decimal `json:"usd"`
	RowLimit          int             `json:"rowLimit"`
	ReconcileDelaySec int             `json:"reconcileDelaySec"`
	StreamBuffer      int             `json:"streamBuffer"`
	Database          DatabaseConfig  `json:"database"`
	Venue             VenueConfig     `json:"venue"`
	MetricsAddr       string          `json:"metricsAddr"`
	Pyroscope         PyroscopeConfig `json:"pyroscope"`
}

// DatabaseConfig describes the postgres ledger connection. The password
// comes from POSTGRES_PASSWORD.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// VenueConfig describes optional venue endpoint overrides. Credentials
// come from BYBIT_API_KEY / BYBIT_API_SECRET.
type VenueConfig struct {
	BaseURL string `json:"baseUrl"`
	WsURL   string `json:"wsUrl"`
}

// PyroscopeConfig enables continuous profiling when a server address is
// set.
type PyroscopeConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
}

// Secrets are credentials resolved from the environment, never from the
// config file.
type Secrets struct {
	APIKey           string
	APISecret        string
	PostgresPassword string
	TelegramToken    string
	TelegramChatID   string
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Symbols        []string
	IntervalMin    int
	USD            decimal.Decimal
	RowLimit       int
	ReconcileDelay time.Duration
	StreamBuffer   int
	Database       DatabaseConfig
	Venue          VenueConfig
	MetricsAddr    string
	Pyroscope      PyroscopeConfig
	Secrets        Secrets
}

// Load reads a JSON config file, validates it and resolves secrets.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	if len(cfg.Symbols) == 0 {
		return Loaded{}, fmt.Errorf("symbols is empty")
	}
	seen := make(map[string]struct{}, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		if symbol == "" {
			return Loaded{}, fmt.Errorf("symbol is empty")
		}
		if _, ok := seen[symbol]; ok {
			return Loaded{}, fmt.Errorf("duplicate symbol: %s", symbol)
		}
		seen[symbol] = struct{}{}
	}
	if cfg.IntervalMin <= 0 {
		return Loaded{}, fmt.Errorf("intervalMin must be > 0")
	}
	if !cfg.USD.IsPositive() {
		return Loaded{}, fmt.Errorf("usd must be > 0")
	}
	if cfg.RowLimit < 2 {
		return Loaded{}, fmt.Errorf("rowLimit must be >= 2")
	}
	if cfg.ReconcileDelaySec <= 0 {
		cfg.ReconcileDelaySec = 1
	}
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = 64
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.Pyroscope.Enabled && cfg.Pyroscope.ServerAddress == "" {
		return Loaded{}, fmt.Errorf("pyroscope enabled without serverAddress")
	}

	return Loaded{
		Symbols:        cfg.Symbols,
		IntervalMin:    cfg.IntervalMin,
		USD:            cfg.USD,
		RowLimit:       cfg.RowLimit,
		ReconcileDelay: time.Duration(cfg.ReconcileDelaySec) * time.Second,
		StreamBuffer:   cfg.StreamBuffer,
		Database:       cfg.Database,
		Venue:          cfg.Venue,
		MetricsAddr:    cfg.MetricsAddr,
		Pyroscope:      cfg.Pyroscope,
		Secrets: Secrets{
			APIKey:           os.Getenv("BYBIT_API_KEY"),
			APISecret:        os.Getenv("BYBIT_API_SECRET"),
			PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
			TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
			TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
	}, nil
}
