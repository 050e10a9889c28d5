// Ledgerdump prints the recorded trades and volatility history, for
// inspecting the ledger from a shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"volbreak/internal/config"
	"volbreak/internal/ledger"
	"volbreak/pkg/conn"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("ledgerdump: %v", err)
	}
}

func run(configPath string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := conn.New(conn.Option{
		Host:     loaded.Database.Host,
		Port:     loaded.Database.Port,
		User:     loaded.Database.User,
		Password: loaded.Secrets.PostgresPassword,
		Database: loaded.Database.Database,
		SSLMode:  loaded.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := ledger.New(client.DB())
	if err != nil {
		return err
	}

	ctx := context.Background()
	trades, err := store.Trades(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("trades (%d)\n", len(trades))
	for _, t := range trades {
		fmt.Printf("  %s %s expected=(%d, %s) executed=(%d, %s)\n",
			t.OrderID, t.Symbol, t.TimeExpected, t.PriceExpected, t.TimeExecuted, t.PriceExecuted)
	}

	recs, err := store.Volatility(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("kline (%d)\n", len(recs))
	for _, r := range recs {
		fmt.Printf("  %s %d %s\n", r.Symbol, r.StartTime, r.PriceChange)
	}
	return nil
}
