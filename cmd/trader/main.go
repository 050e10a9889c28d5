package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"

	"volbreak/internal/config"
	"volbreak/internal/engine"
	"volbreak/internal/ledger"
	"volbreak/internal/notify"
	"volbreak/internal/venue"
	"volbreak/internal/venue/stream"
	"volbreak/pkg/conn"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("trader: %v", err)
	}
}

func run(configPath string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if loaded.Pyroscope.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "volbreak.trader",
			ServerAddress:   loaded.Pyroscope.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
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

	bybit := venue.New(loaded.Secrets.APIKey, loaded.Secrets.APISecret, venue.Option{
		BaseURL: loaded.Venue.BaseURL,
	})
	notifier := notify.NewTelegram(loaded.Secrets.TelegramToken, loaded.Secrets.TelegramChatID)

	metricsServer := &http.Server{Addr: loaded.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		logs.Infof("metrics listening on %s", loaded.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Errorf("metrics server, err: %+v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	engines := make([]*engine.Engine, 0, len(loaded.Symbols))
	for _, symbol := range loaded.Symbols {
		var source engine.CandleSource
		if loaded.Venue.WsURL != "" {
			source = stream.NewWithURL(ctx, loaded.Venue.WsURL, symbol, loaded.IntervalMin)
		} else {
			source = stream.New(ctx, symbol, loaded.IntervalMin)
		}

		engines = append(engines, engine.New(engine.Config{
			Symbol:         symbol,
			IntervalMin:    loaded.IntervalMin,
			USD:            loaded.USD,
			RowLimit:       loaded.RowLimit,
			ReconcileDelay: loaded.ReconcileDelay,
			StreamBuffer:   loaded.StreamBuffer,
		}, bybit, store, source, notifier))
	}

	logs.Infof("starting %d engines, interval=%dm", len(engines), loaded.IntervalMin)
	supervisor := engine.NewSupervisor(engines...)
	supervisor.Run(ctx)

	for _, fault := range supervisor.Faults() {
		logs.Errorf("[%s] halted with fault: %+v", fault.Symbol, fault.Err)
	}
	return nil
}
