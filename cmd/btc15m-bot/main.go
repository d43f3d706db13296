// BTC 15-minute up/down bot: streams candles and Polymarket prices,
// scores direction each tick, and paper-trades the edge with graceful
// shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/brendanplayford/polymarket-go/cmd/btc15m-bot/engine"
	"github.com/brendanplayford/polymarket-go/internal/config"
	"github.com/brendanplayford/polymarket-go/pkg/binance"
	"github.com/brendanplayford/polymarket-go/pkg/logger"
	"github.com/brendanplayford/polymarket-go/pkg/notify"
	"github.com/brendanplayford/polymarket-go/pkg/polymarket"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
}

func main() {
	flag.Parse()

	printBanner()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("config", cfg.Describe()).Msg("starting")

	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Msg("create data directory")
		}
	}

	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	signals, err := engine.OpenSignalLog(cfg.Engine.SignalLog)
	if err != nil {
		log.Fatal().Err(err).Msg("open signal log")
	}
	defer signals.Close()

	candles := binance.New(cfg.Binance.APIKey, cfg.Binance.APISecret)
	markets := polymarket.New()
	notifier := notify.NewNotifier(cfg.Notify.SlackWebhook, cfg.Notify.DiscordWebhook, log)
	metrics := engine.NewMetrics()

	eng := engine.New(engine.Config{
		Symbol:        cfg.Binance.Symbol,
		Interval:      cfg.Binance.Interval,
		CandleLimit:   cfg.Binance.CandleLimit,
		TickInterval:  cfg.Engine.TickInterval(),
		ResolveEvery:  cfg.Engine.ResolveInterval(),
		ResolveGrace:  cfg.Engine.ResolveGrace(),
		PositionSize:  cfg.Engine.PositionSize,
		CommissionPct: cfg.Engine.CommissionPct,
	}, store, candles, markets, notifier, metrics, log)
	eng.SetSignalLog(signals)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := polymarket.NewStream(polymarket.WithStreamLogger(log))
	eng.SetBookSource(stream)
	go stream.Run(ctx)

	httpServer := startHTTPServer(cfg.Server.ListenAddr, log)

	go eng.Run(ctx)

	notifier.Startup(cfg.Describe())
	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("bot is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}

	notifier.Shutdown(sig.String())
	log.Info().Msg("goodbye")
}

func printBanner() {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════╗")
	fmt.Println("║              BTC 15-MINUTE UP/DOWN BOT                   ║")
	fmt.Println("║     Polymarket edge scanner • paper trading • metrics    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func startHTTPServer(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("http server starting")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server")
		}
	}()

	return server
}
