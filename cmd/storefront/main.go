package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"larek/internal/api"
	"larek/internal/audit"
	"larek/internal/checkout"
	"larek/internal/config"
	"larek/internal/coordinator"
	"larek/internal/events"
	"larek/internal/gateway"
	"larek/internal/metrics"
	"larek/internal/model"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("LAREK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.API.BaseURL == "" {
		logger.Fatal().Msg("set api.base_url in config")
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.APIKey)
	client.SetRateLimit(cfg.API.RateLimitPerSec, cfg.API.RateLimitBurst)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.API.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, time.Duration(cfg.API.CacheTTLSeconds)*time.Second)
	}

	bus := events.NewBus()
	products := model.NewProducts(bus)
	cart := model.NewCart(bus)
	buyer := model.NewBuyer(bus)

	client.UseCatalogResolver(products.GetProductByID)

	coord := coordinator.New(bus, products, cart, buyer, client, &logger)
	coord.Start()
	defer coord.Stop()

	var journal *audit.Journal
	if cfg.Audit.Enabled {
		journal, err = audit.Open(cfg.Audit.Path, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("open audit journal error")
		}
		defer journal.Close()

		recorder := journal.Recorder(coord.SessionID())
		bus.OnAll(recorder)
		defer bus.OffWildcard(recorder)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, journal, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	loadCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := coord.LoadCatalog(loadCtx); err != nil {
		logger.Warn().Err(err).Msg("initial catalog load failed, serving empty catalog")
	}
	cancel()

	session := checkout.NewSession(buyer)
	gw := gateway.New(bus, products, cart, buyer, coord, session, &logger)

	server := &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTP.ListenAddress).Msg("storefront started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server error")
	}

	if journal != nil && cfg.Audit.ExportPath != "" {
		exportCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := journal.Export(exportCtx, cfg.Audit.ExportPath); err != nil {
			logger.Error().Err(err).Msg("journal export failed")
		}
	}

	bus.Reset()
	logger.Info().Msg("storefront stopped")
}

func startHealthServer(ctx context.Context, port int, journal *audit.Journal, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if journal != nil {
			if err := journal.PingContext(ctxPing); err != nil {
				http.Error(w, "journal not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("health server started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("metrics server started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
