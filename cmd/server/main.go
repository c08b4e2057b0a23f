package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/prometheus/client_golang/prometheus"
	echoapi "github.com/synkhq/authbridge/api/echo"
	"github.com/synkhq/authbridge/config"
	"github.com/synkhq/authbridge/internal/bridge"
	mongostore "github.com/synkhq/authbridge/internal/bridge/mongodb"
	redisstore "github.com/synkhq/authbridge/internal/bridge/redis"
	"github.com/synkhq/authbridge/internal/metrics"
	"github.com/synkhq/authbridge/internal/provider"
	"github.com/synkhq/authbridge/internal/server"
	"github.com/synkhq/authbridge/log"
	"github.com/synkhq/authbridge/tracing"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	appLogger      log.Logger
	httpServer     *http.Server
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
		fallbackLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		fallbackLogger.Warn().
			Str("configured_log_level", cfg.LogLevel).
			Str("fallback_log_level", logLevel.String()).
			Err(parseErr).
			Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	appLogger.Info(ctx, "Starting synk-authbridge server...")
	appLogger.Info(ctx, "Configuration loaded successfully", map[string]any{
		"http_port":     cfg.HTTPPort,
		"store_backend": cfg.StoreBackend,
		"result_ttl":    cfg.ResultTTL().String(),
		"log_level":     cfg.LogLevel,
		"otel_service":  cfg.OtelServiceName,
	})

	// Missing provider credentials must stop the service here, not surface
	// as per-request failures.
	if err := cfg.Validate(); err != nil {
		appLogger.Fatal(ctx, "Invalid configuration", err)
	}

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}
	tracerProvider = tp

	metrics.InitCustomMetrics(prometheus.DefaultRegisterer)

	// --- Correlation store ---
	var (
		store       bridge.Store
		mongoClient *mongodriver.Client
	)
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		store = bridge.NewMemoryStore(cfg.ResultTTL())
	case config.StoreBackendRedis:
		opts, redisErr := goredis.ParseURL(cfg.RedisURL)
		if redisErr != nil {
			appLogger.Fatal(ctx, "Invalid REDIS_URL", redisErr)
		}
		client := goredis.NewClient(opts)
		if pingErr := client.Ping(ctx).Err(); pingErr != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", pingErr)
		}
		store = redisstore.NewStore(client, cfg.RedisKeyPrefix, cfg.ResultTTL())
	case config.StoreBackendMongo:
		mongoClient, err = mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", err)
		}
		store, err = mongostore.NewStore(ctx, mongoClient.Database(cfg.MongoDBName), cfg.ResultTTL())
		if err != nil {
			appLogger.Fatal(ctx, "Failed to initialize MongoDB result store", err)
		}
	}

	// --- Providers ---
	registry := provider.NewRegistry()
	google, err := provider.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to configure Google provider", err)
	}
	registry.Register(google)
	if cfg.NotionEnabled() {
		notion, notionErr := provider.NewNotion(cfg.NotionClientID, cfg.NotionClientSecret, cfg.NotionRedirectURL)
		if notionErr != nil {
			appLogger.Fatal(ctx, "Failed to configure Notion provider", notionErr)
		}
		registry.Register(notion)
	}
	appLogger.Info(ctx, "Providers configured", map[string]any{"providers": registry.Names()})

	bridgeService := bridge.NewService(store, registry, cfg.ExchangeTimeout())
	bridgeAPI := echoapi.NewBridgeAPI(bridgeService)

	httpServer = server.NewHTTPServer(cfg, appLogger, bridgeAPI)
	go func() {
		appLogger.Info(context.Background(), fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(context.Background(), "Failed to start HTTP server", err)
		}
	}()

	// TTL sweep for abandoned flows, independent of request traffic.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bridgeService.SweepExpired(sweepCtx)
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	appLogger.Info(ctx, "Server components initialized. Waiting for interrupt signal...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stopSweep()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
		}
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
		}
	}

	if err := store.Close(); err != nil {
		appLogger.Error(shutdownCtx, "Store close error", err)
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "MongoDB disconnect error", err)
		}
	}

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}
