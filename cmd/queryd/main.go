// Command queryd serves the full-text-search query parser.
//
// It exposes GET /api/v1/parse and GET /api/v1/languages over HTTP, the
// QueryService RPC methods over a JSON-over-TCP listener, and publishes one
// analytics event per parse to Kafka. Parsed queries are cached in Redis when
// it is reachable; parsing never depends on Redis or Kafka being up.
//
// Usage:
//
//	go run ./cmd/queryd [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/api/rpc"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/query"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/querycache"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/service"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/grpc"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/tracing"
)

// trackers fans one parse event out to every sink.
type trackers []service.Tracker

func (t trackers) Track(event analytics.ParseEvent) {
	for _, tr := range t {
		tr.Track(event)
	}
}

type trackFunc func(analytics.ParseEvent)

func (f trackFunc) Track(event analytics.ParseEvent) { f(event) }

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting query service",
		"port", cfg.Server.Port,
		"default_language", cfg.FTS.DefaultLanguage,
		"default_version", cfg.FTS.DefaultVersion,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	opts := []service.Option{service.WithMetrics(m)}
	checker := health.NewChecker()

	var queryCache *querycache.QueryCache
	redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = querycache.New(redisClient, cfg.Redis.CacheTTL, querycache.WithMetrics(m))
		opts = append(opts, service.WithCache(queryCache))
		checker.RegisterOptional("redis", health.PingCheck(redisClient.Ping))
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	aggregator := analytics.NewAggregator()
	sinks := trackers{trackFunc(aggregator.Record)}
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ParseEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{
			BufferSize: cfg.Analytics.BufferSize,
		})
		collector.Start(ctx)
		defer collector.Close()
		sinks = append(sinks, collector)
		slog.Info("analytics collector started", "topic", producer.Topic())
	}
	opts = append(opts, service.WithTracker(sinks))

	if queryCache != nil {
		invalidateCfg := cfg.Kafka
		invalidateCfg.ConsumerGroup += "-invalidate"
		consumer := kafka.NewConsumer(invalidateCfg, cfg.Kafka.Topics.CacheInvalidate, kafka.LastOffset,
			querycache.NewInvalidationListener(queryCache).HandleMessage)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("cache invalidation consumer error", "error", err)
			}
		}()
	}

	version, _ := language.ParseTextIndexVersion(cfg.FTS.DefaultVersion)
	svc := service.New(service.Config{
		DefaultLanguage: cfg.FTS.DefaultLanguage,
		DefaultVersion:  version,
		MaxQueryLength:  cfg.FTS.MaxQueryLength,
	}, opts...)

	checker.Register("parser", func(ctx context.Context) health.ComponentHealth {
		q, err := query.Parse("health -check", cfg.FTS.DefaultLanguage, false, false, version)
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: q.DebugString()}
	})

	routerCfg := handler.RouterConfig{
		Analytics:      analytics.NewHandler(aggregator, nil),
		Health:         checker,
		Metrics:        m,
		RequestTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		routerCfg.RateLimiter = ratelimit.New(cfg.Server.RateLimitPerMinute, time.Minute)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)
		routerCfg.CORS = &cors
	}
	tracer := tracing.New(cfg.Tracing.Enabled, slog.Default())
	router := handler.NewRouter(handler.New(svc, tracer), routerCfg)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var rpcServer *grpc.Server
	if cfg.RPC.Enabled {
		rpcServer = grpc.NewServer()
		rpc.Register(rpcServer, svc, m)
		go func() {
			if err := rpcServer.Serve(cfg.RPC.Addr); err != nil {
				slog.Error("rpc server error", "error", err)
				stop()
			}
		}()
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for in-flight
	// requests before the deferred collector Close runs.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if rpcServer != nil {
			rpcServer.Stop()
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("query service listening", "addr", server.Addr, "rpc_addr", cfg.RPC.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone

	slog.Info("query service stopped")
}
