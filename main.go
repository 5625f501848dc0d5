package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appcart "github.com/freshmart/cart-service/internal/application/cart"
	infraobs "github.com/freshmart/cart-service/internal/infrastructure/observability"
	"github.com/freshmart/cart-service/internal/infrastructure/observability/oteltrace"
	"github.com/freshmart/cart-service/internal/infrastructure/observability/prometrics"
	"github.com/freshmart/cart-service/internal/infrastructure/observability/zaplogger"
	"github.com/freshmart/cart-service/internal/infrastructure/notifier"
	"github.com/freshmart/cart-service/internal/infrastructure/outbox"
	"github.com/freshmart/cart-service/internal/infrastructure/postgres"
	"github.com/freshmart/cart-service/internal/infrastructure/pricing"
	"github.com/freshmart/cart-service/internal/infrastructure/session"
	"github.com/freshmart/cart-service/internal/infrastructure/stockapi"
	"github.com/freshmart/cart-service/internal/observability"
	"github.com/freshmart/cart-service/internal/pkg/config"
	httppresentation "github.com/freshmart/cart-service/internal/presentation/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	defer func() {
		if s, ok := baseLogger.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := oteltrace.InitProvider(ctx, cfg.ServiceName, cfg.OTLPAddr)
	if err != nil {
		baseLogger.Error("otel_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	metrics := prometrics.New("", "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: metrics.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: metrics.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests served.",
			"method", "route", "status",
		),
		observability.MExternalRequests: metrics.Counter(
			string(observability.MExternalRequests),
			"Total number of outbound calls to external dependencies.",
			"peer", "endpoint", "outcome",
		),
		observability.MCartChangedEvents: metrics.Counter(
			string(observability.MCartChangedEvents),
			"Cart-changed notifications relayed to subscribers.",
			"outcome",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: metrics.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			nil,
			"use_case",
		),
		observability.MHTTPRequestDuration: metrics.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			nil,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: metrics.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of outbound calls to external dependencies in seconds.",
			nil,
			"peer", "endpoint",
		),
	}

	tel := infraobs.New(oteltrace.New(cfg.ServiceName), baseLogger, counters, histograms)
	logger := tel.Logger().With(observability.F("component", "main"))

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Error("db_schema_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	bus := outbox.NewBus(tel.Logger())
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	notifyWorker := notifier.New(bus, redisClient, tel)
	notifyWorker.Start()

	cartService := appcart.NewService(
		postgres.NewCartRepository(db),
		postgres.NewCatalogResolver(db, cfg.ResolverThreshold),
		stockapi.New(cfg.StockAPIURL, tel),
		pricing.NewRandomAssigner(),
		bus,
		tel,
		appcart.Options{StockFailOpen: cfg.StockFailOpen},
	)

	handler := httppresentation.NewHandler(
		cartService,
		session.NewStore(redisClient),
		tel,
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second,
	)

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: root,
	}

	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", observability.F("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		logger.Info("http_server_stopped")
	}
}
