package main

import (
	"context"
	"net/http"
	"time"

	"github.com/floorlinehq/floorline/libs/config"
	"github.com/floorlinehq/floorline/libs/db"
	"github.com/floorlinehq/floorline/libs/httpx"
	"github.com/floorlinehq/floorline/libs/kafkax"
	otelx "github.com/floorlinehq/floorline/libs/otel"
	"github.com/floorlinehq/floorline/libs/runtime"
	"github.com/floorlinehq/floorline/services/queue-service/internal/audit"
	"github.com/floorlinehq/floorline/services/queue-service/internal/booking"
	"github.com/floorlinehq/floorline/services/queue-service/internal/clock"
	"github.com/floorlinehq/floorline/services/queue-service/internal/handlers"
	"github.com/floorlinehq/floorline/services/queue-service/internal/lifecycle"
	"github.com/floorlinehq/floorline/services/queue-service/internal/notify"
	"github.com/floorlinehq/floorline/services/queue-service/internal/outbox"
	"github.com/floorlinehq/floorline/services/queue-service/internal/settings"
	"github.com/floorlinehq/floorline/services/queue-service/internal/storage"
	"github.com/floorlinehq/floorline/services/queue-service/internal/sweeper"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "queue-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	shop, err := settings.FromEnv()
	if err != nil {
		logger.Error("invalid shop settings", "err", err)
		panic(err)
	}

	clk := clock.System{}

	var (
		store      storage.Store
		auditLog   audit.Log = audit.Nop{}
		auditList  handlers.AuditLister
		outboxRepo *outbox.Repository
		checks     []runtime.ReadyCheck
	)

	if config.String("STORE", "postgres") == "memory" {
		logger.Warn("STORE=memory: using in-memory store (dev mode)")
		store = storage.NewMemory()
	} else {
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			logger.Error("invalid configuration", "err", err)
			panic(err)
		}
		pool, err := db.Open(ctx, dbURL, db.Options{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		auditRepo := audit.NewRepository(pool)
		store = storage.NewPostgres(pool)
		auditLog = auditRepo
		auditList = auditRepo
		outboxRepo = outbox.NewRepository(pool)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	}

	hub := notify.NewHub(config.Int("NOTIFY_BUFFER", 16))
	events := notify.NewRelay(hub, outboxRepo, logger)

	guard := booking.NewGuard(store, shop, clk, events, logger)
	machine := lifecycle.NewMachine(store, shop, clk, auditLog, events, logger)

	sweepInterval := time.Duration(config.Int("SWEEP_INTERVAL_SECONDS", 30)) * time.Second
	sw := sweeper.New(store, machine, shop, clk, events, logger, sweepInterval)
	go sw.Run(ctx)

	brokers := config.String("KAFKA_BROKERS", "")
	if outboxRepo != nil && brokers != "" {
		publisher := outbox.NewPublisher(outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	bookingHandler := handlers.NewBookingHandler(guard, machine, logger)
	queueHandler := handlers.NewQueueHandler(store, shop, clk, logger)
	watchHandler := handlers.NewWatchHandler(hub, logger)
	auditHandler := handlers.NewAuditHandler(auditList, config.String("ADMIN_TOKEN", ""), logger)

	var bookMiddleware httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("BOOK_RATE_LIMIT", 30), time.Minute, "book")
		bookMiddleware = limiter.Middleware(logger, true)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	} else {
		bookMiddleware = httpx.NewRateLimiter(config.Int("BOOK_RATE_LIMIT", 30), time.Minute).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/api/v1/public/book", bookMiddleware(http.HandlerFunc(bookingHandler.Create)))
	mux.HandleFunc("/api/v1/public/wait", queueHandler.WalkInWait)
	mux.HandleFunc("/api/v1/public/board", queueHandler.Board)
	mux.HandleFunc("/api/v1/appointments", queueHandler.List)
	mux.HandleFunc("/api/v1/appointments/checkin", bookingHandler.CheckIn)
	mux.HandleFunc("/api/v1/appointments/complete", bookingHandler.Complete)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/queue", queueHandler.Queue)
	mux.HandleFunc("/api/v1/watch", watchHandler.Watch)
	mux.HandleFunc("/api/v1/audit", auditHandler.List)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "queue")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
