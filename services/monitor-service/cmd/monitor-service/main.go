package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/floorlinehq/floorline/libs/config"
	"github.com/floorlinehq/floorline/libs/httpx"
	"github.com/floorlinehq/floorline/libs/kafkax"
	otelx "github.com/floorlinehq/floorline/libs/otel"
	"github.com/floorlinehq/floorline/libs/runtime"
	"github.com/floorlinehq/floorline/services/monitor-service/internal/board"
	"github.com/floorlinehq/floorline/services/monitor-service/internal/consumer"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "monitor-service")
	port, err := config.Port("PORT", "8085")
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

	b := board.New()

	// Reconciliation read before consuming: events published while this
	// process was down are gone, the snapshot covers for them.
	queueURL := config.String("QUEUE_SERVICE_URL", "http://queue-service:8084")
	reconcileCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := consumer.Reconcile(reconcileCtx, nil, queueURL, b); err != nil {
		logger.Warn("initial board reconcile failed; starting empty", "err", err)
	}
	cancel()

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "monitor-service")
	for _, topic := range []string{
		config.String("KAFKA_TOPIC_CHANGED", "queue.appointment.changed.v1"),
		config.String("KAFKA_TOPIC_EXPIRED", "queue.appointments.expired.v1"),
	} {
		if topic == "" || brokers == "" {
			continue
		}
		c := consumer.New(logger, b, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		})
		go c.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("/board", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := json.Marshal(b.Snapshot())
		if err != nil {
			http.Error(w, "failed to build response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "monitor")
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
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
