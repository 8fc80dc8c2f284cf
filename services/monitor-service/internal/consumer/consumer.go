package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/floorlinehq/floorline/libs/kafkax"
	"github.com/floorlinehq/floorline/services/monitor-service/internal/board"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Consumer folds one topic of the queue engine's change feed into the
// board. Deduplication lives in the board itself (by event id), so replays
// after a group rebalance are harmless.
type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
	board  *board.Board
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, b *board.Board, cfg Config) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader: reader,
		logger: logger,
		board:  b,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
		_, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)

		meta := kafkax.ExtractEventMeta(msg)

		var ev board.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			span.RecordError(err)
			span.End()
			continue
		}
		if ev.ID == "" {
			ev.ID = meta.EventID
		}

		if !c.board.Apply(ev) {
			c.logger.Info("duplicate event ignored", "event_id", ev.ID, "event_type", meta.EventType)
		}
		span.End()
	}
}
