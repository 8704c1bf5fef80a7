// internal/service/push/consumer.go
package push

import (
	"context"
	"encoding/json"
	"time"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/metrics"
	"gamestore/internal/pkg/mq"
	"gamestore/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MessageReader 是 *kafka.Reader 中消费者用到的部分
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Message 是下发给浏览器的推送内容
type Message struct {
	Type       domain.EventType `json:"type"`
	OrderID    uint             `json:"orderId"`
	Status     domain.Status    `json:"status,omitempty"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// EventConsumer 消费订单事件，并推送给在本节点在线的订单所有者
type EventConsumer struct {
	reader MessageReader
	hub    *Hub
	tracer trace.Tracer
}

func NewEventConsumer(reader MessageReader, hub *Hub) *EventConsumer {
	return &EventConsumer{reader: reader, hub: hub, tracer: otel.Tracer("push-gateway")}
}

// Run 开始监听 Kafka 主题，直到 ctx 被取消
func (c *EventConsumer) Run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Msg("✅ Order event consumer started")
	for {
		// 使用 FetchMessage 而不是 ReadMessage，处理完成后再提交 offset
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("🛑 Order event consumer shutting down")
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Msg("Could not read message, retrying")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		c.processMessage(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Failed to commit message")
		}
	}
}

// processMessage 反序列化事件并下发，推送是尽力而为的，失败的消息不会重试
func (c *EventConsumer) processMessage(parentCtx context.Context, msg kafka.Message) {
	ctx := mq.ExtractTraceContext(parentCtx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "push.Deliver", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		metrics.PushDelivered.WithLabelValues("invalid").Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal order event, message skipped")
		return
	}
	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.type", string(event.Type)),
		attribute.Int("user.id", int(event.UserID)),
	)

	payload, _ := json.Marshal(Message{
		Type:       event.Type,
		OrderID:    event.OrderID,
		Status:     event.Status,
		Title:      event.Title,
		Message:    event.Message,
		OccurredAt: event.OccurredAt,
	})

	if n := c.hub.Deliver(event.UserID, payload); n > 0 {
		metrics.PushDelivered.WithLabelValues("delivered").Inc()
		logger.Ctx(ctx).Debug().Uint("user_id", event.UserID).Int("connections", n).Msg("Order event pushed")
		return
	}
	metrics.PushDelivered.WithLabelValues("offline").Inc()
	logger.Ctx(ctx).Debug().Uint("user_id", event.UserID).Msg("User is offline, push dropped")
}
