package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gamestore/internal/pkg/mq"
	"gamestore/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
)

// EventKafkaAdapter 实现了 port.EventPublisher 接口。
type EventKafkaAdapter struct {
	writer *kafka.Writer
}

// NewEventKafkaAdapter 创建一个新的订单事件生产者适配器。
func NewEventKafkaAdapter(writer *kafka.Writer) *EventKafkaAdapter {
	return &EventKafkaAdapter{writer: writer}
}

// Publish 以用户 ID 为 key 发送事件，同一用户的事件落在同一个分区上保持顺序。
func (a *EventKafkaAdapter) Publish(ctx context.Context, event domain.OrderEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	key := strconv.FormatUint(uint64(event.UserID), 10)
	return mq.ProduceMessage(ctx, a.writer, []byte(key), eventBytes)
}

// Close 关闭底层的Kafka writer。
func (a *EventKafkaAdapter) Close() error {
	return a.writer.Close()
}
