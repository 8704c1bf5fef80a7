package port

import (
	"context"

	"gamestore/internal/service/order/domain"
)

// EventPublisher 是订单事件的出站端口
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
