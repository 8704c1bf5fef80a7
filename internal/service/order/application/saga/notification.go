package saga

import (
	"context"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
)

// NotificationHandler 是责任链的最后一步，登记 "New Order" 通知和对应的 outbox 事件。
// 通知和订单写在同一个工作单元里，通知写入失败会让整个下单回滚。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	span.SetAttributes(attribute.String("notification.type", string(domain.NotificationOrderPlaced)))
	logger.Ctx(ctx).Debug().Msg("【Saga】=> 步骤 Final: 登记下单通知...")

	order := orderCtx.Order
	// 订单 ID 在 order.create 应用之后才确定，所以通知内容在执行时再生成
	orderCtx.Schedule("notification.append", func(ctx context.Context, tx domain.Tx) error {
		return AppendNotification(ctx, tx, order, domain.OrderPlacedNotification(order), domain.EventOrderPlaced)
	})

	return h.executeNext(orderCtx)
}

// AppendNotification 写入用户通知和对应的 outbox 事件
func AppendNotification(ctx context.Context, tx domain.Tx, order *domain.Order, n domain.Notification, eventType domain.EventType) error {
	if err := tx.Notifications().Append(ctx, &n); err != nil {
		return err
	}
	event := domain.NewOrderEvent(eventType, order, n)
	return tx.Outbox().Append(ctx, &event)
}
