package saga

import (
	"context"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"
)

// CreateOrderHandler 登记订单和订单行的写入。
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	logger.Ctx(ctx).Debug().Msg("【Saga】=> 步骤 5: 创建 pending 订单...")

	order := orderCtx.Order
	orderCtx.Schedule("order.create", func(ctx context.Context, tx domain.Tx) error {
		return tx.Orders().Create(ctx, order)
	})
	span.AddEvent("Order creation scheduled")

	return h.executeNext(orderCtx)
}
