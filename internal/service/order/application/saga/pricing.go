package saga

import (
	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
)

// PricingHandler 用游戏的当前价格计算小计和总价，价格在此刻被冻结为快照。
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Pricing")
	defer span.End()

	logger.Ctx(ctx).Debug().Msg("【Saga】=> 步骤 4: 计算订单金额...")

	order, err := domain.NewOrder(orderCtx.Draft, orderCtx.Games)
	if err != nil {
		return fail(span, err, "Failed to price order")
	}
	orderCtx.Order = order

	span.SetAttributes(
		attribute.String("order.total", order.TotalAmount.String()),
		attribute.String("order.currency", order.Currency),
	)
	return h.executeNext(orderCtx)
}
