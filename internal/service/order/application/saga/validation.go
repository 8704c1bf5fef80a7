package saga

import (
	"gamestore/internal/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
)

// ValidationHandler 在打开事务之前校验请求，不合法的请求不会产生任何写操作。
type ValidationHandler struct {
	NextHandler
}

func (h *ValidationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Validate")
	defer span.End()

	logger.Ctx(ctx).Debug().Msg("【Saga】=> 步骤 1: 校验下单请求...")

	span.SetAttributes(
		attribute.Int("order.lines", len(orderCtx.Draft.Lines)),
		attribute.String("order.delivery_mode", orderCtx.Draft.DeliveryMode),
	)
	if err := orderCtx.Draft.Validate(); err != nil {
		return fail(span, err, "Invalid order request")
	}

	return h.executeNext(orderCtx)
}
