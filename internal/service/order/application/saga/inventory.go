package saga

import (
	"context"
	"errors"
	"sort"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/metrics"
	"gamestore/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
)

// InventoryHandler 登记实体版库存的扣减。扣减是条件更新，
// 如果库存在检查之后被并发修改，会以库存不足失败并回滚整个工作单元。
type InventoryHandler struct {
	NextHandler
}

func (h *InventoryHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.InventoryReserve")
	defer span.End()

	logger.Ctx(ctx).Debug().Msg("【Saga】=> 步骤 6: 扣减库存...")

	demand := orderCtx.Draft.PhysicalDemand()
	ids := make([]uint, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		game, qty := orderCtx.Games[id], demand[id]
		orderCtx.Schedule("inventory.decrement", func(ctx context.Context, tx domain.Tx) error {
			return decrementStock(ctx, tx, game, qty)
		})
	}

	span.SetAttributes(attribute.Int("inventory.games", len(ids)))
	return h.executeNext(orderCtx)
}

func decrementStock(ctx context.Context, tx domain.Tx, game *domain.Game, qty int) error {
	err := tx.Games().DecrementStock(ctx, game.ID, qty)
	if errors.Is(err, domain.ErrStockConflict) {
		available := 0
		if current, findErr := tx.Games().FindByIDForUpdate(ctx, game.ID); findErr == nil {
			available = current.Stock
		}
		return &domain.InsufficientStockError{Shortages: []domain.StockShortage{{
			GameID:    game.ID,
			Title:     game.Title,
			Available: available,
			Requested: qty,
		}}}
	}
	if err != nil {
		return err
	}
	metrics.StockAdjustments.WithLabelValues("decrement").Add(float64(qty))
	return nil
}
