package saga

import (
	"errors"
	"sort"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
)

// CatalogCheckHandler 在事务内锁定并读取所有游戏，依次检查存在性、交付形式和库存。
// 不存在和形式不符立即失败；库存不足会收集所有缺货的游戏后一次性返回。
type CatalogCheckHandler struct {
	NextHandler
}

func (h *CatalogCheckHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CatalogCheck")
	defer span.End()

	logger.Ctx(ctx).Debug().Msg("【Saga】=> 步骤 3: 检查目录与库存...")

	draft := orderCtx.Draft
	ids := draft.GameIDs()
	sorted := append([]uint(nil), ids...)
	// 按 ID 升序加行锁，避免并发下单互相等待
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	games := make(map[uint]*domain.Game, len(ids))
	for _, id := range sorted {
		g, err := orderCtx.Tx.Games().FindByIDForUpdate(ctx, id)
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			continue
		}
		if err != nil {
			return fail(span, err, "Failed to load game")
		}
		games[id] = g
	}

	for _, l := range draft.Lines {
		g, ok := games[l.GameID]
		if !ok {
			return fail(span, &domain.NotFoundError{Entity: "game", ID: l.GameID}, "Game not found")
		}
		f := domain.Format(l.Format)
		if !g.Supports(f) {
			return fail(span, &domain.FormatMismatchError{GameID: g.ID, Title: g.Title, Format: f}, "Format not available")
		}
	}

	demand := draft.PhysicalDemand()
	var shortages []domain.StockShortage
	reported := make(map[uint]bool)
	for _, l := range draft.Lines {
		if domain.Format(l.Format) != domain.FormatPhysical || reported[l.GameID] {
			continue
		}
		g := games[l.GameID]
		if requested := demand[l.GameID]; requested > g.Stock {
			shortages = append(shortages, domain.StockShortage{
				GameID:    g.ID,
				Title:     g.Title,
				Available: g.Stock,
				Requested: requested,
			})
			reported[l.GameID] = true
		}
	}
	if len(shortages) > 0 {
		span.SetAttributes(attribute.Int("stock.shortages", len(shortages)))
		return fail(span, &domain.InsufficientStockError{Shortages: shortages}, "Insufficient stock")
	}

	orderCtx.Games = games
	span.AddEvent("All games available")

	return h.executeNext(orderCtx)
}
