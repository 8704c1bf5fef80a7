package saga

import (
	"sort"

	"gamestore/internal/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
)

// StockLockHandler 在开启事务前按游戏加分布式锁，锁覆盖整个事务周期。
// 没有配置 Locker 时直接交给下一个处理器，由数据库行锁和条件扣减保证正确性。
type StockLockHandler struct {
	NextHandler
}

func (h *StockLockHandler) Handle(orderCtx *OrderContext) error {
	if orderCtx.Locker == nil {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.StockLock")

	ids := make([]uint, 0)
	for id := range orderCtx.Draft.PhysicalDemand() {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		span.End()
		return h.executeNext(orderCtx)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ints := make([]int, len(ids))
	for i, id := range ids {
		ints[i] = int(id)
	}
	span.SetAttributes(attribute.IntSlice("game.ids", ints))

	logger.Ctx(ctx).Debug().Ints("games", ints).Msg("【Saga】=> 步骤 2: 获取库存锁...")
	unlock, err := orderCtx.Locker.LockGames(ctx, ids)
	if err != nil {
		err = fail(span, err, "Failed to lock games")
		span.End()
		return err
	}
	span.AddEvent("Stock locks acquired")
	span.End()
	defer unlock()

	return h.executeNext(orderCtx)
}
