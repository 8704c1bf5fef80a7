package saga

import (
	"context"
	"fmt"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"
)

// TransactionHandler 负责管理后续责任链的事务生命周期。
// 后续处理器只读取数据并登记写操作，链执行成功后由它在同一个工作单元内应用全部写操作并提交；
// 任何一步失败都会丢弃整个工作单元。
type TransactionHandler struct {
	NextHandler
	uow domain.UnitOfWork
}

func NewTransactionHandler(uow domain.UnitOfWork) *TransactionHandler {
	return &TransactionHandler{uow: uow}
}

func (h *TransactionHandler) Handle(orderCtx *OrderContext) (err error) {
	log := logger.Ctx(orderCtx.Ctx)
	log.Debug().Msg("【事务处理器】=> 开启订单处理事务...")

	outer := orderCtx.Ctx
	defer func() {
		orderCtx.Ctx = outer
		orderCtx.Tx = nil
		if err != nil {
			log.Warn().Err(err).Msg("【事务处理器】=> 检测到错误，事务已回滚。")
		} else {
			log.Debug().Msg("【事务处理器】=> 流程成功，事务提交。")
		}
	}()

	return h.uow.Within(outer, func(ctx context.Context, tx domain.Tx) (txErr error) {
		defer func() {
			if r := recover(); r != nil {
				// 处理 panic，以防万一
				txErr = fmt.Errorf("panic recovered: %v", r)
			}
		}()

		// 工作单元可能因死锁重试，每次都从空计划开始
		orderCtx.plan.Reset()
		orderCtx.Ctx = ctx
		orderCtx.Tx = tx

		if err := h.executeNext(orderCtx); err != nil {
			return err
		}
		return orderCtx.plan.Apply(ctx, tx)
	})
}
