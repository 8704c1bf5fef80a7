// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/metrics"
	"gamestore/internal/service/order/application/saga"
	"gamestore/internal/service/order/domain"
	"gamestore/internal/service/order/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderApplicationService 只关注订单生命周期的流程编排。
type OrderApplicationService struct {
	uow               domain.UnitOfWork
	orders            domain.OrderReader
	locker            port.StockLocker
	tracer            trace.Tracer
	processingTimeout time.Duration
}

// NewOrderApplicationService 创建订单服务。locker 可以为 nil。
func NewOrderApplicationService(uow domain.UnitOfWork, orders domain.OrderReader, locker port.StockLocker, tracer trace.Tracer, processingTimeout time.Duration) *OrderApplicationService {
	return &OrderApplicationService{
		uow:               uow,
		orders:            orders,
		locker:            locker,
		tracer:            tracer,
		processingTimeout: processingTimeout,
	}
}

// PlaceOrder 校验请求、冻结价格、扣减库存并写入订单和通知，全部在一个工作单元内完成。
func (s *OrderApplicationService) PlaceOrder(ctx context.Context, caller domain.Caller, req *PlaceOrderRequest) (*OrderDTO, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()

	processingCtx, cancel := context.WithTimeout(ctx, s.processingTimeout)
	defer cancel()

	span.SetAttributes(attribute.Int("user.id", int(caller.UserID)))

	orderContext := &saga.OrderContext{
		Ctx:    processingCtx,
		Tracer: s.tracer,
		Caller: caller,
		Draft:  req.ToDraft(caller.UserID),
		Locker: s.locker,
	}

	err := s.buildChain().Handle(orderContext)
	observe("place", start, err)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(reason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Order placement failed")
		logger.Ctx(ctx).Warn().Err(err).Uint("user_id", caller.UserID).Msg("Order placement rejected")
		return nil, err
	}

	order := orderContext.Order
	metrics.OrdersPlaced.Inc()
	span.SetAttributes(attribute.Int("order.id", int(order.ID)))
	logger.Ctx(ctx).Info().
		Uint("order_id", order.ID).
		Uint("user_id", order.UserID).
		Str("total", order.TotalAmount.String()).
		Msg("✅ Order placed")
	return ToOrderDTO(order), nil
}

// GetOrder 返回订单详情，只有所有者和管理员可见
func (s *OrderApplicationService) GetOrder(ctx context.Context, caller domain.Caller, orderID uint) (*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder")
	defer span.End()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !caller.CanManage(order) {
		return nil, &domain.AuthorizationError{Action: "view this order"}
	}
	return ToOrderDTO(order), nil
}

// ListOrders 返回调用方自己的订单；all 为 true 时返回全部订单 (仅管理员)
func (s *OrderApplicationService) ListOrders(ctx context.Context, caller domain.Caller, all bool) ([]*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListOrders")
	defer span.End()

	var (
		orders []*domain.Order
		err    error
	)
	if all {
		if !caller.IsPrivileged() {
			return nil, &domain.AuthorizationError{Action: "list all orders"}
		}
		orders, err = s.orders.ListAll(ctx)
	} else {
		orders, err = s.orders.ListByUser(ctx, caller.UserID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return ToOrderDTOs(orders), nil
}

// UpdateStatus 是管理员推进订单状态的入口。迁移到 cancelled 时和 CancelOrder 一样归还库存。
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, caller domain.Caller, orderID uint, status string) (*OrderDTO, error) {
	if !caller.IsPrivileged() {
		return nil, &domain.AuthorizationError{Action: "update order status"}
	}
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if next == domain.StatusPending {
		return nil, &domain.ValidationError{Field: "status", Message: "status must be completed or cancelled"}
	}

	return s.mutate(ctx, "status", orderID, func(ctx context.Context, order *domain.Order, plan *saga.Plan) error {
		if err := order.TransitionTo(next); err != nil {
			return err
		}
		if next == domain.StatusCancelled {
			planRestock(plan, order)
		}
		planStatus(plan, order, next)
		planNotification(plan, order, domain.StatusChangedNotification, domain.EventOrderStatusChanged)
		return nil
	})
}

// CancelOrder 取消 pending 订单并归还所有实体库存
func (s *OrderApplicationService) CancelOrder(ctx context.Context, caller domain.Caller, orderID uint) (*OrderDTO, error) {
	return s.mutate(ctx, "cancel", orderID, func(ctx context.Context, order *domain.Order, plan *saga.Plan) error {
		if !caller.CanManage(order) {
			return &domain.AuthorizationError{Action: "cancel this order"}
		}
		if err := order.TransitionTo(domain.StatusCancelled); err != nil {
			return err
		}
		planRestock(plan, order)
		planStatus(plan, order, domain.StatusCancelled)
		planNotification(plan, order, domain.OrderCancelledNotification, domain.EventOrderCancelled)
		return nil
	})
}

// DeleteOrder 删除 pending 订单及其订单行，并像取消一样归还库存
func (s *OrderApplicationService) DeleteOrder(ctx context.Context, caller domain.Caller, orderID uint) error {
	_, err := s.mutate(ctx, "delete", orderID, func(ctx context.Context, order *domain.Order, plan *saga.Plan) error {
		if !caller.CanManage(order) {
			return &domain.AuthorizationError{Action: "delete this order"}
		}
		if err := order.EnsurePending("delete"); err != nil {
			return err
		}
		planRestock(plan, order)
		plan.Add(saga.Mutation{Name: "order.delete", Apply: func(ctx context.Context, tx domain.Tx) error {
			return tx.Orders().Delete(ctx, order.ID)
		}})
		planNotification(plan, order, domain.OrderDeletedNotification, domain.EventOrderDeleted)
		return nil
	})
	return err
}

// UpdateOrder 修改 pending 订单的支付方式、收货地址或平台账号，不影响库存和金额
func (s *OrderApplicationService) UpdateOrder(ctx context.Context, caller domain.Caller, orderID uint, req *UpdateOrderRequest) (*OrderDTO, error) {
	return s.mutate(ctx, "update", orderID, func(ctx context.Context, order *domain.Order, plan *saga.Plan) error {
		if !caller.CanManage(order) {
			return &domain.AuthorizationError{Action: "update this order"}
		}
		if err := order.ApplyUpdate(req.ToUpdate()); err != nil {
			return err
		}
		plan.Add(saga.Mutation{Name: "order.update_details", Apply: func(ctx context.Context, tx domain.Tx) error {
			return tx.Orders().UpdateDetails(ctx, order)
		}})
		planNotification(plan, order, domain.OrderUpdatedNotification, domain.EventOrderUpdated)
		return nil
	})
}

// mutate 在一个工作单元内加锁读取订单，由 decide 做业务判断并登记写操作，最后统一应用。
func (s *OrderApplicationService) mutate(ctx context.Context, op string, orderID uint, decide func(ctx context.Context, order *domain.Order, plan *saga.Plan) error) (*OrderDTO, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "app."+op+"Order")
	defer span.End()
	span.SetAttributes(attribute.Int("order.id", int(orderID)))

	processingCtx, cancel := context.WithTimeout(ctx, s.processingTimeout)
	defer cancel()

	var result *domain.Order
	err := s.uow.Within(processingCtx, func(ctx context.Context, tx domain.Tx) error {
		order, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		var plan saga.Plan
		if err := decide(ctx, order, &plan); err != nil {
			return err
		}
		if err := plan.Apply(ctx, tx); err != nil {
			return err
		}
		result = order
		return nil
	})
	observe(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Order "+op+" failed")
		logger.Ctx(ctx).Warn().Err(err).Str("operation", op).Uint("order_id", orderID).Msg("Order lifecycle operation rejected")
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(op).Inc()
	logger.Ctx(ctx).Info().Str("operation", op).Uint("order_id", orderID).Str("status", string(result.Status)).Msg("Order lifecycle operation committed")
	return ToOrderDTO(result), nil
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	orderProcessingChain := new(saga.ValidationHandler)
	orderProcessingChain.
		SetNext(new(saga.StockLockHandler)).
		SetNext(saga.NewTransactionHandler(s.uow)).
		SetNext(new(saga.CatalogCheckHandler)).
		SetNext(new(saga.PricingHandler)).
		SetNext(new(saga.CreateOrderHandler)).
		SetNext(new(saga.InventoryHandler)).
		SetNext(new(saga.NotificationHandler))

	return orderProcessingChain
}

// planRestock 登记归还实体库存，按游戏 ID 升序执行
func planRestock(plan *saga.Plan, order *domain.Order) {
	demand := order.RestockDemand()
	ids := make([]uint, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		gameID, qty := id, demand[id]
		plan.Add(saga.Mutation{Name: "inventory.increment", Apply: func(ctx context.Context, tx domain.Tx) error {
			if err := tx.Games().IncrementStock(ctx, gameID, qty); err != nil {
				return err
			}
			metrics.StockAdjustments.WithLabelValues("increment").Add(float64(qty))
			return nil
		}})
	}
}

func planStatus(plan *saga.Plan, order *domain.Order, status domain.Status) {
	plan.Add(saga.Mutation{Name: "order.update_status", Apply: func(ctx context.Context, tx domain.Tx) error {
		return tx.Orders().UpdateStatus(ctx, order.ID, status)
	}})
}

func planNotification(plan *saga.Plan, order *domain.Order, build func(*domain.Order) domain.Notification, eventType domain.EventType) {
	plan.Add(saga.Mutation{Name: "notification.append", Apply: func(ctx context.Context, tx domain.Tx) error {
		return saga.AppendNotification(ctx, tx, order, build(order), eventType)
	}})
}

func observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = reason(err)
	}
	metrics.OperationDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// reason 把错误归类为指标标签
func reason(err error) string {
	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		mismatch     *domain.FormatMismatchError
		insufficient *domain.InsufficientStockError
		conflict     *domain.StateConflictError
		forbidden    *domain.AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &mismatch):
		return "format_mismatch"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &conflict):
		return "state_conflict"
	case errors.As(err, &forbidden):
		return "forbidden"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}
