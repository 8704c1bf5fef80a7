package saga

import (
	"context"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"
	"gamestore/internal/service/order/port"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderContext 在下单责任链中传递上下文数据。
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Caller domain.Caller
	Draft  *domain.OrderDraft

	// 依赖出站端口，Locker 为 nil 时跳过分布式锁
	Locker port.StockLocker

	// 以下字段由链上的处理器依次填充
	Tx    domain.Tx
	Games map[uint]*domain.Game
	Order *domain.Order

	plan Plan
}

// Schedule 把一个写操作加入本次工作单元的计划，由 TransactionHandler 统一执行
func (c *OrderContext) Schedule(name string, apply func(ctx context.Context, tx domain.Tx) error) {
	c.plan.Add(Mutation{Name: name, Apply: apply})
}

// Mutation 是工作单元中的一个计划写操作
type Mutation struct {
	Name  string
	Apply func(ctx context.Context, tx domain.Tx) error
}

// Plan 是按顺序执行的一批写操作，必须在同一个工作单元内应用
type Plan struct {
	mutations []Mutation
}

func (p *Plan) Add(m Mutation) {
	p.mutations = append(p.mutations, m)
}

func (p *Plan) Len() int {
	return len(p.mutations)
}

func (p *Plan) Reset() {
	p.mutations = p.mutations[:0]
}

// Apply 依次执行所有写操作，遇到第一个错误即停止，由外层工作单元负责回滚
func (p *Plan) Apply(ctx context.Context, tx domain.Tx) error {
	for _, m := range p.mutations {
		if err := m.Apply(ctx, tx); err != nil {
			return errors.Wrapf(err, "apply %s", m.Name)
		}
		logger.Ctx(ctx).Debug().Str("mutation", m.Name).Msg("mutation applied")
	}
	return nil
}

// Handler 定义了责任链中每个节点的接口
type Handler interface {
	// SetNext 设置链中的下一个处理器
	SetNext(handler Handler) Handler
	// Handle 执行当前节点的处理逻辑
	Handle(orderCtx *OrderContext) error
}

// NextHandler 是一个辅助结构，可以嵌入到具体的处理器中，以减少重复代码
type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

// executeNext 封装了调用下一个处理器的通用逻辑
func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
