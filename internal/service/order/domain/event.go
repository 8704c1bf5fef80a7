// internal/service/order/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderCancelled     EventType = "order.cancelled"
	EventOrderDeleted       EventType = "order.deleted"
	EventOrderUpdated       EventType = "order.updated"
)

// OrderEvent 是订单生命周期事件，和订单变更写在同一个事务里 (outbox)，
// 由中继进程投递到 Kafka。
type OrderEvent struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	OrderID     uint            `json:"orderId"`
	UserID      uint            `json:"userId"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	OccurredAt  time.Time       `json:"occurredAt"`

	// TraceContext 保存写入时的链路上下文，投递时注入到 Kafka 消息头
	TraceContext map[string]string `json:"-"`
}

// NewOrderEvent 用订单和随之产生的通知构造事件
func NewOrderEvent(t EventType, o *Order, n Notification) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        t,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		Title:       n.Title,
		Message:     n.Message,
		OccurredAt:  time.Now(),
	}
}
