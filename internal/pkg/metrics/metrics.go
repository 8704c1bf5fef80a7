// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gamestore"

var (
	// OrdersPlaced 成功提交的订单数
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "placed_total",
		Help:      "Number of orders committed in pending status.",
	})

	// OrdersRejected 按拒绝原因统计的下单失败次数
	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "rejected_total",
		Help:      "Number of order placements rejected, by reason.",
	}, []string{"reason"})

	// OrderTransitions 订单生命周期操作计数 (cancel/delete/complete/update)
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "transitions_total",
		Help:      "Number of committed order lifecycle operations, by operation.",
	}, []string{"operation"})

	// StockAdjustments 库存调整的件数，direction 为 decrement 或 increment
	StockAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "adjusted_units_total",
		Help:      "Physical units moved in or out of stock by order operations.",
	}, []string{"direction"})

	// OperationDuration 应用层操作耗时
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "operation_duration_seconds",
		Help:      "Latency of order engine operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	// OutboxPublished / OutboxFailures 统计 outbox 中继的投递情况
	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "published_total",
		Help:      "Order events relayed from the outbox to Kafka.",
	})
	OutboxFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "failures_total",
		Help:      "Order events that failed to publish and will be retried.",
	})

	// PushDelivered 推送网关成功下发到 websocket 的消息数
	PushDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "push",
		Name:      "delivered_total",
		Help:      "Order events pushed to websocket clients, by result.",
	}, []string{"result"})
)
