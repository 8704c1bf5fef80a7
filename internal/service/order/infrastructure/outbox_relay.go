package infrastructure

import (
	"context"
	"time"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/metrics"
	"gamestore/internal/service/order/domain"
	"gamestore/internal/service/order/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// OutboxRelay 定时轮询 outbox 表，把已提交的订单事件按写入顺序投递出去。
// 投递失败时停止本轮，等待下一次轮询重试，保证同一批事件不会乱序。
type OutboxRelay struct {
	store     domain.OutboxStore
	publisher port.EventPublisher
	tracer    trace.Tracer
	interval  time.Duration
	batchSize int
}

func NewOutboxRelay(store domain.OutboxStore, publisher port.EventPublisher, tracer trace.Tracer, interval time.Duration, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		tracer:    tracer,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run 启动轮询，直到 ctx 被取消
func (r *OutboxRelay) Run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Dur("interval", r.interval).Msg("✅ Outbox relay started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Ctx(ctx).Error().Err(err).Msg("Outbox relay round failed")
			}
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("🛑 Shutting down outbox relay")
			return nil
		}
	}
}

// RelayOnce 投递一批事件，返回成功投递的数量
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	published := make([]string, 0, len(events))
	var publishErr error
	for _, e := range events {
		if publishErr = r.publish(ctx, e); publishErr != nil {
			metrics.OutboxFailures.Inc()
			break
		}
		published = append(published, e.ID)
	}

	if err := r.store.MarkPublished(ctx, published); err != nil {
		return 0, err
	}
	metrics.OutboxPublished.Add(float64(len(published)))
	return len(published), publishErr
}

func (r *OutboxRelay) publish(parentCtx context.Context, e domain.OrderEvent) error {
	// 恢复事件写入时的链路，让投递 span 挂在原始请求下面
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, propagation.MapCarrier(e.TraceContext))
	ctx, span := r.tracer.Start(ctx, "outbox.Publish", trace.WithSpanKind(trace.SpanKindProducer), trace.WithAttributes(
		attribute.String("event.id", e.ID),
		attribute.String("event.type", string(e.Type)),
		attribute.Int("order.id", int(e.OrderID)),
	))
	defer span.End()

	if err := r.publisher.Publish(ctx, e); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish order event")
		logger.Ctx(ctx).Error().Err(err).Str("event_id", e.ID).Msg("Failed to publish order event, will retry")
		return err
	}
	return nil
}
