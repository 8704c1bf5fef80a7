package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"gamestore/internal/service/order/domain"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gorm.io/gorm"
)

type outboxSink struct {
	db *gorm.DB
}

// Append 在当前事务中写入事件，并把链路上下文一并保存，供中继投递时恢复
func (s *outboxSink) Append(ctx context.Context, event *domain.OrderEvent) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event.TraceContext = carrier

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	headers, err := json.Marshal(carrier)
	if err != nil {
		return errors.Wrap(err, "marshal trace headers")
	}

	m := &OutboxModel{
		EventID:   event.ID,
		EventType: string(event.Type),
		OrderID:   event.OrderID,
		UserID:    event.UserID,
		Payload:   string(payload),
		Headers:   string(headers),
		CreatedAt: event.OccurredAt,
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(m).Error, "append outbox event")
}

// GormOutboxStore 供中继读取未投递的事件
type GormOutboxStore struct {
	db *gorm.DB
}

func NewGormOutboxStore(db *gorm.DB) *GormOutboxStore {
	return &GormOutboxStore{db: db}
}

func (s *GormOutboxStore) FetchUnpublished(ctx context.Context, limit int) ([]domain.OrderEvent, error) {
	var models []OutboxModel
	err := s.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("seq").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "fetch outbox")
	}

	events := make([]domain.OrderEvent, 0, len(models))
	for _, m := range models {
		var e domain.OrderEvent
		if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
			return nil, errors.Wrapf(err, "decode outbox event %s", m.EventID)
		}
		if m.Headers != "" {
			carrier := map[string]string{}
			if err := json.Unmarshal([]byte(m.Headers), &carrier); err == nil {
				e.TraceContext = carrier
			}
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *GormOutboxStore) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&OutboxModel{}).
		Where("event_id IN ?", ids).
		Update("published_at", time.Now()).Error
	return errors.Wrap(err, "mark outbox published")
}

var _ domain.OutboxStore = (*GormOutboxStore)(nil)
