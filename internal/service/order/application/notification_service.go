package application

import (
	"context"

	"gamestore/internal/service/order/domain"

	"go.opentelemetry.io/otel/trace"
)

// NotificationService 是用户收件箱的查询入口
type NotificationService struct {
	repo   domain.NotificationRepository
	tracer trace.Tracer
}

func NewNotificationService(repo domain.NotificationRepository, tracer trace.Tracer) *NotificationService {
	return &NotificationService{repo: repo, tracer: tracer}
}

func (s *NotificationService) List(ctx context.Context, caller domain.Caller) ([]*NotificationDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListNotifications")
	defer span.End()

	list, err := s.repo.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]*NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, ToNotificationDTO(n))
	}
	return out, nil
}

// MarkRead 只能标记自己的通知，别人的通知按不存在处理
func (s *NotificationService) MarkRead(ctx context.Context, caller domain.Caller, id uint) error {
	ctx, span := s.tracer.Start(ctx, "app.MarkNotificationRead")
	defer span.End()
	return s.repo.MarkRead(ctx, caller.UserID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "app.MarkAllNotificationsRead")
	defer span.End()
	return s.repo.MarkAllRead(ctx, caller.UserID)
}
