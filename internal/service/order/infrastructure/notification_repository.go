package infrastructure

import (
	"context"

	"gamestore/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormNotificationRepository 是收件箱查询的 GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	out := make([]*domain.Notification, 0, len(models))
	for i := range models {
		out = append(out, ToDomainNotification(&models[i]))
	}
	return out, nil
}

// MarkRead 标记一条通知为已读。别人的通知视为不存在。
func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "mark notification %d read", id)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "notification", ID: id}
	}
	return nil
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}

var _ domain.NotificationRepository = (*GormNotificationRepository)(nil)
var _ domain.CatalogRepository = (*GormCatalogRepository)(nil)
var _ domain.OrderReader = (*GormOrderReader)(nil)
var _ domain.UnitOfWork = (*GormUnitOfWork)(nil)
