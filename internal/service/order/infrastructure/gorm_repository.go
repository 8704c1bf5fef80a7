// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
	defaultTxAttempts    = 3
)

// GormUnitOfWork 是 domain.UnitOfWork 的 GORM 实现。
// 遇到 MySQL 死锁时整个工作单元会被重新执行。
type GormUnitOfWork struct {
	db          *gorm.DB
	maxAttempts int
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, maxAttempts: defaultTxAttempts}
}

func (u *GormUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, &gormTx{db: tx})
		})
		if err == nil || !isRetryable(err) || attempt >= u.maxAttempts {
			return err
		}

		logger.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("Transaction aborted by deadlock, retrying")
		select {
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "retry transaction")
		}
	}
}

func isRetryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
	}
	return false
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// gormTx 把同一个 *gorm.DB 事务句柄分发给各个仓储
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Games() domain.InventoryRepository { return &inventoryRepository{db: t.db} }
func (t *gormTx) Orders() domain.OrderRepository { return &orderRepository{db: t.db} }
func (t *gormTx) Notifications() domain.NotificationSink { return &notificationSink{db: t.db} }
func (t *gormTx) Outbox() domain.OutboxSink { return &outboxSink{db: t.db} }

type inventoryRepository struct {
	db *gorm.DB
}

// FindByIDForUpdate 对游戏行加排他锁 (SQLite 会忽略锁子句)
func (r *inventoryRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Game, error) {
	var m GameModel
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "game", ID: id}
		}
		return nil, errors.Wrapf(err, "find game %d", id)
	}
	return ToDomainGame(&m), nil
}

// DecrementStock 条件扣减: UPDATE games SET stock = stock - ? WHERE id = ? AND stock >= ?
func (r *inventoryRepository) DecrementStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&GameModel{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "decrement stock of game %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStockConflict
	}
	return nil
}

func (r *inventoryRepository) IncrementStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&GameModel{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "increment stock of game %d", id)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "game", ID: id}
	}
	return nil
}

type orderRepository struct {
	db *gorm.DB
}

// Create 先写订单头再批量写订单行，不依赖 GORM 的关联级联
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	db := r.db.WithContext(ctx)

	m := FromDomainOrder(order)
	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	order.ID = m.ID
	order.CreatedAt, order.UpdatedAt = m.CreatedAt, m.UpdatedAt

	lines := FromDomainOrderLines(m.ID, order.Lines)
	if err := db.Omit(clause.Associations).Create(&lines).Error; err != nil {
		return errors.Wrap(err, "create order lines")
	}
	for i := range order.Lines {
		order.Lines[i].ID = lines[i].ID
		order.Lines[i].OrderID = m.ID
	}
	return nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Order, error) {
	return findOrder(r.db.WithContext(ctx).Clauses(forUpdate), r.db.WithContext(ctx), id)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status domain.Status) error {
	err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		}).Error
	return errors.Wrapf(err, "update status of order %d", id)
}

func (r *orderRepository) UpdateDetails(ctx context.Context, order *domain.Order) error {
	m := FromDomainOrder(order)
	err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"payment_method":      m.PaymentMethod,
			"platform_account_id": m.PlatformAccountID,
			"street":              m.Street,
			"city":                m.City,
			"zip_code":            m.ZipCode,
			"country":             m.Country,
			"updated_at":          time.Now(),
		}).Error
	return errors.Wrapf(err, "update order %d", order.ID)
}

// Delete 先删除订单行 (外键约束)，再删除订单本身
func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&OrderLineModel{}).Error; err != nil {
		return errors.Wrapf(err, "delete lines of order %d", id)
	}
	res := db.Delete(&OrderModel{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete order %d", id)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "order", ID: id}
	}
	return nil
}

// findOrder 用 head 查询订单头 (可带锁)，再用 db 读取订单行和游戏快照
func findOrder(head, db *gorm.DB, id uint) (*domain.Order, error) {
	var m OrderModel
	if err := head.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "order", ID: id}
		}
		return nil, errors.Wrapf(err, "find order %d", id)
	}
	if err := db.Preload("Game").Where("order_id = ?", id).Order("id").Find(&m.Lines).Error; err != nil {
		return nil, errors.Wrapf(err, "load lines of order %d", id)
	}
	return ToDomainOrder(&m), nil
}

type notificationSink struct {
	db *gorm.DB
}

func (s *notificationSink) Append(ctx context.Context, n *domain.Notification) error {
	m := &NotificationModel{
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    false,
		CreatedAt: n.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "append notification")
	}
	n.ID = m.ID
	return nil
}

// GormOrderReader 是订单的只读查询，不参与工作单元
type GormOrderReader struct {
	db *gorm.DB
}

func NewGormOrderReader(db *gorm.DB) *GormOrderReader {
	return &GormOrderReader{db: db}
}

func (r *GormOrderReader) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	db := r.db.WithContext(ctx)
	return findOrder(db, db, id)
}

func (r *GormOrderReader) ListByUser(ctx context.Context, userID uint) ([]*domain.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *GormOrderReader) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, r.db.WithContext(ctx))
}

func (r *GormOrderReader) list(ctx context.Context, q *gorm.DB) ([]*domain.Order, error) {
	var models []OrderModel
	err := q.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Lines.Game").
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, ToDomainOrder(&models[i]))
	}
	return out, nil
}
