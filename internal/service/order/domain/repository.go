// internal/service/order/domain/repository.go
package domain

import "context"

// UnitOfWork 定义了原子工作单元。fn 内的所有写操作要么全部提交，要么全部丢弃。
// 实现可以在可重试的错误 (如死锁) 上重新执行 fn，因此 fn 不能有事务外的副作用。
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx 暴露只在工作单元内可用的仓储
type Tx interface {
	Games() InventoryRepository
	Orders() OrderRepository
	Notifications() NotificationSink
	Outbox() OutboxSink
}

// InventoryRepository 读取并调整游戏库存。
// DecrementStock 是条件扣减 (stock >= qty)，未命中时返回 ErrStockConflict。
type InventoryRepository interface {
	FindByIDForUpdate(ctx context.Context, id uint) (*Game, error)
	DecrementStock(ctx context.Context, id uint, qty int) error
	IncrementStock(ctx context.Context, id uint, qty int) error
}

// OrderRepository 定义了订单聚合在事务内的持久化接口
type OrderRepository interface {
	// Create 保存订单及其所有订单行，并回填 ID
	Create(ctx context.Context, order *Order) error
	FindByIDForUpdate(ctx context.Context, id uint) (*Order, error)
	UpdateStatus(ctx context.Context, id uint, status Status) error
	// UpdateDetails 只更新支付方式、收货地址和平台账号
	UpdateDetails(ctx context.Context, order *Order) error
	// Delete 先删除订单行，再删除订单
	Delete(ctx context.Context, id uint) error
}

// NotificationSink 是只追加的用户收件箱
type NotificationSink interface {
	Append(ctx context.Context, n *Notification) error
}

// OutboxSink 在事务内记录待投递的订单事件
type OutboxSink interface {
	Append(ctx context.Context, event *OrderEvent) error
}

// OrderReader 是订单的只读查询
type OrderReader interface {
	FindByID(ctx context.Context, id uint) (*Order, error)
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
}

// CatalogRepository 是目录管理使用的游戏仓储
type CatalogRepository interface {
	FindByID(ctx context.Context, id uint) (*Game, error)
	List(ctx context.Context, filter GameFilter) ([]*Game, error)
	Create(ctx context.Context, game *Game) error
	Update(ctx context.Context, game *Game) error
	Delete(ctx context.Context, id uint) error
	Categories(ctx context.Context) ([]string, error)
	Platforms(ctx context.Context) ([]string, error)
}

// NotificationRepository 是收件箱的查询和已读标记
type NotificationRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

// OutboxStore 供中继进程读取和确认事件
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OrderEvent, error)
	MarkPublished(ctx context.Context, ids []string) error
}
