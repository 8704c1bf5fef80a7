// internal/service/order/infrastructure/models.go
package infrastructure

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// GameModel 对应数据库中的 games 表
type GameModel struct {
	ID          uint            `gorm:"primaryKey"`
	Title       string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency    string          `gorm:"size:3;not null"`
	Category    string          `gorm:"size:100;index"`
	Platform    string          `gorm:"size:100;index"`
	Publisher   string          `gorm:"size:255"`
	ImageURL    string          `gorm:"size:512"`
	ReleaseDate sql.NullTime
	Featured    bool
	HasPhysical bool
	HasDigital  bool
	Stock       int `gorm:"not null;check:chk_games_stock,stock >= 0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定 GORM 应该使用的表名
func (GameModel) TableName() string {
	return "games"
}

// OrderModel 对应数据库中的 orders 表。地址字段全部为 NULL 或全部有值。
type OrderModel struct {
	ID                uint            `gorm:"primaryKey"`
	UserID            uint            `gorm:"not null;index"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Currency          string          `gorm:"size:3;not null"`
	Status            string          `gorm:"size:20;not null;index"`
	DeliveryType      string          `gorm:"size:20;not null"`
	PaymentMethod     string          `gorm:"size:50"`
	PlatformAccountID sql.NullString  `gorm:"size:100"`
	Street            sql.NullString  `gorm:"size:255"`
	City              sql.NullString  `gorm:"size:100"`
	ZipCode           sql.NullString  `gorm:"size:20"`
	Country           sql.NullString  `gorm:"size:100"`
	CreatedAt         time.Time       `gorm:"index"`
	UpdatedAt         time.Time

	// 关联关系，只用于读取
	Lines []OrderLineModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel 对应数据库中的 order_lines 表
type OrderLineModel struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	GameID    uint            `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;check:chk_order_lines_quantity,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
	Type      string          `gorm:"size:10;not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt time.Time

	Game GameModel `gorm:"foreignKey:GameID"`
}

func (OrderLineModel) TableName() string {
	return "order_lines"
}

// NotificationModel 对应数据库中的 notifications 表
type NotificationModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Title     string `gorm:"size:255;not null"`
	Message   string `gorm:"type:text"`
	Type      string `gorm:"size:50"`
	IsRead    bool   `gorm:"not null"`
	CreatedAt time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// OutboxModel 对应数据库中的 order_outbox 表，PublishedAt 为 NULL 表示尚未投递。
// Seq 是写入顺序，中继按它投递。
type OutboxModel struct {
	Seq         uint64       `gorm:"primaryKey;autoIncrement"`
	EventID     string       `gorm:"size:36;not null;uniqueIndex"`
	EventType   string       `gorm:"size:50;not null"`
	OrderID     uint         `gorm:"index"`
	UserID      uint
	Payload     string       `gorm:"type:text;not null"`
	Headers     string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"index"`
	PublishedAt sql.NullTime `gorm:"index"`
}

func (OutboxModel) TableName() string {
	return "order_outbox"
}
