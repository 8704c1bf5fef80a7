// internal/service/order/domain/order.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMode 决定订单需要收货地址还是平台账号
type DeliveryMode string

const (
	DeliveryPhysical DeliveryMode = "physical"
	DeliveryDigital  DeliveryMode = "digital"
	DeliveryBoth     DeliveryMode = "both"
)

func ParseDeliveryMode(s string) (DeliveryMode, bool) {
	switch m := DeliveryMode(s); m {
	case DeliveryPhysical, DeliveryDigital, DeliveryBoth:
		return m, true
	}
	return "", false
}

func (m DeliveryMode) IncludesPhysical() bool { return m == DeliveryPhysical || m == DeliveryBoth }
func (m DeliveryMode) IncludesDigital() bool  { return m == DeliveryDigital || m == DeliveryBoth }

// Address 是收货地址，四个字段要么全有要么全无
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func (a Address) fields() [4][2]string {
	return [4][2]string{
		{"street", a.Street},
		{"city", a.City},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
}

// missing 返回第一个为空的字段名，全部存在时返回空串
func (a Address) missing() string {
	for _, f := range a.fields() {
		if strings.TrimSpace(f[1]) == "" {
			return f[0]
		}
	}
	return ""
}

func (a Address) IsComplete() bool { return a.missing() == "" }

func (a Address) IsEmpty() bool {
	for _, f := range a.fields() {
		if strings.TrimSpace(f[1]) != "" {
			return false
		}
	}
	return true
}

// OrderLine 是订单中的一行。UnitPrice 是下单时的价格快照，此后不再变化。
type OrderLine struct {
	ID        uint
	OrderID   uint
	GameID    uint
	Quantity  int
	UnitPrice decimal.Decimal
	Format    Format
	Subtotal  decimal.Decimal

	// 展示用的游戏信息快照
	GameTitle    string
	GameImage    string
	GamePlatform string
}

// Order 是订单聚合的根实体
type Order struct {
	ID                uint
	UserID            uint
	TotalAmount       decimal.Decimal
	Currency          string
	Status            Status
	DeliveryMode      DeliveryMode
	PaymentMethod     string
	ShippingAddress   *Address
	PlatformAccountID string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Lines []OrderLine
}

const (
	// MaxLineQuantity 是单行数量上限，同一游戏多行实体版的合计也受此限制
	MaxLineQuantity = 1000
)

// MaxOrderTotal 对应 total_amount decimal(14,2) 的上限
var MaxOrderTotal = decimal.RequireFromString("999999999999.99")

// LineRequest 是下单请求中的一行
type LineRequest struct {
	GameID   uint
	Quantity int
	Format   string
}

// OrderDraft 是尚未校验的下单请求
type OrderDraft struct {
	UserID            uint
	Lines             []LineRequest
	DeliveryMode      string
	PaymentMethod     string
	ShippingAddress   Address
	PlatformAccountID string
}

// Validate 在任何持久化之前校验请求，错误中会指明出错的字段
func (d *OrderDraft) Validate() error {
	if len(d.Lines) == 0 {
		return &ValidationError{Field: "games", Message: "order must contain at least one game"}
	}
	physical := make(map[uint]int, len(d.Lines))
	for i, l := range d.Lines {
		if l.GameID == 0 {
			return &ValidationError{Field: fmt.Sprintf("games[%d].gameId", i), Message: "game id is required"}
		}
		if l.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("games[%d].quantity", i), Message: "quantity must be a positive integer"}
		}
		if l.Quantity > MaxLineQuantity {
			return &ValidationError{Field: fmt.Sprintf("games[%d].quantity", i), Message: fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity)}
		}
		f, ok := ParseFormat(l.Format)
		if !ok {
			return &ValidationError{Field: fmt.Sprintf("games[%d].type", i), Message: "type must be physical or digital"}
		}
		if f == FormatPhysical {
			// 每行都已受上限约束，累加不会溢出
			physical[l.GameID] += l.Quantity
			if physical[l.GameID] > MaxLineQuantity {
				return &ValidationError{
					Field:   fmt.Sprintf("games[%d].quantity", i),
					Message: fmt.Sprintf("total physical quantity of game %d must not exceed %d", l.GameID, MaxLineQuantity),
				}
			}
		}
	}

	mode, ok := ParseDeliveryMode(d.DeliveryMode)
	if !ok {
		return &ValidationError{Field: "deliveryType", Message: "deliveryType must be physical, digital or both"}
	}
	if mode.IncludesPhysical() {
		if f := d.ShippingAddress.missing(); f != "" {
			return &ValidationError{Field: f, Message: "shipping address is required for physical delivery"}
		}
	}
	if mode.IncludesDigital() && strings.TrimSpace(d.PlatformAccountID) == "" {
		return &ValidationError{Field: "platformAccountId", Message: "platform account id is required for digital delivery"}
	}
	return nil
}

// GameIDs 返回请求中出现的游戏 ID，去重后保持请求顺序
func (d *OrderDraft) GameIDs() []uint {
	seen := make(map[uint]bool, len(d.Lines))
	ids := make([]uint, 0, len(d.Lines))
	for _, l := range d.Lines {
		if !seen[l.GameID] {
			seen[l.GameID] = true
			ids = append(ids, l.GameID)
		}
	}
	return ids
}

// PhysicalDemand 按游戏汇总实体版的需求数量，同一游戏的多行会被合并
func (d *OrderDraft) PhysicalDemand() map[uint]int {
	demand := make(map[uint]int)
	for _, l := range d.Lines {
		if Format(l.Format) == FormatPhysical {
			demand[l.GameID] += l.Quantity
		}
	}
	return demand
}

// NewOrder 用当前目录价格构建一个 pending 订单。games 必须包含请求中的所有游戏。
func NewOrder(d *OrderDraft, games map[uint]*Game) (*Order, error) {
	mode, _ := ParseDeliveryMode(d.DeliveryMode)
	order := &Order{
		UserID:        d.UserID,
		Status:        StatusPending,
		DeliveryMode:  mode,
		PaymentMethod: d.PaymentMethod,
		TotalAmount:   decimal.Zero,
		Lines:         make([]OrderLine, 0, len(d.Lines)),
	}
	if mode.IncludesPhysical() {
		addr := d.ShippingAddress
		order.ShippingAddress = &addr
	}
	if mode.IncludesDigital() {
		order.PlatformAccountID = d.PlatformAccountID
	}

	for _, l := range d.Lines {
		g, ok := games[l.GameID]
		if !ok {
			return nil, &NotFoundError{Entity: "game", ID: l.GameID}
		}
		currency := g.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		if order.Currency == "" {
			order.Currency = currency
		} else if order.Currency != currency {
			return nil, &ValidationError{Field: "games", Message: "all games in an order must be priced in the same currency"}
		}

		subtotal := g.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		order.Lines = append(order.Lines, OrderLine{
			GameID:       g.ID,
			Quantity:     l.Quantity,
			UnitPrice:    g.Price,
			Format:       Format(l.Format),
			Subtotal:     subtotal,
			GameTitle:    g.Title,
			GameImage:    g.ImageURL,
			GamePlatform: g.Platform,
		})
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}
	if order.TotalAmount.GreaterThan(MaxOrderTotal) {
		return nil, &ValidationError{Field: "games", Message: "order total exceeds the maximum allowed amount"}
	}

	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	return order, nil
}

// EnsurePending 只允许 pending 订单执行 op
func (o *Order) EnsurePending(op string) error {
	if o.Status != StatusPending {
		return &StateConflictError{OrderID: o.ID, Operation: op, Current: o.Status}
	}
	return nil
}

// TransitionTo 按迁移表推进状态
func (o *Order) TransitionTo(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return &StateConflictError{OrderID: o.ID, Operation: verbFor(next), Current: o.Status}
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}

func verbFor(s Status) string {
	switch s {
	case StatusCompleted:
		return "complete"
	case StatusCancelled:
		return "cancel"
	}
	return "set status " + string(s) + " on"
}

// RestockDemand 汇总取消或删除时需要归还的实体库存
func (o *Order) RestockDemand() map[uint]int {
	demand := make(map[uint]int)
	for _, l := range o.Lines {
		if l.Format == FormatPhysical {
			demand[l.GameID] += l.Quantity
		}
	}
	return demand
}

// OrderUpdate 是订单元数据的修改请求，空值表示不修改
type OrderUpdate struct {
	PaymentMethod     string
	ShippingAddress   Address
	PlatformAccountID string
}

// ApplyUpdate 修改支付方式、收货地址或平台账号。
// 地址只能整体替换，且只对包含实体交付的订单生效；平台账号只对包含数字交付的订单生效。
func (o *Order) ApplyUpdate(u OrderUpdate) error {
	if err := o.EnsurePending("update"); err != nil {
		return err
	}

	changed := false
	if strings.TrimSpace(u.PaymentMethod) != "" {
		o.PaymentMethod = u.PaymentMethod
		changed = true
	}
	if o.DeliveryMode.IncludesPhysical() && !u.ShippingAddress.IsEmpty() {
		if f := u.ShippingAddress.missing(); f != "" {
			return &ValidationError{
				Field:   f,
				Message: "all shipping address fields (street, city, zipCode, country) are required when updating address",
			}
		}
		addr := u.ShippingAddress
		o.ShippingAddress = &addr
		changed = true
	}
	if o.DeliveryMode.IncludesDigital() && strings.TrimSpace(u.PlatformAccountID) != "" {
		o.PlatformAccountID = u.PlatformAccountID
		changed = true
	}

	if !changed {
		return &ValidationError{Message: "no valid fields to update were provided"}
	}
	o.UpdatedAt = time.Now()
	return nil
}
