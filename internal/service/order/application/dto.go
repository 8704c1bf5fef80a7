// internal/service/order/application/dto.go
package application

import (
	"time"

	"gamestore/internal/service/order/domain"

	"github.com/shopspring/decimal"
)

// LineItemRequest 是下单请求中的一行
type LineItemRequest struct {
	GameID   uint   `json:"gameId"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

// PlaceOrderRequest 是下单用例的输入数据
type PlaceOrderRequest struct {
	Games             []LineItemRequest `json:"games"`
	PaymentMethod     string            `json:"paymentMethod"`
	DeliveryType      string            `json:"deliveryType"`
	PlatformAccountID string            `json:"platformAccountId"`
	Street            string            `json:"street"`
	City              string            `json:"city"`
	ZipCode           string            `json:"zipCode"`
	Country           string            `json:"country"`
}

// ToDraft 从应用层请求 DTO 转换为领域草稿
func (r *PlaceOrderRequest) ToDraft(userID uint) *domain.OrderDraft {
	lines := make([]domain.LineRequest, 0, len(r.Games))
	for _, g := range r.Games {
		lines = append(lines, domain.LineRequest{GameID: g.GameID, Quantity: g.Quantity, Format: g.Type})
	}
	return &domain.OrderDraft{
		UserID:            userID,
		Lines:             lines,
		DeliveryMode:      r.DeliveryType,
		PaymentMethod:     r.PaymentMethod,
		PlatformAccountID: r.PlatformAccountID,
		ShippingAddress: domain.Address{
			Street:  r.Street,
			City:    r.City,
			ZipCode: r.ZipCode,
			Country: r.Country,
		},
	}
}

// UpdateOrderRequest 是修改订单元数据的输入数据
type UpdateOrderRequest struct {
	PaymentMethod     string `json:"paymentMethod"`
	PlatformAccountID string `json:"platformAccountId"`
	Street            string `json:"street"`
	City              string `json:"city"`
	ZipCode           string `json:"zipCode"`
	Country           string `json:"country"`
}

func (r *UpdateOrderRequest) ToUpdate() domain.OrderUpdate {
	return domain.OrderUpdate{
		PaymentMethod:     r.PaymentMethod,
		PlatformAccountID: r.PlatformAccountID,
		ShippingAddress: domain.Address{
			Street:  r.Street,
			City:    r.City,
			ZipCode: r.ZipCode,
			Country: r.Country,
		},
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderLineDTO struct {
	ID           uint            `json:"id"`
	GameID       uint            `json:"gameId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"price"`
	Type         string          `json:"type"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	GameTitle    string          `json:"gameTitle"`
	GameImage    string          `json:"gameImage"`
	GamePlatform string          `json:"gamePlatform"`
}

// OrderDTO 是订单用例的输出数据
type OrderDTO struct {
	ID                uint            `json:"id"`
	UserID            uint            `json:"userId"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	DeliveryType      string          `json:"deliveryType"`
	PaymentMethod     string          `json:"paymentMethod"`
	PlatformAccountID string          `json:"platformAccountId,omitempty"`
	ShippingAddress   *domain.Address `json:"shippingAddress"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	Lines             []OrderLineDTO  `json:"lines"`
}

func ToOrderDTO(o *domain.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		TotalAmount:       o.TotalAmount,
		Currency:          o.Currency,
		Status:            string(o.Status),
		DeliveryType:      string(o.DeliveryMode),
		PaymentMethod:     o.PaymentMethod,
		PlatformAccountID: o.PlatformAccountID,
		ShippingAddress:   o.ShippingAddress,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Lines:             make([]OrderLineDTO, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ID:           l.ID,
			GameID:       l.GameID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Type:         string(l.Format),
			Subtotal:     l.Subtotal,
			GameTitle:    l.GameTitle,
			GameImage:    l.GameImage,
			GamePlatform: l.GamePlatform,
		})
	}
	return dto
}

func ToOrderDTOs(orders []*domain.Order) []*OrderDTO {
	out := make([]*OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderDTO(o))
	}
	return out
}

// GameRequest 是创建或整体更新游戏的输入数据
type GameRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Platform    string          `json:"platform"`
	Publisher   string          `json:"publisher"`
	ImageURL    string          `json:"imageUrl"`
	ReleaseDate *time.Time      `json:"releaseDate"`
	Featured    bool            `json:"featured"`
	HasPhysical bool            `json:"hasPhysical"`
	HasDigital  bool            `json:"hasDigital"`
	Stock       int             `json:"stock"`
}

func (r *GameRequest) ToGame(id uint) *domain.Game {
	return &domain.Game{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		Category:    r.Category,
		Platform:    r.Platform,
		Publisher:   r.Publisher,
		ImageURL:    r.ImageURL,
		ReleaseDate: r.ReleaseDate,
		Featured:    r.Featured,
		HasPhysical: r.HasPhysical,
		HasDigital:  r.HasDigital,
		Stock:       r.Stock,
	}
}

type GameDTO struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Platform    string          `json:"platform"`
	Publisher   string          `json:"publisher"`
	ImageURL    string          `json:"imageUrl"`
	ReleaseDate *time.Time      `json:"releaseDate"`
	Featured    bool            `json:"featured"`
	HasPhysical bool            `json:"hasPhysical"`
	HasDigital  bool            `json:"hasDigital"`
	Stock       int             `json:"stock"`
}

func ToGameDTO(g *domain.Game) *GameDTO {
	return &GameDTO{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Price:       g.Price,
		Currency:    g.Currency,
		Category:    g.Category,
		Platform:    g.Platform,
		Publisher:   g.Publisher,
		ImageURL:    g.ImageURL,
		ReleaseDate: g.ReleaseDate,
		Featured:    g.Featured,
		HasPhysical: g.HasPhysical,
		HasDigital:  g.HasDigital,
		Stock:       g.Stock,
	}
}

type NotificationDTO struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToNotificationDTO(n *domain.Notification) *NotificationDTO {
	return &NotificationDTO{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
