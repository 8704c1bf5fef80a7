// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"database/sql"

	"gamestore/internal/service/order/domain"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ToDomainGame 将数据库模型转换为领域模型
func ToDomainGame(m *GameModel) *domain.Game {
	if m == nil {
		return nil
	}
	g := &domain.Game{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Currency:    m.Currency,
		Category:    m.Category,
		Platform:    m.Platform,
		Publisher:   m.Publisher,
		ImageURL:    m.ImageURL,
		Featured:    m.Featured,
		HasPhysical: m.HasPhysical,
		HasDigital:  m.HasDigital,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.ReleaseDate.Valid {
		t := m.ReleaseDate.Time
		g.ReleaseDate = &t
	}
	return g
}

// FromDomainGame 将领域模型转换为数据库模型
func FromDomainGame(g *domain.Game) *GameModel {
	m := &GameModel{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Price:       g.Price,
		Currency:    g.Currency,
		Category:    g.Category,
		Platform:    g.Platform,
		Publisher:   g.Publisher,
		ImageURL:    g.ImageURL,
		Featured:    g.Featured,
		HasPhysical: g.HasPhysical,
		HasDigital:  g.HasDigital,
		Stock:       g.Stock,
	}
	if g.ReleaseDate != nil {
		m.ReleaseDate = sql.NullTime{Time: *g.ReleaseDate, Valid: true}
	}
	return m
}

// ToDomainOrder 转换订单及其订单行。订单行的游戏信息来自预加载的 Game。
func ToDomainOrder(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID:                m.ID,
		UserID:            m.UserID,
		TotalAmount:       m.TotalAmount,
		Currency:          m.Currency,
		Status:            domain.Status(m.Status),
		DeliveryMode:      domain.DeliveryMode(m.DeliveryType),
		PaymentMethod:     m.PaymentMethod,
		PlatformAccountID: m.PlatformAccountID.String,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Lines:             make([]domain.OrderLine, 0, len(m.Lines)),
	}
	if m.Street.Valid {
		o.ShippingAddress = &domain.Address{
			Street:  m.Street.String,
			City:    m.City.String,
			ZipCode: m.ZipCode.String,
			Country: m.Country.String,
		}
	}
	for _, l := range m.Lines {
		o.Lines = append(o.Lines, domain.OrderLine{
			ID:           l.ID,
			OrderID:      l.OrderID,
			GameID:       l.GameID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Format:       domain.Format(l.Type),
			Subtotal:     l.Subtotal,
			GameTitle:    l.Game.Title,
			GameImage:    l.Game.ImageURL,
			GamePlatform: l.Game.Platform,
		})
	}
	return o
}

// FromDomainOrder 只转换订单头，订单行由 FromDomainOrderLines 单独转换
func FromDomainOrder(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:                o.ID,
		UserID:            o.UserID,
		TotalAmount:       o.TotalAmount,
		Currency:          o.Currency,
		Status:            string(o.Status),
		DeliveryType:      string(o.DeliveryMode),
		PaymentMethod:     o.PaymentMethod,
		PlatformAccountID: nullString(o.PlatformAccountID),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.ShippingAddress != nil {
		m.Street = nullString(o.ShippingAddress.Street)
		m.City = nullString(o.ShippingAddress.City)
		m.ZipCode = nullString(o.ShippingAddress.ZipCode)
		m.Country = nullString(o.ShippingAddress.Country)
	}
	return m
}

func FromDomainOrderLines(orderID uint, lines []domain.OrderLine) []OrderLineModel {
	out := make([]OrderLineModel, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderLineModel{
			OrderID:   orderID,
			GameID:    l.GameID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Type:      string(l.Format),
			Subtotal:  l.Subtotal,
		})
	}
	return out
}

func ToDomainNotification(m *NotificationModel) *domain.Notification {
	return &domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Message:   m.Message,
		Type:      domain.NotificationType(m.Type),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
