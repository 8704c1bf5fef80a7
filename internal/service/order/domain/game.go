// internal/service/order/domain/game.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "IDR"

// Format 是订单行的交付形式
type Format string

const (
	FormatPhysical Format = "physical"
	FormatDigital  Format = "digital"
)

func ParseFormat(s string) (Format, bool) {
	switch f := Format(s); f {
	case FormatPhysical, FormatDigital:
		return f, true
	}
	return "", false
}

// Game 是商品目录中的一条游戏记录。Stock 只对实体版有意义，数字版视为无限库存。
type Game struct {
	ID          uint
	Title       string
	Description string
	Price       decimal.Decimal
	Currency    string
	Category    string
	Platform    string
	Publisher   string
	ImageURL    string
	ReleaseDate *time.Time
	Featured    bool
	HasPhysical bool
	HasDigital  bool
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Supports 判断游戏是否提供该交付形式
func (g *Game) Supports(f Format) bool {
	switch f {
	case FormatPhysical:
		return g.HasPhysical
	case FormatDigital:
		return g.HasDigital
	}
	return false
}

// Validate 校验目录管理写入的游戏数据
func (g *Game) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if g.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if g.Stock < 0 {
		return &ValidationError{Field: "stock", Message: "stock must not be negative"}
	}
	if !g.HasPhysical && !g.HasDigital {
		return &ValidationError{Field: "hasPhysical", Message: "game must be available in at least one format"}
	}
	if g.Currency == "" {
		g.Currency = DefaultCurrency
	}
	return nil
}

// GameFilter 是目录查询条件，空字段表示不过滤
type GameFilter struct {
	Category string
	Platform string
	Search   string
	Featured *bool
}
