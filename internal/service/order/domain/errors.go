// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStockConflict 表示条件扣减没有命中任何行，即扣减时库存已经不足
var ErrStockConflict = errors.New("stock changed concurrently")

// ValidationError 表示请求在持久化之前就被判定为不合法
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError 表示引用的实体不存在
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// FormatMismatchError 表示游戏不提供请求的交付形式
type FormatMismatchError struct {
	GameID uint
	Title  string
	Format Format
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("game %q is not available in %s format", e.Title, e.Format)
}

// StockShortage 是一条库存不足的记录
type StockShortage struct {
	GameID    uint   `json:"id"`
	Title     string `json:"title"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// InsufficientStockError 一次性列出所有库存不足的游戏
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%q (available %d, requested %d)", s.Title, s.Available, s.Requested))
	}
	return "some games have insufficient stock: " + strings.Join(parts, ", ")
}

// StateConflictError 表示当前订单状态不允许该操作
type StateConflictError struct {
	OrderID   uint
	Operation string
	Current   Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s order #%d that is already %s", e.Operation, e.OrderID, e.Current)
}

// AuthorizationError 表示调用方对目标资源没有权限
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}
