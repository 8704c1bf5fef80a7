// internal/service/order/domain/caller.go
package domain

const RoleAdmin = "admin"

// Caller 是上游网关认证后的调用方身份
type Caller struct {
	UserID uint
	Role   string
}

func (c Caller) IsPrivileged() bool {
	return c.Role == RoleAdmin
}

// CanManage 订单的所有者或管理员可以管理订单
func (c Caller) CanManage(o *Order) bool {
	return c.IsPrivileged() || o.UserID == c.UserID
}
