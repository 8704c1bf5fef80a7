// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending   Status = "pending"   // 初始状态，库存已扣减，等待处理
	StatusCompleted Status = "completed" // 终态
	StatusCancelled Status = "cancelled" // 终态，库存已归还
)

// transitions 是订单状态机的完整迁移表，表中没有的迁移一律拒绝
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
}

// ParseStatus 解析外部传入的状态值
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Message: "status must be one of pending, completed, cancelled"}
}

func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s][next]
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
