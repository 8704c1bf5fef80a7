package interfaces

import (
	"net/http"
	"strconv"
	"strings"

	"gamestore/internal/service/order/domain"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// callerFromRequest 读取上游网关写入的身份头。ok 为 false 表示未认证。
func callerFromRequest(r *http.Request) (domain.Caller, bool) {
	raw := strings.TrimSpace(r.Header.Get(headerUserID))
	if raw == "" {
		return domain.Caller{}, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return domain.Caller{}, false
	}
	role := strings.ToLower(strings.TrimSpace(r.Header.Get(headerUserRole)))
	if role == "" {
		role = "user"
	}
	return domain.Caller{UserID: uint(id), Role: role}, true
}
