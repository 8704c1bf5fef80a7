package port

import (
	"context"
	"errors"
)

var (
	// ErrRequestInFlight 表示同一个幂等键的请求仍在处理中
	ErrRequestInFlight = errors.New("request with the same idempotency key is in progress")
	// ErrKeyReused 表示幂等键已经被另一个不同的请求体使用过
	ErrKeyReused = errors.New("idempotency key was already used with a different request")
)

// IdempotencyStore 记录幂等键及其响应，scope 用于隔离不同用户的键
type IdempotencyStore interface {
	// Claim 原子地占用一个键并记录请求指纹。claimed 为 false 时 cached 是之前保存的响应；
	// 指纹与第一次占用时不同则返回 ErrKeyReused。
	Claim(ctx context.Context, scope, key, fingerprint string) (cached []byte, claimed bool, err error)
	Store(ctx context.Context, scope, key string, response []byte) error
	Release(ctx context.Context, scope, key string) error
}
