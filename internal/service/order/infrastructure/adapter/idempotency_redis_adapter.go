package adapter

import (
	"context"
	"fmt"
	"time"

	"gamestore/internal/pkg/redis"
	"gamestore/internal/service/order/port"

	goredis "github.com/redis/go-redis/v9"
)

const (
	claimScriptName = "idempotency_claim"
	// fieldResponse 与 claimScript 中的字段名一致
	fieldResponse = "resp"
)

// IdempotencyRedisAdapter 是 port.IdempotencyStore 的 Redis 实现。
type IdempotencyRedisAdapter struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewIdempotencyRedisAdapter 创建适配器，并在创建时加载需要的 Lua 脚本。
func NewIdempotencyRedisAdapter(redisClient *redis.Client, ttl time.Duration) (*IdempotencyRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(claimScriptName, claimScript); err != nil {
		return nil, fmt.Errorf("failed to load idempotency script: %w", err)
	}
	return &IdempotencyRedisAdapter{redisClient: redisClient, ttl: ttl}, nil
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idempotency:{%s}:%s", scope, key)
}

// Claim 原子地占用一个幂等键。返回 claimed=true 表示调用方应当执行请求；
// 否则 cached 是之前保存的响应。
func (a *IdempotencyRedisAdapter) Claim(ctx context.Context, scope, key, fingerprint string) (cached []byte, claimed bool, err error) {
	result, err := a.redisClient.RunScript(ctx, claimScriptName,
		[]string{idempotencyKey(scope, key)}, a.ttl.Milliseconds(), fingerprint)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency adapter failed to run script: %w", err)
	}

	reply, ok := result.([]interface{})
	if !ok || len(reply) == 0 {
		return nil, false, fmt.Errorf("unexpected result from Lua script: %v", result)
	}
	switch reply[0] {
	case "claimed":
		return nil, true, nil
	case "in_flight":
		return nil, false, port.ErrRequestInFlight
	case "mismatch":
		return nil, false, port.ErrKeyReused
	case "done":
		if len(reply) < 2 {
			return nil, false, fmt.Errorf("lua script returned no cached response")
		}
		resp, _ := reply[1].(string)
		return []byte(resp), false, nil
	default:
		return nil, false, fmt.Errorf("unexpected status from Lua script: %v", reply[0])
	}
}

// Store 保存响应，保留占用时记录的指纹
func (a *IdempotencyRedisAdapter) Store(ctx context.Context, scope, key string, response []byte) error {
	k := idempotencyKey(scope, key)
	_, err := a.redisClient.GetClient().TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldResponse, response)
		pipe.PExpire(ctx, k, a.ttl)
		return nil
	})
	return err
}

// Release 释放幂等键，允许客户端用同一个键重试
func (a *IdempotencyRedisAdapter) Release(ctx context.Context, scope, key string) error {
	return a.redisClient.GetClient().Del(ctx, idempotencyKey(scope, key)).Err()
}

var claimScript = `
-- KEYS[1]: 幂等键, 例如: idempotency:{42}:3f1c...
-- ARGV[1]: 过期时间 (毫秒)
-- ARGV[2]: 请求指纹

-- 1. 已被占用: 指纹不同则拒绝，否则返回保存的响应或处理中状态
local fp = redis.call('hget', KEYS[1], 'fp')
if fp then
    if fp ~= ARGV[2] then
        return {'mismatch'}
    end
    local resp = redis.call('hget', KEYS[1], 'resp')
    if resp then
        return {'done', resp}
    end
    return {'in_flight'}
end

-- 2. 未被占用则记录指纹，代表占用成功
redis.call('hset', KEYS[1], 'fp', ARGV[2])
redis.call('pexpire', KEYS[1], ARGV[1])
return {'claimed'}
`
