// internal/service/push/session.go
package push

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gamestore/internal/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

const releaseScriptName = "push_session_release"

// SessionRegistry 在 Redis 中记录每个用户当前连接的网关节点
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) (*SessionRegistry, error) {
	if err := client.LoadScriptFromContent(releaseScriptName, releaseScript); err != nil {
		return nil, fmt.Errorf("failed to load session script: %w", err)
	}
	return &SessionRegistry{client: client, ttl: ttl}, nil
}

func sessionKey(userID uint) string {
	return "push:session:" + strconv.FormatUint(uint64(userID), 10)
}

// SetUserGateway 记录 (或续期) 用户所在的节点
func (s *SessionRegistry) SetUserGateway(ctx context.Context, userID uint, nodeID string) error {
	return s.client.GetClient().Set(ctx, sessionKey(userID), nodeID, s.ttl).Err()
}

// GetUserGateway 返回用户所在的节点，不在线时返回空串
func (s *SessionRegistry) GetUserGateway(ctx context.Context, userID uint) (string, error) {
	node, err := s.client.GetClient().Get(ctx, sessionKey(userID)).Result()
	if err == goredis.Nil {
		return "", nil
	}
	return node, err
}

// ClearUserGateway 只在会话仍然属于 nodeID 时删除，避免覆盖用户在其他节点上的新连接
func (s *SessionRegistry) ClearUserGateway(ctx context.Context, userID uint, nodeID string) error {
	_, err := s.client.RunScript(ctx, releaseScriptName, []string{sessionKey(userID)}, nodeID)
	return err
}

var releaseScript = `
-- KEYS[1]: 会话键, 例如: push:session:42
-- ARGV[1]: 当前节点 ID
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`
