package infrastructure

import (
	"context"
	"fmt"
	"sort"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/zookeeper"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

// ZookeeperStockLocker 用 ZooKeeper 分布式锁实现 port.StockLocker，每个游戏一把锁。
type ZookeeperStockLocker struct {
	conn *zk.Conn
}

func NewZookeeperStockLocker(conn *zk.Conn) *ZookeeperStockLocker {
	return &ZookeeperStockLocker{conn: conn}
}

// LockGames 按游戏 ID 升序加锁，任何一把锁失败都会释放已获取的锁
func (l *ZookeeperStockLocker) LockGames(ctx context.Context, gameIDs []uint) (func(), error) {
	ids := append([]uint(nil), gameIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	held := make([]*zookeeper.DistributedLock, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Unlock(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("Failed to release stock lock")
			}
		}
	}

	for _, id := range ids {
		lock, err := zookeeper.NewDistributedLock(l.conn, gameResource(id))
		if err != nil {
			release()
			return nil, errors.Wrapf(err, "prepare lock for game %d", id)
		}
		if err := lock.Lock(ctx); err != nil {
			release()
			return nil, errors.Wrapf(err, "lock game %d", id)
		}
		held = append(held, lock)
	}
	return release, nil
}

func gameResource(id uint) string {
	return fmt.Sprintf("game-%d", id)
}
