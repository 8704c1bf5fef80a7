package port

import "context"

// StockLocker 是按游戏加锁的出站端口。实现必须按升序获取锁以避免死锁。
type StockLocker interface {
	// LockGames 锁定所有游戏，返回的 unlock 会释放已获取的全部锁
	LockGames(ctx context.Context, gameIDs []uint) (unlock func(), err error)
}
