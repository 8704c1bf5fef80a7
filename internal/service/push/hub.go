// internal/service/push/hub.go
package push

import (
	"context"
	"sync"
	"time"

	"gamestore/internal/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Hub 维护本节点所有活跃的连接。同一个用户可以同时有多个连接 (多个标签页)。
type Hub struct {
	nodeID   string
	clients  map[uint]map[*Client]bool
	register chan *Client
	done     chan struct{}
	lock     sync.RWMutex
}

func NewHub(nodeID string) *Hub {
	return &Hub{
		nodeID:   nodeID,
		clients:  make(map[uint]map[*Client]bool),
		register: make(chan *Client),
		done:     make(chan struct{}),
	}
}

// Run 处理连接的注册，直到 ctx 被取消。注销由连接自己的 readPump 同步完成。
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.lock.Unlock()
			logger.Ctx(ctx).Info().Uint("user_id", client.userID).Str("node", h.nodeID).Msg("Client registered")
		case <-ctx.Done():
			h.lock.Lock()
			for userID, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			h.lock.Unlock()
			logger.Ctx(ctx).Info().Msg("🛑 Push hub stopped")
			return nil
		}
	}
}

// remove 注销一个连接，重复调用是安全的
func (h *Hub) remove(c *Client) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	set, ok := h.clients[c.userID]
	if !ok || !set[c] {
		return false
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	return true
}

// Deliver 把消息放入该用户所有连接的发送队列，返回成功入队的连接数。
// 发送队列已满的连接被视为卡死，直接断开。
func (h *Hub) Deliver(userID uint, payload []byte) int {
	h.lock.RLock()
	var stuck []*Client
	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			stuck = append(stuck, c)
		}
	}
	h.lock.RUnlock()

	for _, c := range stuck {
		h.remove(c)
	}
	return delivered
}

// Online 判断用户在本节点是否有连接
func (h *Hub) Online(userID uint) bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients[userID]) > 0
}

// Client 是一个 WebSocket 连接的代表
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// writePump 把 send 队列中的消息写入 websocket，并定期发送 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了这个连接
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只处理心跳，连接断开时通知 Hub
func (c *Client) readPump(onClose func()) {
	defer func() {
		if c.hub.remove(c) {
			logger.L().Info().Uint("user_id", c.userID).Msg("Client unregistered")
		}
		_ = c.conn.Close()
		onClose()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
