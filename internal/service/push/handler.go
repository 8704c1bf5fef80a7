// internal/service/push/handler.go
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"gamestore/internal/pkg/logger"

	"github.com/gorilla/websocket"
)

// Gateway 把 HTTP 连接升级为 websocket 并挂到 Hub 上
type Gateway struct {
	hub      *Hub
	sessions *SessionRegistry
	upgrader websocket.Upgrader
}

// NewGateway 创建网关。sessions 为 nil 时不记录会话。
func NewGateway(hub *Hub, sessions *SessionRegistry) *Gateway {
	return &Gateway{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域由前置网关控制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", g.ServeWS)
	mux.HandleFunc("GET /api/push/presence/{userId}", g.presence)
}

// presence 查询用户当前连接在哪个网关节点上
func (g *Gateway) presence(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("userId"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}
	userID := uint(id)

	resp := struct {
		UserID uint   `json:"userId"`
		Online bool   `json:"online"`
		Node   string `json:"node,omitempty"`
	}{UserID: userID}

	if g.hub.Online(userID) {
		resp.Online, resp.Node = true, g.hub.nodeID
	} else if g.sessions != nil {
		node, err := g.sessions.GetUserGateway(r.Context(), userID)
		if err != nil {
			logger.Ctx(r.Context()).Error().Err(err).Msg("Failed to read push session")
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		resp.Online, resp.Node = node != "", node
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// userIDFrom 优先使用上游网关写入的 X-User-ID，浏览器无法设置头时退回到 userId 参数
func userIDFrom(r *http.Request) (uint, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		raw = r.URL.Query().Get("userId")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. 获取 UserID
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "userId is required", http.StatusUnauthorized)
		return
	}

	// 2. HTTP 升级为 WebSocket
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	// 3. 注册到 Hub
	client := &Client{hub: g.hub, conn: conn, send: make(chan []byte, sendBuffer), userID: userID}
	select {
	case g.hub.register <- client:
	case <-g.hub.done:
		_ = conn.Close()
		return
	}

	// 4. 在 Redis 中记录会话
	if g.sessions != nil {
		if err := g.sessions.SetUserGateway(ctx, userID, g.hub.nodeID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Uint("user_id", userID).Msg("Failed to set push session")
		}
	}

	// 5. 启动读写 goroutine
	go client.writePump()
	go client.readPump(func() {
		if g.sessions == nil || g.hub.Online(userID) {
			return
		}
		if err := g.sessions.ClearUserGateway(context.Background(), userID, g.hub.nodeID); err != nil {
			logger.L().Warn().Err(err).Uint("user_id", userID).Msg("Failed to clear push session")
		}
	})
}
