package interfaces

import (
	"net/http"
	"strconv"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/application"
	"gamestore/internal/service/order/domain"
	"gamestore/internal/service/order/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "order-service"

// callerHandler 是需要认证的处理函数
type callerHandler func(w http.ResponseWriter, r *http.Request, caller domain.Caller)

// OrderHandler 封装了 order 服务的 HTTP 处理器
type OrderHandler struct {
	orders        *application.OrderApplicationService
	catalog       *application.CatalogService
	notifications *application.NotificationService
	idempotency   port.IdempotencyStore
	tracer        trace.Tracer
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例。idempotency 可以为 nil。
func NewOrderHandler(orders *application.OrderApplicationService, catalog *application.CatalogService, notifications *application.NotificationService, idempotency port.IdempotencyStore) *OrderHandler {
	return &OrderHandler{
		orders:        orders,
		catalog:       catalog,
		notifications: notifications,
		idempotency:   idempotency,
		tracer:        otel.Tracer(serviceName),
	}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/transactions", h.authed("PlaceOrder", h.withIdempotency(h.placeOrder)))
	mux.Handle("GET /api/transactions", h.authed("ListOrders", h.listOrders))
	mux.Handle("GET /api/transactions/{id}", h.authed("GetOrder", h.getOrder))
	mux.Handle("PUT /api/transactions/{id}", h.authed("UpdateOrder", h.updateOrder))
	mux.Handle("DELETE /api/transactions/{id}", h.authed("DeleteOrder", h.deleteOrder))
	mux.Handle("PUT /api/transactions/{id}/cancel", h.authed("CancelOrder", h.cancelOrder))
	mux.Handle("PUT /api/transactions/{id}/status", h.authed("UpdateOrderStatus", h.updateStatus))

	mux.Handle("GET /api/games", h.public("ListGames", h.listGames))
	mux.Handle("GET /api/games/categories", h.public("ListCategories", h.listCategories))
	mux.Handle("GET /api/games/platforms", h.public("ListPlatforms", h.listPlatforms))
	mux.Handle("GET /api/games/{id}", h.public("GetGame", h.getGame))
	mux.Handle("POST /api/games", h.authed("CreateGame", h.createGame))
	mux.Handle("PUT /api/games/{id}", h.authed("UpdateGame", h.updateGame))
	mux.Handle("DELETE /api/games/{id}", h.authed("DeleteGame", h.deleteGame))

	mux.Handle("GET /api/notifications", h.authed("ListNotifications", h.listNotifications))
	mux.Handle("PUT /api/notifications/read-all", h.authed("MarkAllNotificationsRead", h.markAllRead))
	mux.Handle("PUT /api/notifications/{id}/read", h.authed("MarkNotificationRead", h.markRead))
}

// public 恢复上游的链路上下文并开启服务端 span
func (h *OrderHandler) public(name string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		propagator := otel.GetTextMapPropagator()
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := h.tracer.Start(ctx, "http."+name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.Pattern),
		)

		fn(w, r.WithContext(ctx))
	})
}

// authed 在 public 的基础上要求调用方身份，缺失时返回 401
func (h *OrderHandler) authed(name string, fn callerHandler) http.Handler {
	return h.public(name, func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Message: "Unauthorized"})
			return
		}
		trace.SpanFromContext(r.Context()).SetAttributes(
			attribute.Int("user.id", int(caller.UserID)),
			attribute.String("user.role", caller.Role),
		)
		fn(w, r, caller)
	})
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &domain.ValidationError{Field: "id", Message: "id must be a positive integer"}
	}
	return uint(id), nil
}

func (h *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	var req application.PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	order, err := h.orders.PlaceOrder(ctx, caller, &req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Order created successfully",
		"transaction": order,
	})
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	all := r.URL.Query().Get("all") == "true"
	orders, err := h.orders.ListOrders(r.Context(), caller, all)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), caller, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) updateOrder(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req application.UpdateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	order, err := h.orders.UpdateOrder(ctx, caller, id, &req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Order updated successfully",
		"transaction": order,
	})
}

func (h *OrderHandler) deleteOrder(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.orders.DeleteOrder(ctx, caller, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	order, err := h.orders.CancelOrder(ctx, caller, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Order cancelled successfully",
		"transaction": order,
	})
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req application.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	order, err := h.orders.UpdateStatus(ctx, caller, id, req.Status)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	logger.Ctx(ctx).Info().Uint("order_id", id).Str("status", req.Status).Uint("admin_id", caller.UserID).Msg("Order status updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Order status updated successfully",
		"transaction": order,
	})
}
