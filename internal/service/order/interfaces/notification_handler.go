package interfaces

import (
	"net/http"

	"gamestore/internal/service/order/domain"
)

func (h *OrderHandler) listNotifications(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	list, err := h.notifications.List(r.Context(), caller)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrderHandler) markRead(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), caller, id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (h *OrderHandler) markAllRead(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	n, err := h.notifications.MarkAllRead(r.Context(), caller)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "All notifications marked as read",
		"updated": n,
	})
}
