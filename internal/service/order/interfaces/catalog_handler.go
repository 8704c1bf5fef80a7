package interfaces

import (
	"net/http"

	"gamestore/internal/service/order/application"
	"gamestore/internal/service/order/domain"
)

func (h *OrderHandler) listGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.GameFilter{
		Category: q.Get("category"),
		Platform: q.Get("platform"),
		Search:   q.Get("search"),
	}
	if v := q.Get("featured"); v != "" {
		featured := v == "true"
		filter.Featured = &featured
	}

	games, err := h.catalog.ListGames(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *OrderHandler) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	game, err := h.catalog.GetGame(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *OrderHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *OrderHandler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.catalog.Platforms(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

func (h *OrderHandler) createGame(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	var req application.GameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	game, err := h.catalog.CreateGame(ctx, caller, &req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *OrderHandler) updateGame(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req application.GameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	game, err := h.catalog.UpdateGame(ctx, caller, id, &req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *OrderHandler) deleteGame(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.catalog.DeleteGame(ctx, caller, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Game deleted successfully"})
}
