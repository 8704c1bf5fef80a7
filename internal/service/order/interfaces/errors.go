package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"
)

type errorBody struct {
	Message                string                 `json:"message"`
	Field                  string                 `json:"field,omitempty"`
	InsufficientStockGames []domain.StockShortage `json:"insufficientStockGames,omitempty"`
}

// statusFor 把领域错误映射为 HTTP 状态码和响应体
func statusFor(err error) (int, errorBody) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		mismatch     *domain.FormatMismatchError
		insufficient *domain.InsufficientStockError
		conflict     *domain.StateConflictError
		forbidden    *domain.AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorBody{Message: validation.Message, Field: validation.Field}
	case errors.As(err, &notFound):
		return http.StatusNotFound, errorBody{Message: notFound.Error()}
	case errors.As(err, &mismatch):
		return http.StatusBadRequest, errorBody{Message: mismatch.Error()}
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, errorBody{
			Message:                "Some games have insufficient stock",
			InsufficientStockGames: insufficient.Shortages,
		}
	case errors.As(err, &conflict):
		return http.StatusBadRequest, errorBody{Message: conflict.Error()}
	case errors.As(err, &forbidden):
		return http.StatusForbidden, errorBody{Message: forbidden.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorBody{Message: "Request timed out"}
	}
	return http.StatusInternalServerError, errorBody{Message: "Server error"}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}
