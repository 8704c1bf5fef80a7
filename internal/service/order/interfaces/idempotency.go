package interfaces

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"
	"gamestore/internal/service/order/port"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotentBody    = 1 << 20
)

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// responseRecorder 在写给客户端的同时保留一份响应
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// withIdempotency 让带 Idempotency-Key 的请求只执行一次，重复请求直接返回第一次的响应。
// 同一个键配上不同的请求体返回 422。服务端错误 (5xx) 不会被缓存，客户端可以用同一个键重试。
func (h *OrderHandler) withIdempotency(next callerHandler) callerHandler {
	return func(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
		key := r.Header.Get(headerIdempotencyKey)
		if h.idempotency == nil || key == "" {
			next(w, r, caller)
			return
		}
		ctx := r.Context()
		scope := strconv.FormatUint(uint64(caller.UserID), 10)

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody))
		if err != nil {
			writeError(ctx, w, &domain.ValidationError{Message: "failed to read request body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))

		cached, claimed, err := h.idempotency.Claim(ctx, scope, key, fingerprint(r, raw))
		switch {
		case errors.Is(err, port.ErrRequestInFlight):
			writeJSON(w, http.StatusConflict, errorBody{Message: err.Error()})
			return
		case errors.Is(err, port.ErrKeyReused):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: err.Error()})
			return
		case err != nil:
			// Redis 不可用时退化为普通请求
			logger.Ctx(ctx).Warn().Err(err).Msg("Idempotency store unavailable, processing without key")
			next(w, r, caller)
			return
		case !claimed:
			var resp cachedResponse
			if err := json.Unmarshal(cached, &resp); err != nil {
				writeError(ctx, w, err)
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.Status)
			_, _ = w.Write(resp.Body)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, caller)

		if rec.status >= http.StatusInternalServerError {
			if err := h.idempotency.Release(ctx, scope, key); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("Failed to release idempotency key")
			}
			return
		}
		body := bytes.TrimSpace(rec.body.Bytes())
		if len(body) == 0 {
			body = nil
		}
		payload, err := json.Marshal(cachedResponse{Status: rec.status, Body: body})
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Response is not JSON, idempotency key released")
			_ = h.idempotency.Release(ctx, scope, key)
			return
		}
		if err := h.idempotency.Store(ctx, scope, key, payload); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to store idempotent response")
		}
	}
}

// fingerprint 标识一个请求：方法、路径和原始请求体
func fingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + " " + r.URL.Path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
