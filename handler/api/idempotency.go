package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "drm-wallet:idempotency:"
	inProgressMarker     = "__in_progress__"
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// idempotency replays the stored response of a request carrying an
// Idempotency-Key already seen within the ttl. Requests without the header
// pass through.
func (s *Server) idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyKeyHeader)
		if key == "" || s.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := idempotencyPrefix + r.Method + ":" + r.URL.Path + ":" + key
		logger := s.logger.With("idempotency_key", key)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		cached, err := s.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			s.replay(w, cached)
			return
		case !errors.Is(err, redis.Nil):
			logger.Error("cache.Get", "err", err)
			renderError(w, &core.ErrorInfo{Code: "internal", Message: "idempotency store failure"})
			return
		}

		ok, err := s.cache.SetNX(ctx, cacheKey, inProgressMarker, s.ttl).Result()
		if err != nil {
			logger.Error("cache.SetNX", "err", err)
			renderError(w, &core.ErrorInfo{Code: "internal", Message: "idempotency store failure"})
			return
		}

		if !ok {
			renderError(w, &core.ErrorInfo{Code: "duplicate_request", Message: "duplicate request currently processing"})
			return
		}

		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		persistCtx, persistCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer persistCancel()

		// server errors are not remembered so the client can retry
		if rec.status >= http.StatusInternalServerError && rec.status != http.StatusBadGateway {
			s.cache.Del(persistCtx, cacheKey)
			return
		}

		stored := storedResponse{
			Status:  rec.status,
			Body:    rec.body.String(),
			Headers: map[string]string{"Content-Type": w.Header().Get("Content-Type")},
		}

		payload, _ := json.Marshal(stored)
		if err := s.cache.Set(persistCtx, cacheKey, payload, s.ttl).Err(); err != nil {
			logger.Error("cache.Set", "err", err)
			s.cache.Del(persistCtx, cacheKey)
		}
	})
}

func (s *Server) replay(w http.ResponseWriter, cached string) {
	if cached == inProgressMarker {
		renderError(w, &core.ErrorInfo{Code: "duplicate_request", Message: "duplicate request currently processing"})
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		s.logger.Warn("decode stored response", "err", err)
		renderError(w, &core.ErrorInfo{Code: "duplicate_request", Message: "duplicate request"})
		return
	}

	for k, v := range stored.Headers {
		w.Header().Set(k, v)
	}

	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write([]byte(stored.Body))
}
