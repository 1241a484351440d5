package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codetesla51/gatez/gate"
	"github.com/codetesla51/gatez/middleware"
	"github.com/codetesla51/gatez/store"
)

type api struct {
	limiter *gate.KeyedLimiter
	store   store.Store
	logger  *zap.Logger
}

// newRouter wires the API. guard rate-limits callers of the API itself,
// keyed by client IP; the gates it serves are keyed by the caller-chosen
// key in the URL.
func newRouter(a *api, guard *gate.KeyedLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(middleware.RateLimit(guard,
		middleware.WithLogger(a.logger),
		middleware.WithExcludedPaths("/healthz"),
	))

	r.Post("/v1/gates/{key}/check", a.handleCheck)
	r.Get("/v1/gates/{key}", a.handleStatus)
	r.Delete("/v1/gates/{key}", a.handleReset)
	r.Get("/healthz", a.handleHealth)

	return r
}

type resultPayload struct {
	Allowed           bool `json:"allowed"`
	Limit             int  `json:"limit"`
	Remaining         int  `json:"remaining"`
	RetryAfterSeconds int  `json:"retry_after_seconds"`
}

func payload(res gate.Result) resultPayload {
	return resultPayload{
		Allowed:           res.Allowed,
		Limit:             res.Limit,
		Remaining:         res.Remaining,
		RetryAfterSeconds: res.RetryAfterSeconds(),
	}
}

// handleCheck runs one attempt through the gate. A denied attempt is still
// a successful API call: the verdict travels in the body, not the status.
func (a *api) handleCheck(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	res, err := a.limiter.Allow(r.Context(), key)
	if err != nil {
		a.serverError(w, r, "gate check failed", err)
		return
	}
	a.writeJSON(w, http.StatusOK, payload(res))
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	res, err := a.limiter.Status(r.Context(), key)
	if err != nil {
		a.serverError(w, r, "gate status failed", err)
		return
	}
	a.writeJSON(w, http.StatusOK, payload(res))
}

func (a *api) handleReset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	ok, err := a.store.Exists(r.Context(), key)
	if err != nil {
		a.serverError(w, r, "gate reset failed", err)
		return
	}
	if !ok {
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown gate key"})
		return
	}

	if err := a.limiter.Reset(r.Context(), key); err != nil {
		a.serverError(w, r, "gate reset failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *api) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *api) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.Error(msg,
		zap.String("request_id", reqID(r.Context())),
		zap.Error(err))
	a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// requestID honors an incoming X-Request-ID and generates one otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func reqID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
