package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/segyhp/loan-engine/pkg/response"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and the reachability of the loan store and the lock backend.
type HealthHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	timeout time.Duration
}

func NewHealthHandler(db *sqlx.DB, client *redis.Client, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   client,
		timeout: timeout,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string),
	}

	response.Success(w, status)
}

// Ready pings every dependency and answers 503 when any of them fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string),
	}

	for _, check := range h.checks() {
		if err := check.ping(ctx); err != nil {
			status.Status = "error"
			status.Checks[check.name] = "failed: " + err.Error()
			continue
		}
		status.Checks[check.name] = "ok"
	}

	if status.Status == "error" {
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}

	response.Success(w, status)
}

type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

func (h *HealthHandler) checks() []dependencyCheck {
	return []dependencyCheck{
		{name: "database", ping: h.db.PingContext},
		{name: "redis", ping: func(ctx context.Context) error { return h.redis.Ping(ctx).Err() }},
	}
}
