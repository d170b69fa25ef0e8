package handler

import (
	"encoding/json"
	"net/http"

	"github.com/redis/go-redis/v9"

	"folder-explorer/internal/database"
	"folder-explorer/internal/model"
)

type HealthHandler struct {
	db    *database.DB
	redis *redis.Client
}

func NewHealthHandler(db *database.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready pings the database and Redis. The broker is intentionally excluded:
// the API can serve reads and accept writes degraded while it is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok", "redis": "ok"}
	healthy := true

	if err := h.db.Health(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(r.Context()).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{Success: healthy, Data: checks})
}
