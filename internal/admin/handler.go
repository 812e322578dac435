// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

const probeTimeout = 3 * time.Second

// UserCounter reports how many accounts hold each role.
type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

// HandlerConfig leaves the Redis hooks nil when Redis is not configured.
type HandlerConfig struct {
	DBStats    func() sql.DBStats
	DBPing     func(ctx context.Context) error
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	Users      UserCounter
}

type Handler struct {
	cfg     HandlerConfig
	started time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg, started: time.Now()}
}

// RegisterRoutes mounts /admin. The session gate classifies the whole
// subtree as admin-only before these handlers run.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/", h.Landing)
		r.Get("/stats", h.Stats)
		r.Get("/stats/redis", h.RedisStats)
	})
}

func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := LandingResponse{Stats: h.collect(ctx)}

	if id := middleware.GetIdentity(ctx); id != nil {
		resp.Admin = &Operator{ID: id.ID, Name: id.Name, Email: id.Email}
	}

	if h.cfg.Users != nil {
		counts, err := h.cfg.Users.CountByRole(ctx)
		if err != nil {
			slog.Warn("admin landing: count users", "error", err)
		} else {
			resp.UsersByRole = counts
		}
	}

	core.OK(w, resp)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.collect(r.Context()))
}

func (h *Handler) RedisStats(w http.ResponseWriter, r *http.Request) {
	if h.cfg.RedisStats == nil {
		core.ErrorMessage(w, http.StatusNotFound, "redis is not configured")
		return
	}
	core.OK(w, h.redisPool(r.Context()))
}

func (h *Handler) collect(ctx context.Context) Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		Uptime:     time.Since(h.started).Truncate(time.Second).String(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  mem.HeapAlloc,
		Database:   Pool{Healthy: probe(ctx, h.cfg.DBPing)},
	}

	if h.cfg.DBStats != nil {
		s := h.cfg.DBStats()
		stats.Database.Open = s.OpenConnections
		stats.Database.InUse = s.InUse
		stats.Database.Idle = s.Idle
		stats.Database.Waits = s.WaitCount
	}

	if h.cfg.RedisStats != nil {
		pool := h.redisPool(ctx)
		stats.Redis = &pool
	}

	return stats
}

func (h *Handler) redisPool(ctx context.Context) Pool {
	pool := Pool{Healthy: probe(ctx, h.cfg.RedisPing)}
	if s := h.cfg.RedisStats(); s != nil {
		pool.Open = int(s.TotalConns)
		pool.Idle = int(s.IdleConns)
		pool.InUse = int(s.TotalConns) - int(s.IdleConns)
		pool.Waits = int64(s.Timeouts)
	}
	return pool
}

// probe treats a missing ping hook as healthy.
func probe(ctx context.Context, ping func(context.Context) error) bool {
	if ping == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	return ping(ctx) == nil
}

type LandingResponse struct {
	Admin       *Operator      `json:"admin,omitempty"`
	UsersByRole map[string]int `json:"usersByRole,omitempty"`
	Stats       Stats          `json:"stats"`
}

type Operator struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Stats struct {
	Uptime     string `json:"uptime"`
	GoVersion  string `json:"goVersion"`
	Goroutines int    `json:"goroutines"`
	HeapBytes  uint64 `json:"heapBytes"`
	Database   Pool   `json:"database"`
	Redis      *Pool  `json:"redis,omitempty"`
}

// Pool condenses database/sql and go-redis pool counters into one shape.
// Waits is wait count for the database and pool timeouts for Redis.
type Pool struct {
	Healthy bool  `json:"healthy"`
	Open    int   `json:"open"`
	InUse   int   `json:"inUse"`
	Idle    int   `json:"idle"`
	Waits   int64 `json:"waits"`
}
