// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
)

type Handler struct {
	listingStats     func(ctx context.Context) (map[listing.Status]int, error)
	transactionStats func(ctx context.Context) (map[transaction.Status]int, error)
	dbStats          func() sql.DBStats
	redisStats       func() *redis.PoolStats
}

type HandlerConfig struct {
	ListingStats     func(ctx context.Context) (map[listing.Status]int, error)
	TransactionStats func(ctx context.Context) (map[transaction.Status]int, error)
	DBStats          func() sql.DBStats
	RedisStats       func() *redis.PoolStats
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		listingStats:     cfg.ListingStats,
		transactionStats: cfg.TransactionStats,
		dbStats:          cfg.DBStats,
		redisStats:       cfg.RedisStats,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetMarketStats)
		r.Get("/stats/pools", h.GetPoolStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

// GetMarketStats reports listing and transaction counts per status.
func (h *Handler) GetMarketStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := MarketStatsResponse{
		Listings:     map[string]int{},
		Transactions: map[string]int{},
	}

	if h.listingStats != nil {
		counts, err := h.listingStats(ctx)
		if err != nil {
			core.JSONError(w, err)
			return
		}
		for status, n := range counts {
			response.Listings[string(status)] = n
		}
	}

	if h.transactionStats != nil {
		counts, err := h.transactionStats(ctx)
		if err != nil {
			core.JSONError(w, err)
			return
		}
		for status, n := range counts {
			response.Transactions[string(status)] = n
			if status.IsActive() {
				response.ActiveTransactions += n
			}
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetPoolStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, PoolStatsResponse{
		Database: h.getDBStats(),
		Redis:    h.getRedisStats(),
	})
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	core.OK(w, RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	})
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type MarketStatsResponse struct {
	Listings           map[string]int `json:"listings"`
	Transactions       map[string]int `json:"transactions"`
	ActiveTransactions int            `json:"active_transactions"`
}

type PoolStatsResponse struct {
	Database *DBPoolStats    `json:"database,omitempty"`
	Redis    *RedisPoolStats `json:"redis,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
