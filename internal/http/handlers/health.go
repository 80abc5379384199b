package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger func(ctx context.Context) error

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz verifies the backing stores answer before reporting ready. A
// dead dependency flips the pod out of the load balancer instead of
// serving 500s.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "db"})
			return
		}
	}

	if h.redis != nil {
		if err := h.redis(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "redis"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
