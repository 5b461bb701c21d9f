package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	OK          bool   `json:"ok"`
	Database    string `json:"database"`
	Storage     string `json:"storage"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

// Health always answers 200 while the process is up; dependency state is
// informational.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, healthResponse{
		OK:          true,
		Database:    h.check(ctx, "database", h.deps.Database),
		Storage:     h.check(ctx, "storage", h.deps.Storage),
		Cache:       h.check(ctx, "cache", h.deps.Cache),
		Environment: h.cfg.Environment,
	})
}

func (h HandlerSet) check(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health check failed")
		return "error"
	}
	return "ok"
}
