package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"theneighbor/api/internal/config"
	"theneighbor/api/internal/metrics"
	"theneighbor/api/internal/models"
	"theneighbor/api/internal/service"
)

type Submitter interface {
	Submit(ctx context.Context, input service.SubmissionInput) (service.SubmissionResult, error)
}

type Lister interface {
	List(ctx context.Context) ([]models.Member, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the backing services reported by /health. A nil entry
// is reported as "disabled".
type Dependencies struct {
	Database Pinger
	Storage  Pinger
	Cache    Pinger
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	submissions Submitter
	listing     Lister
	deps        Dependencies
	metrics     *metrics.Metrics
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	submissions Submitter,
	listing Lister,
	deps Dependencies,
	metrics *metrics.Metrics,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		submissions: submissions,
		listing:     listing,
		deps:        deps,
		metrics:     metrics,
	}
}

func (h HandlerSet) Register(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/community", h.ListCommunity)
	router.POST("/submitMember", h.SubmitMember)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}
