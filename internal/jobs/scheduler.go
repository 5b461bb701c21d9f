package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type CacheWarmer interface {
	Warm(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	warmer CacheWarmer
	spec   string
	log    zerolog.Logger
}

func NewScheduler(warmer CacheWarmer, spec string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		warmer: warmer,
		spec:   spec,
		log:    log,
	}
}

// Start registers the listing warm-up. An empty spec disables it.
func (s *Scheduler) Start() error {
	if s.warmer == nil || s.spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.warmListing); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) warmListing() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.warmer.Warm(ctx); err != nil {
		s.log.Error().Err(err).Msg("listing cache warm-up failed")
		return
	}
	s.log.Debug().Dur("elapsed", time.Since(start)).Msg("listing cache warmed")
}
