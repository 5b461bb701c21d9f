package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"theneighbor/api/internal/models"
)

type MemberLister interface {
	List(ctx context.Context) ([]models.Member, error)
}

// ListingCache is versioned: Set only stores a snapshot when no Invalidate
// happened since Version was read.
type ListingCache interface {
	Get(ctx context.Context) ([]models.Member, bool, error)
	Version(ctx context.Context) (int64, error)
	Set(ctx context.Context, version int64, members []models.Member) (bool, error)
	Invalidate(ctx context.Context) error
}

// ListingService reads the community wall. The cache is optional; when it
// misbehaves the database is read directly.
type ListingService struct {
	members MemberLister
	cache   ListingCache
	log     zerolog.Logger
}

func NewListingService(members MemberLister, cache ListingCache, log zerolog.Logger) *ListingService {
	return &ListingService{
		members: members,
		cache:   cache,
		log:     log,
	}
}

// List returns every member, newest first. An empty store yields an empty,
// non-nil slice.
func (s *ListingService) List(ctx context.Context) ([]models.Member, error) {
	if s.cache == nil {
		return s.load(ctx)
	}

	cached, hit, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Msg("listing cache read failed")
	case hit:
		return newestFirst(cached), nil
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("listing cache version read failed")
		return s.load(ctx)
	}

	members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.fill(ctx, version, members); err != nil {
		s.log.Warn().Err(err).Msg("listing cache write failed")
	}
	return members, nil
}

// Warm reloads the cache from the database.
func (s *ListingService) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	version, err := s.cache.Version(ctx)
	if err != nil {
		return err
	}
	members, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.fill(ctx, version, members)
}

func (s *ListingService) fill(ctx context.Context, version int64, members []models.Member) error {
	stored, err := s.cache.Set(ctx, version, members)
	if err != nil {
		return err
	}
	if !stored {
		s.log.Debug().Int64("version", version).Msg("listing changed during load, snapshot not cached")
	}
	return nil
}

func (s *ListingService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func (s *ListingService) load(ctx context.Context) ([]models.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("member listing query failed")
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return newestFirst(members), nil
}

func newestFirst(members []models.Member) []models.Member {
	if members == nil {
		return []models.Member{}
	}
	slices.SortStableFunc(members, func(a, b models.Member) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return members
}
