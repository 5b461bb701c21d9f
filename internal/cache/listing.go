package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"theneighbor/api/internal/models"
)

const (
	listingKey = "community:members:v1"
	versionKey = "community:members:version"
)

type cachedMember struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	FirstName        *string   `json:"firstname"`
	LastName         *string   `json:"lastname"`
	Email            string    `json:"email"`
	Location         *string   `json:"location"`
	Activity         *string   `json:"activity"`
	ImageURL         *string   `json:"image_url"`
	OriginalImageURL *string   `json:"original_image_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListingCache holds the full member listing under a single key.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

func (c *ListingCache) Get(ctx context.Context) ([]models.Member, bool, error) {
	raw, err := c.client.Get(ctx, listingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get listing: %w", err)
	}

	var entries []cachedMember
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decode listing: %w", err)
	}

	members := make([]models.Member, 0, len(entries))
	for _, e := range entries {
		members = append(members, models.Member{
			ID:               e.ID,
			Name:             e.Name,
			FirstName:        e.FirstName,
			LastName:         e.LastName,
			Email:            e.Email,
			Location:         e.Location,
			Activity:         e.Activity,
			ImageURL:         e.ImageURL,
			OriginalImageURL: e.OriginalImageURL,
			CreatedAt:        e.CreatedAt,
		})
	}
	return members, true, nil
}

// Version returns the listing generation. Read it before loading members
// from the database and hand it back to Set.
func (c *ListingCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get listing version: %w", err)
	}
	return v, nil
}

// Set stores members only while the generation still equals version. It
// reports false when an Invalidate landed after the snapshot was read.
func (c *ListingCache) Set(ctx context.Context, version int64, members []models.Member) (bool, error) {
	entries := make([]cachedMember, 0, len(members))
	for _, m := range members {
		entries = append(entries, cachedMember{
			ID:               m.ID,
			Name:             m.Name,
			FirstName:        m.FirstName,
			LastName:         m.LastName,
			Email:            m.Email,
			Location:         m.Location,
			Activity:         m.Activity,
			ImageURL:         m.ImageURL,
			OriginalImageURL: m.OriginalImageURL,
			CreatedAt:        m.CreatedAt,
		})
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("encode listing: %w", err)
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listingKey, raw, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set listing: %w", err)
	}
	return stored, nil
}

// Invalidate bumps the generation and drops the cached listing in one
// transaction, so a fill that started earlier can no longer be stored.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, listingKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate listing: %w", err)
	}
	return nil
}

func (c *ListingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
