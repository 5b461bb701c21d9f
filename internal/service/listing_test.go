package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	listingcache "theneighbor/api/internal/cache"
	"theneighbor/api/internal/models"
)

func shuffledMembers() []models.Member {
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	return []models.Member{
		{ID: "b", Name: "B", CreatedAt: base.Add(time.Minute)},
		{ID: "d", Name: "D", CreatedAt: base.Add(-time.Hour)},
		{ID: "a", Name: "A", CreatedAt: base.Add(time.Hour)},
		{ID: "c", Name: "C", CreatedAt: base.Add(time.Minute)},
	}
}

func assertNewestFirst(t *testing.T, members []models.Member) {
	t.Helper()
	for i := 1; i < len(members); i++ {
		assert.False(t, members[i].CreatedAt.After(members[i-1].CreatedAt),
			"member %d (%s) is newer than member %d (%s)", i, members[i].ID, i-1, members[i-1].ID)
	}
}

func TestList_EmptyStoreReturnsEmptySlice(t *testing.T) {
	store := new(MockMemberStore)
	store.On("List", mock.Anything).Return(nil, nil)

	got, err := NewListingService(store, nil, zerolog.Nop()).List(context.Background())

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestList_OrdersNewestFirst(t *testing.T) {
	store := new(MockMemberStore)
	store.On("List", mock.Anything).Return(shuffledMembers(), nil)

	got, err := NewListingService(store, nil, zerolog.Nop()).List(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 4)
	assertNewestFirst(t, got)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, []string{"b", "c"}, []string{got[1].ID, got[2].ID}, "ties keep store order")
	assert.Equal(t, "d", got[3].ID)
}

func TestList_QueryFailure(t *testing.T) {
	store := new(MockMemberStore)
	store.On("List", mock.Anything).Return(nil, errors.New("relation \"community_members\" does not exist"))

	got, err := NewListingService(store, nil, zerolog.Nop()).List(context.Background())

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrQuery)
}

func TestList_CacheHitSkipsDatabase(t *testing.T) {
	store := new(MockMemberStore)
	cache := new(MockListingCache)
	cache.On("Get", mock.Anything).Return(shuffledMembers(), true, nil)

	got, err := NewListingService(store, cache, zerolog.Nop()).List(context.Background())

	require.NoError(t, err)
	assertNewestFirst(t, got)
	store.AssertNotCalled(t, "List", mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_CacheMissFillsCache(t *testing.T) {
	store := new(MockMemberStore)
	cache := new(MockListingCache)
	store.On("List", mock.Anything).Return(shuffledMembers(), nil)
	cache.On("Get", mock.Anything).Return(nil, false, nil)
	cache.On("Version", mock.Anything).Return(int64(7), nil)
	cache.On("Set", mock.Anything, int64(7), mock.MatchedBy(func(m []models.Member) bool {
		return len(m) == 4 && m[0].ID == "a"
	})).Return(true, nil)

	got, err := NewListingService(store, cache, zerolog.Nop()).List(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 4)
	store.AssertNumberOfCalls(t, "List", 1)
	cache.AssertExpectations(t)
}

func TestList_CacheErrorsFallBackToDatabase(t *testing.T) {
	store := new(MockMemberStore)
	cache := new(MockListingCache)
	store.On("List", mock.Anything).Return(shuffledMembers(), nil)
	cache.On("Get", mock.Anything).Return(nil, false, errors.New("redis: connection refused"))
	cache.On("Version", mock.Anything).Return(int64(0), nil)
	cache.On("Set", mock.Anything, int64(0), mock.Anything).Return(false, errors.New("redis: connection refused"))

	got, err := NewListingService(store, cache, zerolog.Nop()).List(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 4)
	assertNewestFirst(t, got)
}

func TestWarm(t *testing.T) {
	t.Run("without cache", func(t *testing.T) {
		store := new(MockMemberStore)
		assert.NoError(t, NewListingService(store, nil, zerolog.Nop()).Warm(context.Background()))
		store.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("loads and stores", func(t *testing.T) {
		store := new(MockMemberStore)
		cache := new(MockListingCache)
		store.On("List", mock.Anything).Return(shuffledMembers(), nil)
		cache.On("Version", mock.Anything).Return(int64(3), nil)
		cache.On("Set", mock.Anything, int64(3), mock.Anything).Return(true, nil)

		require.NoError(t, NewListingService(store, cache, zerolog.Nop()).Warm(context.Background()))
		cache.AssertNumberOfCalls(t, "Set", 1)
	})

	t.Run("query failure", func(t *testing.T) {
		store := new(MockMemberStore)
		cache := new(MockListingCache)
		store.On("List", mock.Anything).Return(nil, errors.New("timeout"))
		cache.On("Version", mock.Anything).Return(int64(0), nil)

		err := NewListingService(store, cache, zerolog.Nop()).Warm(context.Background())
		assert.ErrorIs(t, err, ErrQuery)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestList_CacheVersionFailureSkipsFill(t *testing.T) {
	store := new(MockMemberStore)
	cache := new(MockListingCache)
	store.On("List", mock.Anything).Return(shuffledMembers(), nil)
	cache.On("Get", mock.Anything).Return(nil, false, nil)
	cache.On("Version", mock.Anything).Return(int64(0), errors.New("redis: i/o timeout"))

	got, err := NewListingService(store, cache, zerolog.Nop()).List(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 4)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

// memberTable is a tiny in-memory store whose List can run a hook between
// reading its snapshot and returning it.
type memberTable struct {
	members []models.Member
	during  func()
}

func (m *memberTable) List(ctx context.Context) ([]models.Member, error) {
	snapshot := append([]models.Member(nil), m.members...)
	if hook := m.during; hook != nil {
		m.during = nil
		hook()
	}
	return snapshot, nil
}

func TestListingCache_FillRacingASubmissionIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	table := &memberTable{}
	svc := NewListingService(table, listingcache.NewListingCache(client, time.Minute), zerolog.Nop())
	ctx := context.Background()

	table.during = func() {
		table.members = append(table.members, models.Member{ID: "ada", Name: "Ada Lovelace", CreatedAt: time.Now()})
		require.NoError(t, svc.Invalidate(ctx))
	}
	require.NoError(t, svc.Warm(ctx))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ada", got[0].ID)

	table.during = func() {
		table.members = append(table.members, models.Member{ID: "grace", Name: "Grace Hopper", CreatedAt: time.Now().Add(time.Second)})
		require.NoError(t, svc.Invalidate(ctx))
	}
	require.NoError(t, svc.Warm(ctx))

	got, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "grace", got[0].ID)
}
