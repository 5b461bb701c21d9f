package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"theneighbor/api/internal/imagegen"
	"theneighbor/api/internal/models"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req imagegen.Request) ([]byte, error) {
	args := m.Called(ctx, req)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBlobWriter struct {
	mock.Mock
}

func (m *MockBlobWriter) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, objectPath, data, contentType)
	return args.String(0), args.Error(1)
}

type MockMemberStore struct {
	mock.Mock
}

// Create echoes the member back with CreatedAt set unless a member was
// given to Return.
func (m *MockMemberStore) Create(ctx context.Context, member models.Member) (models.Member, error) {
	args := m.Called(ctx, member)
	if err := args.Error(1); err != nil {
		return models.Member{}, err
	}
	if v, ok := args.Get(0).(models.Member); ok {
		return v, nil
	}
	member.CreatedAt = time.Now().UTC()
	return member, nil
}

func (m *MockMemberStore) List(ctx context.Context) ([]models.Member, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Get(ctx context.Context) ([]models.Member, bool, error) {
	args := m.Called(ctx)
	var members []models.Member
	if v := args.Get(0); v != nil {
		members = v.([]models.Member)
	}
	return members, args.Bool(1), args.Error(2)
}

func (m *MockListingCache) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingCache) Set(ctx context.Context, version int64, members []models.Member) (bool, error) {
	args := m.Called(ctx, version, members)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
