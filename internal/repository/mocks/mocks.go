// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/CodeWizard-AB/realtime-chat/internal/domain"
)

// RoomRepository mocks repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) SaveRoom(ctx context.Context, token string, room *domain.Room, ttl time.Duration) error {
	args := m.Called(ctx, token, room, ttl)
	return args.Error(0)
}

func (m *RoomRepository) FindRoom(ctx context.Context, token string) (*domain.Room, error) {
	args := m.Called(ctx, token)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) RoomTTL(ctx context.Context, token string) (time.Duration, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *RoomRepository) AddMember(ctx context.Context, token, memberID string) error {
	args := m.Called(ctx, token, memberID)
	return args.Error(0)
}

func (m *RoomRepository) SyncMembersTTL(ctx context.Context, token string, ttl time.Duration) error {
	args := m.Called(ctx, token, ttl)
	return args.Error(0)
}

func (m *RoomRepository) MembersTTL(ctx context.Context, token string) (time.Duration, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *RoomRepository) DeleteMembers(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RoomRepository) MemberSetTokens(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var tokens []string
	if args.Get(0) != nil {
		tokens = args.Get(0).([]string)
	}
	return tokens, args.Error(1)
}

func (m *RoomRepository) SetUserRoom(ctx context.Context, username, token string, ttl time.Duration) error {
	args := m.Called(ctx, username, token, ttl)
	return args.Error(0)
}

func (m *RoomRepository) FindUserRoom(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

// LockRepository mocks repository.LockRepository.
type LockRepository struct {
	mock.Mock
}

func (m *LockRepository) AcquireUsernameLock(ctx context.Context, username string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, username, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *LockRepository) ReleaseUsernameLock(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// QuotaRepository mocks repository.QuotaRepository.
type QuotaRepository struct {
	mock.Mock
}

func (m *QuotaRepository) BumpCreateCount(ctx context.Context, address string, window time.Duration) (int64, error) {
	args := m.Called(ctx, address, window)
	return args.Get(0).(int64), args.Error(1)
}
