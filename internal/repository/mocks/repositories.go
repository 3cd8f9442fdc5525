// Package mocks provides testify mock implementations of the repository
// interfaces for service-level tests.
package mocks

import (
	"context"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"

	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock of repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, session *domain.LiveSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepository) FindByID(ctx context.Context, id uint) (*domain.LiveSession, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*domain.LiveSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) FindByCode(ctx context.Context, code string) (*domain.LiveSession, error) {
	args := m.Called(ctx, code)
	if s := args.Get(0); s != nil {
		return s.(*domain.LiveSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) FindActiveByCode(ctx context.Context, code string) (*domain.LiveSession, error) {
	args := m.Called(ctx, code)
	if s := args.Get(0); s != nil {
		return s.(*domain.LiveSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) CodeInUse(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepository) IncrementParticipants(ctx context.Context, id uint, at time.Time) (int, error) {
	args := m.Called(ctx, id, at)
	return args.Int(0), args.Error(1)
}

func (m *SessionRepository) MarkEnded(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *SessionRepository) UpdateBroadcast(ctx context.Context, id uint, code, language, output string, at time.Time) error {
	args := m.Called(ctx, id, code, language, output, at)
	return args.Error(0)
}

func (m *SessionRepository) UpdateScratchpads(ctx context.Context, id uint, scratchpads string, at time.Time) error {
	args := m.Called(ctx, id, scratchpads, at)
	return args.Error(0)
}

func (m *SessionRepository) FindAllActive(ctx context.Context) ([]domain.LiveSession, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]domain.LiveSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) FindActiveIdleSince(ctx context.Context, cutoff time.Time) ([]domain.LiveSession, error) {
	args := m.Called(ctx, cutoff)
	if s := args.Get(0); s != nil {
		return s.([]domain.LiveSession), args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock of repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// WorkspaceFileRepository is a mock of repository.WorkspaceFileRepository.
type WorkspaceFileRepository struct {
	mock.Mock
}

func (m *WorkspaceFileRepository) FindByID(ctx context.Context, id uint) (*domain.WorkspaceFile, error) {
	args := m.Called(ctx, id)
	if f := args.Get(0); f != nil {
		return f.(*domain.WorkspaceFile), args.Error(1)
	}
	return nil, args.Error(1)
}

// LiveViewCache is a mock of repository.LiveViewCache.
type LiveViewCache struct {
	mock.Mock
}

func (m *LiveViewCache) GetLiveView(ctx context.Context, code string) ([]byte, error) {
	args := m.Called(ctx, code)
	if p := args.Get(0); p != nil {
		return p.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LiveViewCache) SetLiveView(ctx context.Context, code string, payload []byte, ttl time.Duration) error {
	args := m.Called(ctx, code, payload, ttl)
	return args.Error(0)
}

func (m *LiveViewCache) InvalidateLiveView(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
