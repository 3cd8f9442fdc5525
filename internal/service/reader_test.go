package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository/memory"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository/mocks"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReaderFixture(t *testing.T) (*memory.SessionRepository, *memory.UserRepository, *service.ReaderService) {
	t.Helper()
	sessions := memory.NewSessionRepository()
	users := memory.NewUserRepository()
	return sessions, users, service.NewReaderService(sessions, users, nil, 0)
}

func TestReaderService_Live_UnknownVersusEnded(t *testing.T) {
	sessions, _, reader := newReaderFixture(t)
	ctx := context.Background()
	lifecycle := service.NewSessionService(sessions, nil)

	_, err := reader.Live(ctx, "ZZZ-ZZZ-ZZZ")
	assert.True(t, errors.Is(err, service.ErrSessionNotFound), "never-existed code is a 404")

	session, err := lifecycle.Create(ctx, "Was live", 1, "go")
	require.NoError(t, err)
	require.NoError(t, lifecycle.End(ctx, session.ID, 1, domain.RoleTrainer))

	view, err := reader.Live(ctx, session.JoinCode)
	require.NoError(t, err, "an ended session still resolves")
	assert.False(t, view.IsActive, "ended sessions report is_active=false instead of 404")
	assert.Equal(t, "Was live", view.Title)
}

func TestReaderService_Live_ReflectsBroadcastState(t *testing.T) {
	sessions, _, reader := newReaderFixture(t)
	ctx := context.Background()
	lifecycle := service.NewSessionService(sessions, nil)
	broadcast := service.NewBroadcastService(sessions, nil)

	session, err := lifecycle.Create(ctx, "Live", 1, "python")
	require.NoError(t, err)
	_, err = lifecycle.Join(ctx, session.JoinCode)
	require.NoError(t, err)

	snapshot := domain.ExecutionSnapshot(`{"stdout":"hi\n"}`)
	require.NoError(t, broadcast.Publish(ctx, session.ID, 1, "print('hi')", "python", snapshot))

	view, err := reader.Live(ctx, session.JoinCode)
	require.NoError(t, err)
	assert.True(t, view.IsActive)
	assert.Equal(t, "print('hi')", view.CurrentCode)
	assert.Equal(t, "python", view.CurrentLanguage)
	assert.JSONEq(t, string(snapshot), string(view.CurrentOutput))
	assert.Equal(t, 1, view.ParticipantCount)
}

func TestReaderService_Live_MalformedCode(t *testing.T) {
	_, _, reader := newReaderFixture(t)

	_, err := reader.Live(context.Background(), "oops")
	assert.True(t, errors.Is(err, service.ErrInvalidCodeFormat))
}

func TestReaderService_StudentsOf_StableFlattenedList(t *testing.T) {
	sessions, _, reader := newReaderFixture(t)
	ctx := context.Background()
	lifecycle := service.NewSessionService(sessions, nil)
	scratch := service.NewScratchpadService(sessions, nil)

	session, err := lifecycle.Create(ctx, "Monitor", 1, "python")
	require.NoError(t, err)

	require.NoError(t, scratch.Update(ctx, session.ID, 9, "Iris", service.ScratchpadUpdate{Code: "i=9", Language: "python"}))
	require.NoError(t, scratch.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{Code: "x=1", Language: "python"}))

	students, err := reader.StudentsOf(ctx, session.JoinCode)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, uint(2), students[0].UserID, "sorted by user id")
	assert.Equal(t, "Alice", students[0].Name)
	assert.Equal(t, "x=1", students[0].Code)
	assert.Equal(t, uint(9), students[1].UserID)
	assert.Equal(t, "i=9", students[1].Code)
}

func TestReaderService_StudentsOf_EmptySession(t *testing.T) {
	sessions, _, reader := newReaderFixture(t)
	ctx := context.Background()
	lifecycle := service.NewSessionService(sessions, nil)

	session, err := lifecycle.Create(ctx, "Quiet", 1, "python")
	require.NoError(t, err)

	students, err := reader.StudentsOf(ctx, session.JoinCode)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestReaderService_ListActive_MostRecentFirstWithTrainerNames(t *testing.T) {
	sessions, users, reader := newReaderFixture(t)
	ctx := context.Background()
	lifecycle := service.NewSessionService(sessions, nil)

	require.NoError(t, users.Save(ctx, &domain.User{Username: "pat", Name: "Pat Trainer", Role: domain.RoleTrainer}))

	older, err := lifecycle.Create(ctx, "Older", 1, "go")
	require.NoError(t, err)
	older.StartedAt = time.Now().Add(-time.Hour)
	require.NoError(t, sessions.Save(ctx, older))

	newer, err := lifecycle.Create(ctx, "Newer", 1, "go")
	require.NoError(t, err)

	ended, err := lifecycle.Create(ctx, "Gone", 1, "go")
	require.NoError(t, err)
	require.NoError(t, lifecycle.End(ctx, ended.ID, 1, domain.RoleTrainer))

	list, err := reader.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2, "ended sessions are not in the directory")
	assert.Equal(t, newer.JoinCode, list[0].JoinCode)
	assert.Equal(t, older.JoinCode, list[1].JoinCode)
	assert.Equal(t, "Pat Trainer", list[0].TrainerName)
}

func TestReaderService_Live_ServesFromCache(t *testing.T) {
	sessionRepo := new(mocks.SessionRepository)
	userRepo := new(mocks.UserRepository)
	cache := new(mocks.LiveViewCache)
	reader := service.NewReaderService(sessionRepo, userRepo, cache, time.Second)
	ctx := context.Background()

	cached, _ := json.Marshal(service.LiveView{Title: "Cached", IsActive: true, ParticipantCount: 3})
	cache.On("GetLiveView", ctx, "ABC-DEF-234").Return(cached, nil).Once()

	view, err := reader.Live(ctx, "abc-def-234")

	require.NoError(t, err)
	assert.Equal(t, "Cached", view.Title)
	assert.Equal(t, 3, view.ParticipantCount)
	cache.AssertExpectations(t)
	sessionRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
}

func TestReaderService_Live_CacheMissFallsThroughAndPopulates(t *testing.T) {
	sessionRepo := new(mocks.SessionRepository)
	userRepo := new(mocks.UserRepository)
	cache := new(mocks.LiveViewCache)
	reader := service.NewReaderService(sessionRepo, userRepo, cache, time.Second)
	ctx := context.Background()

	cache.On("GetLiveView", ctx, "ABC-DEF-234").Return(nil, repository.ErrCacheMiss).Once()
	sessionRepo.On("FindByCode", ctx, "ABC-DEF-234").Return(&domain.LiveSession{
		ID: 1, JoinCode: "ABC-DEF-234", Title: "Fresh", IsActive: true,
	}, nil).Once()
	cache.On("SetLiveView", ctx, "ABC-DEF-234", mock.AnythingOfType("[]uint8"), time.Second).Return(nil).Once()

	view, err := reader.Live(ctx, "ABC-DEF-234")

	require.NoError(t, err)
	assert.Equal(t, "Fresh", view.Title)
	cache.AssertExpectations(t)
	sessionRepo.AssertExpectations(t)
}
