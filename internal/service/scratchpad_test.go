package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository/memory"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScratchpadFixture(t *testing.T) (*memory.SessionRepository, *service.ScratchpadService, *domain.LiveSession) {
	t.Helper()
	sessions := memory.NewSessionRepository()
	lifecycle := service.NewSessionService(sessions, nil)
	session, err := lifecycle.Create(context.Background(), "Scratch", 1, "python")
	require.NoError(t, err)
	files := memory.NewWorkspaceFileRepository(domain.WorkspaceFile{ID: 11, OwnerID: 2, Name: "solution.py"})
	return sessions, service.NewScratchpadService(sessions, files), session
}

func storedPads(t *testing.T, sessions *memory.SessionRepository, id uint) domain.ScratchpadMap {
	t.Helper()
	session, err := sessions.FindByID(context.Background(), id)
	require.NoError(t, err)
	pads, err := session.ParseScratchpads()
	require.NoError(t, err)
	return pads
}

func TestScratchpadService_Update_TwoStudentsKeepTheirOwnEntries(t *testing.T) {
	sessions, svc, session := newScratchpadFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "x=1", Language: "python",
	}))
	require.NoError(t, svc.Update(ctx, session.ID, 3, "Bob", service.ScratchpadUpdate{
		Code: "y=2", Language: "python",
	}))

	pads := storedPads(t, sessions, session.ID)
	require.Len(t, pads, 2)
	assert.Equal(t, "x=1", pads[2].Code)
	assert.Equal(t, "Alice", pads[2].StudentName)
	assert.Equal(t, "y=2", pads[3].Code)
	assert.Equal(t, "Bob", pads[3].StudentName)
}

func TestScratchpadService_Update_OutputSurvivesWhenOmitted(t *testing.T) {
	sessions, svc, session := newScratchpadFixture(t)
	ctx := context.Background()

	output := domain.ExecutionSnapshot(`{"stdout":"1\n","status":"ok","exit_code":0}`)
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "print(1)", Language: "python", Output: output,
	}))

	// Second update carries no snapshot: the stored output must survive.
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "print(2)", Language: "python",
	}))

	pads := storedPads(t, sessions, session.ID)
	assert.Equal(t, "print(2)", pads[2].Code)
	assert.JSONEq(t, string(output), string(pads[2].Output))

	// A new snapshot replaces it.
	replacement := domain.ExecutionSnapshot(`{"stdout":"2\n","status":"ok","exit_code":0}`)
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "print(2)", Language: "python", Output: replacement,
	}))
	pads = storedPads(t, sessions, session.ID)
	assert.JSONEq(t, string(replacement), string(pads[2].Output))
}

func TestScratchpadService_Update_WorkspaceFileReference(t *testing.T) {
	sessions, svc, session := newScratchpadFixture(t)
	ctx := context.Background()

	// Id supplied without a name: the name is looked up from the file store.
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "x=1", Language: "python", WorkspaceFileID: 11,
	}))
	pads := storedPads(t, sessions, session.ID)
	assert.Equal(t, uint(11), pads[2].WorkspaceFileID)
	assert.Equal(t, "solution.py", pads[2].WorkspaceFileName)

	// Update without a file reference: the stored reference survives.
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "x=2", Language: "python",
	}))
	pads = storedPads(t, sessions, session.ID)
	assert.Equal(t, uint(11), pads[2].WorkspaceFileID)
	assert.Equal(t, "solution.py", pads[2].WorkspaceFileName)

	// Unknown file id: the reference is stored, the name stays unresolved.
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{
		Code: "x=3", Language: "python", WorkspaceFileID: 99,
	}))
	pads = storedPads(t, sessions, session.ID)
	assert.Equal(t, uint(99), pads[2].WorkspaceFileID)
	assert.Empty(t, pads[2].WorkspaceFileName)
}

func TestScratchpadService_Update_SameStudentLastWriteWins(t *testing.T) {
	sessions, svc, session := newScratchpadFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{Code: "a", Language: "python"}))
	require.NoError(t, svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{Code: "b", Language: "python"}))

	pads := storedPads(t, sessions, session.ID)
	require.Len(t, pads, 1)
	assert.Equal(t, "b", pads[2].Code)
}

func TestScratchpadService_Update_Validation(t *testing.T) {
	_, svc, session := newScratchpadFixture(t)
	ctx := context.Background()

	err := svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{Code: "", Language: "python"})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	err = svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{Code: "x=1", Language: ""})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
}

func TestScratchpadService_Update_SessionStateChecks(t *testing.T) {
	sessions, svc, session := newScratchpadFixture(t)
	ctx := context.Background()

	err := svc.Update(ctx, 999, 2, "Alice", service.ScratchpadUpdate{Code: "x", Language: "python"})
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))

	lifecycle := service.NewSessionService(sessions, nil)
	require.NoError(t, lifecycle.End(ctx, session.ID, 1, domain.RoleTrainer))

	err = svc.Update(ctx, session.ID, 2, "Alice", service.ScratchpadUpdate{Code: "x", Language: "python"})
	assert.True(t, errors.Is(err, service.ErrSessionEnded))
}
