package service_test

import (
	"context"
	"testing"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/joincode"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository/memory"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSessionFlow walks the whole trainer/student/staff loop through the
// service layer: create, join, broadcast, poll, scratchpad, monitor.
func TestSessionFlow(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	users := memory.NewUserRepository()

	lifecycle := service.NewSessionService(sessions, nil)
	broadcast := service.NewBroadcastService(sessions, nil)
	scratch := service.NewScratchpadService(sessions, nil)
	reader := service.NewReaderService(sessions, users, nil, 0)

	// Trainer creates the session and receives a well-formed join code.
	session, err := lifecycle.Create(ctx, "Intro to Loops", 1, "python")
	require.NoError(t, err)
	require.True(t, joincode.IsValidFormat(session.JoinCode))

	// Student joins with the code.
	joined, err := lifecycle.Join(ctx, session.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, "Intro to Loops", joined.Title)
	assert.Equal(t, 1, joined.ParticipantCount)

	// Trainer publishes; the student's next poll sees it.
	require.NoError(t, broadcast.Publish(ctx, session.ID, 1, "print(1)", "python", nil))

	view, err := reader.Live(ctx, session.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", view.CurrentCode)

	// Student A posts a scratchpad; staff sees exactly one entry for A.
	require.NoError(t, scratch.Update(ctx, session.ID, 2, "Student A", service.ScratchpadUpdate{
		Code: "x=1", Language: "python",
	}))

	students, err := reader.StudentsOf(ctx, session.JoinCode)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, uint(2), students[0].UserID)
	assert.Equal(t, "x=1", students[0].Code)
}
