package repository

import (
	"context"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
)

// SessionRepository defines storage for live session records.
//
// The contract deliberately assumes no more of the backing store than
// single atomic statements: read-modify-write pairs are NOT atomic, and the
// services are written to tolerate that (see the scratchpad notes there).
// Each writer class gets a scoped update touching only its own columns, so
// concurrent writers of different classes never revert each other's fields.
type SessionRepository interface {
	// Create persists a new session and assigns its ID.
	// Returns ErrDuplicateEntry if the join code is already taken.
	Create(ctx context.Context, session *domain.LiveSession) error

	// FindByID returns the session with the given ID, active or not.
	// Returns ErrSessionNotFound if absent.
	FindByID(ctx context.Context, id uint) (*domain.LiveSession, error)

	// FindByCode returns the session with the given canonical join code,
	// active or not. Returns ErrSessionNotFound if absent.
	FindByCode(ctx context.Context, code string) (*domain.LiveSession, error)

	// FindActiveByCode returns the ACTIVE session with the given canonical
	// join code. Returns ErrSessionNotFound if no active session has it.
	FindActiveByCode(ctx context.Context, code string) (*domain.LiveSession, error)

	// CodeInUse reports whether any ACTIVE session currently holds the code.
	// Codes of ended sessions do not count as in use.
	CodeInUse(ctx context.Context, code string) (bool, error)

	// IncrementParticipants atomically adds one to the participant counter
	// and bumps the activity timestamp, returning the new count.
	// Returns ErrSessionNotFound if absent.
	IncrementParticipants(ctx context.Context, id uint, at time.Time) (int, error)

	// MarkEnded flips the session to ended, touching only is_active and
	// ended_at. Ending an already-ended session is a harmless no-op.
	MarkEnded(ctx context.Context, id uint, at time.Time) error

	// UpdateBroadcast overwrites only the trainer broadcast fields. An empty
	// output string means "leave the stored output untouched".
	UpdateBroadcast(ctx context.Context, id uint, code, language, output string, at time.Time) error

	// UpdateScratchpads overwrites only the serialized scratchpad column.
	UpdateScratchpads(ctx context.Context, id uint, scratchpads string, at time.Time) error

	// FindAllActive lists active sessions, most recently started first.
	FindAllActive(ctx context.Context) ([]domain.LiveSession, error)

	// FindActiveIdleSince lists active sessions whose last activity is older
	// than the cutoff. Used by the idle-session reaper.
	FindActiveIdleSince(ctx context.Context, cutoff time.Time) ([]domain.LiveSession, error)
}

// UserRepository defines storage for user records.
type UserRepository interface {
	// FindByID returns the user with the given ID, or ErrUserNotFound.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername returns the user with the given username, or
	// ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// Save creates or updates a user. Returns ErrDuplicateEntry when the
	// username or email is already taken.
	Save(ctx context.Context, user *domain.User) error
}

// WorkspaceFileRepository is the read-only slice of the file-storage
// collaborator used for best-effort file-name resolution.
type WorkspaceFileRepository interface {
	// FindByID returns the file record, or ErrWorkspaceFileNotFound.
	FindByID(ctx context.Context, id uint) (*domain.WorkspaceFile, error)
}
