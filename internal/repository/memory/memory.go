// Package memory provides in-memory repository implementations. They back
// the service tests as a stand-in for the external store and mimic its
// contract exactly: each read hands out an independent copy of the record,
// each write replaces the stored record whole, and the pair is not atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
)

// SessionRepository is an in-memory repository.SessionRepository.
type SessionRepository struct {
	mu       sync.Mutex
	nextID   uint
	sessions map[uint]domain.LiveSession
}

// NewSessionRepository creates an empty in-memory session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		nextID:   1,
		sessions: make(map[uint]domain.LiveSession),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.LiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.JoinCode == session.JoinCode {
			return repository.ErrDuplicateEntry
		}
	}
	session.ID = r.nextID
	r.nextID++
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uint) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.JoinCode == code {
			s := session
			return &s, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *SessionRepository) FindActiveByCode(ctx context.Context, code string) (*domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.JoinCode == code && session.IsActive {
			s := session
			return &s, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *SessionRepository) CodeInUse(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.JoinCode == code && session.IsActive {
			return true, nil
		}
	}
	return false, nil
}

// Save replaces the stored record whole. The services only ever write
// through the scoped updates below; tests use Save to seed state.
func (r *SessionRepository) Save(ctx context.Context, session *domain.LiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) IncrementParticipants(ctx context.Context, id uint, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return 0, repository.ErrSessionNotFound
	}
	session.ParticipantCount++
	session.LastActivityAt = at
	session.UpdatedAt = time.Now()
	r.sessions[id] = session
	return session.ParticipantCount, nil
}

func (r *SessionRepository) MarkEnded(ctx context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if session.IsActive {
		session.IsActive = false
		ended := at
		session.EndedAt = &ended
	}
	session.UpdatedAt = time.Now()
	r.sessions[id] = session
	return nil
}

func (r *SessionRepository) UpdateBroadcast(ctx context.Context, id uint, code, language, output string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.CurrentCode = code
	session.CurrentLanguage = language
	if output != "" {
		session.CurrentOutput = output
	}
	session.LastActivityAt = at
	session.UpdatedAt = time.Now()
	r.sessions[id] = session
	return nil
}

func (r *SessionRepository) UpdateScratchpads(ctx context.Context, id uint, scratchpads string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Scratchpads = scratchpads
	session.LastActivityAt = at
	session.UpdatedAt = time.Now()
	r.sessions[id] = session
	return nil
}

func (r *SessionRepository) FindAllActive(ctx context.Context) ([]domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []domain.LiveSession
	for _, session := range r.sessions {
		if session.IsActive {
			active = append(active, session)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].StartedAt.After(active[j].StartedAt) })
	return active, nil
}

func (r *SessionRepository) FindActiveIdleSince(ctx context.Context, cutoff time.Time) ([]domain.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idle []domain.LiveSession
	for _, session := range r.sessions {
		if session.IsActive && session.LastActivityAt.Before(cutoff) {
			idle = append(idle, session)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].ID < idle[j].ID })
	return idle, nil
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]domain.User
}

// NewUserRepository creates an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{nextID: 1, users: make(map[uint]domain.User)}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.users {
		if id != user.ID && (existing.Username == user.Username || (user.Email != "" && existing.Email == user.Email)) {
			return repository.ErrDuplicateEntry
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

// WorkspaceFileRepository is an in-memory repository.WorkspaceFileRepository.
type WorkspaceFileRepository struct {
	mu    sync.Mutex
	files map[uint]domain.WorkspaceFile
}

// NewWorkspaceFileRepository creates an in-memory file store seeded with the
// given files.
func NewWorkspaceFileRepository(files ...domain.WorkspaceFile) *WorkspaceFileRepository {
	r := &WorkspaceFileRepository{files: make(map[uint]domain.WorkspaceFile)}
	for _, f := range files {
		r.files[f.ID] = f
	}
	return r
}

func (r *WorkspaceFileRepository) FindByID(ctx context.Context, id uint) (*domain.WorkspaceFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil, repository.ErrWorkspaceFileNotFound
	}
	return &file, nil
}
