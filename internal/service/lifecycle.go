package service

import (
	"context"
	"errors"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/joincode"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"

	"github.com/sirupsen/logrus"
)

// maxCodeAttempts bounds the join-code uniqueness retry loop. The code space
// is large enough that the bound never triggers in practice, but the
// existence check and the subsequent insert are not atomic against the
// store, so the loop must not be unbounded.
const maxCodeAttempts = 10

// SessionService owns the session lifecycle: creation with a collision-free
// join code, joining, the read-only activity check and termination.
// A session only ever moves active -> ended; there is no resurrection.
type SessionService struct {
	sessions repository.SessionRepository
	cache    repository.LiveViewCache // may be nil
}

// NewSessionService creates a SessionService. cache may be nil when no
// live-view cache is deployed.
func NewSessionService(sessions repository.SessionRepository, cache repository.LiveViewCache) *SessionService {
	if sessions == nil {
		panic("SessionRepository cannot be nil for SessionService")
	}
	return &SessionService{sessions: sessions, cache: cache}
}

// JoinResult is what a successfully joining student gets back.
type JoinResult struct {
	SessionID        uint   `json:"session_id"`
	Title            string `json:"title"`
	Language         string `json:"language"`
	ParticipantCount int    `json:"participant_count"`
}

// Create starts a new live session owned by trainerID.
func (s *SessionService) Create(ctx context.Context, title string, trainerID uint, language string) (*domain.LiveSession, error) {
	logCtx := logrus.WithFields(logrus.Fields{"trainer_id": trainerID, "title": title})

	if title == "" {
		return nil, ErrInvalidInput
	}

	code, err := s.generateUniqueJoinCode(ctx)
	if err != nil {
		if errors.Is(err, ErrCodeExhausted) {
			logCtx.WithError(err).Error("Join code space retry bound hit")
			return nil, ErrCodeExhausted
		}
		logCtx.WithError(err).Error("Failed to generate unique join code")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("join_code", code)

	now := time.Now()
	session := &domain.LiveSession{
		JoinCode:       code,
		Title:          title,
		Language:       language,
		TrainerID:      trainerID,
		IsActive:       true,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := session.SetScratchpads(domain.ScratchpadMap{}); err != nil {
		logCtx.WithError(err).Error("Failed to initialize scratchpad map")
		return nil, ErrInternalServer
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Residual race: two creates drew the same code and both saw it
			// free. Probability is negligible; treat as transient.
			logCtx.WithError(err).Warn("Join code collided at insert time")
			return nil, ErrCodeExhausted
		}
		logCtx.WithError(err).Error("Failed to persist new session")
		return nil, ErrInternalServer
	}

	logCtx.WithField("session_id", session.ID).Info("Session created")
	return session, nil
}

// Join validates a raw join code and enters the student into the session.
// A code that belongs to an ended session is rejected with ErrSessionEnded,
// distinct from a code that never existed.
//
// The participant counter is a total-joins counter: it is bumped on every
// successful join and never decremented on disconnect.
func (s *SessionService) Join(ctx context.Context, rawCode string) (*JoinResult, error) {
	logCtx := logrus.WithField("join_code", rawCode)

	if !joincode.IsValidFormat(rawCode) {
		logCtx.Warn("Join rejected: malformed code")
		return nil, ErrInvalidCodeFormat
	}
	code := joincode.Canonicalize(rawCode)

	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			logCtx.Warn("Join rejected: unknown code")
			return nil, ErrSessionNotFound
		}
		logCtx.WithError(err).Error("Join failed: repository error")
		return nil, ErrInternalServer
	}
	if !session.IsActive {
		logCtx.Warn("Join rejected: session has ended")
		return nil, ErrSessionEnded
	}

	count, err := s.sessions.IncrementParticipants(ctx, session.ID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		logCtx.WithError(err).Error("Join failed: could not persist participant count")
		return nil, ErrInternalServer
	}
	s.invalidateLiveView(ctx, code)

	logCtx.WithFields(logrus.Fields{
		"session_id":        session.ID,
		"participant_count": count,
	}).Info("Student joined session")

	return &JoinResult{
		SessionID:        session.ID,
		Title:            session.Title,
		Language:         session.Language,
		ParticipantCount: count,
	}, nil
}

// ValidateActive is the read-only existence/activity check used by clients
// before attempting to join and by monitor routes before subscribing.
func (s *SessionService) ValidateActive(ctx context.Context, rawCode string) (*domain.LiveSession, error) {
	if !joincode.IsValidFormat(rawCode) {
		return nil, ErrInvalidCodeFormat
	}
	session, err := s.sessions.FindActiveByCode(ctx, joincode.Canonicalize(rawCode))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		logrus.WithError(err).WithField("join_code", rawCode).Error("ValidateActive: repository error")
		return nil, ErrInternalServer
	}
	return session, nil
}

// End terminates a session. Only the owning trainer or staff may end it.
func (s *SessionService) End(ctx context.Context, sessionID uint, actorID uint, actorRole string) error {
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "actor_id": actorID})

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		logCtx.WithError(err).Error("End failed: repository error")
		return ErrInternalServer
	}
	if !session.IsActive {
		return ErrSessionEnded
	}
	staff := actorRole == domain.RoleAdmin || actorRole == domain.RoleManager
	if session.TrainerID != actorID && !staff {
		logCtx.Warn("End rejected: actor does not own the session")
		return ErrNotSessionOwner
	}

	if err := s.sessions.MarkEnded(ctx, sessionID, time.Now()); err != nil {
		logCtx.WithError(err).Error("End failed: could not persist session")
		return ErrInternalServer
	}
	s.invalidateLiveView(ctx, session.JoinCode)

	logCtx.Info("Session ended")
	return nil
}

func (s *SessionService) generateUniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := joincode.Generate()
		if err != nil {
			return "", err
		}

		inUse, err := s.sessions.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			if attempt > 0 {
				logrus.WithField("join_code", code).Debugf("Unique join code found after %d attempts", attempt+1)
			}
			return code, nil
		}
		logrus.WithField("join_code", code).Warnf("Join code already in use, retrying (attempt %d)", attempt+1)
	}
	return "", ErrCodeExhausted
}

func (s *SessionService) invalidateLiveView(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLiveView(ctx, code); err != nil {
		// Stale cache entries expire on their own TTL; not fatal.
		logrus.WithError(err).WithField("join_code", code).Warn("Failed to invalidate live view cache")
	}
}
