package service

import (
	"context"
	"errors"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"

	"github.com/sirupsen/logrus"
)

// BroadcastService is the trainer-side write path: it stores the trainer's
// current code/output snapshot on the session record. The trainer is the
// single writer of these fields, so an unconditional overwrite is
// linearizable per writer; there is no merging and no versioning.
type BroadcastService struct {
	sessions repository.SessionRepository
	cache    repository.LiveViewCache // may be nil
}

// NewBroadcastService creates a BroadcastService. cache may be nil.
func NewBroadcastService(sessions repository.SessionRepository, cache repository.LiveViewCache) *BroadcastService {
	if sessions == nil {
		panic("SessionRepository cannot be nil for BroadcastService")
	}
	return &BroadcastService{sessions: sessions, cache: cache}
}

// Publish overwrites the session's current code and language. The stored
// output is replaced only when a snapshot accompanies the publish; a publish
// without one leaves the previous output visible. Students and staff observe
// the new state on their next poll; nothing is pushed.
func (s *BroadcastService) Publish(ctx context.Context, sessionID uint, trainerID uint, code, language string, snapshot domain.ExecutionSnapshot) error {
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "trainer_id": trainerID})

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		logCtx.WithError(err).Error("Publish failed: repository error")
		return ErrInternalServer
	}
	if !session.IsActive {
		return ErrSessionEnded
	}
	if session.TrainerID != trainerID {
		logCtx.Warn("Publish rejected: caller is not the session trainer")
		return ErrNotSessionOwner
	}

	output := ""
	if snapshot != nil {
		output = string(snapshot)
	}
	if err := s.sessions.UpdateBroadcast(ctx, sessionID, code, language, output, time.Now()); err != nil {
		logCtx.WithError(err).Error("Publish failed: could not persist broadcast state")
		return ErrInternalServer
	}

	if s.cache != nil {
		if err := s.cache.InvalidateLiveView(ctx, session.JoinCode); err != nil {
			logCtx.WithError(err).Warn("Failed to invalidate live view cache after publish")
		}
	}

	logCtx.Debug("Broadcast state published")
	return nil
}
