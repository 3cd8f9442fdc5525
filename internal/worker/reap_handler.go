package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
)

// SessionReapHandler ends active sessions that have gone idle. A session is
// idle when neither the trainer nor any student has written to it for the
// configured TTL; an explicit end by the trainer is still the normal path,
// the reaper only covers abandoned sessions.
type SessionReapHandler struct {
	sessions repository.SessionRepository
	cache    repository.LiveViewCache // may be nil
	idleTTL  time.Duration
	log      *logrus.Entry
}

// NewSessionReapHandler creates a SessionReapHandler.
func NewSessionReapHandler(sessions repository.SessionRepository, cache repository.LiveViewCache, idleTTL time.Duration, logger *logrus.Logger) *SessionReapHandler {
	if sessions == nil {
		panic("SessionRepository cannot be nil for SessionReapHandler")
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	return &SessionReapHandler{
		sessions: sessions,
		cache:    cache,
		idleTTL:  idleTTL,
		log:      logger.WithField("component", "session_reaper"),
	}
}

// ProcessTask implements asynq.Handler for tasks.TypeSessionReap.
func (h *SessionReapHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().Add(-h.idleTTL)

	idle, err := h.sessions.FindActiveIdleSince(ctx, cutoff)
	if err != nil {
		h.log.WithError(err).Error("Reap run failed: could not list idle sessions")
		return err
	}
	if len(idle) == 0 {
		h.log.Debug("Reap run: no idle sessions")
		return nil
	}

	ended := 0
	for i := range idle {
		session := idle[i]
		if err := h.sessions.MarkEnded(ctx, session.ID, time.Now()); err != nil {
			// Keep going; the next run picks up whatever this one missed.
			h.log.WithError(err).WithField("session_id", session.ID).Warn("Reap run: could not end idle session")
			continue
		}
		if h.cache != nil {
			if err := h.cache.InvalidateLiveView(ctx, session.JoinCode); err != nil {
				h.log.WithError(err).WithField("join_code", session.JoinCode).Warn("Reap run: cache invalidation failed")
			}
		}
		ended++
	}

	h.log.WithFields(logrus.Fields{"idle": len(idle), "ended": ended}).Info("Reap run complete")
	return nil
}
