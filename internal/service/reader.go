package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/joincode"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ReaderService serves the three read projections over the session record:
// the public live poll, the staff per-student monitor view, and the staff
// directory of active sessions. All propagation in this system happens
// through these polls; nothing is pushed.
type ReaderService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	cache    repository.LiveViewCache // may be nil
	cacheTTL time.Duration
}

// NewReaderService creates a ReaderService. cache may be nil; when present,
// the live poll projection is cached under the session's join code for
// cacheTTL to absorb tight client poll loops.
func NewReaderService(sessions repository.SessionRepository, users repository.UserRepository, cache repository.LiveViewCache, cacheTTL time.Duration) *ReaderService {
	if sessions == nil {
		panic("SessionRepository cannot be nil for ReaderService")
	}
	if users == nil {
		panic("UserRepository cannot be nil for ReaderService")
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Second
	}
	return &ReaderService{sessions: sessions, users: users, cache: cache, cacheTTL: cacheTTL}
}

// LiveView is the public poll projection students use to pick up trainer
// broadcasts.
type LiveView struct {
	Title            string                   `json:"title"`
	Language         string                   `json:"language"`
	IsActive         bool                     `json:"is_active"`
	CurrentCode      string                   `json:"current_code"`
	CurrentLanguage  string                   `json:"current_language"`
	CurrentOutput    domain.ExecutionSnapshot `json:"current_output,omitempty"`
	ParticipantCount int                      `json:"participant_count"`
}

// StudentView is one student's scratchpad as shown in the staff monitor.
type StudentView struct {
	UserID            uint                     `json:"user_id"`
	Name              string                   `json:"name"`
	Code              string                   `json:"code"`
	Language          string                   `json:"language"`
	UpdatedAt         time.Time                `json:"updated_at"`
	Output            domain.ExecutionSnapshot `json:"output,omitempty"`
	WorkspaceFileID   uint                     `json:"workspace_file_id,omitempty"`
	WorkspaceFileName string                   `json:"workspace_file_name,omitempty"`
}

// SessionSummary is one row of the staff directory of active sessions.
type SessionSummary struct {
	JoinCode         string    `json:"join_code"`
	Title            string    `json:"title"`
	TrainerID        uint      `json:"trainer_id"`
	TrainerName      string    `json:"trainer_name"`
	ParticipantCount int       `json:"participant_count"`
	StartedAt        time.Time `json:"started_at"`
}

// Live returns the poll projection for the given code. An unknown code is
// ErrSessionNotFound; a session that existed but has ended is returned with
// IsActive=false so clients can tell the two apart.
func (s *ReaderService) Live(ctx context.Context, rawCode string) (*LiveView, error) {
	if !joincode.IsValidFormat(rawCode) {
		return nil, ErrInvalidCodeFormat
	}
	code := joincode.Canonicalize(rawCode)

	if view := s.cachedLiveView(ctx, code); view != nil {
		return view, nil
	}

	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		logrus.WithError(err).WithField("join_code", code).Error("Live: repository error")
		return nil, ErrInternalServer
	}

	view := &LiveView{
		Title:            session.Title,
		Language:         session.Language,
		IsActive:         session.IsActive,
		CurrentCode:      session.CurrentCode,
		CurrentLanguage:  session.CurrentLanguage,
		CurrentOutput:    session.Output(),
		ParticipantCount: session.ParticipantCount,
	}
	s.storeLiveView(ctx, code, view)
	return view, nil
}

// StudentsOf flattens the session's scratchpad map into a list for the
// staff monitor. Order carries no meaning; entries are sorted by user ID so
// the wire shape is stable between polls.
func (s *ReaderService) StudentsOf(ctx context.Context, rawCode string) ([]StudentView, error) {
	if !joincode.IsValidFormat(rawCode) {
		return nil, ErrInvalidCodeFormat
	}
	session, err := s.sessions.FindByCode(ctx, joincode.Canonicalize(rawCode))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		logrus.WithError(err).WithField("join_code", rawCode).Error("StudentsOf: repository error")
		return nil, ErrInternalServer
	}

	pads, err := session.ParseScratchpads()
	if err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Error("StudentsOf: stored map is corrupt")
		return nil, ErrInternalServer
	}

	views := lo.MapToSlice(pads, func(userID uint, entry domain.ScratchpadEntry) StudentView {
		return StudentView{
			UserID:            userID,
			Name:              entry.StudentName,
			Code:              entry.Code,
			Language:          entry.Language,
			UpdatedAt:         entry.UpdatedAt,
			Output:            entry.Output,
			WorkspaceFileID:   entry.WorkspaceFileID,
			WorkspaceFileName: entry.WorkspaceFileName,
		}
	})
	sort.Slice(views, func(i, j int) bool { return views[i].UserID < views[j].UserID })
	return views, nil
}

// ListActive returns the staff directory of active sessions, most recently
// started first. Trainer names are resolved from the user store; a missing
// trainer record leaves the name empty rather than failing the listing.
func (s *ReaderService) ListActive(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := s.sessions.FindAllActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("ListActive: repository error")
		return nil, ErrInternalServer
	}

	names := make(map[uint]string, len(sessions))
	summaries := lo.Map(sessions, func(session domain.LiveSession, _ int) SessionSummary {
		name, seen := names[session.TrainerID]
		if !seen {
			name = s.trainerName(ctx, session.TrainerID)
			names[session.TrainerID] = name
		}
		return SessionSummary{
			JoinCode:         session.JoinCode,
			Title:            session.Title,
			TrainerID:        session.TrainerID,
			TrainerName:      name,
			ParticipantCount: session.ParticipantCount,
			StartedAt:        session.StartedAt,
		}
	})
	return summaries, nil
}

func (s *ReaderService) trainerName(ctx context.Context, trainerID uint) string {
	user, err := s.users.FindByID(ctx, trainerID)
	if err != nil {
		logrus.WithError(err).WithField("trainer_id", trainerID).Warn("Could not resolve trainer name")
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

func (s *ReaderService) cachedLiveView(ctx context.Context, code string) *LiveView {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.GetLiveView(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			logrus.WithError(err).WithField("join_code", code).Warn("Live view cache read failed")
		}
		return nil
	}
	var view LiveView
	if err := json.Unmarshal(payload, &view); err != nil {
		logrus.WithError(err).WithField("join_code", code).Warn("Live view cache payload is corrupt")
		return nil
	}
	return &view
}

func (s *ReaderService) storeLiveView(ctx context.Context, code string, view *LiveView) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.cache.SetLiveView(ctx, code, payload, s.cacheTTL); err != nil {
		logrus.WithError(err).WithField("join_code", code).Warn("Live view cache write failed")
	}
}
