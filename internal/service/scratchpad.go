package service

import (
	"context"
	"errors"
	"time"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"

	"github.com/sirupsen/logrus"
)

// ScratchpadService merges each student's incoming update into the
// session's scratchpad map without disturbing other students' entries.
//
// The store models the map as a single blob, so the merge is a whole-map
// read-modify-write. The session record is re-read immediately before the
// merge on every call; the window in which a concurrent peer's write can be
// clobbered is therefore a single request, never a long-lived stale copy.
// Two concurrent updates for the SAME student resolve last-write-wins,
// which is acceptable: a student has one active editor.
type ScratchpadService struct {
	sessions repository.SessionRepository
	files    repository.WorkspaceFileRepository // may be nil
}

// NewScratchpadService creates a ScratchpadService. files may be nil when
// the workspace-file collaborator is not deployed; file names then simply
// stay unresolved.
func NewScratchpadService(sessions repository.SessionRepository, files repository.WorkspaceFileRepository) *ScratchpadService {
	if sessions == nil {
		panic("SessionRepository cannot be nil for ScratchpadService")
	}
	return &ScratchpadService{sessions: sessions, files: files}
}

// ScratchpadUpdate is one student's incoming state.
type ScratchpadUpdate struct {
	Code              string
	Language          string
	Output            domain.ExecutionSnapshot // nil = keep previous output
	WorkspaceFileID   uint                     // 0 = keep previous reference
	WorkspaceFileName string
}

// Update merges the student's latest state into the session scratchpad map.
//
// Merge rules, per key: code, language, student name and the update
// timestamp are always replaced; the stored output survives unless the
// update carries a new snapshot; the workspace file reference survives
// unless a new id is supplied, in which case a missing file name is
// resolved best-effort from the file store.
func (s *ScratchpadService) Update(ctx context.Context, sessionID uint, userID uint, studentName string, upd ScratchpadUpdate) error {
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

	if upd.Code == "" || upd.Language == "" {
		logCtx.Warn("Scratchpad update rejected: code and language are required")
		return ErrInvalidInput
	}

	// Fresh read, immediately before the merge.
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		logCtx.WithError(err).Error("Scratchpad update failed: repository error")
		return ErrInternalServer
	}
	if !session.IsActive {
		return ErrSessionEnded
	}

	pads, err := session.ParseScratchpads()
	if err != nil {
		logCtx.WithError(err).Error("Scratchpad update failed: stored map is corrupt")
		return ErrInternalServer
	}

	entry := pads[userID] // zero value when the student has no entry yet
	entry.Code = upd.Code
	entry.Language = upd.Language
	entry.StudentName = studentName
	entry.UpdatedAt = time.Now()
	if upd.Output != nil {
		entry.Output = upd.Output
	}
	if upd.WorkspaceFileID != 0 {
		entry.WorkspaceFileID = upd.WorkspaceFileID
		entry.WorkspaceFileName = s.resolveFileName(ctx, upd.WorkspaceFileID, upd.WorkspaceFileName)
	}
	pads[userID] = entry

	if err := session.SetScratchpads(pads); err != nil {
		logCtx.WithError(err).Error("Scratchpad update failed: could not encode map")
		return ErrInternalServer
	}
	if err := s.sessions.UpdateScratchpads(ctx, sessionID, session.Scratchpads, entry.UpdatedAt); err != nil {
		logCtx.WithError(err).Error("Scratchpad update failed: could not persist map")
		return ErrInternalServer
	}

	logCtx.Debug("Scratchpad updated")
	return nil
}

// resolveFileName returns the caller-supplied name when present, otherwise
// looks the name up from the file store. Lookup failures are logged and
// swallowed: a missing display name never fails the update.
func (s *ScratchpadService) resolveFileName(ctx context.Context, fileID uint, supplied string) string {
	if supplied != "" {
		return supplied
	}
	if s.files == nil {
		return ""
	}
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		logrus.WithError(err).WithField("file_id", fileID).Warn("Could not resolve workspace file name")
		return ""
	}
	return file.Name
}
