package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionSnapshot is the opaque payload produced by the code-execution
// collaborator (stdout, stderr, status, exit code, timing). This service
// stores and forwards it verbatim and never inspects its fields.
type ExecutionSnapshot = json.RawMessage

// ScratchpadEntry is one student's latest known state within a session.
type ScratchpadEntry struct {
	Code              string            `json:"code"`
	Language          string            `json:"language"`
	UpdatedAt         time.Time         `json:"updated_at"`
	StudentName       string            `json:"student_name"`
	Output            ExecutionSnapshot `json:"output,omitempty"`
	WorkspaceFileID   uint              `json:"workspace_file_id,omitempty"`
	WorkspaceFileName string            `json:"workspace_file_name,omitempty"`
}

// ScratchpadMap keys each student's scratchpad entry by user ID. It is
// persisted as a single JSON text column on the session row, so every
// write replaces the whole map.
type ScratchpadMap map[uint]ScratchpadEntry

// LiveSession is the authoritative record for one live coding session.
type LiveSession struct {
	ID       uint   `gorm:"primaryKey"`
	JoinCode string `gorm:"uniqueIndex;size:32;not null"` // canonical uppercase XXX-XXX-XXX
	Title    string `gorm:"size:191;not null"`
	Language string `gorm:"size:64"`

	TrainerID uint `gorm:"index;not null"`

	IsActive  bool `gorm:"index;not null;default:true"`
	StartedAt time.Time
	EndedAt   *time.Time

	CurrentCode     string `gorm:"type:mediumtext"`
	CurrentLanguage string `gorm:"size:64"`
	CurrentOutput   string `gorm:"type:mediumtext"` // serialized ExecutionSnapshot, empty when none

	ParticipantCount int `gorm:"not null;default:0"`

	// Scratchpads holds the serialized ScratchpadMap. Use ParseScratchpads
	// and SetScratchpads rather than touching the column directly.
	Scratchpads string `gorm:"type:mediumtext"`

	LastActivityAt time.Time `gorm:"index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// ParseScratchpads decodes the stored scratchpad column. An empty column
// decodes to an empty, non-nil map.
func (s *LiveSession) ParseScratchpads() (ScratchpadMap, error) {
	if s.Scratchpads == "" {
		return ScratchpadMap{}, nil
	}
	var m ScratchpadMap
	if err := json.Unmarshal([]byte(s.Scratchpads), &m); err != nil {
		return nil, fmt.Errorf("session %d: decode scratchpads: %w", s.ID, err)
	}
	if m == nil {
		m = ScratchpadMap{}
	}
	return m, nil
}

// SetScratchpads encodes the map back into the stored column.
func (s *LiveSession) SetScratchpads(m ScratchpadMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("session %d: encode scratchpads: %w", s.ID, err)
	}
	s.Scratchpads = string(data)
	return nil
}

// Output returns the trainer's current execution snapshot, or nil when the
// trainer has not published one yet.
func (s *LiveSession) Output() ExecutionSnapshot {
	if s.CurrentOutput == "" {
		return nil
	}
	return ExecutionSnapshot(s.CurrentOutput)
}

// SetOutput stores an execution snapshot on the session. A nil snapshot
// leaves the previous value untouched.
func (s *LiveSession) SetOutput(snap ExecutionSnapshot) {
	if snap == nil {
		return
	}
	s.CurrentOutput = string(snap)
}
