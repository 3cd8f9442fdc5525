// Package domain defines the data structures persisted by the service.
package domain

import "time"

// Roles recognised by the identity layer. Role gating happens in the HTTP
// layer; the session services only record the caller-supplied identity.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleTrainer = "trainer"
	RoleStudent = "student"
)

// User represents an authenticated actor.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Password  string    `gorm:"type:text;not null"` // bcrypt hash
	Email     string    `gorm:"type:varchar(191);uniqueIndex:idx_email"`
	Name      string    `gorm:"type:varchar(191)"`
	Role      string    `gorm:"type:varchar(32);not null;default:'student'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// IsStaff reports whether the user may access monitor projections.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// CanHostSessions reports whether the user may create and broadcast sessions.
func (u *User) CanHostSessions() bool {
	return u.Role == RoleTrainer || u.Role == RoleManager || u.Role == RoleAdmin
}

// WorkspaceFile is the minimal slice of the file-storage collaborator this
// service reads: scratchpad updates may reference a persisted file by id,
// and its display name is resolved best-effort for the monitor view.
type WorkspaceFile struct {
	ID        uint      `gorm:"primaryKey"`
	OwnerID   uint      `gorm:"index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
