// Package gormpersistence implements the repository interfaces on GORM with
// a MySQL backend.
package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
)

// GormSessionRepository is the GORM implementation of
// repository.SessionRepository. Writes are scoped column updates in single
// statements; no method opens a transaction, matching the contract the
// services assume.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSessionRepository")
	}
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context, session *domain.LiveSession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create session (join_code: %s): %w", session.JoinCode, err)
	}
	return nil
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uint) (*domain.LiveSession, error) {
	var session domain.LiveSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("gorm: find session by id %d: %w", id, err)
	}
	return &session, nil
}

func (r *GormSessionRepository) FindByCode(ctx context.Context, code string) (*domain.LiveSession, error) {
	var session domain.LiveSession
	err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("gorm: find session by code '%s': %w", code, err)
	}
	return &session, nil
}

func (r *GormSessionRepository) FindActiveByCode(ctx context.Context, code string) (*domain.LiveSession, error) {
	var session domain.LiveSession
	err := r.db.WithContext(ctx).Where("join_code = ? AND is_active = ?", code, true).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("gorm: find active session by code '%s': %w", code, err)
	}
	return &session, nil
}

func (r *GormSessionRepository) CodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LiveSession{}).
		Where("join_code = ? AND is_active = ?", code, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count active sessions by code '%s': %w", code, err)
	}
	return count > 0, nil
}

func (r *GormSessionRepository) IncrementParticipants(ctx context.Context, id uint, at time.Time) (int, error) {
	tx := r.db.WithContext(ctx).Model(&domain.LiveSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"participant_count": gorm.Expr("participant_count + 1"),
		"last_activity_at":  at,
	})
	if tx.Error != nil {
		return 0, fmt.Errorf("gorm: increment participants for session %d: %w", id, tx.Error)
	}
	// Unlike the broadcast update, an increment always changes the row, so
	// zero affected rows reliably means the session is gone.
	if tx.RowsAffected == 0 {
		return 0, repository.ErrSessionNotFound
	}

	var count int
	err := r.db.WithContext(ctx).Model(&domain.LiveSession{}).Where("id = ?", id).
		Select("participant_count").Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: read participant count for session %d: %w", id, err)
	}
	return count, nil
}

func (r *GormSessionRepository) MarkEnded(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.LiveSession{}).Where("id = ? AND is_active = ?", id, true).Updates(map[string]interface{}{
		"is_active": false,
		"ended_at":  at,
	}).Error
	if err != nil {
		return fmt.Errorf("gorm: mark session %d ended: %w", id, err)
	}
	return nil
}

func (r *GormSessionRepository) UpdateBroadcast(ctx context.Context, id uint, code, language, output string, at time.Time) error {
	updates := map[string]interface{}{
		"current_code":     code,
		"current_language": language,
		"last_activity_at": at,
	}
	if output != "" {
		updates["current_output"] = output
	}
	// No RowsAffected check: MySQL reports zero affected rows for a no-op
	// republish of identical content, and the services verify existence
	// with a fresh read before calling this.
	err := r.db.WithContext(ctx).Model(&domain.LiveSession{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("gorm: update broadcast state for session %d: %w", id, err)
	}
	return nil
}

func (r *GormSessionRepository) UpdateScratchpads(ctx context.Context, id uint, scratchpads string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.LiveSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"scratchpads":      scratchpads,
		"last_activity_at": at,
	}).Error
	if err != nil {
		return fmt.Errorf("gorm: update scratchpads for session %d: %w", id, err)
	}
	return nil
}

func (r *GormSessionRepository) FindAllActive(ctx context.Context) ([]domain.LiveSession, error) {
	var sessions []domain.LiveSession
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active sessions: %w", err)
	}
	return sessions, nil
}

func (r *GormSessionRepository) FindActiveIdleSince(ctx context.Context, cutoff time.Time) ([]domain.LiveSession, error) {
	var sessions []domain.LiveSession
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND last_activity_at < ?", true, cutoff).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find idle active sessions before %v: %w", cutoff, err)
	}
	return sessions, nil
}
