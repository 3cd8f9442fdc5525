package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
)

// GormUserRepository is the GORM implementation of repository.UserRepository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by username '%s': %w", username, err)
	}
	return &user, nil
}

func (r *GormUserRepository) Save(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save user (id: %d, username: %s): %w", user.ID, user.Username, err)
	}
	return nil
}

// GormWorkspaceFileRepository is the GORM implementation of
// repository.WorkspaceFileRepository.
type GormWorkspaceFileRepository struct {
	db *gorm.DB
}

// NewGormWorkspaceFileRepository creates a GormWorkspaceFileRepository.
func NewGormWorkspaceFileRepository(db *gorm.DB) *GormWorkspaceFileRepository {
	if db == nil {
		panic("database connection cannot be nil for GormWorkspaceFileRepository")
	}
	return &GormWorkspaceFileRepository{db: db}
}

func (r *GormWorkspaceFileRepository) FindByID(ctx context.Context, id uint) (*domain.WorkspaceFile, error) {
	var file domain.WorkspaceFile
	err := r.db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrWorkspaceFileNotFound
		}
		return nil, fmt.Errorf("gorm: find workspace file by id %d: %w", id, err)
	}
	return &file, nil
}
