package repository

import "errors"

// Repository-level errors. Implementations translate store-specific failures
// (GORM record-not-found, MySQL duplicate key, redis.Nil) into these so the
// service layer never imports a driver package.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrCacheMiss means the cache holds no value for the key.
	ErrCacheMiss = errors.New("repository: cache miss")
)

var (
	ErrUserNotFound          = ErrNotFound
	ErrSessionNotFound       = ErrNotFound
	ErrWorkspaceFileNotFound = ErrNotFound
)
