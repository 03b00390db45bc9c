package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	GetUser(ctx context.Context, find *FindUser) (*User, error)
	DeleteUser(ctx context.Context, delete *DeleteUser) error

	// UserProfile model related methods.
	CreateUserProfile(ctx context.Context, create *UserProfile) (*UserProfile, error)
	GetUserProfile(ctx context.Context, find *FindUserProfile) (*UserProfile, error)
	UpdateUserProfile(ctx context.Context, update *UpdateUserProfile) (*UserProfile, error)
	DeleteUserProfile(ctx context.Context, delete *DeleteUserProfile) error

	// AuraReading model related methods.
	CreateAuraReading(ctx context.Context, create *AuraReading) (*AuraReading, error)
	ListAuraReadings(ctx context.Context, find *FindAuraReading) ([]*AuraReading, error)
	DeleteAuraReading(ctx context.Context, delete *DeleteAuraReading) error

	// MusicLink model related methods.
	UpsertMusicLink(ctx context.Context, upsert *MusicLink) (*MusicLink, error)
	GetMusicLink(ctx context.Context, find *FindMusicLink) (*MusicLink, error)
	DeleteMusicLink(ctx context.Context, delete *DeleteMusicLink) error
}
