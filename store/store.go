package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/auralabs/auraglow/internal/profile"
	"github.com/auralabs/auraglow/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// profileCache fronts GetUserProfile. An optional redis tier is used
	// when configured so multiple instances share invalidations via TTL.
	profileCache cache.Provider
}

// New creates a new instance of Store.
func New(driver Driver, serverProfile *profile.Profile) *Store {
	var profileCache cache.Provider
	if serverProfile != nil && serverProfile.CacheRedisAddr != "" {
		redisCache, err := cache.NewRedisCache(&cache.RedisCacheConfig{
			Addr:       serverProfile.CacheRedisAddr,
			Password:   serverProfile.CacheRedisPassword,
			KeyPrefix:  "auraglow:",
			DefaultTTL: 5 * time.Minute,
		})
		if err != nil {
			slog.Warn("failed to connect redis cache, falling back to in-memory cache",
				slog.String("addr", serverProfile.CacheRedisAddr),
				slog.String("error", err.Error()))
		} else {
			profileCache = redisCache
		}
	}
	if profileCache == nil {
		profileCache = cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		})
	}

	return &Store{
		driver:       driver,
		profile:      serverProfile,
		profileCache: profileCache,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Close releases both the cache and the driver. The driver is closed even
// when the cache close fails; the driver error wins when both fail.
func (s *Store) Close() error {
	cacheErr := s.profileCache.Close()
	if err := s.driver.Close(); err != nil {
		return err
	}
	return cacheErr
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}

func (s *Store) DeleteUser(ctx context.Context, delete *DeleteUser) error {
	return s.driver.DeleteUser(ctx, delete)
}

func (s *Store) CreateUserProfile(ctx context.Context, create *UserProfile) (*UserProfile, error) {
	return s.driver.CreateUserProfile(ctx, create)
}

func (s *Store) GetUserProfile(ctx context.Context, find *FindUserProfile) (*UserProfile, error) {
	if find.UserID != nil && find.ID == nil && find.UID == nil {
		if cached, ok := s.profileCache.Get(ctx, profileCacheKey(*find.UserID)); ok {
			if userProfile := decodeCachedProfile(cached); userProfile != nil {
				return userProfile, nil
			}
		}
	}

	userProfile, err := s.driver.GetUserProfile(ctx, find)
	if err != nil {
		return nil, err
	}
	if userProfile != nil {
		s.profileCache.Set(ctx, profileCacheKey(userProfile.UserID), userProfile)
	}
	return userProfile, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, update *UpdateUserProfile) (*UserProfile, error) {
	userProfile, err := s.driver.UpdateUserProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	s.profileCache.Delete(ctx, profileCacheKey(update.UserID))
	if userProfile != nil {
		s.profileCache.Set(ctx, profileCacheKey(userProfile.UserID), userProfile)
	}
	return userProfile, nil
}

func (s *Store) DeleteUserProfile(ctx context.Context, delete *DeleteUserProfile) error {
	s.profileCache.Delete(ctx, profileCacheKey(delete.UserID))
	return s.driver.DeleteUserProfile(ctx, delete)
}

func (s *Store) CreateAuraReading(ctx context.Context, create *AuraReading) (*AuraReading, error) {
	return s.driver.CreateAuraReading(ctx, create)
}

func (s *Store) ListAuraReadings(ctx context.Context, find *FindAuraReading) ([]*AuraReading, error) {
	return s.driver.ListAuraReadings(ctx, find)
}

func (s *Store) DeleteAuraReading(ctx context.Context, delete *DeleteAuraReading) error {
	return s.driver.DeleteAuraReading(ctx, delete)
}

func (s *Store) UpsertMusicLink(ctx context.Context, upsert *MusicLink) (*MusicLink, error) {
	return s.driver.UpsertMusicLink(ctx, upsert)
}

func (s *Store) GetMusicLink(ctx context.Context, find *FindMusicLink) (*MusicLink, error) {
	return s.driver.GetMusicLink(ctx, find)
}

func (s *Store) DeleteMusicLink(ctx context.Context, delete *DeleteMusicLink) error {
	return s.driver.DeleteMusicLink(ctx, delete)
}

func profileCacheKey(userID int32) string {
	return fmt.Sprintf("user_profile:%d", userID)
}

// decodeCachedProfile handles both cache tiers: the memory tier stores the
// typed value, the redis tier stores JSON.
func decodeCachedProfile(cached any) *UserProfile {
	switch v := cached.(type) {
	case *UserProfile:
		return v
	case json.RawMessage:
		userProfile := &UserProfile{}
		if err := json.Unmarshal(v, userProfile); err != nil {
			return nil
		}
		return userProfile
	default:
		return nil
	}
}
