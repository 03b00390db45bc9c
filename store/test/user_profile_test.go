package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/auralabs/auraglow/store"
)

func createTestingUser(ctx context.Context, t *testing.T, ts *store.Store, email string) (*store.User, *store.UserProfile) {
	t.Helper()

	user, err := ts.CreateUser(ctx, &store.User{
		Email:        email,
		PasswordHash: "$2a$10$notarealhash",
	})
	require.NoError(t, err)

	userProfile, err := ts.CreateUserProfile(ctx, &store.UserProfile{
		UID:         "uid-" + email,
		UserID:      user.ID,
		Name:        "Sam",
		ChatPoints:  100,
		AuraGems:    50,
		StageMira:   "Stranger",
		StageRutwik: "Stranger",
		Memories:    []string{},
	})
	require.NoError(t, err)
	return user, userProfile
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	user, _ := createTestingUser(ctx, t, ts, "sam@example.com")
	require.Greater(t, user.ID, int32(0))
	require.NotZero(t, user.CreatedTs)

	email := "sam@example.com"
	found, err := ts.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)

	missing := "nobody@example.com"
	found, err = ts.GetUser(ctx, &store.FindUser{Email: &missing})
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestUserProfileStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	user, created := createTestingUser(ctx, t, ts, "sam@example.com")
	require.EqualValues(t, 100, created.ChatPoints)
	require.EqualValues(t, 50, created.AuraGems)

	found, err := ts.GetUserProfile(ctx, &store.FindUserProfile{UserID: &user.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Stranger", found.StageMira)
	require.Empty(t, found.Memories)

	// Field-scoped patch touches only the named fields.
	points := int32(99)
	stage := "Acquaintance"
	memories := []string{"likes photography"}
	updated, err := ts.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		UserID:     user.ID,
		ChatPoints: &points,
		StageMira:  &stage,
		Memories:   &memories,
	})
	require.NoError(t, err)
	require.EqualValues(t, 99, updated.ChatPoints)
	require.Equal(t, "Acquaintance", updated.StageMira)
	require.Equal(t, "Stranger", updated.StageRutwik)
	require.Equal(t, []string{"likes photography"}, updated.Memories)
	require.EqualValues(t, 50, updated.AuraGems)

	// Cache is refreshed after the patch.
	found, err = ts.GetUserProfile(ctx, &store.FindUserProfile{UserID: &user.ID})
	require.NoError(t, err)
	require.EqualValues(t, 99, found.ChatPoints)
	require.Equal(t, "Acquaintance", found.StageMira)
}

func TestUserProfileBalanceDeltas(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user, _ := createTestingUser(ctx, t, ts, "sam@example.com")

	// Deltas apply against the stored value, not against the caller's read.
	grant := int32(50)
	updated, err := ts.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		UserID:        user.ID,
		AddChatPoints: &grant,
	})
	require.NoError(t, err)
	require.EqualValues(t, 150, updated.ChatPoints)

	charge := int32(-1)
	spend := int32(-10)
	updated, err = ts.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		UserID:        user.ID,
		AddChatPoints: &charge,
		AddAuraGems:   &spend,
	})
	require.NoError(t, err)
	require.EqualValues(t, 149, updated.ChatPoints)
	require.EqualValues(t, 40, updated.AuraGems)

	// A delta can never drive a balance below zero.
	overdraw := int32(-500)
	updated, err = ts.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		UserID:      user.ID,
		AddAuraGems: &overdraw,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, updated.AuraGems)
	require.EqualValues(t, 149, updated.ChatPoints)

	found, err := ts.GetUserProfile(ctx, &store.FindUserProfile{UserID: &user.ID})
	require.NoError(t, err)
	require.EqualValues(t, 149, found.ChatPoints)
	require.EqualValues(t, 0, found.AuraGems)
}

func TestAuraReadingStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	user, _ := createTestingUser(ctx, t, ts, "sam@example.com")

	for i, score := range []int32{72, 88, 95} {
		_, err := ts.CreateAuraReading(ctx, &store.AuraReading{
			UserID:    user.ID,
			Score:     score,
			Color:     "Gold",
			Element:   "Fire",
			Reading:   "Your energy radiates creativity and passion today.",
			MatchedID: "mira",
			CreatedTs: time.Now().Unix() + int64(i),
		})
		require.NoError(t, err)
	}

	limit := 2
	readings, err := ts.ListAuraReadings(ctx, &store.FindAuraReading{
		UserID: &user.ID,
		Limit:  &limit,
	})
	require.NoError(t, err)
	require.Len(t, readings, 2)
	// Newest first.
	require.EqualValues(t, 95, readings[0].Score)
	require.EqualValues(t, 88, readings[1].Score)
}

func TestMusicLinkStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	user, _ := createTestingUser(ctx, t, ts, "sam@example.com")

	link, err := ts.UpsertMusicLink(ctx, &store.MusicLink{
		UserID:       user.ID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour).Unix(),
		UpdatedTs:    time.Now().Unix(),
	})
	require.NoError(t, err)
	require.Equal(t, "access-1", link.AccessToken)

	// Upsert replaces the tokens in place.
	link, err = ts.UpsertMusicLink(ctx, &store.MusicLink{
		UserID:       user.ID,
		AccessToken:  "access-2",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(2 * time.Hour).Unix(),
		UpdatedTs:    time.Now().Unix(),
	})
	require.NoError(t, err)
	require.Equal(t, "access-2", link.AccessToken)

	found, err := ts.GetMusicLink(ctx, &store.FindMusicLink{UserID: user.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "access-2", found.AccessToken)

	require.NoError(t, ts.DeleteMusicLink(ctx, &store.DeleteMusicLink{UserID: user.ID}))
	found, err = ts.GetMusicLink(ctx, &store.FindMusicLink{UserID: user.ID})
	require.NoError(t, err)
	require.Nil(t, found)
}
