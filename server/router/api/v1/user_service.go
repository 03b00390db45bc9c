package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/store"
)

// UserResponse is the public shape of a user and their profile.
type UserResponse struct {
	ID            int32    `json:"id"`
	UID           string   `json:"uid"`
	Email         string   `json:"email,omitempty"`
	Name          string   `json:"name"`
	Bio           string   `json:"bio"`
	Gender        string   `json:"gender"`
	AvatarURL     string   `json:"avatarUrl"`
	ChatPoints    int32    `json:"chatPoints"`
	AuraGems      int32    `json:"auraGems"`
	StageMira     string   `json:"stageMira"`
	StageRutwik   string   `json:"stageRutwik"`
	Memories      []string `json:"memories"`
	CurrentStreak int32    `json:"currentStreak"`
	TotalDuelWins int32    `json:"totalDuelWins"`
	Achievements  []string `json:"achievements"`
	AuraBoost     bool     `json:"auraBoost"`
	LastAuraTs    int64    `json:"lastAuraTs"`
}

func convertUserResponse(user *store.User, userProfile *store.UserProfile) *UserResponse {
	resp := &UserResponse{}
	if user != nil {
		resp.ID = user.ID
		resp.Email = user.Email
	}
	if userProfile != nil {
		resp.ID = userProfile.UserID
		resp.UID = userProfile.UID
		resp.Name = userProfile.Name
		resp.Bio = userProfile.Bio
		resp.Gender = userProfile.Gender
		resp.AvatarURL = userProfile.AvatarURL
		resp.ChatPoints = userProfile.ChatPoints
		resp.AuraGems = userProfile.AuraGems
		resp.StageMira = userProfile.StageMira
		resp.StageRutwik = userProfile.StageRutwik
		resp.Memories = userProfile.Memories
		resp.CurrentStreak = userProfile.CurrentStreak
		resp.TotalDuelWins = userProfile.TotalDuelWins
		resp.Achievements = userProfile.Achievements
		resp.AuraBoost = userProfile.AuraBoost
		resp.LastAuraTs = userProfile.LastAuraTs
	}
	if resp.Memories == nil {
		resp.Memories = []string{}
	}
	if resp.Achievements == nil {
		resp.Achievements = []string{}
	}
	return resp
}

// GetCurrentUser returns the caller's user and profile.
// GET /api/v1/users/me
func (s *APIV1Service) GetCurrentUser(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user"))
	}
	if user == nil {
		return errorJSON(c, apperrors.NotFound("user not found"))
	}
	userProfile, err := s.Store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile"))
	}

	return c.JSON(http.StatusOK, convertUserResponse(user, userProfile))
}

// UpdateUserRequest is a field-scoped patch. Absent fields are untouched;
// balances and stages are never writable through this endpoint.
type UpdateUserRequest struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	Gender    *string `json:"gender"`
	AvatarURL *string `json:"avatarUrl"`
}

// UpdateCurrentUser applies a partial update to the caller's profile.
// PATCH /api/v1/users/me
func (s *APIV1Service) UpdateCurrentUser(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.InvalidInput("malformed request body"))
	}
	if req.Name == nil && req.Bio == nil && req.Gender == nil && req.AvatarURL == nil {
		return errorJSON(c, apperrors.InvalidInput("no updatable fields provided"))
	}

	now := time.Now().Unix()
	userProfile, err := s.Store.UpdateUserProfile(ctx, &store.UpdateUserProfile{
		UserID:    userID,
		Name:      req.Name,
		Bio:       req.Bio,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
		UpdatedTs: &now,
	})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update user profile"))
	}

	return c.JSON(http.StatusOK, convertUserResponse(nil, userProfile))
}
