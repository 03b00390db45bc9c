package v1

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/auralabs/auraglow/server/auth"
	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/server/service/companion"
	"github.com/auralabs/auraglow/store"
)

const (
	defaultChatPoints int32 = 100
	defaultAuraGems   int32 = 50
	minPasswordLength       = 6
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string        `json:"accessToken"`
	User        *UserResponse `json:"user"`
}

// SignUp creates a user plus a profile seeded with the starter balances.
// POST /api/v1/auth/signup
func (s *APIV1Service) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.InvalidInput("malformed request body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errorJSON(c, apperrors.InvalidInput("a valid email address is required"))
	}
	if len(req.Password) < minPasswordLength {
		return errorJSON(c, apperrors.InvalidInput("password must be at least 6 characters"))
	}

	existing, err := s.Store.GetUser(ctx, &store.FindUser{Email: &req.Email})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to look up user"))
	}
	if existing != nil {
		return errorJSON(c, apperrors.InvalidInput("an account with this email already exists"))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password"))
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create user"))
	}

	userProfile, err := s.Store.CreateUserProfile(ctx, &store.UserProfile{
		UID:         shortuuid.New(),
		UserID:      user.ID,
		Name:        strings.TrimSpace(req.Name),
		ChatPoints:  defaultChatPoints,
		AuraGems:    defaultAuraGems,
		StageMira:   companion.StageStranger,
		StageRutwik: companion.StageStranger,
		Memories:    []string{},
	})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create user profile"))
	}

	token, err := auth.GenerateAccessToken(user.ID, user.Email, time.Now().Add(auth.AccessTokenDuration), []byte(s.Secret))
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to issue access token"))
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		AccessToken: token,
		User:        convertUserResponse(user, userProfile),
	})
}

// SignIn verifies credentials and issues an access token.
// POST /api/v1/auth/signin
func (s *APIV1Service) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.InvalidInput("malformed request body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.Store.GetUser(ctx, &store.FindUser{Email: &req.Email})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to look up user"))
	}
	if user == nil {
		return errorJSON(c, apperrors.Unauthorized("incorrect email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return errorJSON(c, apperrors.Unauthorized("incorrect email or password"))
	}

	userProfile, err := s.Store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &user.ID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile"))
	}

	token, err := auth.GenerateAccessToken(user.ID, user.Email, time.Now().Add(auth.AccessTokenDuration), []byte(s.Secret))
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to issue access token"))
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken: token,
		User:        convertUserResponse(user, userProfile),
	})
}
