package v1

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/auralabs/auraglow/server/auth"
	apperrors "github.com/auralabs/auraglow/server/internal/errors"
)

// authMiddleware verifies the bearer token and stashes the caller's id in
// the request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			return errorJSON(c, apperrors.Unauthorized("access token not found"))
		}

		userID, err := auth.Authenticate(token, []byte(s.Secret))
		if err != nil {
			return errorJSON(c, apperrors.Unauthorized("invalid or expired access token"))
		}

		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
