package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
)

// userIDContextKey is where the auth middleware stashes the caller's id.
const userIDContextKey = "auraglow.user-id"

// ErrorResponse is the JSON error envelope for every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var codeToStatus = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeUnauthorized:          http.StatusUnauthorized,
	apperrors.ErrCodeInvalidInput:          http.StatusBadRequest,
	apperrors.ErrCodeUnconfigured:          http.StatusInternalServerError,
	apperrors.ErrCodeProviderUnavailable:   http.StatusBadGateway,
	apperrors.ErrCodeProviderOutputInvalid: http.StatusBadGateway,
	apperrors.ErrCodeResourceExhausted:     http.StatusPaymentRequired,
	apperrors.ErrCodeTurnInFlight:          http.StatusConflict,
	apperrors.ErrCodeRateLimited:           http.StatusTooManyRequests,
	apperrors.ErrCodeNotFound:              http.StatusNotFound,
	apperrors.ErrCodeInternal:              http.StatusInternalServerError,
}

// errorJSON renders a coded error as JSON with the mapped HTTP status.
// Errors without a code become opaque 500s.
func errorJSON(c echo.Context, err error) error {
	code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
	status, ok := codeToStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "an unexpected error occurred"
	if coded, isCoded := err.(*apperrors.CodedError); isCoded {
		message = coded.Message
	}
	return c.JSON(status, ErrorResponse{Code: string(code), Message: message})
}

// currentUserID returns the authenticated caller's id set by the auth
// middleware.
func currentUserID(c echo.Context) (int32, error) {
	userID, ok := c.Get(userIDContextKey).(int32)
	if !ok || userID == 0 {
		return 0, apperrors.Unauthorized("authentication required")
	}
	return userID, nil
}
