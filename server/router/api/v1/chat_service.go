package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/server/internal/observability"
	"github.com/auralabs/auraglow/server/service/companion"
	"github.com/auralabs/auraglow/store"
)

// CompanionResponse is one persona in the companion list.
type CompanionResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Location          string `json:"location"`
	Bio               string `json:"bio"`
	Emoji             string `json:"emoji"`
	RelationshipStage string `json:"relationshipStage"`
}

// ListCompanions returns the persona set with the caller's stage per
// persona.
// GET /api/v1/companions
func (s *APIV1Service) ListCompanions(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	userProfile, err := s.Store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile"))
	}

	companions := make([]CompanionResponse, 0, 2)
	for _, persona := range s.Personas.List() {
		stage := companion.StageStranger
		if userProfile != nil {
			switch persona.ID {
			case companion.PersonaRutwik:
				stage = userProfile.StageRutwik
			default:
				stage = userProfile.StageMira
			}
		}
		companions = append(companions, CompanionResponse{
			ID:                persona.ID.String(),
			Name:              persona.Name,
			Location:          persona.Location,
			Bio:               persona.Bio,
			Emoji:             persona.Emoji,
			RelationshipStage: stage,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"companions": companions})
}

// SessionResponse is the transcript view of one companion session.
type SessionResponse struct {
	Persona    string            `json:"persona"`
	Transcript []*companion.Turn `json:"transcript"`
	ChatPoints int32             `json:"chatPoints"`
}

// GetCompanionSession returns the session transcript, starting the session
// with the persona's greeting on first access.
// GET /api/v1/companion/:persona/session
func (s *APIV1Service) GetCompanionSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	personaID := companion.PersonaID(c.Param("persona"))

	session, err := s.Companion.GetSession(userID, personaID)
	if err != nil {
		return errorJSON(c, err)
	}
	if _, err := session.Start(ctx); err != nil {
		return errorJSON(c, err)
	}

	userProfile, err := s.Store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile"))
	}
	var chatPoints int32
	if userProfile != nil {
		chatPoints = userProfile.ChatPoints
	}

	return c.JSON(http.StatusOK, SessionResponse{
		Persona:    personaID.String(),
		Transcript: session.Transcript(),
		ChatPoints: chatPoints,
	})
}

// ResetCompanionSession discards the in-memory transcript so the next visit
// starts from the greeting again. Relationship stage and memories live in
// the profile and survive the reset.
// DELETE /api/v1/companion/:persona/session
func (s *APIV1Service) ResetCompanionSession(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	personaID := companion.PersonaID(c.Param("persona"))
	if _, ok := s.Personas.Get(personaID); !ok {
		return errorJSON(c, apperrors.InvalidInput(fmt.Sprintf("unknown persona: %s", personaID)))
	}

	s.Companion.DropSession(userID, personaID)
	return c.JSON(http.StatusOK, map[string]bool{"reset": true})
}

type TurnRequest struct {
	Message   string `json:"message"`
	ImageData string `json:"imageData"`
}

type TurnResponse struct {
	Message           string          `json:"message"`
	UserTurn          *companion.Turn `json:"userTurn"`
	AssistantTurn     *companion.Turn `json:"assistantTurn"`
	ChatPoints        int32           `json:"chatPoints"`
	RelationshipStage string          `json:"relationshipStage"`
	UpdatedMemories   []string        `json:"updatedMemories"`
}

// SendCompanionTurn runs one chat exchange with a persona.
// POST /api/v1/companion/:persona/turn
func (s *APIV1Service) SendCompanionTurn(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	personaID := companion.PersonaID(c.Param("persona"))

	if !s.turnLimiter.Allow(fmt.Sprintf("turn:%d", userID)) {
		return errorJSON(c, apperrors.RateLimited("too many turns, slow down a little"))
	}

	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperrors.InvalidInput("malformed request body"))
	}
	if req.ImageData != "" && !strings.HasPrefix(req.ImageData, "data:image/") {
		return errorJSON(c, apperrors.InvalidInput("imageData must be an image data URI"))
	}

	rc := observability.NewRequestContext(slog.Default(), personaID.String(), userID)
	ctx := observability.WithRequestContext(c.Request().Context(), rc)
	rc.Info("companion turn received",
		slog.Int(observability.LogFieldMessageLen, len(req.Message)),
		slog.Bool("has_image", req.ImageData != ""))

	session, err := s.Companion.GetSession(userID, personaID)
	if err != nil {
		return errorJSON(c, err)
	}
	if _, err := session.Start(ctx); err != nil {
		return errorJSON(c, err)
	}

	result, err := session.SendTurn(ctx, req.Message, req.ImageData)
	if err != nil {
		rc.Error("companion turn failed", err)
		return errorJSON(c, err)
	}
	rc.Info("companion turn completed", slog.Int64(observability.LogFieldDuration, rc.DurationMs()))

	return c.JSON(http.StatusOK, TurnResponse{
		Message:           result.AssistantTurn.Text,
		UserTurn:          result.UserTurn,
		AssistantTurn:     result.AssistantTurn,
		ChatPoints:        result.ChatPoints,
		RelationshipStage: result.RelationshipStage,
		UpdatedMemories:   result.Memories,
	})
}
