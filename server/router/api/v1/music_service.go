package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/store"
)

// GetMusicAuthURL returns the streaming-provider authorization URL.
// GET /api/v1/music/auth-url
func (s *APIV1Service) GetMusicAuthURL(c echo.Context) error {
	if s.Spotify == nil {
		return errorJSON(c, apperrors.Unconfigured("music integration is not configured"))
	}
	return c.JSON(http.StatusOK, map[string]string{"authUrl": s.Spotify.AuthURL()})
}

// MusicCallback finishes the authorization-code flow and persists the
// token pair.
// GET /api/v1/music/callback?code=...&state=...
func (s *APIV1Service) MusicCallback(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	if s.Spotify == nil {
		return errorJSON(c, apperrors.Unconfigured("music integration is not configured"))
	}
	if c.QueryParam("state") != s.Spotify.State() {
		return errorJSON(c, apperrors.InvalidInput("oauth state mismatch"))
	}
	code := c.QueryParam("code")
	if code == "" {
		return errorJSON(c, apperrors.InvalidInput("authorization code is required"))
	}

	token, err := s.Spotify.Exchange(ctx, code)
	if err != nil {
		return errorJSON(c, apperrors.ProviderUnavailable("failed to link music account", err))
	}
	if err := s.persistMusicToken(ctx, userID, token); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"linked": true})
}

// GetMusicStatus reports whether a music account is linked.
// GET /api/v1/music/status
func (s *APIV1Service) GetMusicStatus(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	link, err := s.Store.GetMusicLink(ctx, &store.FindMusicLink{UserID: userID})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load music link"))
	}
	return c.JSON(http.StatusOK, map[string]bool{
		"configured": s.Spotify != nil,
		"linked":     link != nil,
	})
}

// GetMusicTopTracks proxies the linked account's top tracks.
// GET /api/v1/music/top-tracks?range=medium_term
func (s *APIV1Service) GetMusicTopTracks(c echo.Context) error {
	ctx := c.Request().Context()
	userID, token, err := s.musicToken(c)
	if err != nil {
		return errorJSON(c, err)
	}

	tracks, fresh, err := s.Spotify.TopTracks(ctx, token, c.QueryParam("range"))
	s.refreshMusicToken(ctx, userID, token, fresh)
	if err != nil {
		return errorJSON(c, apperrors.ProviderUnavailable("failed to fetch top tracks", err))
	}
	return c.JSON(http.StatusOK, map[string]any{"tracks": tracks})
}

// GetMusicRecentlyPlayed proxies the linked account's listening history.
// GET /api/v1/music/recently-played
func (s *APIV1Service) GetMusicRecentlyPlayed(c echo.Context) error {
	ctx := c.Request().Context()
	userID, token, err := s.musicToken(c)
	if err != nil {
		return errorJSON(c, err)
	}

	tracks, fresh, err := s.Spotify.RecentlyPlayed(ctx, token)
	s.refreshMusicToken(ctx, userID, token, fresh)
	if err != nil {
		return errorJSON(c, apperrors.ProviderUnavailable("failed to fetch recently played", err))
	}
	return c.JSON(http.StatusOK, map[string]any{"tracks": tracks})
}

// SearchMusicTracks runs a track search against the linked catalog.
// GET /api/v1/music/search?q=...
func (s *APIV1Service) SearchMusicTracks(c echo.Context) error {
	ctx := c.Request().Context()
	userID, token, err := s.musicToken(c)
	if err != nil {
		return errorJSON(c, err)
	}
	query := c.QueryParam("q")
	if query == "" {
		return errorJSON(c, apperrors.InvalidInput("search query is required"))
	}

	tracks, fresh, err := s.Spotify.SearchTracks(ctx, token, query, 0)
	s.refreshMusicToken(ctx, userID, token, fresh)
	if err != nil {
		return errorJSON(c, apperrors.ProviderUnavailable("failed to search tracks", err))
	}
	return c.JSON(http.StatusOK, map[string]any{"tracks": tracks})
}

// GetMusicRecommendations maps the caller's latest aura reading to track
// recommendations.
// GET /api/v1/music/recommendations
func (s *APIV1Service) GetMusicRecommendations(c echo.Context) error {
	ctx := c.Request().Context()
	userID, token, err := s.musicToken(c)
	if err != nil {
		return errorJSON(c, err)
	}

	limit := 1
	readings, err := s.Store.ListAuraReadings(ctx, &store.FindAuraReading{
		UserID: &userID,
		Limit:  &limit,
	})
	if err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load aura readings"))
	}
	if len(readings) == 0 {
		return errorJSON(c, apperrors.InvalidInput("reveal an aura reading first"))
	}
	latest := readings[0]

	tracks, fresh, err := s.Spotify.AuraRecommendations(ctx, token, latest.Color, latest.Element, int(latest.Score))
	s.refreshMusicToken(ctx, userID, token, fresh)
	if err != nil {
		return errorJSON(c, apperrors.ProviderUnavailable("failed to fetch recommendations", err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tracks": tracks,
		"basedOn": map[string]any{
			"score":   latest.Score,
			"color":   latest.Color,
			"element": latest.Element,
		},
	})
}

// UnlinkMusic forgets the stored token pair.
// DELETE /api/v1/music/link
func (s *APIV1Service) UnlinkMusic(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUserID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	if err := s.Store.DeleteMusicLink(ctx, &store.DeleteMusicLink{UserID: userID}); err != nil {
		return errorJSON(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to unlink music account"))
	}
	return c.JSON(http.StatusOK, map[string]bool{"linked": false})
}

// musicToken loads the caller's stored token for an API call.
func (s *APIV1Service) musicToken(c echo.Context) (int32, *oauth2.Token, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return 0, nil, err
	}
	if s.Spotify == nil {
		return 0, nil, apperrors.Unconfigured("music integration is not configured")
	}

	link, err := s.Store.GetMusicLink(c.Request().Context(), &store.FindMusicLink{UserID: userID})
	if err != nil {
		return 0, nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load music link")
	}
	if link == nil {
		return 0, nil, apperrors.InvalidInput("no music account is linked")
	}
	return userID, &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Unix(link.Expiry, 0),
	}, nil
}

func (s *APIV1Service) persistMusicToken(ctx context.Context, userID int32, token *oauth2.Token) error {
	_, err := s.Store.UpsertMusicLink(ctx, &store.MusicLink{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry.Unix(),
		UpdatedTs:    time.Now().Unix(),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to store music link")
	}
	return nil
}

// refreshMusicToken persists a refreshed token so the next call does not
// redo the refresh. Best effort; a failed write only costs an extra refresh
// later.
func (s *APIV1Service) refreshMusicToken(ctx context.Context, userID int32, old, fresh *oauth2.Token) {
	if fresh == nil || old == nil || fresh.AccessToken == old.AccessToken {
		return
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = old.RefreshToken
	}
	if err := s.persistMusicToken(ctx, userID, fresh); err != nil {
		slog.Warn("failed to persist refreshed music token",
			slog.Int("user_id", int(userID)),
			slog.String("error", err.Error()))
	}
}
