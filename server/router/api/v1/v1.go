package v1

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/auralabs/auraglow/internal/profile"
	"github.com/auralabs/auraglow/plugin/gemini"
	"github.com/auralabs/auraglow/plugin/spotify"
	"github.com/auralabs/auraglow/server/middleware"
	"github.com/auralabs/auraglow/server/service/companion"
	"github.com/auralabs/auraglow/store"
)

// APIV1Service carries the wired dependencies for every /api/v1 handler.
type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	Personas  *companion.Registry
	Companion *companion.Manager
	Spotify   *spotify.Client

	// thumbnailSemaphore limits concurrent selfie thumbnail generation to
	// prevent memory exhaustion.
	thumbnailSemaphore *semaphore.Weighted
	turnLimiter        *middleware.RateLimiter
}

// NewAPIV1Service wires the companion pipeline and the optional music
// integration from the server profile.
func NewAPIV1Service(secret string, serverProfile *profile.Profile, st *store.Store) (*APIV1Service, error) {
	personas := companion.NewRegistry()
	if serverProfile.PersonaConfigPath != "" {
		loaded, err := companion.NewRegistryFromFile(serverProfile.PersonaConfigPath)
		if err != nil {
			return nil, err
		}
		personas = loaded
	}

	var chatService gemini.ChatService
	if serverProfile.IsCompanionEnabled() {
		chat, err := gemini.NewChatService(&gemini.Config{
			BaseURL: serverProfile.GeminiBaseURL,
			APIKey:  serverProfile.GeminiAPIKey,
			Model:   serverProfile.GeminiModel,
		})
		if err != nil {
			return nil, err
		}
		chatService = chat
	} else {
		slog.Warn("no generative provider credential configured, companion turns will fail")
	}
	responder := companion.NewResponder(chatService, personas, serverProfile.TurnTimeout)

	service := &APIV1Service{
		Secret:             secret,
		Profile:            serverProfile,
		Store:              st,
		Personas:           personas,
		thumbnailSemaphore: semaphore.NewWeighted(3),
		turnLimiter:        middleware.NewRateLimiter(2*time.Second, 5),
	}
	service.Companion = companion.NewManager(responder, st, personas, service.onStageChange)

	if serverProfile.IsMusicEnabled() {
		service.Spotify = spotify.NewClient(spotify.Config{
			ClientID:     serverProfile.SpotifyClientID,
			ClientSecret: serverProfile.SpotifyClientSecret,
			RedirectURL:  serverProfile.SpotifyRedirectURL,
		})
	}
	return service, nil
}

func (s *APIV1Service) onStageChange(userID int32, persona companion.PersonaID, from, to string) {
	slog.Info("companion relationship stage changed",
		slog.Int("user_id", int(userID)),
		slog.String("persona", persona.String()),
		slog.String("from", from),
		slog.String("to", to))
}

// Register mounts every /api/v1 route on the echo server.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1")
	apiGroup.Use(echomw.CORS())

	// Public routes.
	apiGroup.POST("/auth/signup", s.SignUp)
	apiGroup.POST("/auth/signin", s.SignIn)

	// Authenticated routes.
	authedGroup := apiGroup.Group("", s.authMiddleware)
	authedGroup.GET("/users/me", s.GetCurrentUser)
	authedGroup.PATCH("/users/me", s.UpdateCurrentUser)

	authedGroup.GET("/companions", s.ListCompanions)
	authedGroup.GET("/companion/:persona/session", s.GetCompanionSession)
	authedGroup.DELETE("/companion/:persona/session", s.ResetCompanionSession)
	authedGroup.POST("/companion/:persona/turn", s.SendCompanionTurn)

	authedGroup.POST("/aura/reveal", s.RevealAura)
	authedGroup.GET("/aura/readings", s.ListAuraReadings)

	authedGroup.GET("/shop/items", s.ListShopItems)
	authedGroup.POST("/shop/purchase", s.PurchaseShopItem)

	authedGroup.GET("/music/auth-url", s.GetMusicAuthURL)
	authedGroup.GET("/music/callback", s.MusicCallback)
	authedGroup.GET("/music/status", s.GetMusicStatus)
	authedGroup.GET("/music/top-tracks", s.GetMusicTopTracks)
	authedGroup.GET("/music/recently-played", s.GetMusicRecentlyPlayed)
	authedGroup.GET("/music/search", s.SearchMusicTracks)
	authedGroup.GET("/music/recommendations", s.GetMusicRecommendations)
	authedGroup.DELETE("/music/link", s.UnlinkMusic)
}
