package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/auralabs/auraglow/internal/profile"
	"github.com/auralabs/auraglow/plugin/gemini"
	"github.com/auralabs/auraglow/server/middleware"
	"github.com/auralabs/auraglow/server/service/companion"
	"github.com/auralabs/auraglow/store"
	storetest "github.com/auralabs/auraglow/store/test"
)

// stubChat replays canned provider replies. A test can hold a reply back
// with block and observe the call starting via started.
type stubChat struct {
	reply   string
	err     error
	block   chan struct{}
	started chan struct{}
	calls   int
}

func (s *stubChat) Chat(ctx context.Context, messages []gemini.Message) (string, error) {
	s.calls++
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestAPI(t *testing.T, chat gemini.ChatService) (*APIV1Service, *echo.Echo) {
	t.Helper()
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	personas := companion.NewRegistry()
	responder := companion.NewResponder(chat, personas, time.Second)

	service := &APIV1Service{
		Secret:             "test-secret",
		Profile:            &profile.Profile{Mode: "demo", Data: t.TempDir()},
		Store:              st,
		Personas:           personas,
		thumbnailSemaphore: semaphore.NewWeighted(3),
		turnLimiter:        middleware.NewRateLimiter(time.Millisecond, 1000),
	}
	service.Companion = companion.NewManager(responder, st, personas, service.onStageChange)

	e := echo.New()
	service.Register(e)
	return service, e
}

func doJSON(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func signUpTestUser(t *testing.T, e *echo.Echo) (string, *UserResponse) {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequest{
		Email:    "sam@example.com",
		Password: "hunter22",
		Name:     "Sam",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken, resp.User
}

func TestSignUp(t *testing.T) {
	_, e := newTestAPI(t, &stubChat{})

	_, user := signUpTestUser(t, e)
	require.Equal(t, "sam@example.com", user.Email)
	require.EqualValues(t, 100, user.ChatPoints)
	require.EqualValues(t, 50, user.AuraGems)
	require.Equal(t, companion.StageStranger, user.StageMira)
	require.Equal(t, companion.StageStranger, user.StageRutwik)

	t.Run("duplicate email", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequest{
			Email:    "sam@example.com",
			Password: "hunter22",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequest{
			Email:    "not-an-email",
			Password: "hunter22",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequest{
			Email:    "other@example.com",
			Password: "abc",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignIn(t *testing.T) {
	_, e := newTestAPI(t, &stubChat{})
	signUpTestUser(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/signin", "", SignInRequest{
		Email:    "sam@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/auth/signin", "", SignInRequest{
			Email:    "sam@example.com",
			Password: "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/auth/signin", "", SignInRequest{
			Email:    "nobody@example.com",
			Password: "hunter22",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	_, e := newTestAPI(t, &stubChat{})
	token, _ := signUpTestUser(t, e)

	rec := doJSON(e, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/users/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateCurrentUser(t *testing.T) {
	_, e := newTestAPI(t, &stubChat{})
	token, _ := signUpTestUser(t, e)

	name := "Sammy"
	bio := "aura enthusiast"
	rec := doJSON(e, http.MethodPatch, "/api/v1/users/me", token, UpdateUserRequest{
		Name: &name,
		Bio:  &bio,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Sammy", resp.Name)
	require.Equal(t, "aura enthusiast", resp.Bio)
	require.EqualValues(t, 100, resp.ChatPoints)

	rec = doJSON(e, http.MethodPatch, "/api/v1/users/me", token, UpdateUserRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanionSessionAndTurn(t *testing.T) {
	chat := &stubChat{reply: `{"message": "hey! ✨", "updatedMemories": ["first chat"], "updatedRelationshipStage": "Acquaintance"}`}
	_, e := newTestAPI(t, chat)
	token, _ := signUpTestUser(t, e)

	rec := doJSON(e, http.MethodGet, "/api/v1/companion/mira/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Len(t, session.Transcript, 1)
	require.Contains(t, session.Transcript[0].Text, "Mira")
	require.EqualValues(t, 100, session.ChatPoints)

	rec = doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hi mira!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var turn TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	require.Equal(t, "hey! ✨", turn.Message)
	require.EqualValues(t, 99, turn.ChatPoints)
	require.Equal(t, companion.StageAcquaintance, turn.RelationshipStage)

	t.Run("unknown persona", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/companion/zoe/turn", token, TurnRequest{Message: "hi"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompanionTurnErrorMapping(t *testing.T) {
	t.Run("provider failure maps to 502", func(t *testing.T) {
		chat := &stubChat{err: errors.New("connection refused")}
		_, e := newTestAPI(t, chat)
		token, _ := signUpTestUser(t, e)

		rec := doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hi"})
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		require.Equal(t, "PROVIDER_UNAVAILABLE", errResp.Code)
	})

	t.Run("no provider maps to 500", func(t *testing.T) {
		_, e := newTestAPI(t, nil)
		token, _ := signUpTestUser(t, e)

		rec := doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hi"})
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		require.Equal(t, "UNCONFIGURED", errResp.Code)
	})

	t.Run("malformed output maps to 502", func(t *testing.T) {
		chat := &stubChat{reply: `{"message": ""}`}
		_, e := newTestAPI(t, chat)
		token, _ := signUpTestUser(t, e)

		rec := doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hi"})
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		require.Equal(t, "PROVIDER_OUTPUT_INVALID", errResp.Code)
	})
}

func TestCompanionTurnExhaustedBalance(t *testing.T) {
	chat := &stubChat{reply: "hello"}
	service, e := newTestAPI(t, chat)
	token, user := signUpTestUser(t, e)

	// Drain the balance.
	zero := int32(0)
	_, err := service.Store.UpdateUserProfile(context.Background(), &store.UpdateUserProfile{
		UserID:     user.ID,
		ChatPoints: &zero,
	})
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hi"})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Zero(t, chat.calls)
}

func TestShopPurchase(t *testing.T) {
	_, e := newTestAPI(t, &stubChat{})
	token, _ := signUpTestUser(t, e)

	rec := doJSON(e, http.MethodGet, "/api/v1/shop/items", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/shop/purchase", token, PurchaseRequest{ItemID: "chat_points_small"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 40, resp.AuraGems)
	require.EqualValues(t, 150, resp.ChatPoints)

	rec = doJSON(e, http.MethodPost, "/api/v1/shop/purchase", token, PurchaseRequest{ItemID: "aura_boost"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 20, resp.AuraGems)
	require.True(t, resp.AuraBoost)

	t.Run("insufficient gems", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/shop/purchase", token, PurchaseRequest{ItemID: "premium_features"})
		require.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/shop/purchase", token, PurchaseRequest{ItemID: "mystery_box"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompanionSessionReset(t *testing.T) {
	chat := &stubChat{reply: "hi again"}
	_, e := newTestAPI(t, chat)
	token, _ := signUpTestUser(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodDelete, "/api/v1/companion/mira/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The next visit starts over from the greeting alone.
	rec = doJSON(e, http.MethodGet, "/api/v1/companion/mira/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Len(t, session.Transcript, 1)

	t.Run("unknown persona", func(t *testing.T) {
		rec := doJSON(e, http.MethodDelete, "/api/v1/companion/zoe/session", token, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestShopPurchaseDuringTurnKept(t *testing.T) {
	chat := &stubChat{
		reply:   "back!",
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	_, e := newTestAPI(t, chat)
	token, _ := signUpTestUser(t, e)

	turnDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		turnDone <- doJSON(e, http.MethodPost, "/api/v1/companion/mira/turn", token, TurnRequest{Message: "hold on"})
	}()
	<-chat.started

	// The purchase commits while the turn is still waiting on the provider.
	rec := doJSON(e, http.MethodPost, "/api/v1/shop/purchase", token, PurchaseRequest{ItemID: "chat_points_small"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	close(chat.block)
	turnRec := <-turnDone
	require.Equal(t, http.StatusOK, turnRec.Code, turnRec.Body.String())

	// 100 + 50 - 1: the turn charge must not erase the purchased points.
	var turn TurnResponse
	require.NoError(t, json.Unmarshal(turnRec.Body.Bytes(), &turn))
	require.EqualValues(t, 149, turn.ChatPoints)

	rec = doJSON(e, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.EqualValues(t, 149, user.ChatPoints)
	require.EqualValues(t, 40, user.AuraGems)
}

func TestMusicUnconfigured(t *testing.T) {
	_, e := newTestAPI(t, &stubChat{})
	token, _ := signUpTestUser(t, e)

	rec := doJSON(e, http.MethodGet, "/api/v1/music/auth-url", token, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/music/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.False(t, status["configured"])
	require.False(t, status["linked"])
}
