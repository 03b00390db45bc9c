package companion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/auralabs/auraglow/server/internal/errors"
	"github.com/auralabs/auraglow/store"
)

// windowSize is how many recent turns are forwarded to the responder as
// conversational context.
const windowSize = 20

// StageNotifier is invoked after a committed turn raised the relationship
// stage. It runs outside the session lock.
type StageNotifier func(userID int32, persona PersonaID, from, to string)

// SendTurnResponse carries the committed turns plus the profile fields the
// turn changed, so handlers do not need a second profile read.
type SendTurnResponse struct {
	UserTurn          *Turn    `json:"userTurn"`
	AssistantTurn     *Turn    `json:"assistantTurn"`
	ChatPoints        int32    `json:"chatPoints"`
	RelationshipStage string   `json:"relationshipStage"`
	Memories          []string `json:"memories"`
}

// Session owns one user's transcript with one persona. The transcript only
// ever grows by committed turn pairs; a failed exchange leaves it and the
// user's balance untouched.
type Session struct {
	userID  int32
	persona Persona

	responder *Responder
	store     *store.Store
	notifier  StageNotifier

	mu         sync.Mutex
	inFlight   bool
	transcript []*Turn
}

// Start seeds the transcript with the persona's greeting. It is idempotent;
// calling it on a non-empty session is a no-op.
func (s *Session) Start(ctx context.Context) (*Turn, error) {
	profile, err := s.loadProfile(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transcript) > 0 {
		return s.transcript[0], nil
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "beautiful"
	}
	now := time.Now()
	greeting := &Turn{
		ID:        newTurnID(now),
		Role:      RoleAssistant,
		Text:      fmt.Sprintf("Hello %s! ✨ I'm %s. How are you feeling today?", name, s.persona.Name),
		CreatedAt: now,
	}
	s.transcript = append(s.transcript, greeting)
	return greeting, nil
}

// SendTurn runs one full exchange: resource gate, provider call, profile
// patch, transcript commit. At most one exchange per session may be in
// flight; a concurrent call is rejected rather than queued.
func (s *Session) SendTurn(ctx context.Context, message, imageDataURI string) (*SendTurnResponse, error) {
	if strings.TrimSpace(message) == "" && imageDataURI == "" {
		return nil, apperrors.InvalidInput("message is required unless an image is attached")
	}

	profile, err := s.loadProfile(ctx)
	if err != nil {
		return nil, err
	}
	if profile.ChatPoints <= 0 {
		return nil, apperrors.ResourceExhausted("you are out of chat points")
	}

	window, err := s.begin()
	if err != nil {
		return nil, err
	}

	userTurn := &Turn{
		ID:           newTurnID(time.Now()),
		Role:         RoleUser,
		Text:         message,
		ImageDataURI: imageDataURI,
		CreatedAt:    time.Now(),
	}

	currentStage := s.stageFor(profile)
	result, err := s.responder.Respond(ctx, &TurnRequest{
		Persona:      s.persona.ID,
		Message:      message,
		ImageDataURI: imageDataURI,
		Window:       window,
		Profile: ProfileContext{
			DisplayName:       profile.Name,
			Bio:               profile.Bio,
			RelationshipStage: currentStage,
			Memories:          profile.Memories,
		},
	})
	if err != nil {
		s.abort()
		return nil, err
	}

	// Charged relative to the stored balance, not the pre-call read; a
	// purchase landing during the provider call must survive the patch.
	charge := int32(-1)
	update := &store.UpdateUserProfile{
		UserID:        s.userID,
		AddChatPoints: &charge,
	}
	stageChanged := result.UpdatedRelationshipStage != currentStage
	if stageChanged {
		s.setStage(update, result.UpdatedRelationshipStage)
	}
	if result.UpdatedMemories != nil {
		memories := result.UpdatedMemories
		update.Memories = &memories
	}
	updated, err := s.store.UpdateUserProfile(ctx, update)
	if err != nil {
		s.abort()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update user profile")
	}

	assistantTurn := &Turn{
		ID:        newTurnID(time.Now()),
		Role:      RoleAssistant,
		Text:      result.Message,
		CreatedAt: time.Now(),
	}
	s.commit(userTurn, assistantTurn)

	if stageChanged {
		slog.Info("relationship stage advanced",
			slog.Int("user_id", int(s.userID)),
			slog.String("persona", s.persona.ID.String()),
			slog.String("from", currentStage),
			slog.String("to", result.UpdatedRelationshipStage))
		if s.notifier != nil {
			s.notifier(s.userID, s.persona.ID, currentStage, result.UpdatedRelationshipStage)
		}
	}

	return &SendTurnResponse{
		UserTurn:          userTurn,
		AssistantTurn:     assistantTurn,
		ChatPoints:        updated.ChatPoints,
		RelationshipStage: result.UpdatedRelationshipStage,
		Memories:          result.UpdatedMemories,
	}, nil
}

// Transcript returns a copy of the committed turns.
func (s *Session) Transcript() []*Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// begin claims the in-flight slot and snapshots the context window. The
// lock is not held across the provider call.
func (s *Session) begin() ([]WindowTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return nil, apperrors.TurnInFlight("a turn is already being processed for this session")
	}
	s.inFlight = true

	start := 0
	if len(s.transcript) > windowSize {
		start = len(s.transcript) - windowSize
	}
	window := make([]WindowTurn, 0, len(s.transcript)-start)
	for _, turn := range s.transcript[start:] {
		window = append(window, WindowTurn{Role: turn.Role, Text: turn.Text})
	}
	return window, nil
}

func (s *Session) abort() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Session) commit(turns ...*Turn) {
	s.mu.Lock()
	s.transcript = append(s.transcript, turns...)
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Session) loadProfile(ctx context.Context) (*store.UserProfile, error) {
	profile, err := s.store.GetUserProfile(ctx, &store.FindUserProfile{UserID: &s.userID})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user profile")
	}
	if profile == nil {
		return nil, apperrors.NotFound("user profile not found")
	}
	return profile, nil
}

func (s *Session) stageFor(profile *store.UserProfile) string {
	switch s.persona.ID {
	case PersonaRutwik:
		return profile.StageRutwik
	default:
		return profile.StageMira
	}
}

func (s *Session) setStage(update *store.UpdateUserProfile, stage string) {
	switch s.persona.ID {
	case PersonaRutwik:
		update.StageRutwik = &stage
	default:
		update.StageMira = &stage
	}
}

type sessionKey struct {
	userID  int32
	persona PersonaID
}

// Manager hands out sessions keyed by user and persona. Sessions live for
// the process lifetime; the durable state a turn produces is in the store.
type Manager struct {
	responder *Responder
	store     *store.Store
	personas  *Registry
	notifier  StageNotifier

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

func NewManager(responder *Responder, st *store.Store, personas *Registry, notifier StageNotifier) *Manager {
	return &Manager{
		responder: responder,
		store:     st,
		personas:  personas,
		notifier:  notifier,
		sessions:  make(map[sessionKey]*Session),
	}
}

// GetSession returns the session for the given user and persona, creating
// it on first use. Unknown personas are rejected.
func (m *Manager) GetSession(userID int32, personaID PersonaID) (*Session, error) {
	persona, ok := m.personas.Get(personaID)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown persona: %s", personaID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{userID: userID, persona: personaID}
	if session, ok := m.sessions[key]; ok {
		return session, nil
	}
	session := &Session{
		userID:    userID,
		persona:   persona,
		responder: m.responder,
		store:     m.store,
		notifier:  m.notifier,
	}
	m.sessions[key] = session
	return session, nil
}

// DropSession discards the in-memory transcript for a user/persona pair.
func (m *Manager) DropSession(userID int32, personaID PersonaID) {
	m.mu.Lock()
	delete(m.sessions, sessionKey{userID: userID, persona: personaID})
	m.mu.Unlock()
}
