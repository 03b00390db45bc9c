package companion

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable message in a session transcript.
type Turn struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Text         string    `json:"text"`
	ImageDataURI string    `json:"imageDataUri,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WindowTurn is one transcript entry as forwarded to the turn responder.
// Only author and text cross the wire; images are forwarded for the new
// message alone.
type WindowTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ProfileContext carries the profile fields the responder conditions on.
type ProfileContext struct {
	DisplayName       string   `json:"displayName"`
	Bio               string   `json:"bio"`
	RelationshipStage string   `json:"relationshipStage"`
	Memories          []string `json:"memories"`
}

// TurnRequest is the per-call contract from the session manager to the turn
// responder. It is constructed fresh for every call.
type TurnRequest struct {
	Persona      PersonaID      `json:"personaId"`
	Message      string         `json:"message"`
	ImageDataURI string         `json:"imageData,omitempty"`
	Window       []WindowTurn   `json:"transcriptWindow"`
	Profile      ProfileContext `json:"profileContext"`
}

// TurnResult is the normalized responder output. It is consumed immediately
// to update the transcript and profile, never stored as-is.
type TurnResult struct {
	Message                  string   `json:"message"`
	UpdatedMemories          []string `json:"updatedMemories"`
	UpdatedRelationshipStage string   `json:"updatedRelationshipStage"`
}

var (
	turnEntropyMu sync.Mutex
	turnEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// newTurnID returns a ULID. IDs issued within one process are strictly
// monotonic, which keeps transcript ordering stable even when two turns
// share a millisecond.
func newTurnID(at time.Time) string {
	turnEntropyMu.Lock()
	defer turnEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), turnEntropy).String()
}
