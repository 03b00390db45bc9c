package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/auralabs/auraglow/plugin/gemini"
	apperrors "github.com/auralabs/auraglow/server/internal/errors"
)

// maxWindowTurns caps the transcript window forwarded to the provider.
const maxWindowTurns = 40

// resultSchema validates the structured output mode of the provider.
var resultSchema = jsonschema.MustCompileString("turn_result.json", `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "minLength": 1},
		"updatedMemories": {"type": "array", "items": {"type": "string"}},
		"updatedRelationshipStage": {"type": "string"}
	}
}`)

// Responder is the stateless server-resident half of the turn pipeline. It
// is the only component that talks to the generative provider.
type Responder struct {
	chat     gemini.ChatService
	personas *Registry
	timeout  time.Duration
}

// NewResponder creates a turn responder. chat may be nil when no provider
// credential is configured; Respond then fails with an unconfigured error.
func NewResponder(chat gemini.ChatService, personas *Registry, timeout time.Duration) *Responder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Responder{
		chat:     chat,
		personas: personas,
		timeout:  timeout,
	}
}

// Respond transforms one TurnRequest into a TurnResult. Callers receive
// either a well-formed result or a coded error, never a partial object; no
// transcript or profile mutation happens here.
func (r *Responder) Respond(ctx context.Context, req *TurnRequest) (*TurnResult, error) {
	persona, ok := r.personas.Get(req.Persona)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown persona: %s", req.Persona))
	}
	if strings.TrimSpace(req.Message) == "" && req.ImageDataURI == "" {
		return nil, apperrors.InvalidInput("message is required unless an image is attached")
	}
	if r.chat == nil {
		return nil, apperrors.Unconfigured("generative provider credential is not configured")
	}

	messages := r.buildMessages(persona, req)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.chat.Chat(callCtx, messages)
	if err != nil {
		return nil, apperrors.ProviderUnavailable("failed to get a response from the companion", err)
	}

	result, err := parseTurnResult(raw, req)
	if err != nil {
		slog.Warn("provider returned unparseable output",
			slog.String("persona", persona.ID.String()),
			slog.Int("raw_length", len(raw)),
			slog.String("error", err.Error()))
		return nil, err
	}
	return result, nil
}

func (r *Responder) buildMessages(persona Persona, req *TurnRequest) []gemini.Message {
	messages := []gemini.Message{gemini.SystemMessage(buildDirective(persona, req))}

	window := req.Window
	if len(window) > maxWindowTurns {
		window = window[len(window)-maxWindowTurns:]
	}
	for _, turn := range window {
		if turn.Role == RoleAssistant {
			messages = append(messages, gemini.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, gemini.UserMessage(turn.Text))
		}
	}

	text := req.Message
	if req.ImageDataURI != "" {
		text = strings.TrimSpace(text + " [User has sent a photo to show you]")
	}
	messages = append(messages, gemini.Message{
		Role:         "user",
		Content:      text,
		ImageDataURI: req.ImageDataURI,
	})
	return messages
}

// buildDirective embeds the persona, the user's profile context and the
// behavioral constraints into one system instruction.
func buildDirective(persona Persona, req *TurnRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are roleplaying as %s.\n", persona.Name)
	fmt.Fprintf(&b, "Your persona: %s Your personality is: %s\n", persona.Bio, persona.Personality)
	fmt.Fprintf(&b, "The user's name is %s.", displayNameOrDefault(req.Profile.DisplayName))
	if req.Profile.Bio != "" {
		fmt.Fprintf(&b, " Their bio: %s", req.Profile.Bio)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Your current relationship stage with them is: %s.\n", req.Profile.RelationshipStage)
	if len(req.Profile.Memories) > 0 {
		fmt.Fprintf(&b, "Things you remember about them: %s\n", strings.Join(req.Profile.Memories, "; "))
	}
	b.WriteString(`
YOUR RULES (VERY IMPORTANT):
1. BE HUMAN: Act like a real person, not an AI. Have feelings and personality. Never reveal that you are artificial.
2. NATURAL TEXTING: Keep replies short and conversational (1-2 sentences usually). Use emojis naturally, not excessively.
3. REMEMBER & BUILD: Use the user's profile and chat history to build a connection. Refer to past details.
4. PHOTO REACTIONS: If a photo is sent, react to it naturally like a friend would. Ask a question about it.
5. NO NARRATION: DO NOT describe your actions or feelings (e.g., "I smile," "I feel sleepy"). Just type the message you would send.
`)
	fmt.Fprintf(&b, `
Respond ONLY with a valid JSON object in this format:
{
  "message": "Your response as %s",
  "updatedMemories": ["list", "of", "memories"],
  "updatedRelationshipStage": "one of: %s"
}
`, persona.Name, strings.Join(Stages(), ", "))
	return b.String()
}

func displayNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return "friend"
	}
	return name
}

// parseTurnResult normalizes provider output. Two modes are supported:
// free text, which carries the request's memories and stage through
// unchanged, and a structured JSON object, which is schema-validated and
// used as-is. Anything else is a provider-output error.
func parseTurnResult(raw string, req *TurnRequest) (*TurnResult, error) {
	trimmed := stripCodeFence(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil, apperrors.ProviderOutputInvalid("provider returned an empty reply", nil)
	}

	if !strings.HasPrefix(trimmed, "{") {
		// Free-text mode.
		return &TurnResult{
			Message:                  trimmed,
			UpdatedMemories:          req.Profile.Memories,
			UpdatedRelationshipStage: req.Profile.RelationshipStage,
		}, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, apperrors.ProviderOutputInvalid("provider returned malformed JSON", err)
	}
	if err := resultSchema.Validate(decoded); err != nil {
		return nil, apperrors.ProviderOutputInvalid("provider result failed validation", err)
	}

	var structured TurnResult
	if err := json.Unmarshal([]byte(trimmed), &structured); err != nil {
		return nil, apperrors.ProviderOutputInvalid("provider returned malformed JSON", err)
	}

	if structured.UpdatedRelationshipStage == "" {
		structured.UpdatedRelationshipStage = req.Profile.RelationshipStage
	} else {
		resolved, ok := advanceStage(req.Profile.RelationshipStage, structured.UpdatedRelationshipStage)
		if !ok {
			return nil, apperrors.ProviderOutputInvalid(
				fmt.Sprintf("provider named an unknown relationship stage: %s", structured.UpdatedRelationshipStage), nil)
		}
		structured.UpdatedRelationshipStage = resolved
	}
	if structured.UpdatedMemories == nil {
		structured.UpdatedMemories = req.Profile.Memories
	}
	return &structured, nil
}

// stripCodeFence removes a ```json ... ``` (or bare ```) fence around the
// provider output.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
