package profile

import (
	"testing"
	"time"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"GeminiBaseURL default", "https://generativelanguage.googleapis.com/v1beta/openai", profile.GeminiBaseURL},
		{"GeminiModel default", "gemini-1.5-flash", profile.GeminiModel},
		{"SpotifyRedirectURL default", "http://127.0.0.1:8000/callback", profile.SpotifyRedirectURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.TurnTimeout != 30*time.Second {
		t.Errorf("TurnTimeout default: expected 30s, got %s", profile.TurnTimeout)
	}
}

func TestProfileFromEnv(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("AURAGLOW_GEMINI_API_KEY", "test-key")
	t.Setenv("AURAGLOW_GEMINI_MODEL", "gemini-1.5-pro")
	t.Setenv("AURAGLOW_TURN_TIMEOUT", "15s")
	t.Setenv("AURAGLOW_CACHE_REDIS_ADDR", "localhost:6379")

	profile := &Profile{}
	profile.FromEnv()

	if profile.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey: expected %q, got %q", "test-key", profile.GeminiAPIKey)
	}
	if profile.GeminiModel != "gemini-1.5-pro" {
		t.Errorf("GeminiModel: expected %q, got %q", "gemini-1.5-pro", profile.GeminiModel)
	}
	if profile.TurnTimeout != 15*time.Second {
		t.Errorf("TurnTimeout: expected 15s, got %s", profile.TurnTimeout)
	}
	if profile.CacheRedisAddr != "localhost:6379" {
		t.Errorf("CacheRedisAddr: expected %q, got %q", "localhost:6379", profile.CacheRedisAddr)
	}
	if !profile.IsCompanionEnabled() {
		t.Error("IsCompanionEnabled: expected true when API key is set")
	}
}

func TestIsMusicEnabled(t *testing.T) {
	profile := &Profile{SpotifyClientID: "id"}
	if profile.IsMusicEnabled() {
		t.Error("IsMusicEnabled: expected false without client secret")
	}
	profile.SpotifyClientSecret = "secret"
	if !profile.IsMusicEnabled() {
		t.Error("IsMusicEnabled: expected true with id and secret")
	}
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AURAGLOW_SECRET",
		"AURAGLOW_GEMINI_API_KEY",
		"AURAGLOW_GEMINI_BASE_URL",
		"AURAGLOW_GEMINI_MODEL",
		"AURAGLOW_TURN_TIMEOUT",
		"AURAGLOW_PERSONA_CONFIG",
		"AURAGLOW_SPOTIFY_CLIENT_ID",
		"AURAGLOW_SPOTIFY_CLIENT_SECRET",
		"AURAGLOW_SPOTIFY_REDIRECT_URL",
		"AURAGLOW_CACHE_REDIS_ADDR",
		"AURAGLOW_CACHE_REDIS_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}
