package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory (selfie uploads, sqlite database)
	Data string
	// DSN points to where auraglow stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the public url of this auraglow instance
	InstanceURL string
	// Secret signs access tokens. Required in prod.
	Secret string

	// Generative provider configuration
	GeminiAPIKey  string        // AURAGLOW_GEMINI_API_KEY
	GeminiBaseURL string        // AURAGLOW_GEMINI_BASE_URL (OpenAI-compatible endpoint)
	GeminiModel   string        // AURAGLOW_GEMINI_MODEL (default: gemini-1.5-flash)
	TurnTimeout   time.Duration // AURAGLOW_TURN_TIMEOUT (default: 30s)

	// PersonaConfigPath optionally overrides the built-in persona set
	// with definitions loaded from a YAML file.
	PersonaConfigPath string // AURAGLOW_PERSONA_CONFIG

	// Music streaming (Spotify) integration
	SpotifyClientID     string // AURAGLOW_SPOTIFY_CLIENT_ID
	SpotifyClientSecret string // AURAGLOW_SPOTIFY_CLIENT_SECRET
	SpotifyRedirectURL  string // AURAGLOW_SPOTIFY_REDIRECT_URL

	// Optional redis cache tier
	CacheRedisAddr     string // AURAGLOW_CACHE_REDIS_ADDR
	CacheRedisPassword string // AURAGLOW_CACHE_REDIS_PASSWORD
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsCompanionEnabled returns true if a generative provider credential is configured.
func (p *Profile) IsCompanionEnabled() bool {
	return p.GeminiAPIKey != ""
}

// IsMusicEnabled returns true if the music streaming integration is configured.
func (p *Profile) IsMusicEnabled() bool {
	return p.SpotifyClientID != "" && p.SpotifyClientSecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from AURAGLOW_* environment variables.
func (p *Profile) FromEnv() {
	p.Secret = getEnvOrDefault("AURAGLOW_SECRET", p.Secret)

	p.GeminiAPIKey = getEnvOrDefault("AURAGLOW_GEMINI_API_KEY", p.GeminiAPIKey)
	p.GeminiBaseURL = getEnvOrDefault("AURAGLOW_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	p.GeminiModel = getEnvOrDefault("AURAGLOW_GEMINI_MODEL", "gemini-1.5-flash")
	if v := os.Getenv("AURAGLOW_TURN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			p.TurnTimeout = d
		}
	}
	if p.TurnTimeout == 0 {
		p.TurnTimeout = 30 * time.Second
	}

	p.PersonaConfigPath = getEnvOrDefault("AURAGLOW_PERSONA_CONFIG", p.PersonaConfigPath)

	p.SpotifyClientID = getEnvOrDefault("AURAGLOW_SPOTIFY_CLIENT_ID", p.SpotifyClientID)
	p.SpotifyClientSecret = getEnvOrDefault("AURAGLOW_SPOTIFY_CLIENT_SECRET", p.SpotifyClientSecret)
	p.SpotifyRedirectURL = getEnvOrDefault("AURAGLOW_SPOTIFY_REDIRECT_URL", "http://127.0.0.1:8000/callback")

	p.CacheRedisAddr = getEnvOrDefault("AURAGLOW_CACHE_REDIS_ADDR", p.CacheRedisAddr)
	p.CacheRedisPassword = getEnvOrDefault("AURAGLOW_CACHE_REDIS_PASSWORD", p.CacheRedisPassword)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/auraglow"
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("auraglow_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Mode == "prod" && p.Secret == "" {
		return errors.New("AURAGLOW_SECRET is required in prod mode")
	}

	return nil
}
