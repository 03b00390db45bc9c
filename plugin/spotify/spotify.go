// Package spotify is a thin client for the Spotify Web API using the
// authorization-code flow. The client holds no token state: every call
// takes the caller's current token and returns the possibly refreshed one,
// and the caller is responsible for persisting it.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	authURL      = "https://accounts.spotify.com/authorize"
	tokenURL     = "https://accounts.spotify.com/api/token"
	apiBaseURL   = "https://api.spotify.com/v1"
	oauthState   = "aura-ai-auth"
	trackLimit   = 20
	searchLimit  = 10
	marketRegion = "US"
)

var scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
	"playlist-read-private",
	"user-library-read",
}

// Config carries the application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Client wraps the authorization-code flow and the catalog endpoints.
type Client struct {
	conf    *oauth2.Config
	baseURL string
}

func NewClient(cfg Config) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL: apiBaseURL,
	}
}

// AuthURL returns the authorization URL the user is redirected to.
func (c *Client) AuthURL() string {
	return c.conf.AuthCodeURL(oauthState)
}

// State returns the expected OAuth state parameter.
func (c *Client) State() string {
	return oauthState
}

// Exchange trades an authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	return token, nil
}

// Track is the catalog shape returned to API consumers.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// User is the linked account's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// CurrentUser fetches the linked account's profile.
func (c *Client) CurrentUser(ctx context.Context, token *oauth2.Token) (*User, *oauth2.Token, error) {
	var payload struct {
		ID          string  `json:"id"`
		DisplayName string  `json:"display_name"`
		Email       string  `json:"email"`
		Images      []image `json:"images"`
	}
	fresh, err := c.apiGet(ctx, token, "/me", &payload)
	if err != nil {
		return nil, fresh, err
	}
	return &User{
		ID:          payload.ID,
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
		ImageURL:    firstImageURL(payload.Images),
	}, fresh, nil
}

// TopTracks fetches the user's top tracks. timeRange is one of short_term,
// medium_term, long_term; empty defaults to medium_term.
func (c *Client) TopTracks(ctx context.Context, token *oauth2.Token, timeRange string) ([]Track, *oauth2.Token, error) {
	switch timeRange {
	case "short_term", "medium_term", "long_term":
	case "":
		timeRange = "medium_term"
	default:
		return nil, token, errors.Errorf("invalid time range: %s", timeRange)
	}

	var payload struct {
		Items []trackObject `json:"items"`
	}
	path := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", trackLimit, timeRange)
	fresh, err := c.apiGet(ctx, token, path, &payload)
	if err != nil {
		return nil, fresh, err
	}

	tracks := make([]Track, 0, len(payload.Items))
	for _, item := range payload.Items {
		tracks = append(tracks, item.toTrack())
	}
	return tracks, fresh, nil
}

// RecentlyPlayed fetches the user's listening history.
func (c *Client) RecentlyPlayed(ctx context.Context, token *oauth2.Token) ([]Track, *oauth2.Token, error) {
	var payload struct {
		Items []struct {
			Track trackObject `json:"track"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/me/player/recently-played?limit=%d", trackLimit)
	fresh, err := c.apiGet(ctx, token, path, &payload)
	if err != nil {
		return nil, fresh, err
	}

	tracks := make([]Track, 0, len(payload.Items))
	for _, item := range payload.Items {
		tracks = append(tracks, item.Track.toTrack())
	}
	return tracks, fresh, nil
}

// SearchTracks runs a track search against the catalog.
func (c *Client) SearchTracks(ctx context.Context, token *oauth2.Token, query string, limit int) ([]Track, *oauth2.Token, error) {
	if strings.TrimSpace(query) == "" {
		return nil, token, errors.New("search query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = searchLimit
	}

	var payload struct {
		Tracks struct {
			Items []trackObject `json:"items"`
		} `json:"tracks"`
	}
	path := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)
	fresh, err := c.apiGet(ctx, token, path, &payload)
	if err != nil {
		return nil, fresh, err
	}

	tracks := make([]Track, 0, len(payload.Tracks.Items))
	for _, item := range payload.Tracks.Items {
		tracks = append(tracks, item.toTrack())
	}
	return tracks, fresh, nil
}

// AuraRecommendations maps an aura reading to audio-feature targets and
// fetches matching tracks.
func (c *Client) AuraRecommendations(ctx context.Context, token *oauth2.Token, color, element string, score int) ([]Track, *oauth2.Token, error) {
	features := MapAuraToAudioFeatures(color, element, score)

	params := url.Values{}
	params.Set("limit", "10")
	params.Set("market", marketRegion)
	params.Set("seed_genres", strings.Join(features.Genres, ","))
	params.Set("target_valence", formatFeature(features.Valence))
	params.Set("target_energy", formatFeature(features.Energy))
	params.Set("target_danceability", formatFeature(features.Danceability))

	var payload struct {
		Tracks []trackObject `json:"tracks"`
	}
	fresh, err := c.apiGet(ctx, token, "/recommendations?"+params.Encode(), &payload)
	if err != nil {
		return nil, fresh, err
	}

	tracks := make([]Track, 0, len(payload.Tracks))
	for _, item := range payload.Tracks {
		tracks = append(tracks, item.toTrack())
	}
	return tracks, fresh, nil
}

// apiGet performs an authenticated GET. The oauth2 token source refreshes
// an expired token transparently; the refreshed token is returned so the
// caller can persist it.
func (c *Client) apiGet(ctx context.Context, token *oauth2.Token, path string, into any) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" && token.AccessToken == "" {
		return token, errors.New("no music account is linked")
	}

	source := c.conf.TokenSource(ctx, token)
	fresh, err := source.Token()
	if err != nil {
		return token, errors.Wrap(err, "failed to refresh access token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fresh, errors.Wrap(err, "failed to build request")
	}
	fresh.SetAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fresh, errors.Wrap(err, "music API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fresh, errors.Errorf("music API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fresh, errors.Wrap(err, "failed to decode music API response")
	}
	return fresh, nil
}

type image struct {
	URL string `json:"url"`
}

type trackObject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string  `json:"name"`
		Images []image `json:"images"`
	} `json:"album"`
	PreviewURL   string `json:"preview_url"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (t trackObject) toTrack() Track {
	track := Track{
		ID:          t.ID,
		Name:        t.Name,
		Album:       t.Album.Name,
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs.Spotify,
		ImageURL:    firstImageURL(t.Album.Images),
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

func firstImageURL(images []image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func formatFeature(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
