package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://127.0.0.1:8000/callback",
	})
	client.baseURL = server.URL
	return client
}

func validToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: "test-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
}

func TestAuthURL(t *testing.T) {
	client := NewClient(Config{ClientID: "client-id", RedirectURL: "http://127.0.0.1:8000/callback"})

	parsed, err := url.Parse(client.AuthURL())
	require.NoError(t, err)
	require.Equal(t, "accounts.spotify.com", parsed.Host)

	query := parsed.Query()
	require.Equal(t, "client-id", query.Get("client_id"))
	require.Equal(t, "aura-ai-auth", query.Get("state"))
	require.Equal(t, "code", query.Get("response_type"))
	require.Contains(t, query.Get("scope"), "user-top-read")
}

func TestTopTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/top/tracks", r.URL.Path)
		require.Equal(t, "medium_term", r.URL.Query().Get("time_range"))
		require.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items": [{
			"id": "t1",
			"name": "Song One",
			"artists": [{"name": "Artist A"}],
			"album": {"name": "Album X", "images": [{"url": "https://img/1"}]},
			"preview_url": "https://preview/1",
			"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
		}]}`))
	})

	tracks, fresh, err := client.TopTracks(context.Background(), validToken(), "")
	require.NoError(t, err)
	require.NotNil(t, fresh)
	require.Len(t, tracks, 1)
	require.Equal(t, Track{
		ID:          "t1",
		Name:        "Song One",
		Artist:      "Artist A",
		Album:       "Album X",
		PreviewURL:  "https://preview/1",
		ExternalURL: "https://open.spotify.com/track/t1",
		ImageURL:    "https://img/1",
	}, tracks[0])
}

func TestTopTracksInvalidRange(t *testing.T) {
	client := NewClient(Config{ClientID: "client-id"})
	_, _, err := client.TopTracks(context.Background(), validToken(), "all_time")
	require.Error(t, err)
}

func TestRecentlyPlayed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/player/recently-played", r.URL.Path)
		_, _ = w.Write([]byte(`{"items": [{"track": {"id": "t2", "name": "Song Two", "artists": [{"name": "Artist B"}], "album": {"name": "Album Y"}}}]}`))
	})

	tracks, _, err := client.RecentlyPlayed(context.Background(), validToken())
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, "Song Two", tracks[0].Name)
	require.Equal(t, "Artist B", tracks[0].Artist)
}

func TestSearchTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "lo-fi beats", r.URL.Query().Get("q"))
		require.Equal(t, "track", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"tracks": {"items": [{"id": "t3", "name": "Song Three", "artists": [{"name": "Artist C"}], "album": {}}]}}`))
	})

	tracks, _, err := client.SearchTracks(context.Background(), validToken(), "lo-fi beats", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	_, _, err = client.SearchTracks(context.Background(), validToken(), "   ", 5)
	require.Error(t, err)
}

func TestAuraRecommendations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/recommendations", r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, "rock,electronic,latin", query.Get("seed_genres"))
		require.NotEmpty(t, query.Get("target_valence"))
		require.NotEmpty(t, query.Get("target_energy"))
		_, _ = w.Write([]byte(`{"tracks": [{"id": "t4", "name": "Song Four", "artists": [{"name": "Artist D"}], "album": {}}]}`))
	})

	tracks, _, err := client.AuraRecommendations(context.Background(), validToken(), "Gold", "Fire", 88)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, "Song Four", tracks[0].Name)
}

func TestAPIGetErrors(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		client := NewClient(Config{ClientID: "client-id"})
		_, _, err := client.RecentlyPlayed(context.Background(), &oauth2.Token{})
		require.Error(t, err)
	})

	t.Run("non-200 response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
		})
		_, _, err := client.RecentlyPlayed(context.Background(), validToken())
		require.Error(t, err)
		require.Contains(t, err.Error(), "429")
	})
}
