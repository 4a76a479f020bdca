package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpotifyClient(t *testing.T, handler http.HandlerFunc) *SpotifyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &SpotifyClient{
		baseURL:    server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestSpotifyClient_SearchAlbums(t *testing.T) {
	client := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "kind of blue", r.URL.Query().Get("q"))
		assert.Equal(t, "album", r.URL.Query().Get("type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"albums": {
				"items": [
					{
						"id": "1weenld61qoidwYuZ1GESA",
						"name": "Kind Of Blue",
						"artists": [{"id": "0kbYTNQb4Pb1rPbbaF0pT4", "name": "Miles Davis"}],
						"release_date": "1959-08-17",
						"total_tracks": 5,
						"images": [
							{"url": "https://i.scdn.co/image/large.jpg", "height": 640, "width": 640},
							{"url": "https://i.scdn.co/image/small.jpg", "height": 64, "width": 64}
						],
						"external_urls": {"spotify": "https://open.spotify.com/album/1weenld61qoidwYuZ1GESA"}
					}
				]
			}
		}`))
	})

	results, err := client.SearchAlbums(context.Background(), "kind of blue")
	require.NoError(t, err)
	require.Len(t, results, 1)

	meta := results[0]
	assert.Equal(t, "spotify", meta.Provider)
	assert.Equal(t, "1weenld61qoidwYuZ1GESA", meta.ProviderID)
	assert.Equal(t, "Miles Davis", meta.Artist)
	assert.Equal(t, "Kind Of Blue", meta.Album)
	assert.Equal(t, int32(1959), meta.Year)
	assert.Equal(t, "https://i.scdn.co/image/large.jpg", meta.CoverURL)
	assert.Equal(t, "https://open.spotify.com/album/1weenld61qoidwYuZ1GESA", meta.URL)
}

func TestSpotifyClient_SearchNoResults(t *testing.T) {
	client := newTestSpotifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"albums": {"items": []}}`))
	})

	_, err := client.SearchAlbums(context.Background(), "nothing matches this")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSpotifyClient_MissingCredentials(t *testing.T) {
	_, err := NewSpotifyClient(context.Background(), "", "secret")
	assert.Error(t, err)

	_, err = NewSpotifyClient(context.Background(), "id", "")
	assert.Error(t, err)
}

func TestYearFromReleaseDate(t *testing.T) {
	assert.Equal(t, int32(2006), yearFromReleaseDate("2006-01-27"))
	assert.Equal(t, int32(2006), yearFromReleaseDate("2006-01"))
	assert.Equal(t, int32(2006), yearFromReleaseDate("2006"))
	assert.Equal(t, int32(0), yearFromReleaseDate(""))
	assert.Equal(t, int32(0), yearFromReleaseDate("n/a"))
}
