package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiscogsClient(t *testing.T, handler http.HandlerFunc) *DiscogsClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewDiscogsClient("test-token", "vinyldex-test/1.0", 600)
	client.baseURL = server.URL
	return client
}

func TestDiscogsClient_Search(t *testing.T) {
	var gotAuth, gotUserAgent, gotQuery string
	client := newTestDiscogsClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"id": 2460171,
					"title": "Kraftwerk - Trans-Europe Express",
					"year": "1977",
					"country": "Germany",
					"label": ["Kling Klang", "EMI Electrola"],
					"genre": ["Electronic"],
					"style": ["Synth-pop"],
					"barcode": ["", "1C 064-82 306"],
					"catno": "1C 064-82 306",
					"cover_image": "https://img.discogs.com/cover.jpg",
					"uri": "/release/2460171"
				}
			]
		}`))
	})

	results, err := client.Search(context.Background(), "trans-europe express", "", "")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Discogs token=test-token", gotAuth)
	assert.Equal(t, "vinyldex-test/1.0", gotUserAgent)
	assert.Equal(t, "trans-europe express", gotQuery)

	meta := results[0]
	assert.Equal(t, "discogs", meta.Provider)
	assert.Equal(t, "2460171", meta.ProviderID)
	assert.Equal(t, "Kraftwerk", meta.Artist)
	assert.Equal(t, "Trans-Europe Express", meta.Album)
	assert.Equal(t, int32(1977), meta.Year)
	assert.Equal(t, "Kling Klang", meta.Label)
	assert.Equal(t, "1C 064-82 306", meta.Barcode)
	assert.Equal(t, []string{"Electronic"}, meta.Genres)
	assert.Equal(t, "https://www.discogs.com/release/2460171", meta.URL)
}

func TestDiscogsClient_SearchByBarcode(t *testing.T) {
	client := newTestDiscogsClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5099902987613", r.URL.Query().Get("barcode"))
		w.Write([]byte(`{"results": [{"id": 1, "title": "Kraftwerk - The Man-Machine"}]}`))
	})

	results, err := client.Search(context.Background(), "", "", "5099902987613")
	require.NoError(t, err)
	assert.Equal(t, "The Man-Machine", results[0].Album)
}

func TestDiscogsClient_SearchNoResults(t *testing.T) {
	client := newTestDiscogsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})

	_, err := client.Search(context.Background(), "does not exist", "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscogsClient_SearchEmpty(t *testing.T) {
	client := NewDiscogsClient("", "", 60)
	_, err := client.Search(context.Background(), "", "", "")
	assert.Error(t, err)
}

func TestDiscogsClient_Release(t *testing.T) {
	client := newTestDiscogsClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/releases/2460171", r.URL.Path)
		w.Write([]byte(`{
			"id": 2460171,
			"title": "Trans-Europe Express",
			"artists": [{"name": "Kraftwerk"}],
			"extraartists": [
				{"name": "Ralf Hütter", "role": "Electronics"},
				{"name": "Florian Schneider", "role": "Electronics"}
			],
			"year": 1977,
			"country": "Germany",
			"labels": [{"name": "Kling Klang", "catno": "1C 064-82 306"}],
			"genres": ["Electronic"],
			"styles": ["Synth-pop"],
			"images": [
				{"type": "secondary", "uri": "https://img.discogs.com/back.jpg"},
				{"type": "primary", "uri": "https://img.discogs.com/front.jpg"}
			],
			"identifiers": [{"type": "Barcode", "value": "1C 064-82 306"}],
			"uri": "/release/2460171"
		}`))
	})

	meta, err := client.Release(context.Background(), 2460171)
	require.NoError(t, err)

	assert.Equal(t, "Kraftwerk", meta.Artist)
	assert.Equal(t, "Trans-Europe Express", meta.Album)
	assert.Equal(t, int32(1977), meta.Year)
	assert.Equal(t, "Kling Klang", meta.Label)
	assert.Equal(t, "1C 064-82 306", meta.CatalogNumber)
	assert.Equal(t, []string{"Ralf Hütter", "Florian Schneider"}, meta.Musicians)
	assert.Equal(t, "https://img.discogs.com/front.jpg", meta.CoverURL)
}

func TestDiscogsClient_ReleaseNotFound(t *testing.T) {
	client := newTestDiscogsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Release(context.Background(), 99999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitDiscogsTitle(t *testing.T) {
	tests := []struct {
		title  string
		artist string
		album  string
	}{
		{"Kraftwerk - Trans-Europe Express", "Kraftwerk", "Trans-Europe Express"},
		{"Nick Cave & The Bad Seeds - Murder Ballads", "Nick Cave & The Bad Seeds", "Murder Ballads"},
		{"Untitled", "", "Untitled"},
	}

	for _, tt := range tests {
		artist, album := splitDiscogsTitle(tt.title)
		assert.Equal(t, tt.artist, artist)
		assert.Equal(t, tt.album, album)
	}
}
