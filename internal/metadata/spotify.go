package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"vinyldex/internal/models"
)

const (
	spotifyTokenURL       = "https://accounts.spotify.com/api/token"
	defaultSpotifyBaseURL = "https://api.spotify.com/v1"
)

// SpotifyClient queries the Spotify catalog. It authenticates with the
// client-credentials flow, which covers catalog search without user consent.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyClient creates a Spotify client from application credentials. The
// underlying [clientcredentials.Config] client refreshes tokens as needed.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string) (*SpotifyClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing spotify client credentials")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	client := config.Client(ctx)
	client.Timeout = 15 * time.Second

	return &SpotifyClient{
		baseURL:    defaultSpotifyBaseURL,
		httpClient: client,
	}, nil
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Artists     []spotifyArtist `json:"artists"`
	ReleaseDate string         `json:"release_date"`
	TotalTracks int            `json:"total_tracks"`
	Images      []spotifyImage `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type spotifySearchResponse struct {
	Albums struct {
		Items []spotifyAlbum `json:"items"`
	} `json:"albums"`
}

// SearchAlbums searches the Spotify catalog for albums matching the query
func (s *SpotifyClient) SearchAlbums(ctx context.Context, query string) ([]RecordMetadata, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "album")
	params.Set("limit", "25")

	var response spotifySearchResponse
	if err := s.doRequest(ctx, "/search?"+params.Encode(), &response); err != nil {
		return nil, err
	}
	if len(response.Albums.Items) == 0 {
		return nil, ErrNotFound
	}

	results := make([]RecordMetadata, 0, len(response.Albums.Items))
	for _, album := range response.Albums.Items {
		results = append(results, fromSpotifyAlbum(album))
	}
	return results, nil
}

func (s *SpotifyClient) doRequest(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func fromSpotifyAlbum(album spotifyAlbum) RecordMetadata {
	meta := RecordMetadata{
		Provider:   models.ProviderSpotify,
		ProviderID: album.ID,
		URL:        album.ExternalURLs.Spotify,
		Album:      album.Name,
		Year:       yearFromReleaseDate(album.ReleaseDate),
	}

	artists := make([]string, 0, len(album.Artists))
	for _, a := range album.Artists {
		artists = append(artists, a.Name)
	}
	meta.Artist = strings.Join(artists, ", ")

	// The first image is the largest
	if len(album.Images) > 0 {
		meta.CoverURL = album.Images[0].URL
	}

	return meta
}

// yearFromReleaseDate extracts the year from Spotify's release_date, which
// may be "2006", "2006-01" or "2006-01-27" depending on precision
func yearFromReleaseDate(date string) int32 {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return int32(year)
}
