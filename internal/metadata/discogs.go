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

	"golang.org/x/time/rate"

	"vinyldex/internal/models"
)

const defaultDiscogsBaseURL = "https://api.discogs.com"

// DiscogsClient queries the Discogs database API. Requests are throttled to
// stay inside the per-token quota Discogs enforces.
type DiscogsClient struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDiscogsClient creates a Discogs client. requestsPerMinute caps the
// outbound request rate; Discogs allows 60 per minute for authenticated
// clients.
func NewDiscogsClient(token, userAgent string, requestsPerMinute int) *DiscogsClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if userAgent == "" {
		userAgent = "vinyldex/1.0"
	}

	return &DiscogsClient{
		baseURL:    defaultDiscogsBaseURL,
		token:      token,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

type discogsSearchResult struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Country    string   `json:"country"`
	Label      []string `json:"label"`
	Genre      []string `json:"genre"`
	Style      []string `json:"style"`
	Barcode    []string `json:"barcode"`
	CatNo      string   `json:"catno"`
	CoverImage string   `json:"cover_image"`
	URI        string   `json:"uri"`
}

type discogsSearchResponse struct {
	Results []discogsSearchResult `json:"results"`
}

type discogsArtist struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type discogsLabel struct {
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

type discogsImage struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type discogsIdentifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type discogsRelease struct {
	ID           int64               `json:"id"`
	Title        string              `json:"title"`
	Artists      []discogsArtist     `json:"artists"`
	ExtraArtists []discogsArtist     `json:"extraartists"`
	Year         int32               `json:"year"`
	Country      string              `json:"country"`
	Labels       []discogsLabel      `json:"labels"`
	Genres       []string            `json:"genres"`
	Styles       []string            `json:"styles"`
	Images       []discogsImage      `json:"images"`
	Identifiers  []discogsIdentifier `json:"identifiers"`
	URI          string              `json:"uri"`
}

// Search queries the Discogs release database. Any of the parameters may be
// empty; at least one must be set.
func (d *DiscogsClient) Search(ctx context.Context, query, artist, barcode string) ([]RecordMetadata, error) {
	if query == "" && artist == "" && barcode == "" {
		return nil, fmt.Errorf("empty search")
	}

	params := url.Values{}
	params.Set("type", "release")
	params.Set("format", "Vinyl")
	params.Set("per_page", "25")
	if query != "" {
		params.Set("q", query)
	}
	if artist != "" {
		params.Set("artist", artist)
	}
	if barcode != "" {
		params.Set("barcode", barcode)
	}

	var response discogsSearchResponse
	if err := d.doRequest(ctx, "/database/search?"+params.Encode(), &response); err != nil {
		return nil, err
	}
	if len(response.Results) == 0 {
		return nil, ErrNotFound
	}

	results := make([]RecordMetadata, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, d.fromSearchResult(r))
	}
	return results, nil
}

// Release fetches the full details of a single release, including the
// credited musicians search results omit.
func (d *DiscogsClient) Release(ctx context.Context, id int64) (*RecordMetadata, error) {
	var release discogsRelease
	err := d.doRequest(ctx, fmt.Sprintf("/releases/%d", id), &release)
	if err != nil {
		return nil, err
	}

	result := d.fromRelease(release)
	return &result, nil
}

func (d *DiscogsClient) doRequest(ctx context.Context, path string, result interface{}) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	if d.token != "" {
		req.Header.Set("Authorization", "Discogs token="+d.token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discogs API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// fromSearchResult maps a search hit to the normalized shape. Discogs encodes
// search titles as "Artist - Album".
func (d *DiscogsClient) fromSearchResult(r discogsSearchResult) RecordMetadata {
	artist, album := splitDiscogsTitle(r.Title)

	var year int32
	if y, err := strconv.Atoi(r.Year); err == nil {
		year = int32(y)
	}

	meta := RecordMetadata{
		Provider:      models.ProviderDiscogs,
		ProviderID:    strconv.FormatInt(r.ID, 10),
		URL:           d.resourceURL(r.URI),
		Artist:        artist,
		Album:         album,
		Year:          year,
		Country:       r.Country,
		CatalogNumber: r.CatNo,
		Genres:        r.Genre,
		Styles:        r.Style,
		CoverURL:      r.CoverImage,
	}
	if len(r.Label) > 0 {
		meta.Label = r.Label[0]
	}
	for _, b := range r.Barcode {
		if b != "" {
			meta.Barcode = b
			break
		}
	}
	return meta
}

func (d *DiscogsClient) fromRelease(r discogsRelease) RecordMetadata {
	meta := RecordMetadata{
		Provider:   models.ProviderDiscogs,
		ProviderID: strconv.FormatInt(r.ID, 10),
		URL:        d.resourceURL(r.URI),
		Album:      r.Title,
		Year:       r.Year,
		Country:    r.Country,
		Genres:     r.Genres,
		Styles:     r.Styles,
	}

	artists := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		artists = append(artists, a.Name)
	}
	meta.Artist = strings.Join(artists, ", ")

	for _, a := range r.ExtraArtists {
		if a.Name != "" {
			meta.Musicians = append(meta.Musicians, a.Name)
		}
	}

	if len(r.Labels) > 0 {
		meta.Label = r.Labels[0].Name
		meta.CatalogNumber = r.Labels[0].CatNo
	}

	for _, img := range r.Images {
		if img.Type == "primary" {
			meta.CoverURL = img.URI
			break
		}
	}
	if meta.CoverURL == "" && len(r.Images) > 0 {
		meta.CoverURL = r.Images[0].URI
	}

	for _, ident := range r.Identifiers {
		if ident.Type == "Barcode" {
			meta.Barcode = ident.Value
			break
		}
	}

	return meta
}

// resourceURL turns the path Discogs returns into an absolute link
func (d *DiscogsClient) resourceURL(uri string) string {
	if uri == "" || strings.HasPrefix(uri, "http") {
		return uri
	}
	return "https://www.discogs.com" + uri
}

// splitDiscogsTitle splits the "Artist - Album" form used in search results
func splitDiscogsTitle(title string) (artist, album string) {
	parts := strings.SplitN(title, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "", strings.TrimSpace(title)
}
