// Metadata lookup clients for external record databases.
//
// Discogs API reference: https://www.discogs.com/developers
// Spotify API reference: https://developer.spotify.com/documentation/web-api/reference/
package metadata

import (
	"errors"
)

// ErrNotFound is returned when a provider has no match for the query
var ErrNotFound = errors.New("no results found")

// RecordMetadata is the provider-independent shape of a lookup result. Fields
// a provider cannot fill are left zero.
type RecordMetadata struct {
	Provider      string   `json:"provider"`
	ProviderID    string   `json:"provider_id"`
	URL           string   `json:"url"`
	Artist        string   `json:"artist"`
	Album         string   `json:"album"`
	Year          int32    `json:"year,omitempty"`
	Label         string   `json:"label,omitempty"`
	CatalogNumber string   `json:"catalog_number,omitempty"`
	Country       string   `json:"country,omitempty"`
	Barcode       string   `json:"barcode,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Styles        []string `json:"styles,omitempty"`
	Musicians     []string `json:"musicians,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
}
