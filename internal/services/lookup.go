package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vinyldex/internal/logging"
	"vinyldex/internal/metadata"
	"vinyldex/internal/metrics"
	"vinyldex/internal/models"
)

// ErrProviderUnavailable is returned when a provider is not configured
var ErrProviderUnavailable = errors.New("provider not configured")

// DiscogsProvider is the slice of the Discogs client the lookup service needs
type DiscogsProvider interface {
	Search(ctx context.Context, query, artist, barcode string) ([]metadata.RecordMetadata, error)
	Release(ctx context.Context, id int64) (*metadata.RecordMetadata, error)
}

// SpotifyProvider is the slice of the Spotify client the lookup service needs
type SpotifyProvider interface {
	SearchAlbums(ctx context.Context, query string) ([]metadata.RecordMetadata, error)
}

// LookupService answers metadata queries from the cache when it can and from
// the providers when it must. Every lookup is recorded as an event.
type LookupService struct {
	repo    *Repository
	discogs DiscogsProvider
	spotify SpotifyProvider
	cache   metadata.Cache
	logger  *logging.Logger
}

// NewLookupService creates a lookup service. Either provider may be nil when
// its credentials are not configured; lookups against it fail with
// ErrProviderUnavailable.
func NewLookupService(repo *Repository, discogs DiscogsProvider, spotify SpotifyProvider, cache metadata.Cache, logger *logging.Logger) *LookupService {
	if cache == nil {
		cache = metadata.NoopCache{}
	}
	return &LookupService{
		repo:    repo,
		discogs: discogs,
		spotify: spotify,
		cache:   cache,
		logger:  logger,
	}
}

// SearchDiscogs searches the Discogs release database
func (s *LookupService) SearchDiscogs(ctx context.Context, userID int64, query, artist, barcode string) ([]metadata.RecordMetadata, bool, error) {
	if s.discogs == nil {
		return nil, false, fmt.Errorf("%w: discogs", ErrProviderUnavailable)
	}

	cacheKey := metadata.CacheKey(models.ProviderDiscogs, "search", query+"|"+artist+"|"+barcode)
	eventQuery := firstNonEmpty(query, artist, barcode)

	return s.lookup(ctx, userID, models.ProviderDiscogs, cacheKey, eventQuery, func() ([]metadata.RecordMetadata, error) {
		return s.discogs.Search(ctx, query, artist, barcode)
	})
}

// DiscogsRelease fetches the full details of one Discogs release
func (s *LookupService) DiscogsRelease(ctx context.Context, userID, releaseID int64) (*metadata.RecordMetadata, error) {
	if s.discogs == nil {
		return nil, fmt.Errorf("%w: discogs", ErrProviderUnavailable)
	}

	cacheKey := metadata.CacheKey(models.ProviderDiscogs, "release", strconv.FormatInt(releaseID, 10))

	results, _, err := s.lookup(ctx, userID, models.ProviderDiscogs, cacheKey, strconv.FormatInt(releaseID, 10), func() ([]metadata.RecordMetadata, error) {
		release, err := s.discogs.Release(ctx, releaseID)
		if err != nil {
			return nil, err
		}
		return []metadata.RecordMetadata{*release}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, metadata.ErrNotFound
	}
	return &results[0], nil
}

// SearchSpotify searches the Spotify album catalog
func (s *LookupService) SearchSpotify(ctx context.Context, userID int64, query string) ([]metadata.RecordMetadata, bool, error) {
	if s.spotify == nil {
		return nil, false, fmt.Errorf("%w: spotify", ErrProviderUnavailable)
	}

	cacheKey := metadata.CacheKey(models.ProviderSpotify, "search", query)

	return s.lookup(ctx, userID, models.ProviderSpotify, cacheKey, query, func() ([]metadata.RecordMetadata, error) {
		return s.spotify.SearchAlbums(ctx, query)
	})
}

// lookup consults the cache, falls through to the provider, and records the
// event either way. A provider miss (ErrNotFound) is recorded with zero
// results but is still an error to the caller.
func (s *LookupService) lookup(ctx context.Context, userID int64, provider, cacheKey, query string, fetch func() ([]metadata.RecordMetadata, error)) ([]metadata.RecordMetadata, bool, error) {
	start := time.Now()

	if results, ok := s.cache.Get(ctx, cacheKey); ok {
		s.recordEvent(userID, provider, query, len(results), true, start)
		return results, true, nil
	}

	results, err := fetch()
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			s.recordEvent(userID, provider, query, 0, false, start)
		}
		return nil, false, err
	}

	s.cache.Set(ctx, cacheKey, results)
	s.recordEvent(userID, provider, query, len(results), false, start)
	return results, false, nil
}

func (s *LookupService) recordEvent(userID int64, provider, query string, resultCount int, cacheHit bool, start time.Time) {
	duration := time.Since(start)
	metrics.RecordLookup(provider, cacheHit, duration.Seconds())
	if s.logger != nil {
		s.logger.LogLookup(provider, query, resultCount, cacheHit, duration)
	}

	// Zero means the lookup ran outside a user session (background jobs)
	var eventUser *int64
	if userID != 0 {
		eventUser = &userID
	}

	event := &models.LookupEvent{
		UserID:       eventUser,
		Provider:     provider,
		Query:        query,
		ResultsCount: int32(resultCount),
		CacheHit:     cacheHit,
	}
	if err := s.repo.CreateLookupEvent(event); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Msg("Failed to record lookup event")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
