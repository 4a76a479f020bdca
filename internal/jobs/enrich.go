package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"vinyldex/internal/logging"
	"vinyldex/internal/metadata"
	"vinyldex/internal/metrics"
	"vinyldex/internal/models"
	"vinyldex/internal/services"
)

// Task types
const (
	TypeRecordEnrich = "record:enrich"
)

// Queue names and their worker priorities
const (
	QueueDefault = "default"
	QueueBulk    = "bulk"
)

// QueuePriorities is passed to the asynq server config
var QueuePriorities = map[string]int{
	QueueDefault: 6,
	QueueBulk:    1,
}

// RecordEnrichPayload identifies the record to enrich and the Discogs release
// to pull metadata from. ReleaseID zero means search by artist and album.
type RecordEnrichPayload struct {
	UserID    int64 `json:"user_id"`
	RecordID  int64 `json:"record_id"`
	ReleaseID int64 `json:"release_id,omitempty"`
}

// NewRecordEnrichTask builds the enrich task for a record
func NewRecordEnrichTask(userID, recordID, releaseID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(RecordEnrichPayload{
		UserID:    userID,
		RecordID:  recordID,
		ReleaseID: releaseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal enrich payload: %w", err)
	}
	return asynq.NewTask(TypeRecordEnrich, payload), nil
}

// Enqueuer wraps the asynq client for job submission from the API process
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an Enqueuer over a Redis connection
func NewEnqueuer(opt asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{
		client: asynq.NewClient(opt),
	}
}

// EnqueueRecordEnrich submits an enrich job. The task ID deduplicates repeat
// submissions for the same record while one is still pending.
func (e *Enqueuer) EnqueueRecordEnrich(userID, recordID, releaseID int64) error {
	task, err := NewRecordEnrichTask(userID, recordID, releaseID)
	if err != nil {
		return err
	}

	dedupKey := fmt.Sprintf("record.enrich:%d", recordID)
	_, err = e.client.Enqueue(task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(dedupKey),
		asynq.Timeout(2*time.Minute),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue record enrich: %w", err)
	}
	return nil
}

// Close releases the underlying client connection
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// Enricher fills empty record fields from provider metadata, Discogs first
// and Spotify as a fallback. Fields the owner has already filled in are
// never overwritten.
type Enricher struct {
	repo   *services.Repository
	lookup *services.LookupService
	logger *logging.Logger
}

// NewEnricher creates an enrich job handler
func NewEnricher(repo *services.Repository, lookup *services.LookupService, logger *logging.Logger) *Enricher {
	return &Enricher{
		repo:   repo,
		lookup: lookup,
		logger: logger,
	}
}

// HandleRecordEnrich processes one enrich task
func (e *Enricher) HandleRecordEnrich(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var p RecordEnrichPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal enrich payload: %w", err)
	}

	err := e.enrich(ctx, p)
	e.observe(start, err)
	return err
}

func (e *Enricher) enrich(ctx context.Context, p RecordEnrichPayload) error {
	record, err := e.repo.GetRecordByID(p.UserID, p.RecordID)
	if err != nil {
		// The record may have been deleted since the job was enqueued
		return fmt.Errorf("record %d not found: %w", p.RecordID, asynq.SkipRetry)
	}

	meta, err := e.resolveMetadata(ctx, p, record)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return fmt.Errorf("no metadata for record %d: %w", p.RecordID, asynq.SkipRetry)
		}
		return err
	}

	applyMetadata(record, meta)

	if err := e.repo.UpdateRecord(record); err != nil {
		return fmt.Errorf("failed to save enriched record: %w", err)
	}
	return nil
}

func (e *Enricher) resolveMetadata(ctx context.Context, p RecordEnrichPayload, record *models.Record) (*metadata.RecordMetadata, error) {
	if p.ReleaseID != 0 {
		return e.lookup.DiscogsRelease(ctx, p.UserID, p.ReleaseID)
	}

	results, _, err := e.lookup.SearchDiscogs(ctx, p.UserID, record.Artist+" "+record.Album, "", record.Barcode)
	if err != nil && !errors.Is(err, metadata.ErrNotFound) && !errors.Is(err, services.ErrProviderUnavailable) {
		return nil, err
	}
	if len(results) > 0 {
		return &results[0], nil
	}

	// Spotify as a fallback when Discogs has nothing for this release
	results, _, err = e.lookup.SearchSpotify(ctx, p.UserID, record.Artist+" "+record.Album)
	if errors.Is(err, services.ErrProviderUnavailable) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, metadata.ErrNotFound
	}
	return &results[0], nil
}

// applyMetadata copies provider fields onto the record, filling only what
// the record does not already have
func applyMetadata(record *models.Record, meta *metadata.RecordMetadata) {
	if record.Year == 0 {
		record.Year = meta.Year
	}
	if record.Label == "" {
		record.Label = meta.Label
	}
	if record.Country == "" {
		record.Country = meta.Country
	}
	if record.CatalogNumber == "" {
		record.CatalogNumber = meta.CatalogNumber
	}
	if record.Barcode == "" {
		record.Barcode = meta.Barcode
	}
	if record.CoverURL == "" {
		record.CoverURL = meta.CoverURL
	}
	if len(record.Genres) == 0 {
		record.Genres = models.StringList(meta.Genres)
	}
	if len(record.Styles) == 0 {
		record.Styles = models.StringList(meta.Styles)
	}
	if len(record.Musicians) == 0 {
		record.Musicians = models.StringList(meta.Musicians)
	}

	switch meta.Provider {
	case models.ProviderDiscogs:
		if record.DiscogsID == "" {
			record.DiscogsID = meta.ProviderID
			record.DiscogsURL = meta.URL
		}
	case models.ProviderSpotify:
		if record.SpotifyID == "" {
			record.SpotifyID = meta.ProviderID
			record.SpotifyURL = meta.URL
		}
	}
}

func (e *Enricher) observe(start time.Time, err error) {
	duration := time.Since(start)
	status := "ok"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	metrics.JobDurationSeconds.WithLabelValues(QueueDefault, TypeRecordEnrich, status).Observe(duration.Seconds())
	if e.logger != nil {
		e.logger.LogJobProcessing(QueueDefault, TypeRecordEnrich, duration, err == nil, errMsg)
	}
}
