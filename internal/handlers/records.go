package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"vinyldex/internal/export"
	"vinyldex/internal/jobs"
	"vinyldex/internal/logging"
	"vinyldex/internal/metrics"
	"vinyldex/internal/middleware"
	"vinyldex/internal/models"
	"vinyldex/internal/pagination"
	"vinyldex/internal/services"
	"vinyldex/internal/utils"
)

// RecordEnqueuer submits background enrich jobs; nil disables enrichment
type RecordEnqueuer interface {
	EnqueueRecordEnrich(userID, recordID, releaseID int64) error
}

// RecordsHandler handles collection record requests
type RecordsHandler struct {
	repo     *services.Repository
	enqueuer RecordEnqueuer
	logger   *logging.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(repo *services.Repository, enqueuer RecordEnqueuer, logger *logging.Logger) *RecordsHandler {
	return &RecordsHandler{
		repo:     repo,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

type recordRequest struct {
	Artist        string   `json:"artist"`
	Album         string   `json:"album"`
	Year          int32    `json:"year"`
	Label         string   `json:"label"`
	Country       string   `json:"country"`
	CatalogNumber string   `json:"catalog_number"`
	Barcode       string   `json:"barcode"`
	Genres        []string `json:"genres"`
	Styles        []string `json:"styles"`
	Musicians     []string `json:"musicians"`
	DiscogsID     string   `json:"discogs_id"`
	DiscogsURL    string   `json:"discogs_url"`
	SpotifyID     string   `json:"spotify_id"`
	SpotifyURL    string   `json:"spotify_url"`
	CoverURL      string   `json:"cover_url"`
	Notes         string   `json:"notes"`

	// DiscogsReleaseID, when set on create, enriches the record in the
	// background from that release
	DiscogsReleaseID int64 `json:"discogs_release_id,omitempty"`
	Enrich           bool  `json:"enrich,omitempty"`
}

// ListRecords handles retrieving the user's collection with filtering,
// sorting and pagination
func (h *RecordsHandler) ListRecords(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	page, pageSize := pagination.GetPaginationParams(c, 1, 50)
	offset := pagination.CalculateOffset(page, pageSize)

	params := services.RecordListParams{
		Query:   c.Query("q"),
		Genre:   c.Query("genre"),
		Year:    c.QueryInt("year", 0),
		Label:   c.Query("label"),
		Country: c.Query("country"),
		SortBy:  c.Query("sort"),
		SortDir: c.Query("dir", "desc"),
		Limit:   pageSize,
		Offset:  offset,
	}

	records, total, err := h.repo.ListRecords(user.ID, params)
	if err != nil {
		if errors.Is(err, services.ErrUnknownSortField) {
			return utils.SendError(c, http.StatusBadRequest, "Unknown sort field")
		}
		return utils.SendInternalServerError(c, "Failed to fetch records")
	}

	return c.JSON(fiber.Map{
		"data": records,
		"meta": pagination.Calculate(total, page, pageSize),
	})
}

// GetRecord handles retrieving a single record with its custom column values
func (h *RecordsHandler) GetRecord(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	recordID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid record ID")
	}

	record, err := h.repo.GetRecordByID(user.ID, recordID)
	if err != nil {
		return utils.SendNotFoundError(c, "Record")
	}

	values, err := h.repo.GetColumnValues(user.ID, recordID)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch column values")
	}

	return c.JSON(fiber.Map{
		"data":   record,
		"values": values,
	})
}

// CreateRecord handles adding a record to the collection
func (h *RecordsHandler) CreateRecord(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Artist == "" || req.Album == "" {
		return utils.SendValidationError(c, "artist", "Artist and album are required")
	}

	record := recordFromRequest(&req)
	record.UserID = user.ID

	if err := h.repo.CreateRecord(record); err != nil {
		return utils.SendInternalServerError(c, "Failed to create record")
	}
	metrics.RecordsCreatedTotal.Inc()

	if h.enqueuer != nil && (req.Enrich || req.DiscogsReleaseID != 0) {
		if err := h.enqueuer.EnqueueRecordEnrich(user.ID, record.ID, req.DiscogsReleaseID); err != nil && h.logger != nil {
			h.logger.Warn().Err(err).Int64("record_id", record.ID).Msg("Failed to enqueue enrich job")
		}
	}

	return c.Status(http.StatusCreated).JSON(record)
}

// UpdateRecord handles editing one of the user's records
func (h *RecordsHandler) UpdateRecord(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	recordID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid record ID")
	}

	record, err := h.repo.GetRecordByID(user.ID, recordID)
	if err != nil {
		return utils.SendNotFoundError(c, "Record")
	}

	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Artist == "" || req.Album == "" {
		return utils.SendValidationError(c, "artist", "Artist and album are required")
	}

	applyRecordRequest(record, &req)

	if err := h.repo.UpdateRecord(record); err != nil {
		return utils.SendInternalServerError(c, "Failed to update record")
	}

	return c.JSON(record)
}

// DeleteRecord handles removing a record and its custom column values
func (h *RecordsHandler) DeleteRecord(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	recordID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid record ID")
	}

	if err := h.repo.DeleteRecord(user.ID, recordID); err != nil {
		return utils.SendNotFoundError(c, "Record")
	}

	return c.SendStatus(http.StatusNoContent)
}

// EnrichRecord handles submitting a background enrich job for a record
func (h *RecordsHandler) EnrichRecord(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	if h.enqueuer == nil {
		return utils.SendError(c, http.StatusServiceUnavailable, "Background enrichment is not available")
	}

	recordID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid record ID")
	}

	if _, err := h.repo.GetRecordByID(user.ID, recordID); err != nil {
		return utils.SendNotFoundError(c, "Record")
	}

	var req struct {
		DiscogsReleaseID int64 `json:"discogs_release_id"`
	}
	// Body is optional; without it the job searches by artist and album
	_ = c.BodyParser(&req)

	if err := h.enqueuer.EnqueueRecordEnrich(user.ID, recordID, req.DiscogsReleaseID); err != nil {
		return utils.SendInternalServerError(c, "Failed to enqueue enrich job")
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"status": "queued",
		"type":   jobs.TypeRecordEnrich,
	})
}

// ExportRecords handles downloading the filtered collection as CSV
func (h *RecordsHandler) ExportRecords(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	params := services.RecordListParams{
		Query:   c.Query("q"),
		Genre:   c.Query("genre"),
		Year:    c.QueryInt("year", 0),
		Label:   c.Query("label"),
		Country: c.Query("country"),
	}

	records, err := h.repo.ListAllRecords(user.ID, params)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch records")
	}

	columns, err := h.repo.ListColumns(user.ID)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch columns")
	}

	recordIDs := make([]int64, 0, len(records))
	for _, r := range records {
		recordIDs = append(recordIDs, r.ID)
	}
	values, err := h.repo.GetColumnValuesForRecords(recordIDs)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to fetch column values")
	}

	payload, err := export.CollectionCSV(records, columns, values)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to build export")
	}

	filename := "collection-" + time.Now().Format("2006-01-02") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(payload)
}

func recordFromRequest(req *recordRequest) *models.Record {
	return &models.Record{
		Artist:        req.Artist,
		Album:         req.Album,
		Year:          req.Year,
		Label:         req.Label,
		Country:       req.Country,
		CatalogNumber: req.CatalogNumber,
		Barcode:       req.Barcode,
		Genres:        models.StringList(req.Genres),
		Styles:        models.StringList(req.Styles),
		Musicians:     models.StringList(req.Musicians),
		DiscogsID:     req.DiscogsID,
		DiscogsURL:    req.DiscogsURL,
		SpotifyID:     req.SpotifyID,
		SpotifyURL:    req.SpotifyURL,
		CoverURL:      req.CoverURL,
		Notes:         req.Notes,
	}
}

func applyRecordRequest(record *models.Record, req *recordRequest) {
	record.Artist = req.Artist
	record.Album = req.Album
	record.Year = req.Year
	record.Label = req.Label
	record.Country = req.Country
	record.CatalogNumber = req.CatalogNumber
	record.Barcode = req.Barcode
	record.Genres = models.StringList(req.Genres)
	record.Styles = models.StringList(req.Styles)
	record.Musicians = models.StringList(req.Musicians)
	record.DiscogsID = req.DiscogsID
	record.DiscogsURL = req.DiscogsURL
	record.SpotifyID = req.SpotifyID
	record.SpotifyURL = req.SpotifyURL
	record.CoverURL = req.CoverURL
	record.Notes = req.Notes
}
