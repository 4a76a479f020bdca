package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vinyldex/internal/metadata"
	"vinyldex/internal/middleware"
	"vinyldex/internal/services"
	"vinyldex/internal/utils"
)

// LookupHandler handles external metadata lookup requests
type LookupHandler struct {
	lookup *services.LookupService
	repo   *services.Repository
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(lookup *services.LookupService, repo *services.Repository) *LookupHandler {
	return &LookupHandler{
		lookup: lookup,
		repo:   repo,
	}
}

// DiscogsSearch handles searching the Discogs release database
func (h *LookupHandler) DiscogsSearch(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	query := c.Query("q")
	artist := c.Query("artist")
	barcode := c.Query("barcode")
	if query == "" && artist == "" && barcode == "" {
		return utils.SendError(c, http.StatusBadRequest, "A search query is required")
	}

	results, cacheHit, err := h.lookup.SearchDiscogs(c.Context(), user.ID, query, artist, barcode)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"data": results,
		"meta": fiber.Map{"cache_hit": cacheHit},
	})
}

// DiscogsRelease handles fetching the full details of one Discogs release
func (h *LookupHandler) DiscogsRelease(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	releaseID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, http.StatusBadRequest, "Invalid release ID")
	}

	release, err := h.lookup.DiscogsRelease(c.Context(), user.ID, releaseID)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(release)
}

// SpotifySearch handles searching the Spotify album catalog
func (h *LookupHandler) SpotifySearch(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	query := spotifyQuery(c.Query("q"), c.Query("artist"), c.Query("album"))
	if query == "" {
		return utils.SendError(c, http.StatusBadRequest, "A search query is required")
	}

	results, cacheHit, err := h.lookup.SearchSpotify(c.Context(), user.ID, query)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"data": results,
		"meta": fiber.Map{"cache_hit": cacheHit},
	})
}

// BarcodeLookup resolves a barcode, checking the user's own collection first
// so a scan of an owned record links to it instead of adding a duplicate
func (h *LookupHandler) BarcodeLookup(c *fiber.Ctx) error {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return utils.SendUnauthorizedError(c, "Authentication required")
	}

	barcode := c.Query("code")
	if barcode == "" {
		return utils.SendError(c, http.StatusBadRequest, "A barcode is required")
	}

	if owned, err := h.repo.GetRecordByBarcode(user.ID, barcode); err == nil {
		return c.JSON(fiber.Map{
			"owned":  true,
			"record": owned,
		})
	}

	results, cacheHit, err := h.lookup.SearchDiscogs(c.Context(), user.ID, "", "", barcode)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"owned": false,
		"data":  results,
		"meta":  fiber.Map{"cache_hit": cacheHit},
	})
}

// spotifyQuery builds a fielded Spotify search from artist/album params,
// with q as the free-form fallback
func spotifyQuery(q, artist, album string) string {
	if artist == "" && album == "" {
		return q
	}
	var parts []string
	if artist != "" {
		parts = append(parts, "artist:"+artist)
	}
	if album != "" {
		parts = append(parts, "album:"+album)
	}
	return strings.Join(parts, " ")
}

func (h *LookupHandler) lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return utils.SendNotFoundError(c, "Release")
	case errors.Is(err, services.ErrProviderUnavailable):
		return utils.SendError(c, http.StatusServiceUnavailable, "Lookup provider is not configured")
	default:
		return utils.SendBadGatewayError(c, "Lookup provider request failed")
	}
}
