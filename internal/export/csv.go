// Package export renders a collection as CSV for download
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"vinyldex/internal/models"
)

// baseHeader is the fixed part of the CSV header; custom column names follow
var baseHeader = []string{
	"artist", "album", "year", "label", "country", "catalog_number",
	"barcode", "genres", "styles", "musicians", "discogs_url", "spotify_url", "notes",
}

// CollectionCSV renders records and their custom column values as CSV. The
// custom columns appear after the fixed fields in display order, and values
// is keyed record ID then column ID.
func CollectionCSV(records []models.Record, columns []models.CustomColumn, values map[int64]map[int64]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(baseHeader)+len(columns))
	header = append(header, baseHeader...)
	for _, col := range columns {
		header = append(header, col.Name)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, record := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			record.Artist,
			record.Album,
			yearString(record.Year),
			record.Label,
			record.Country,
			record.CatalogNumber,
			record.Barcode,
			strings.Join(record.Genres, "; "),
			strings.Join(record.Styles, "; "),
			strings.Join(record.Musicians, "; "),
			record.DiscogsURL,
			record.SpotifyURL,
			record.Notes,
		)

		recordValues := values[record.ID]
		for _, col := range columns {
			row = append(row, recordValues[col.ID])
		}

		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func yearString(year int32) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(int(year))
}
