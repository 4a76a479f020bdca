package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinyldex/internal/models"
)

func TestViewsHandler_CRUD(t *testing.T) {
	env := setupTestEnv(t)

	var recent models.TableView

	t.Run("create default view", func(t *testing.T) {
		resp := env.request(t, "POST", "/api/v1/views", map[string]interface{}{
			"name":           "All records",
			"sort_field":     "artist",
			"sort_direction": "asc",
			"is_default":     true,
			"page_size":      50,
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("new default demotes the old one", func(t *testing.T) {
		resp := env.request(t, "POST", "/api/v1/views", map[string]interface{}{
			"name":           "Recent",
			"sort_field":     "created_at",
			"sort_direction": "desc",
			"is_default":     true,
			"hidden_columns": []string{"notes"},
			"column_widths":  map[string]int{"artist": 220},
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		decodeBody(t, resp, &recent)

		list := env.request(t, "GET", "/api/v1/views", nil)
		var body struct {
			Data []models.TableView `json:"data"`
		}
		decodeBody(t, list, &body)
		require.Len(t, body.Data, 2)

		// Default sorts first
		assert.Equal(t, "Recent", body.Data[0].Name)
		assert.True(t, body.Data[0].IsDefault)
		assert.False(t, body.Data[1].IsDefault)
	})

	t.Run("invalid sort direction", func(t *testing.T) {
		resp := env.request(t, "POST", "/api/v1/views", map[string]interface{}{
			"name":           "Broken",
			"sort_direction": "sideways",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("update", func(t *testing.T) {
		resp := env.request(t, "PUT", fmt.Sprintf("/api/v1/views/%d", recent.ID), map[string]interface{}{
			"name":           "Recently added",
			"sort_field":     "created_at",
			"sort_direction": "desc",
			"is_default":     true,
			"page_size":      100,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.TableView
		decodeBody(t, resp, &updated)
		assert.Equal(t, "Recently added", updated.Name)
		assert.EqualValues(t, 100, updated.PageSize)
	})

	t.Run("delete", func(t *testing.T) {
		resp := env.request(t, "DELETE", fmt.Sprintf("/api/v1/views/%d", recent.ID), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = env.request(t, "DELETE", fmt.Sprintf("/api/v1/views/%d", recent.ID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
