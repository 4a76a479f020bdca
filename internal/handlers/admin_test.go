package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinyldex/internal/models"
)

func TestAdminHandler_ListLookupEvents(t *testing.T) {
	env := setupTestEnv(t)

	userID := env.user.ID
	require.NoError(t, env.db.Create(&models.LookupEvent{
		UserID:       &userID,
		Provider:     models.ProviderDiscogs,
		Query:        "autobahn",
		ResultsCount: 3,
	}).Error)

	t.Run("regular user is forbidden", func(t *testing.T) {
		resp := env.request(t, "GET", "/api/v1/admin/lookup-events", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin sees recent events", func(t *testing.T) {
		require.NoError(t, env.db.Model(env.user).Update("is_admin", true).Error)
		token, _, err := env.auth.Login("collector", "Str0ngPassw0rd!")
		require.NoError(t, err)
		env.token = token.AccessToken

		resp := env.request(t, "GET", "/api/v1/admin/lookup-events", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []models.LookupEvent `json:"data"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "autobahn", body.Data[0].Query)
	})
}
