package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinyldex/internal/test"
)

func TestHealthCheck(t *testing.T) {
	db, tearDown := test.SetupTestDB(t)
	defer tearDown()

	app := fiber.New()
	app.Get("/healthz", NewHealthHandler(db, nil).HealthCheck)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var status HealthStatus
	decodeBody(t, resp, &status)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "ok", status.DB.Status)
	assert.Equal(t, "ok", status.Redis.Status)
	assert.Equal(t, "Redis not configured", status.Redis.Message)
}
