package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vinyldex/internal/middleware"
	"vinyldex/internal/models"
	"vinyldex/internal/services"
	"vinyldex/internal/test"
)

type enqueueCall struct {
	UserID    int64
	RecordID  int64
	ReleaseID int64
}

type fakeEnqueuer struct {
	calls []enqueueCall
}

func (f *fakeEnqueuer) EnqueueRecordEnrich(userID, recordID, releaseID int64) error {
	f.calls = append(f.calls, enqueueCall{UserID: userID, RecordID: recordID, ReleaseID: releaseID})
	return nil
}

// testEnv wires the handlers into a Fiber app the way the server does
type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	repo     *services.Repository
	auth     *services.AuthService
	enqueuer *fakeEnqueuer
	user     *models.User
	token    string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, tearDown := test.SetupTestDB(t)
	t.Cleanup(tearDown)

	repo := services.NewRepository(db)
	auth := services.NewAuthService(db, "test-secret", 15*time.Minute, time.Hour)
	enqueuer := &fakeEnqueuer{}

	user := test.CreateTestUser(t, db, "collector", "Str0ngPassw0rd!")
	token, _, err := auth.Login("collector", "Str0ngPassw0rd!")
	require.NoError(t, err)

	app := fiber.New()
	authMiddleware := middleware.NewAuthMiddleware(auth)

	authHandler := NewAuthHandler(auth)
	recordsHandler := NewRecordsHandler(repo, enqueuer, nil)
	columnsHandler := NewColumnsHandler(repo)
	viewsHandler := NewViewsHandler(repo)

	app.Post("/api/v1/auth/login", authHandler.Login)
	app.Post("/api/v1/auth/refresh", authHandler.Refresh)

	api := app.Group("/api/v1", authMiddleware.RequireAuth())
	api.Get("/auth/me", authHandler.Me)

	api.Get("/records", recordsHandler.ListRecords)
	api.Post("/records", recordsHandler.CreateRecord)
	api.Get("/records/export", recordsHandler.ExportRecords)
	api.Get("/records/:id", recordsHandler.GetRecord)
	api.Put("/records/:id", recordsHandler.UpdateRecord)
	api.Delete("/records/:id", recordsHandler.DeleteRecord)
	api.Post("/records/:id/enrich", recordsHandler.EnrichRecord)
	api.Put("/records/:id/values/:columnId", columnsHandler.SetValue)
	api.Delete("/records/:id/values/:columnId", columnsHandler.DeleteValue)

	api.Get("/columns", columnsHandler.ListColumns)
	api.Post("/columns", columnsHandler.CreateColumn)
	api.Put("/columns/:id", columnsHandler.UpdateColumn)
	api.Delete("/columns/:id", columnsHandler.DeleteColumn)

	api.Get("/views", viewsHandler.ListViews)
	api.Post("/views", viewsHandler.CreateView)
	api.Put("/views/:id", viewsHandler.UpdateView)
	api.Delete("/views/:id", viewsHandler.DeleteView)

	adminHandler := NewAdminHandler(repo)
	admin := api.Group("/admin", authMiddleware.AdminOnly())
	admin.Get("/lookup-events", adminHandler.ListLookupEvents)

	return &testEnv{
		app:      app,
		db:       db,
		repo:     repo,
		auth:     auth,
		enqueuer: enqueuer,
		user:     user,
		token:    token.AccessToken,
	}
}

// request performs an authenticated JSON request against the test app
func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
