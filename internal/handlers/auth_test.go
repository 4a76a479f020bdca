package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestAuthHandler_Login(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		resp := postJSON(t, env.app, "/api/v1/auth/login", `{"username":"collector","password":"Str0ngPassw0rd!"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			User         struct {
				Username string `json:"username"`
			} `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.AccessToken)
		assert.NotEmpty(t, body.RefreshToken)
		assert.Equal(t, "collector", body.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, env.app, "/api/v1/auth/login", `{"username":"collector","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := postJSON(t, env.app, "/api/v1/auth/login", `{"username":"collector"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := setupTestEnv(t)

	login := postJSON(t, env.app, "/api/v1/auth/login", `{"username":"collector","password":"Str0ngPassw0rd!"}`)
	var tokens struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, login, &tokens)

	t.Run("valid refresh token", func(t *testing.T) {
		resp := postJSON(t, env.app, "/api/v1/auth/refresh", `{"refresh_token":"`+tokens.RefreshToken+`"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		resp := postJSON(t, env.app, "/api/v1/auth/refresh", `{"refresh_token":"garbage"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.request(t, "GET", "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Username string `json:"username"`
	}
	decodeBody(t, resp, &me)
	assert.Equal(t, "collector", me.Username)

	// Without a token the group middleware rejects the request
	plain := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	unauth, err := env.app.Test(plain)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
