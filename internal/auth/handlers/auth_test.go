package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"home-panel/internal/auth/handlers"
	"home-panel/internal/auth/repository"
	"home-panel/internal/auth/service"
	"home-panel/internal/common/database"
	"home-panel/internal/common/middleware"
	dashrepo "home-panel/internal/dashboard/repository"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"gotest.tools/v3/assert"
)

type fakeWorkspaces struct {
	mu     sync.Mutex
	closed []string
}

func (f *fakeWorkspaces) Close(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, userID)
}

type testEnv struct {
	app        *fiber.App
	repo       *repository.Repository
	workspaces *fakeWorkspaces
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "panel.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	assert.NilError(t, repo.Init(context.Background()))

	ws := &fakeWorkspaces{}
	h := handlers.NewAuthHandler(repo, service.NewSessionManager(0), dashrepo.NewLayoutRepository(repo), ws,
		handlers.WithLogger(log.New(io.Discard)))

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	h.Register(app.Group("/api/auth"))
	return &testEnv{app: app, repo: repo, workspaces: ws}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req)
	assert.NilError(t, err)

	data, err := io.ReadAll(resp.Body)
	assert.NilError(t, err)
	var out map[string]any
	if len(data) > 0 {
		assert.NilError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp, out
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"secret1"}`)
	assert.Equal(t, resp.StatusCode, http.StatusCreated)
	token, _ := body["token"].(string)
	assert.Assert(t, token != "")
	return token
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	tests := []struct {
		name  string
		body  string
		error string
	}{
		{"duplicate username", `{"username":"alice","email":"new@example.com","password":"secret1"}`, "username already exists"},
		{"duplicate email", `{"username":"bob","email":"alice@example.com","password":"secret1"}`, "email already exists"},
		{"short password", `{"username":"bob","email":"bob@example.com","password":"12345"}`, "password must be at least 6 characters"},
		{"missing field", `{"username":"bob","password":"secret1"}`, "all fields are required"},
		{"invalid json", `{"username":`, "invalid json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
			assert.Equal(t, body["error"], tt.error)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	resp, body := env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"secret1"}`)
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Assert(t, body["token"] != "")
	assert.Assert(t, strings.Contains(resp.Header.Get("Set-Cookie"), middleware.SessionCookie+"="))

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong!"}`)
	assert.Equal(t, resp.StatusCode, http.StatusUnauthorized)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"nobody","password":"secret1"}`)
	assert.Equal(t, resp.StatusCode, http.StatusUnauthorized)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice"}`)
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	_, body := env.do(t, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, body["authenticated"], true)
	user := body["user"].(map[string]any)
	assert.Equal(t, user["username"], "alice")

	resp, _ := env.do(t, http.MethodPost, "/api/auth/logout", token, "")
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Equal(t, len(env.workspaces.closed), 1)

	_, body = env.do(t, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, body["authenticated"], false)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, resp.StatusCode, http.StatusOK)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	resp, _ := env.do(t, http.MethodGet, "/api/auth/user-settings", "", "")
	assert.Equal(t, resp.StatusCode, http.StatusUnauthorized)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/user-settings", token, `{"value":"dark"}`)
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/user-settings", token, `{"key":"theme","value":"dark"}`)
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	resp, _ = env.do(t, http.MethodPut, "/api/auth/user-settings/columns", token, `{"value":3}`)
	assert.Equal(t, resp.StatusCode, http.StatusOK)

	_, body := env.do(t, http.MethodGet, "/api/auth/user-settings/theme", token, "")
	assert.Equal(t, body["value"], "dark")

	_, body = env.do(t, http.MethodGet, "/api/auth/user-settings/missing", token, "")
	assert.Equal(t, body["key"], "missing")
	assert.Assert(t, body["value"] == nil)

	_, body = env.do(t, http.MethodGet, "/api/auth/user-settings", token, "")
	assert.DeepEqual(t, body["settings"], map[string]any{"theme": "dark", "columns": "3"})
}

func TestDashboardConfig_SharesLayoutRow(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	_, body := env.do(t, http.MethodGet, "/api/auth/dashboard-config", token, "")
	assert.DeepEqual(t, body["config"], map[string]any{})

	resp, _ := env.do(t, http.MethodPost, "/api/auth/dashboard-config", token,
		`{"config":[{"i":"lamp","x":1,"y":2,"w":20,"h":15}]}`)
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Equal(t, len(env.workspaces.closed), 1)

	_, body = env.do(t, http.MethodGet, "/api/auth/dashboard-config", token, "")
	config := body["config"].(map[string]any)
	assert.Equal(t, config["version"], "1.0")
	assert.DeepEqual(t, config["layout"], []any{
		map[string]any{"i": "lamp", "x": 1.0, "y": 2.0, "w": 20.0, "h": 15.0},
	})

	// новый путь пишет в ту же строку
	resp, _ = env.do(t, http.MethodPut, "/api/auth/user-settings/dashboard_layout", token,
		`{"value":"{\"version\":\"1.0\",\"layout\":[{\"i\":\"fan\",\"x\":0,\"y\":0,\"w\":30,\"h\":25}]}"}`)
	assert.Equal(t, resp.StatusCode, http.StatusOK)

	_, body = env.do(t, http.MethodGet, "/api/auth/dashboard-config", token, "")
	config = body["config"].(map[string]any)
	layout := config["layout"].([]any)
	assert.Equal(t, len(layout), 1)
	assert.Equal(t, layout[0].(map[string]any)["i"], "fan")

	resp, body = env.do(t, http.MethodPost, "/api/auth/dashboard-config", token, `{"config":"nope"}`)
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
	assert.Equal(t, body["error"], "invalid layout")
}
