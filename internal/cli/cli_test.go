package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	authrepo "home-panel/internal/auth/repository"
	authsvc "home-panel/internal/auth/service"
	"home-panel/internal/common/config"
	"home-panel/internal/common/database"
	"home-panel/internal/dashboard/engine"
	dashrepo "home-panel/internal/dashboard/repository"

	"github.com/charmbracelet/log"
	"gotest.tools/v3/assert"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "panel.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	return dbPath
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	setupEnv(t)
	_, err := runRoot(t, "migrate")
	assert.NilError(t, err)
}

func TestLayoutCommands(t *testing.T) {
	ctx := context.Background()
	dbPath := setupEnv(t)

	db, err := database.OpenSQLite(dbPath)
	assert.NilError(t, err)
	users := authrepo.New(db)
	assert.NilError(t, users.Init(ctx))
	u, err := users.CreateUser(ctx, "alice", "alice@example.com", "hash")
	assert.NilError(t, err)
	layouts := dashrepo.NewLayoutRepository(users)
	assert.NilError(t, layouts.SaveLayout(ctx, u.ID, engine.Record{{I: "lamp", X: 1, Y: 2, W: 30, H: 25}}))
	assert.NilError(t, db.Close())

	out, err := runRoot(t, "layout", "show", "--user", "alice")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, `"i": "lamp"`), out)

	out, err = runRoot(t, "layout", "show", "--user", u.ID)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, `"version": "1.0"`), out)

	_, err = runRoot(t, "layout", "reset", "-u", "alice")
	assert.NilError(t, err)

	_, err = runRoot(t, "layout", "show", "--user", "alice")
	assert.ErrorContains(t, err, "no saved layout")

	_, err = runRoot(t, "layout", "show", "--user", "bob")
	assert.ErrorContains(t, err, `user "bob" not found`)
}

func TestServerWiring(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "panel.db"))
	assert.NilError(t, err)
	defer db.Close()

	users := authrepo.New(db)
	assert.NilError(t, users.Init(ctx))
	srv := newServer(cfg, log.New(io.Discard), users, dashrepo.NewDeviceRepository(db), authsvc.NewSessionManager(cfg.SessionTTL))
	defer srv.workspaces.CloseAll()

	do := func(method, path, token, body string) (int, map[string]any) {
		t.Helper()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := srv.app.Test(req)
		assert.NilError(t, err)
		var out map[string]any
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &out)
		return resp.StatusCode, out
	}

	status, _ := do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, status, http.StatusOK)

	status, body := do(http.MethodPost, "/api/auth/register", "", `{"username":"alice","email":"a@example.com","password":"secret1"}`)
	assert.Equal(t, status, http.StatusCreated)
	token := body["token"].(string)

	status, _ = do(http.MethodPost, "/api/devices", token, `{"id":"lamp","name":"Lamp"}`)
	assert.Equal(t, status, http.StatusCreated)

	status, body = do(http.MethodGet, "/api/dashboard/widgets", token, "")
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, len(body["widgets"].([]any)), 1)
	assert.Equal(t, srv.workspaces.Len(), 1)

	status, _ = do(http.MethodPost, "/api/auth/logout", token, "")
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, srv.workspaces.Len(), 0)

	status, _ = do(http.MethodGet, "/api/dashboard/widgets", token, "")
	assert.Equal(t, status, http.StatusUnauthorized)
}
