package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"gotest.tools/v3/assert"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, token string) (string, bool, error) {
	if token == "boom" {
		return "", false, errors.New("store down")
	}
	id, ok := f[token]
	return id, ok, nil
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/me", RequireSession(fakeResolver{"t1": "u1"}), func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": UserID(c)})
	})
	app.Get("/teapot", func(c fiber.Ctx) error {
		return fiber.NewError(http.StatusTeapot, "short and stout")
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	assert.NilError(t, err)
	var out map[string]string
	assert.NilError(t, json.Unmarshal(data, &out))
	return out
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer t1") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "t1"}) }, http.StatusOK},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"store error", func(r *http.Request) { r.Header.Set("Authorization", "Bearer boom") }, http.StatusUnauthorized},
	}

	app := newTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			resp, err := app.Test(req)
			assert.NilError(t, err)
			assert.Equal(t, resp.StatusCode, tt.status)
			if tt.status == http.StatusOK {
				assert.Equal(t, decodeBody(t, resp)["user"], "u1")
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	resp, err := newTestApp().Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.NilError(t, err)
	assert.Equal(t, resp.StatusCode, http.StatusTeapot)
	assert.Equal(t, decodeBody(t, resp)["error"], "short and stout")
}
