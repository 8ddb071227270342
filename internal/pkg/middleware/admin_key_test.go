package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin/ping", AdminKeyMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestAdminKeyMiddleware(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "sekrit")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-API-Key", "sekrit")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Bearer form is accepted too
	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminKeyMiddleware_Unconfigured(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-API-Key", "anything")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
