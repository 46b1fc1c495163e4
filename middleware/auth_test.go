// middleware/auth_test.go
package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userContextApp() *fiber.App {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/webhooks/tracker/comment", ok)
	app.Post("/hunts", ok)
	app.Get("/hunts", ok)
	return app
}

func TestUserContextRequiredOnMutations(t *testing.T) {
	app := userContextApp()

	resp, err := app.Test(httptest.NewRequest("POST", "/hunts", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("POST", "/hunts", nil)
	req.Header.Set("X-User-ID", "user-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserContextNotRequiredOnReads(t *testing.T) {
	app := userContextApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/hunts", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserContextExemptsWebhooks(t *testing.T) {
	app := userContextApp()

	// Tracker webhooks arrive without a user; they must not be gated.
	resp, err := app.Test(httptest.NewRequest("POST", "/webhooks/tracker/comment", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
