// handlers/routes_test.go
package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"bug-bounty-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Routes registered in main.go's order: the secured groups mounted by the
// organization and hunt routes must not swallow the tracker webhook,
// which carries no user context.
func TestWebhookReachableWithoutUserContext(t *testing.T) {
	app := fiber.New()
	SetupOrganizationRoutes(app, &services.OrganizationService{})
	SetupHuntRoutes(app, &services.HuntService{})
	SetupBountyRoutes(app, &services.BountyService{})

	body := `{"repo":"OWASP-BLT/BLT","issue_number":42,"sponsor":"alice","body":"no command here"}`
	req := httptest.NewRequest("POST", "/webhooks/tracker/comment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
