// handlers/bounty_routes.go
package handlers

import (
	"bug-bounty-service/middleware"
	"bug-bounty-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService) {
	// Webhook entry point for tracker comment events. Gateway-authed but
	// carries no user context — the sponsor identity rides in the payload.
	app.Post("/webhooks/tracker/comment", bountyService.HandlePledge)

	// 🔓 Public read routes
	app.Get("/bounties/issues/:issue_number/events", bountyService.GetBountyEvents)

	// 🔐 Secured routes
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/sponsors/:sponsor", bountyService.GetSponsorship)
}
