// handlers/hunt_routes.go
package handlers

import (
	"bug-bounty-service/middleware"
	"bug-bounty-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupHuntRoutes(app *fiber.App, huntService *services.HuntService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/hunts/published", huntService.GetPublishedHunts)
	app.Get("/hunts/slug/:slug", huntService.GetHuntBySlug)

	// 🔐 Secured routes — require user context (userID, roles), enforced via middleware
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Hunt CRUD (organizer only)
	secured.Post("/hunts", huntService.CreateHunt)
	secured.Get("/hunts", huntService.GetAllHunts)
	secured.Get("/hunts/:id", huntService.GetHuntByID)
	secured.Put("/hunts/:id", huntService.UpdateHunt)
	secured.Patch("/hunts/:id", huntService.UpdateHunt)
	secured.Delete("/hunts/:id", huntService.DeleteHunt)

	// Prize catalog — draft only, guarded by catalog_version token
	secured.Get("/hunts/:id/prizes", huntService.GetCatalog)
	secured.Post("/hunts/:id/prizes", huntService.AddPrize)
	secured.Put("/hunts/:id/prizes/:prize_id", huntService.UpdatePrize)
	secured.Delete("/hunts/:id/prizes/:prize_id", huntService.DeletePrize)

	// Publish scheduling
	secured.Post("/hunts/:id/publish/now", huntService.PublishNow)
	secured.Post("/hunts/:id/publish/schedule", huntService.SchedulePublish)
	secured.Post("/hunts/:id/publish/cancel", huntService.CancelScheduledPublish)
}
