// handlers/organization_routes.go
package handlers

import (
	"bug-bounty-service/middleware"
	"bug-bounty-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupOrganizationRoutes(app *fiber.App, orgService *services.OrganizationService) {
	// 🔓 Public routes
	app.Get("/organizations", orgService.GetAllOrganizations)
	app.Get("/organizations/:id", orgService.GetOrganizationByID)

	// 🔐 Secured routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/organizations", orgService.CreateOrganization)
	secured.Put("/organizations/:id", orgService.UpdateOrganization)
	secured.Delete("/organizations/:id", orgService.DeleteOrganization)

	// Tracked repositories
	secured.Post("/organizations/:id/repositories", orgService.AddRepository)
	secured.Get("/organizations/:id/repositories", orgService.ListRepositories)
	secured.Delete("/organizations/:id/repositories/:repo_id", orgService.DeleteRepository)
}
