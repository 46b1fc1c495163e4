// services/organization_service_test.go
package services

import (
	"net/http/httptest"
	"os"
	"testing"

	"bug-bounty-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Organization{}))
	return db
}

func TestDeleteOrganizationReportsNotFound(t *testing.T) {
	db := testDB(t)
	svc := NewOrganizationService(db)
	app := fiber.New()
	app.Delete("/organizations/:id", svc.DeleteOrganization)

	// Unknown id reports not found, not success.
	resp, err := app.Test(httptest.NewRequest("DELETE", "/organizations/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	org := models.Organization{
		ID:   uuid.NewString(),
		Name: "Test Org",
		Slug: "test-org-" + uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&org).Error)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/organizations/"+org.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/organizations/"+org.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "second delete finds nothing")
}
