// services/organization_service.go
package services

import (
	"errors"
	"log"
	"strings"

	"bug-bounty-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type OrganizationService struct {
	DB *gorm.DB
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{DB: db}
}

func (s *OrganizationService) CreateOrganization(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Email       string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	org := &models.Organization{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		URL:         req.URL,
		Email:       req.Email,
	}
	if err := s.DB.Create(org).Error; err != nil {
		log.Printf("DB Error creating organization: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create organization"})
	}
	return c.Status(fiber.StatusCreated).JSON(org)
}

func (s *OrganizationService) GetAllOrganizations(c *fiber.Ctx) error {
	var orgs []models.Organization
	if err := s.DB.Order("name ASC").Find(&orgs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(orgs)
}

func (s *OrganizationService) GetOrganizationByID(c *fiber.Ctx) error {
	var org models.Organization
	if err := s.DB.Preload("Repositories").First(&org, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "organization not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(org)
}

func (s *OrganizationService) UpdateOrganization(c *fiber.Ctx) error {
	var org models.Organization
	if err := s.DB.First(&org, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "organization not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		URL         *string `json:"url"`
		Email       *string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must not be empty"})
		}
		org.Name = *req.Name
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if req.URL != nil {
		org.URL = *req.URL
	}
	if req.Email != nil {
		org.Email = *req.Email
	}

	if err := s.DB.Save(&org).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(org)
}

func (s *OrganizationService) DeleteOrganization(c *fiber.Ctx) error {
	result := s.DB.Delete(&models.Organization{}, "id = ?", c.Params("id"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "organization not found"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// --- Tracked repositories ---

func (s *OrganizationService) AddRepository(c *fiber.Ctx) error {
	orgID := c.Params("id")
	var org models.Organization
	if err := s.DB.First(&org, "id = ?", orgID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "organization not found"})
	}

	var req struct {
		Tracker string `json:"tracker"`
		Owner   string `json:"owner"`
		Name    string `json:"name"`
		URL     string `json:"url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Owner == "" || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "owner and name are required"})
	}
	tracker := strings.ToLower(req.Tracker)
	if tracker == "" {
		tracker = models.TrackerGitHub
	}
	if tracker != models.TrackerGitHub && tracker != models.TrackerGitLab {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "tracker must be github or gitlab"})
	}

	repo := &models.Repository{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Tracker:        tracker,
		Owner:          req.Owner,
		Name:           req.Name,
		URL:            req.URL,
	}
	if err := s.DB.Create(repo).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(repo)
}

func (s *OrganizationService) ListRepositories(c *fiber.Ctx) error {
	var repos []models.Repository
	if err := s.DB.Where("organization_id = ?", c.Params("id")).
		Order("created_at ASC").
		Find(&repos).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(repos)
}

func (s *OrganizationService) DeleteRepository(c *fiber.Ctx) error {
	result := s.DB.Delete(&models.Repository{}, "id = ?", c.Params("repo_id"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "repository not found"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
