// services/hunt_service.go
package services

import (
	"errors"
	"log"
	"path/filepath"
	"time"

	"bug-bounty-service/models"
	"bug-bounty-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type HuntService struct {
	DB *gorm.DB
}

func NewHuntService(db *gorm.DB) *HuntService {
	return &HuntService{DB: db}
}

func (s *HuntService) CreateHunt(c *fiber.Ctx) error {
	// --- Parse form values ---
	organizationID := c.FormValue("organization_id")
	repositoryID := c.FormValue("repository_id")
	name := c.FormValue("name")
	description := c.FormValue("description")
	rules := c.FormValue("rules")
	startTimeStr := c.FormValue("start_time")
	endTimeStr := c.FormValue("end_time")
	publishScheduleStr := c.FormValue("publish_schedule") // Expected format: RFC3339

	// --- Validation ---
	if organizationID == "" || name == "" || startTimeStr == "" {
		return c.Status(400).JSON(fiber.Map{"error": "organization_id, name, and start_time are required"})
	}

	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
	}

	var endTime time.Time
	if endTimeStr != "" {
		endTime, err = time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
	}

	var publishSchedule *time.Time
	if publishScheduleStr != "" {
		scheduledTime, err := time.Parse(time.RFC3339, publishScheduleStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid publish_schedule (use RFC3339)"})
		}
		publishSchedule = &scheduledTime
	}

	// --- Check organization exists ---
	var org models.Organization
	if err := s.DB.First(&org, "id = ?", organizationID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "organization_id not found"})
	}

	if repositoryID != "" {
		var repo models.Repository
		if err := s.DB.First(&repo, "id = ? AND organization_id = ?", repositoryID, organizationID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "repository_id not found for organization"})
		}
	}

	// --- Handle logo / banner → R2 ---
	logoURL, err := s.uploadMedia(c, "logo", "hunts/logos")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload logo"})
	}
	bannerURL, err := s.uploadMedia(c, "banner", "hunts/banners")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload banner"})
	}

	hunt := &models.Hunt{
		ID:              uuid.NewString(),
		OrganizationID:  organizationID,
		RepositoryID:    repositoryID,
		Name:            name,
		Slug:            s.uniqueSlug(name),
		Description:     description,
		Rules:           rules,
		LogoURL:         logoURL,
		BannerURL:       bannerURL,
		StartTime:       startTime,
		EndTime:         endTime,
		PublishSchedule: publishSchedule,
		Status:          models.HuntStatusDraft, // Always start as draft
	}
	if publishSchedule != nil {
		hunt.Status = models.HuntStatusScheduled
	}

	if err := s.DB.Create(hunt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(hunt)
}

// uploadMedia pushes one optional form file to R2 and returns its CDN URL.
func (s *HuntService) uploadMedia(c *fiber.Ctx, field, keyPrefix string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil || file.Size == 0 {
		return "", nil // optional
	}
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := keyPrefix + "/" + uuid.NewString() + ext
	return utils.UploadFileToR2(file, key)
}

// uniqueSlug derives a URL slug from the hunt name, suffixing on
// collision so two hunts never share a slug.
func (s *HuntService) uniqueSlug(name string) string {
	base := slug.Make(name)
	candidate := base
	for i := 0; ; i++ {
		var count int64
		s.DB.Model(&models.Hunt{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = base + "-" + uuid.NewString()[:8]
		if i > 3 {
			return candidate // uuid collision is not a realistic loop
		}
	}
}

func (s *HuntService) GetAllHunts(c *fiber.Ctx) error {
	var hunts []models.Hunt
	query := s.DB.Order("created_at DESC")
	if orgID := c.Query("organization_id"); orgID != "" {
		query = query.Where("organization_id = ?", orgID)
	}
	if err := query.Find(&hunts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(hunts)
}

// GetPublishedHunts is the public listing — published hunts only.
func (s *HuntService) GetPublishedHunts(c *fiber.Ctx) error {
	var hunts []models.Hunt
	if err := s.DB.Where("status = ?", models.HuntStatusPublished).
		Order("published_at DESC").
		Find(&hunts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(hunts)
}

func (s *HuntService) GetHuntByID(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(hunt)
}

// GetHuntBySlug resolves the public hunt page URL.
func (s *HuntService) GetHuntBySlug(c *fiber.Ctx) error {
	var hunt models.Hunt
	if err := s.DB.First(&hunt, "slug = ? AND status = ?", c.Params("slug"), models.HuntStatusPublished).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "hunt not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(hunt)
}

func (s *HuntService) UpdateHunt(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if hunt.Status == models.HuntStatusPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "published hunts cannot be edited"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Rules       *string `json:"rules"`
		StartTime   *string `json:"start_time"`
		EndTime     *string `json:"end_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "name must not be empty"})
		}
		hunt.Name = *req.Name
	}
	if req.Description != nil {
		hunt.Description = *req.Description
	}
	if req.Rules != nil {
		hunt.Rules = *req.Rules
	}
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
		}
		hunt.StartTime = t
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
		hunt.EndTime = t
	}

	if err := s.DB.Save(hunt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(hunt)
}

func (s *HuntService) DeleteHunt(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if hunt.Status == models.HuntStatusPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "published hunts cannot be deleted"})
	}
	if err := s.DB.Delete(hunt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB delete failed"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// --- Prize catalog ---

type prizeRequest struct {
	Name                  string  `json:"prize_name"`
	CashValue             float64 `json:"cash_value"`
	WinningProjects       int     `json:"number_of_winning_projects"`
	EveryValidSubmissions bool    `json:"every_valid_submissions"`
	Description           string  `json:"prize_description"`
	PaidInCrypto          bool    `json:"paid_in_cryptocurrency"`
	CatalogVersion        *int    `json:"catalog_version"`
}

func (r *prizeRequest) toPrize() models.Prize {
	return models.Prize{
		Name:                  r.Name,
		CashValue:             r.CashValue,
		WinningProjects:       r.WinningProjects,
		EveryValidSubmissions: r.EveryValidSubmissions,
		Description:           r.Description,
		PaidInCrypto:          r.PaidInCrypto,
	}
}

// GetCatalog returns the draft catalog listing (truncated entry views)
// plus the version token required for mutations.
func (s *HuntService) GetCatalog(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	cat, err := hunt.Catalog()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "corrupt prize catalog"})
	}
	return c.JSON(fiber.Map{
		"catalog_version": hunt.CatalogVersion,
		"prizes":          cat.Views(),
	})
}

func (s *HuntService) AddPrize(c *fiber.Ctx) error {
	return s.mutateCatalog(c, func(cat *models.PrizeCatalog, req *prizeRequest) (models.Prize, error) {
		return cat.Add(req.toPrize())
	})
}

func (s *HuntService) UpdatePrize(c *fiber.Ctx) error {
	prizeID, err := c.ParamsInt("prize_id")
	if err != nil || prizeID < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid prize id"})
	}
	return s.mutateCatalog(c, func(cat *models.PrizeCatalog, req *prizeRequest) (models.Prize, error) {
		return cat.Edit(prizeID, req.toPrize())
	})
}

func (s *HuntService) DeletePrize(c *fiber.Ctx) error {
	prizeID, err := c.ParamsInt("prize_id")
	if err != nil || prizeID < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid prize id"})
	}
	return s.mutateCatalog(c, func(cat *models.PrizeCatalog, req *prizeRequest) (models.Prize, error) {
		return models.Prize{}, cat.Remove(prizeID)
	})
}

// mutateCatalog is the shared load → check → apply → save path for
// catalog mutations. Mutations are only legal while the hunt is in
// draft, and require the current catalog_version token (optimistic
// concurrency: concurrent organizer edits get a 409, not silent loss).
func (s *HuntService) mutateCatalog(c *fiber.Ctx, apply func(*models.PrizeCatalog, *prizeRequest) (models.Prize, error)) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if hunt.Status == models.HuntStatusPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": models.ErrHuntPublished.Error()})
	}

	var req prizeRequest
	if err := c.BodyParser(&req); err != nil && c.Method() != fiber.MethodDelete {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.CatalogVersion == nil {
		// DELETE carries the token as a query param instead of a body
		if v := c.QueryInt("catalog_version", -1); v >= 0 {
			req.CatalogVersion = &v
		}
	}
	if req.CatalogVersion == nil || *req.CatalogVersion != hunt.CatalogVersion {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":           models.ErrStaleCatalog.Error(),
			"catalog_version": hunt.CatalogVersion,
		})
	}

	cat, err := hunt.Catalog()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "corrupt prize catalog"})
	}

	prize, err := apply(&cat, &req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return c.Status(400).JSON(fiber.Map{"error": verr.Error()})
		}
		if errors.Is(err, models.ErrPrizeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": "catalog update failed"})
	}

	if err := hunt.SetCatalog(cat); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to serialize catalog"})
	}
	if err := s.DB.Save(hunt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}

	return c.JSON(fiber.Map{
		"catalog_version": hunt.CatalogVersion,
		"prize":           prize.View(),
	})
}

// --- Publishing ---

func (s *HuntService) PublishNow(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.publish(hunt); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return c.Status(400).JSON(fiber.Map{"error": verr.Error()})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("✅ Hunt published: %s (%s)", hunt.Name, hunt.ID)
	return c.JSON(hunt)
}

func (s *HuntService) SchedulePublish(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if hunt.Status == models.HuntStatusPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "hunt is already published"})
	}

	var req struct {
		PublishAt string `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	publishAt, err := time.Parse(time.RFC3339, req.PublishAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid publish_at (use RFC3339)"})
	}
	if publishAt.Before(time.Now()) {
		return c.Status(400).JSON(fiber.Map{"error": "publish_at must be in the future"})
	}

	hunt.Status = models.HuntStatusScheduled
	hunt.PublishSchedule = &publishAt
	if err := s.DB.Save(hunt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(hunt)
}

func (s *HuntService) CancelScheduledPublish(c *fiber.Ctx) error {
	hunt, status, err := s.findHunt(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if hunt.Status != models.HuntStatusScheduled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "hunt has no scheduled publish"})
	}
	hunt.Status = models.HuntStatusDraft
	hunt.PublishSchedule = nil
	if err := s.DB.Save(hunt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(hunt)
}

// publish validates the hunt, freezes the ordered prize catalog into the
// immutable publish payload, and moves the hunt to published. There is no
// way back; catalog mutations are rejected from here on.
func (s *HuntService) publish(hunt *models.Hunt) error {
	if hunt.Status == models.HuntStatusPublished {
		return errors.New("hunt is already published")
	}
	if hunt.Name == "" {
		return &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if hunt.StartTime.IsZero() {
		return &models.ValidationError{Field: "start_time", Reason: "must be set"}
	}

	cat, err := hunt.Catalog()
	if err != nil {
		return err
	}
	payload, err := cat.Payload()
	if err != nil {
		return err
	}

	now := time.Now()
	hunt.PrizesPayload = string(payload)
	hunt.Status = models.HuntStatusPublished
	hunt.PublishedAt = &now
	hunt.PublishSchedule = nil
	return s.DB.Save(hunt).Error
}

func (s *HuntService) findHunt(id string) (*models.Hunt, int, error) {
	var hunt models.Hunt
	if err := s.DB.First(&hunt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.StatusNotFound, errors.New("hunt not found")
		}
		return nil, fiber.StatusInternalServerError, errors.New("DB error")
	}
	return &hunt, 0, nil
}
