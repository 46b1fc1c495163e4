// models/hunt.go
package models

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	HuntStatusDraft     = "draft"
	HuntStatusScheduled = "scheduled"
	HuntStatusPublished = "published"
)

var (
	ErrPrizeNotFound = errors.New("prize not found")
	ErrHuntPublished = errors.New("hunt is published; catalog is frozen")
	ErrStaleCatalog  = errors.New("catalog version is stale")
)

// Hunt is an organizer-defined bug-bounty event. Lifecycle:
// draft → scheduled → published. There is no transition out of published.
type Hunt struct {
	ID             string `json:"id" gorm:"primaryKey"`
	OrganizationID string `json:"organization_id" gorm:"not null;index"`
	RepositoryID   string `json:"repository_id"`
	Name           string `json:"name" gorm:"not null"`
	Slug           string `json:"slug" gorm:"uniqueIndex;not null"`
	Description    string `json:"description"`
	Rules          string `json:"rules"`

	// 🖼️ Media
	LogoURL   string `json:"logo_url"`
	BannerURL string `json:"banner_url"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 🎛️ Publishing state
	Status          string     `json:"status" gorm:"default:'draft'"` // draft | scheduled | published
	PublishSchedule *time.Time `json:"publish_schedule,omitempty"`    // only used if scheduled
	PublishedAt     *time.Time `json:"published_at,omitempty" gorm:"index"`

	// 🏆 Prize catalog. Held server-side while the hunt is in draft:
	// CatalogJSON is the working PrizeCatalog, CatalogVersion the
	// optimistic-concurrency token bumped on every catalog mutation.
	// PrizesPayload is written once at publish and never changes.
	CatalogJSON    string `json:"-" gorm:"type:jsonb;default:'{}'"`
	CatalogVersion int    `json:"catalog_version" gorm:"default:0"`
	PrizesPayload  string `json:"prizes,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Organization Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (h *Hunt) Catalog() (PrizeCatalog, error) {
	var cat PrizeCatalog
	if h.CatalogJSON == "" || h.CatalogJSON == "{}" {
		return cat, nil
	}
	if err := json.Unmarshal([]byte(h.CatalogJSON), &cat); err != nil {
		return cat, err
	}
	return cat, nil
}

func (h *Hunt) SetCatalog(cat PrizeCatalog) error {
	raw, err := json.Marshal(cat)
	if err != nil {
		return err
	}
	h.CatalogJSON = string(raw)
	h.CatalogVersion++
	return nil
}
