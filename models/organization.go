// models/organization.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TrackerGitHub = "github"
	TrackerGitLab = "gitlab"
)

type Organization struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Email       string `json:"email"`

	// 🖼️ Media
	LogoURL string `json:"logo_url"` // e.g., CDN URL from R2

	Repositories []Repository `json:"repositories,omitempty" gorm:"foreignKey:OrganizationID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Repository is a tracked issue-tracker repository owned by an organization.
// Bounty commands are scanned from its issue comments.
type Repository struct {
	ID             string `json:"id" gorm:"primaryKey"`
	OrganizationID string `json:"organization_id" gorm:"not null;index"`
	Tracker        string `json:"tracker" gorm:"default:'github'"` // github | gitlab
	Owner          string `json:"owner" gorm:"not null"`
	Name           string `json:"name" gorm:"not null"`
	URL            string `json:"url"`

	// Poll worker checkpoint: timestamp watermark plus the id of the
	// last processed comment. The since-listing is inclusive, so the id
	// is what actually prevents a pledge from being applied twice.
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
	LastCommentID int64      `json:"last_comment_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// FullName returns the tracker-side identifier, e.g. "OWASP-BLT/BLT".
func (r *Repository) FullName() string {
	return r.Owner + "/" + r.Name
}
