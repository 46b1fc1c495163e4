// models/bounty_event.go
package models

import "time"

// BountyEvent = one accepted pledge and how its side effects went.
// Append-only; the label/comment/alert steps are best-effort and the
// flags record which of them landed.
type BountyEvent struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RepositoryID  string    `gorm:"index" json:"repository_id"`
	CommentID     int64     `gorm:"index" json:"comment_id"` // tracker comment that carried the command, 0 if unknown
	IssueNumber   int       `gorm:"not null;index" json:"issue_number"`
	Sponsor       string    `gorm:"not null;index" json:"sponsor"`
	Amount        int64     `gorm:"not null" json:"amount"`
	NewTotal      int64     `gorm:"not null" json:"new_total"`
	LabelUpdated  bool      `json:"label_updated"`
	CommentSynced bool      `json:"comment_synced"`
	AlertSent     bool      `json:"alert_sent"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
