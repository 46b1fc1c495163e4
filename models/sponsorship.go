// models/sponsorship.go
package models

import "time"

// Sponsorship is the durable per-sponsor pledge counter. One row per
// sponsor identity, upserted on every accepted /bounty command.
type Sponsorship struct {
	Sponsor     string    `gorm:"primaryKey" json:"sponsor"`
	Count       int64     `gorm:"not null;default:0" json:"count"`
	LastIssue   string    `json:"last_issue"`
	LastAmount  int64     `json:"last_amount"`
	LastPledged time.Time `json:"last_pledged" gorm:"autoUpdateTime"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
