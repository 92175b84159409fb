// internal/model/template.go
package model

import "time"

// Template is message content with {{contact.field}} and {{company.name}}
// placeholders. A nil CampaignID marks a reusable preset.
type Template struct {
	ID         int        `db:"id" json:"id"`
	CampaignID *int       `db:"campaign_id" json:"campaign_id,omitempty"`
	Name       string     `db:"name" json:"name"`
	Content    string     `db:"content" json:"content"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
