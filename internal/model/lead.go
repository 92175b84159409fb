// internal/model/lead.go
package model

import "time"

type Lead struct {
	ID         int       `db:"id" json:"id"`
	ContactID  int       `db:"contact_id" json:"contact_id"`
	PipelineID int       `db:"pipeline_id" json:"pipeline_id"`
	StageID    int       `db:"stage_id" json:"stage_id"`
	OwnerID    int       `db:"owner_id" json:"owner_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
