package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/dripline/internal/model"
)

type PipelineRepositoryInterface interface {
	StageOf(ctx context.Context, contactID, pipelineID int) (int, bool, error)
	SetStage(ctx context.Context, contactID, pipelineID, stageID int) error
	ContactsInStage(ctx context.Context, pipelineID, stageID int) ([]int, error)
	CreateOrGetLead(ctx context.Context, contactID, pipelineID, stageID, ownerID int) (*model.Lead, bool, error)
}

// PipelineRepository is the local view of the CRM pipeline: which stage each
// contact sits in, and the leads created from campaign activity.
type PipelineRepository struct {
	DB *sql.DB
}

// StageOf reports the contact's stage within the pipeline. ok is false when
// the contact has no position there.
func (r *PipelineRepository) StageOf(ctx context.Context, contactID, pipelineID int) (int, bool, error) {
	var stage int
	err := r.DB.QueryRowContext(ctx,
		`SELECT stage_id FROM pipeline_positions WHERE contact_id=$1 AND pipeline_id=$2`, contactID, pipelineID).Scan(&stage)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return stage, true, nil
}

// SetStage moves the contact to a stage, creating the position if needed.
func (r *PipelineRepository) SetStage(ctx context.Context, contactID, pipelineID, stageID int) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO pipeline_positions (contact_id, pipeline_id, stage_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (contact_id, pipeline_id) DO UPDATE SET stage_id = EXCLUDED.stage_id, updated_at = NOW()`,
		contactID, pipelineID, stageID)
	return err
}

// ContactsInStage lists contact ids currently positioned in the stage.
func (r *PipelineRepository) ContactsInStage(ctx context.Context, pipelineID, stageID int) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT contact_id FROM pipeline_positions WHERE pipeline_id=$1 AND stage_id=$2 ORDER BY contact_id`, pipelineID, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateOrGetLead returns the contact's lead in the pipeline, creating it
// first if there is none. created reports whether this call inserted it.
func (r *PipelineRepository) CreateOrGetLead(ctx context.Context, contactID, pipelineID, stageID, ownerID int) (*model.Lead, bool, error) {
	var l model.Lead
	err := r.DB.QueryRowContext(ctx, `
        INSERT INTO leads (contact_id, pipeline_id, stage_id, owner_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (contact_id, pipeline_id) DO NOTHING
        RETURNING id, contact_id, pipeline_id, stage_id, owner_id, created_at`,
		contactID, pipelineID, stageID, ownerID,
	).Scan(&l.ID, &l.ContactID, &l.PipelineID, &l.StageID, &l.OwnerID, &l.CreatedAt)
	if err == nil {
		return &l, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert lead: %w", err)
	}

	err = r.DB.QueryRowContext(ctx, `
        SELECT id, contact_id, pipeline_id, stage_id, owner_id, created_at
        FROM leads WHERE contact_id=$1 AND pipeline_id=$2`, contactID, pipelineID,
	).Scan(&l.ID, &l.ContactID, &l.PipelineID, &l.StageID, &l.OwnerID, &l.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("load existing lead: %w", err)
	}
	return &l, false, nil
}

var _ PipelineRepositoryInterface = (*PipelineRepository)(nil)
