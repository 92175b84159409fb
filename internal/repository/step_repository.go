package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

type StepRepositoryInterface interface {
	ListByCampaign(ctx context.Context, campaignID int) ([]model.Step, error)
	GetByID(ctx context.Context, id int) (*model.Step, error)
	Insert(ctx context.Context, s *model.Step) error
	Update(ctx context.Context, s *model.Step) error
	Delete(ctx context.Context, id int) error
}

// StepRepository keeps each campaign's order indices dense: inserting shifts
// later steps up, deleting closes the gap.
type StepRepository struct {
	DB *sql.DB
}

const stepColumns = `id, campaign_id, order_index, template_id, delay_hours, delay_minutes, trigger_type, conditions, created_at`

func scanStep(s scanner, st *model.Step) error {
	return s.Scan(&st.ID, &st.CampaignID, &st.OrderIndex, &st.TemplateID, &st.DelayHours, &st.DelayMinutes,
		&st.Trigger, &st.Conditions, &st.CreatedAt)
}

func (r *StepRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.Step, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+stepColumns+` FROM sequence_steps WHERE campaign_id=$1 ORDER BY order_index`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []model.Step{}
	for rows.Next() {
		var st model.Step
		if err := scanStep(rows, &st); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

func (r *StepRepository) GetByID(ctx context.Context, id int) (*model.Step, error) {
	var st model.Step
	if err := scanStep(r.DB.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM sequence_steps WHERE id=$1`, id), &st); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewStepNotFound(id)
		}
		return nil, err
	}
	return &st, nil
}

// Insert places the step at s.OrderIndex, or appends it when the index is
// negative or past the end. s.OrderIndex is set to the final position.
func (r *StepRepository) Insert(ctx context.Context, s *model.Step) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sequence_steps WHERE campaign_id=$1`, s.CampaignID).Scan(&count); err != nil {
		return fmt.Errorf("count steps: %w", err)
	}
	if s.OrderIndex < 0 || s.OrderIndex > count {
		s.OrderIndex = count
	}
	if s.OrderIndex < count {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sequence_steps SET order_index = order_index + 1 WHERE campaign_id=$1 AND order_index >= $2`,
			s.CampaignID, s.OrderIndex); err != nil {
			return fmt.Errorf("shift steps: %w", err)
		}
	}

	err = tx.QueryRowContext(ctx, `
        INSERT INTO sequence_steps (campaign_id, order_index, template_id, delay_hours, delay_minutes, trigger_type, conditions)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`,
		s.CampaignID, s.OrderIndex, s.TemplateID, s.DelayHours, s.DelayMinutes, s.Trigger, s.Conditions,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return tx.Commit()
}

// Update changes everything except the step's position.
func (r *StepRepository) Update(ctx context.Context, s *model.Step) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE sequence_steps
        SET template_id=$1, delay_hours=$2, delay_minutes=$3, trigger_type=$4, conditions=$5
        WHERE id=$6`,
		s.TemplateID, s.DelayHours, s.DelayMinutes, s.Trigger, s.Conditions, s.ID)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewStepNotFound(s.ID))
}

func (r *StepRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var campaignID, index int
	err = tx.QueryRowContext(ctx, `DELETE FROM sequence_steps WHERE id=$1 RETURNING campaign_id, order_index`, id).Scan(&campaignID, &index)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewStepNotFound(id)
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sequence_steps SET order_index = order_index - 1 WHERE campaign_id=$1 AND order_index > $2`,
		campaignID, index); err != nil {
		return fmt.Errorf("close gap: %w", err)
	}
	return tx.Commit()
}

var _ StepRepositoryInterface = (*StepRepository)(nil)
