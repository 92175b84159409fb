package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

type CampaignRepositoryInterface interface {
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	UpdateStatus(ctx context.Context, campaignID int, status string) error
	Update(ctx context.Context, c *model.Campaign) error
	Create(ctx context.Context, c *model.Campaign) error
	GetCampaignStats(ctx context.Context, campaignID int, since time.Time) (map[string]int, error)
	ListByAudienceStage(ctx context.Context, pipelineID, stageID int) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, organization_id, name, status, audience, schedule, lead_settings,
       pipeline_id, sending_account_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s scanner, c *model.Campaign) error {
	return s.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Status, &c.Audience, &c.Schedule, &c.LeadSettings,
		&c.PipelineID, &c.SendingAccountID, &c.CreatedAt, &c.UpdatedAt)
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	if c.LeadSettings.Trigger == "" {
		c.LeadSettings.Trigger = model.LeadNone
	}
	query := `
        INSERT INTO campaigns (organization_id, name, status, audience, schedule, lead_settings, pipeline_id, sending_account_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, c.OrganizationID, c.Name, c.Status, c.Audience, c.Schedule, c.LeadSettings,
		c.PipelineID, c.SendingAccountID, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, audience=$2, schedule=$3, lead_settings=$4, pipeline_id=$5, sending_account_id=$6, updated_at=NOW()
        WHERE id=$7
    `
	res, err := r.DB.ExecContext(ctx, query, c.Name, c.Audience, c.Schedule, c.LeadSettings, c.PipelineID, c.SendingAccountID, c.ID)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewCampaignNotFound(c.ID))
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now(), campaignID)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewCampaignNotFound(campaignID))
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	var c model.Campaign
	if err := scanCampaign(r.DB.QueryRowContext(ctx, query, id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)

	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := scanCampaign(rows, c); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListByAudienceStage returns active campaigns that enrol contacts entering
// the given pipeline stage.
func (r *CampaignRepository) ListByAudienceStage(ctx context.Context, pipelineID, stageID int) ([]*model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE status = 'active'
          AND audience->>'kind' = 'pipeline_stage'
          AND (audience->>'pipeline_id')::int = $1
          AND (audience->>'stage_id')::int = $2
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query, pipelineID, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Campaign
	for rows.Next() {
		c := &model.Campaign{}
		if err := scanCampaign(rows, c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCampaignStats counts participants per status plus send records overall
// and since the given instant.
func (r *CampaignRepository) GetCampaignStats(ctx context.Context, campaignID int, since time.Time) (map[string]int, error) {
	stats := map[string]int{
		"total":                    0,
		model.ParticipantPending:   0,
		model.ParticipantSent:      0,
		model.ParticipantReplied:   0,
		model.ParticipantCompleted: 0,
		model.ParticipantFailed:    0,
		"messages_sent":            0,
		"messages_today":           0,
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM participants WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var sent, today int
	err = r.DB.QueryRowContext(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE sent_at >= $2)
        FROM send_records
        WHERE campaign_id = $1`, campaignID, since).Scan(&sent, &today)
	if err != nil {
		return nil, err
	}
	stats["messages_sent"] = sent
	stats["messages_today"] = today
	return stats, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
