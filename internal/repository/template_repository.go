package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.Template) error
	Update(ctx context.Context, t *model.Template) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Template, error)
	List(ctx context.Context, campaignID *int) ([]model.Template, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	query := `
        INSERT INTO templates (campaign_id, name, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	return r.DB.QueryRowContext(ctx, query, t.CampaignID, t.Name, t.Content).Scan(&t.ID, &t.CreatedAt)
}

func (r *TemplateRepository) Update(ctx context.Context, t *model.Template) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE templates SET name=$1, content=$2, updated_at=NOW() WHERE id=$3`, t.Name, t.Content, t.ID)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewTemplateNotFound(t.ID))
}

func (r *TemplateRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewTemplateNotFound(id))
}

func (r *TemplateRepository) GetByID(ctx context.Context, id int) (*model.Template, error) {
	var t model.Template
	err := r.DB.QueryRowContext(ctx, `SELECT id, campaign_id, name, content, created_at, updated_at FROM templates WHERE id=$1`, id).
		Scan(&t.ID, &t.CampaignID, &t.Name, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

// List returns a campaign's templates, or the reusable presets when
// campaignID is nil.
func (r *TemplateRepository) List(ctx context.Context, campaignID *int) ([]model.Template, error) {
	query := `SELECT id, campaign_id, name, content, created_at, updated_at FROM templates WHERE campaign_id IS NULL ORDER BY id`
	args := []any{}
	if campaignID != nil {
		query = `SELECT id, campaign_id, name, content, created_at, updated_at FROM templates WHERE campaign_id=$1 ORDER BY id`
		args = append(args, *campaignID)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.Name, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
