package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

// ContactRepositoryInterface defines methods used by service
type ContactRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Contact, error)
	ListByIDs(ctx context.Context, orgID int, ids []int) ([]model.Contact, error)
	Search(ctx context.Context, orgID int, f model.AudienceFilter, excludeEnrolled bool) ([]model.Contact, error)
}

// ContactRepository is read-only; contacts are owned by the CRM import.
type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, organization_id, first_name, last_name, email, phone, external_id, company_name, attributes`

func scanContact(s scanner, c *model.Contact) error {
	return s.Scan(&c.ID, &c.OrganizationID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.ExternalID, &c.CompanyName, &c.Attributes)
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id int) (*model.Contact, error) {
	var c model.Contact
	if err := scanContact(r.DB.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewContactNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// ListByIDs resolves an explicit id list, silently dropping ids that do not
// exist or belong to another organization.
func (r *ContactRepository) ListByIDs(ctx context.Context, orgID int, ids []int) ([]model.Contact, error) {
	if len(ids) == 0 {
		return []model.Contact{}, nil
	}
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE organization_id = $1 AND id = ANY($2) ORDER BY id`,
		orgID, pq.Array(int64s(ids)))
}

// Search applies an audience filter. excludeEnrolled drops contacts that
// already participate in any campaign.
func (r *ContactRepository) Search(ctx context.Context, orgID int, f model.AudienceFilter, excludeEnrolled bool) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts c WHERE organization_id = $1`
	args := []any{orgID}
	argPos := 2

	if f.Search != "" {
		query += fmt.Sprintf(` AND (first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d)`, argPos)
		args = append(args, "%"+f.Search+"%")
		argPos++
	}
	if f.Company != "" {
		query += fmt.Sprintf(` AND company_name ILIKE $%d`, argPos)
		args = append(args, "%"+f.Company+"%")
		argPos++
	}
	if f.HasEmail {
		query += ` AND email <> ''`
	}
	if f.HasPhone {
		query += ` AND phone <> ''`
	}
	if excludeEnrolled {
		query += ` AND NOT EXISTS (SELECT 1 FROM participants p WHERE p.contact_id = c.id)`
	}
	query += ` ORDER BY id`

	return r.query(ctx, query, args...)
}

func (r *ContactRepository) query(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func int64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
