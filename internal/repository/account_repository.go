package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

type AccountRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.SendingAccount, error)
	ListActive(ctx context.Context, orgID int) ([]model.SendingAccount, error)
}

type AccountRepository struct {
	DB *sql.DB
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (*model.SendingAccount, error) {
	var a model.SendingAccount
	err := r.DB.QueryRowContext(ctx, `SELECT id, organization_id, name, kind, active FROM sending_accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Kind, &a.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &appErrors.ErrResourceNotFound{Resource: "sending account", ID: id}
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) ListActive(ctx context.Context, orgID int) ([]model.SendingAccount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, organization_id, name, kind, active FROM sending_accounts WHERE organization_id=$1 AND active ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []model.SendingAccount
	for rows.Next() {
		var a model.SendingAccount
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Kind, &a.Active); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

var _ AccountRepositoryInterface = (*AccountRepository)(nil)
