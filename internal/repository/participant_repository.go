package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

type ParticipantRepositoryInterface interface {
	InsertIgnore(ctx context.Context, p *model.Participant) (bool, error)
	DeleteByCampaign(ctx context.Context, campaignID int) (int64, error)
	GetByID(ctx context.Context, id int) (*model.Participant, error)
	ListByCampaign(ctx context.Context, campaignID, offset, limit int) ([]model.Participant, error)
	ListOpenByContact(ctx context.Context, contactID int) ([]model.Participant, error)
	UpdateLocked(ctx context.Context, id int, fn func(p *model.Participant) (bool, error)) (*model.Participant, error)
}

type ParticipantRepository struct {
	DB *sql.DB
}

const participantColumns = `id, campaign_id, contact_id, sending_account_id, channel_id, status, current_step,
       next_send_at, awaiting_reply, last_error, last_sent_at, created_at, updated_at`

func scanParticipant(s scanner, p *model.Participant) error {
	return s.Scan(&p.ID, &p.CampaignID, &p.ContactID, &p.SendingAccountID, &p.ChannelID, &p.Status, &p.CurrentStep,
		&p.NextSendAt, &p.AwaitingReply, &p.LastError, &p.LastSentAt, &p.CreatedAt, &p.UpdatedAt)
}

// InsertIgnore enrolls a contact. It reports false without error when the
// contact already participates in the campaign.
func (r *ParticipantRepository) InsertIgnore(ctx context.Context, p *model.Participant) (bool, error) {
	query := `
        INSERT INTO participants (campaign_id, contact_id, sending_account_id, channel_id, status, current_step, next_send_at, awaiting_reply)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (campaign_id, contact_id) DO NOTHING
        RETURNING id, created_at, updated_at
    `
	err := r.DB.QueryRowContext(ctx, query, p.CampaignID, p.ContactID, p.SendingAccountID, p.ChannelID, p.Status,
		p.CurrentStep, p.NextSendAt, p.AwaitingReply).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteByCampaign drops every participant of the campaign; send records go
// with them through the foreign key cascade.
func (r *ParticipantRepository) DeleteByCampaign(ctx context.Context, campaignID int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM participants WHERE campaign_id=$1`, campaignID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id int) (*model.Participant, error) {
	var p model.Participant
	if err := scanParticipant(r.DB.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE id=$1`, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewParticipantNotFound(id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) ListByCampaign(ctx context.Context, campaignID, offset, limit int) ([]model.Participant, error) {
	return r.list(ctx, `SELECT `+participantColumns+` FROM participants WHERE campaign_id=$1 ORDER BY id LIMIT $2 OFFSET $3`,
		campaignID, limit, offset)
}

// ListOpenByContact returns the contact's participants that an inbound reply
// can still affect.
func (r *ParticipantRepository) ListOpenByContact(ctx context.Context, contactID int) ([]model.Participant, error) {
	return r.list(ctx, `
        SELECT `+participantColumns+`
        FROM participants
        WHERE contact_id=$1 AND status IN ('pending', 'sent')
        ORDER BY id`, contactID)
}

// UpdateLocked loads the participant under a row lock and hands it to fn.
// When fn reports a change the row is written back before the lock is
// released. The returned participant is the stored state.
func (r *ParticipantRepository) UpdateLocked(ctx context.Context, id int, fn func(p *model.Participant) (bool, error)) (*model.Participant, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var p model.Participant
	err = scanParticipant(tx.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE id=$1 FOR UPDATE`, id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewParticipantNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	changed, err := fn(&p)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &p, tx.Commit()
	}

	if err := updateParticipant(ctx, tx, &p); err != nil {
		return nil, err
	}
	return &p, tx.Commit()
}

func (r *ParticipantRepository) list(ctx context.Context, query string, args ...any) ([]model.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func updateParticipant(ctx context.Context, tx *sql.Tx, p *model.Participant) error {
	err := tx.QueryRowContext(ctx, `
        UPDATE participants
        SET status=$1, current_step=$2, next_send_at=$3, awaiting_reply=$4, last_error=$5, last_sent_at=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`,
		p.Status, p.CurrentStep, p.NextSendAt, p.AwaitingReply, p.LastError, p.LastSentAt, p.ID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewParticipantNotFound(p.ID)
	}
	if err != nil {
		return fmt.Errorf("update participant %d: %w", p.ID, err)
	}
	return nil
}

var _ ParticipantRepositoryInterface = (*ParticipantRepository)(nil)
