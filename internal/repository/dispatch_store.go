package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/dripline/internal/dispatch"
	"github.com/unclebandit/dripline/internal/model"
)

// DispatchStore is the Postgres work queue behind the dispatch loop. A claim
// is an open transaction holding a row lock taken with SKIP LOCKED, so
// concurrent workers never see the same participant.
type DispatchStore struct {
	DB *sql.DB
}

const claimQuery = `
    SELECT p.id, p.campaign_id, p.contact_id, p.sending_account_id, p.channel_id, p.status, p.current_step,
           p.next_send_at, p.awaiting_reply, p.last_error, p.last_sent_at, p.created_at, p.updated_at,
           c.id, c.organization_id, c.name, c.status, c.audience, c.schedule, c.lead_settings,
           c.pipeline_id, c.sending_account_id, c.created_at, c.updated_at
    FROM participants p
    JOIN campaigns c ON c.id = p.campaign_id
    WHERE c.status = 'active'
      AND p.status IN ('pending', 'sent')
      AND p.next_send_at IS NOT NULL
      AND p.next_send_at <= $1
      AND NOT (p.id = ANY($2))
    ORDER BY p.next_send_at, p.id
    LIMIT 1
    FOR UPDATE OF p SKIP LOCKED
`

func (s *DispatchStore) ClaimNextDue(ctx context.Context, now time.Time, skip []int) (dispatch.Claim, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}

	var (
		p model.Participant
		c model.Campaign
	)
	err = tx.QueryRowContext(ctx, claimQuery, now, pq.Array(int64s(skip))).Scan(
		&p.ID, &p.CampaignID, &p.ContactID, &p.SendingAccountID, &p.ChannelID, &p.Status, &p.CurrentStep,
		&p.NextSendAt, &p.AwaitingReply, &p.LastError, &p.LastSentAt, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.OrganizationID, &c.Name, &c.Status, &c.Audience, &c.Schedule, &c.LeadSettings,
		&c.PipelineID, &c.SendingAccountID, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return nil, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("claim participant: %w", err)
	}
	return &pgClaim{tx: tx, participant: p, campaign: &c}, nil
}

func (s *DispatchStore) SendCountsSince(ctx context.Context, since time.Time) (map[int]int, error) {
	return countSendsSince(ctx, s.DB, since)
}

func (s *DispatchStore) CompleteIfDrained(ctx context.Context, campaignID int) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
        UPDATE campaigns SET status = 'completed', updated_at = NOW()
        WHERE id = $1 AND status = 'active'
          AND NOT EXISTS (
              SELECT 1 FROM participants
              WHERE campaign_id = $1 AND status IN ('pending', 'sent'))`, campaignID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type pgClaim struct {
	tx          *sql.Tx
	participant model.Participant
	campaign    *model.Campaign
}

func (c *pgClaim) Participant() model.Participant { return c.participant }
func (c *pgClaim) Campaign() *model.Campaign      { return c.campaign }

func (c *pgClaim) Commit(ctx context.Context, t dispatch.Transition) error {
	p := t.Participant
	if err := updateParticipant(ctx, c.tx, &p); err != nil {
		_ = c.tx.Rollback()
		return err
	}
	if sr := t.Record; sr != nil {
		err := c.tx.QueryRowContext(ctx, `
            INSERT INTO send_records (participant_id, campaign_id, sending_account_id, step_index, message_id, outcome, sent_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id`,
			sr.ParticipantID, sr.CampaignID, sr.SendingAccountID, sr.StepIndex, sr.MessageID, sr.Outcome, sr.SentAt,
		).Scan(&sr.ID)
		if err != nil {
			_ = c.tx.Rollback()
			return fmt.Errorf("insert send record: %w", err)
		}
	}
	return c.tx.Commit()
}

func (c *pgClaim) Rollback() error {
	err := c.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

var _ dispatch.Store = (*DispatchStore)(nil)
