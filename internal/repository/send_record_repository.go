package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/dripline/internal/model"
)

type SendRecordRepositoryInterface interface {
	CountsSince(ctx context.Context, since time.Time) (map[int]int, error)
	ListByParticipant(ctx context.Context, participantID int) ([]model.SendRecord, error)
}

// SendRecordRepository reads the send log. Rows are only ever written by a
// dispatch claim commit.
type SendRecordRepository struct {
	DB *sql.DB
}

// CountsSince groups sends from since on by sending account.
func (r *SendRecordRepository) CountsSince(ctx context.Context, since time.Time) (map[int]int, error) {
	return countSendsSince(ctx, r.DB, since)
}

func (r *SendRecordRepository) ListByParticipant(ctx context.Context, participantID int) ([]model.SendRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, participant_id, campaign_id, sending_account_id, step_index, message_id, outcome, sent_at
        FROM send_records
        WHERE participant_id=$1
        ORDER BY step_index`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.SendRecord{}
	for rows.Next() {
		var sr model.SendRecord
		if err := rows.Scan(&sr.ID, &sr.ParticipantID, &sr.CampaignID, &sr.SendingAccountID, &sr.StepIndex,
			&sr.MessageID, &sr.Outcome, &sr.SentAt); err != nil {
			return nil, err
		}
		records = append(records, sr)
	}
	return records, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func countSendsSince(ctx context.Context, q queryer, since time.Time) (map[int]int, error) {
	rows, err := q.QueryContext(ctx, `
        SELECT sending_account_id, COUNT(*)
        FROM send_records
        WHERE sent_at >= $1
        GROUP BY sending_account_id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[int]int{}
	for rows.Next() {
		var account, n int
		if err := rows.Scan(&account, &n); err != nil {
			return nil, err
		}
		counts[account] = n
	}
	return counts, rows.Err()
}

var _ SendRecordRepositoryInterface = (*SendRecordRepository)(nil)
