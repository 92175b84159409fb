// internal/model/send_record.go
package model

import "time"

const SendOutcomeSent = "sent"

// SendRecord is the append-only log of successful sends.
type SendRecord struct {
	ID               int       `db:"id" json:"id"`
	ParticipantID    int       `db:"participant_id" json:"participant_id"`
	CampaignID       int       `db:"campaign_id" json:"campaign_id"`
	SendingAccountID int       `db:"sending_account_id" json:"sending_account_id"`
	StepIndex        int       `db:"step_index" json:"step_index"`
	MessageID        string    `db:"message_id" json:"message_id"`
	Outcome          string    `db:"outcome" json:"outcome"`
	SentAt           time.Time `db:"sent_at" json:"sent_at"`
}
