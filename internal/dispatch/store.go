package dispatch

import (
	"context"
	"time"

	"github.com/unclebandit/dripline/internal/model"
)

// Store is the shared work queue the dispatch loop claims from. Any number
// of processes may claim concurrently; a claimed participant is invisible to
// other claimers until its claim is committed or rolled back.
type Store interface {
	// ClaimNextDue locks one participant of an active campaign whose status is
	// pending or sent and whose next_send_at is at or before now, ignoring the
	// ids in skip. It returns nil, nil when nothing is due.
	ClaimNextDue(ctx context.Context, now time.Time, skip []int) (Claim, error)
	// SendCountsSince counts send records per sending account from since on.
	SendCountsSince(ctx context.Context, since time.Time) (map[int]int, error)
	// CompleteIfDrained flips an active campaign to completed when none of its
	// participants is pending or sent.
	CompleteIfDrained(ctx context.Context, campaignID int) (bool, error)
}

// Claim is exclusive ownership of one participant until Commit or Rollback.
type Claim interface {
	Participant() model.Participant
	Campaign() *model.Campaign
	// Commit persists the transition and its send record atomically and
	// releases the claim. On error nothing is persisted.
	Commit(ctx context.Context, t Transition) error
	Rollback() error
}

// Transition is the participant row as it should be stored, plus the send
// record to append when a message went out.
type Transition struct {
	Participant model.Participant
	Record      *model.SendRecord
}
