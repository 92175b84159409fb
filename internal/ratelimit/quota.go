// Package ratelimit enforces the per-account daily send ceiling.
//
// A Quota is built at the start of every dispatch batch from the durable
// send log and thrown away afterwards; it is never shared between batches
// or processes.
package ratelimit

import (
	"sync"
	"time"
)

// Quota tracks sends per sending account for one calendar day.
type Quota struct {
	mu     sync.Mutex
	limit  int
	counts map[int]int
}

// New seeds a quota with today's counts. A limit <= 0 disables the ceiling.
func New(limit int, counts map[int]int) *Quota {
	c := make(map[int]int, len(counts))
	for k, v := range counts {
		c[k] = v
	}
	return &Quota{limit: limit, counts: c}
}

// Reserve takes one slot for the account, or reports false when the account
// has reached the ceiling. The slot is taken immediately so that later claims
// in the same batch see it before the send commits.
func (q *Quota) Reserve(accountID int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && q.counts[accountID] >= q.limit {
		return false
	}
	q.counts[accountID]++
	return true
}

// Release hands back a slot reserved for an attempt that did not send.
func (q *Quota) Release(accountID int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.counts[accountID] > 0 {
		q.counts[accountID]--
	}
}

// Used returns the current count for the account.
func (q *Quota) Used(accountID int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts[accountID]
}

// DayStart is midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// NextDay is midnight of the calendar day after t in loc.
func NextDay(t time.Time, loc *time.Location) time.Time {
	start := DayStart(t, loc)
	return time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())
}
