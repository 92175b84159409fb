package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/dripline/internal/ratelimit"
)

func TestReserve_StopsAtCeiling(t *testing.T) {
	q := ratelimit.New(3, map[int]int{7: 2})

	assert.True(t, q.Reserve(7))
	assert.False(t, q.Reserve(7), "account 7 already had 2 of 3")
	assert.True(t, q.Reserve(8), "other accounts are independent")
	assert.Equal(t, 3, q.Used(7))
}

func TestRelease_FreesSlot(t *testing.T) {
	q := ratelimit.New(1, nil)
	assert.True(t, q.Reserve(1))
	assert.False(t, q.Reserve(1))
	q.Release(1)
	assert.True(t, q.Reserve(1))

	q.Release(99)
	assert.Equal(t, 0, q.Used(99))
}

func TestNew_CopiesCounts(t *testing.T) {
	counts := map[int]int{1: 1}
	q := ratelimit.New(2, counts)
	q.Reserve(1)
	assert.Equal(t, 1, counts[1])
}

func TestUnlimited(t *testing.T) {
	q := ratelimit.New(0, map[int]int{1: 1000})
	assert.True(t, q.Reserve(1))
}

func TestReserve_Concurrent(t *testing.T) {
	q := ratelimit.New(40, nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q.Reserve(5) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 40, granted)
}

func TestDayBoundaries(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	assert.NoError(t, err)

	now := time.Date(2026, time.October, 19, 22, 30, 0, 0, time.UTC) // 01:30 on the 20th in Nairobi
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), ratelimit.DayStart(now, nil))
	assert.Equal(t, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC), ratelimit.NextDay(now, time.UTC))
	assert.True(t, ratelimit.DayStart(now, nairobi).Equal(time.Date(2026, time.October, 20, 0, 0, 0, 0, nairobi)))
	assert.True(t, ratelimit.NextDay(now, nairobi).Equal(time.Date(2026, time.October, 21, 0, 0, 0, 0, nairobi)))
}
