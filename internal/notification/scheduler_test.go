package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	failures int
	sent     [][]Event
	byUser   map[int64]int
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{byUser: make(map[int64]int)}
}

func (f *fakeDispatcher) SendDigest(_ context.Context, recipientID int64, events []Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp unavailable")
	}
	snapshot := make([]Event, len(events))
	copy(snapshot, events)
	f.sent = append(f.sent, snapshot)
	f.byUser[recipientID]++
	return nil
}

func TestSchedulerSendsExactlyOneEmailPerRecipient(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)
	d := newFakeDispatcher()
	s := NewScheduler(q, d, time.Minute, 3, zap.NewNop())

	q.Add(1, ev(10, TypeRequestComment, now))
	q.Add(1, ev(11, TypeNewMessage, now.Add(time.Minute)))
	q.Add(1, ev(12, TypeRequestComment, now.Add(2*time.Minute)))

	// Window has not elapsed yet: nothing goes out
	now = now.Add(29 * time.Minute)
	s.Tick(context.Background())
	assert.Empty(t, d.sent)

	// Deadline (measured from the last enqueue) passes
	now = now.Add(5 * time.Minute)
	s.Tick(context.Background())
	require.Len(t, d.sent, 1)
	require.Len(t, d.sent[0], 3)
	assert.Equal(t, 1, d.byUser[1])

	// Chronological order inside the digest
	assert.Equal(t, int64(10), d.sent[0][0].NotificationID)
	assert.Equal(t, int64(11), d.sent[0][1].NotificationID)
	assert.Equal(t, int64(12), d.sent[0][2].NotificationID)

	// A further tick sends nothing
	now = now.Add(time.Hour)
	s.Tick(context.Background())
	assert.Len(t, d.sent, 1)
}

func TestSchedulerRetriesFailedDigestWithoutEventLoss(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)
	d := newFakeDispatcher()
	d.failures = 2
	s := NewScheduler(q, d, time.Minute, 3, zap.NewNop())

	q.Add(1, ev(10, TypeRequestComment, now))
	q.Add(1, ev(11, TypeStatusChange, now))
	now = now.Add(time.Hour)

	s.Tick(context.Background()) // fails
	s.Tick(context.Background()) // fails
	s.Tick(context.Background()) // succeeds

	require.Len(t, d.sent, 1)
	assert.Len(t, d.sent[0], 2)
	_, _, ok := q.Pending(1)
	assert.False(t, ok)
}

func TestSchedulerDropsDigestAfterRetryCap(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)
	d := newFakeDispatcher()
	d.failures = 100
	s := NewScheduler(q, d, time.Minute, 2, zap.NewNop())

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(time.Hour)

	for i := 0; i < 5; i++ {
		s.Tick(context.Background())
	}

	// Dropped after the cap; nothing left pending and nothing was sent
	assert.Empty(t, d.sent)
	_, _, ok := q.Pending(1)
	assert.False(t, ok)
}

func TestSchedulerHandlesMultipleRecipientsIndependently(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)
	d := newFakeDispatcher()
	s := NewScheduler(q, d, time.Minute, 3, zap.NewNop())

	q.Add(1, ev(10, TypeRequestComment, now))
	q.Add(2, ev(11, TypeNewMessage, now))
	now = now.Add(time.Hour)

	s.Tick(context.Background())

	assert.Equal(t, 1, d.byUser[1])
	assert.Equal(t, 1, d.byUser[2])
}
