package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(window time.Duration, now *time.Time) *Queue {
	q := NewQueue(window)
	q.now = func() time.Time { return *now }
	return q
}

func ev(id int64, t string, at time.Time) Event {
	return Event{NotificationID: id, Type: t, Message: "m", CreatedAt: at}
}

func TestQueueAddOpensDigestAndSetsDeadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))

	deadline, count, ok := q.Pending(1)
	require.True(t, ok)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(30*time.Minute), deadline)
}

func TestQueueAddResetsDeadlineFromLastEnqueue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))

	now = now.Add(20 * time.Minute)
	q.Add(1, ev(11, TypeNewMessage, now))

	deadline, count, ok := q.Pending(1)
	require.True(t, ok)
	assert.Equal(t, 2, count)
	// Deadline counts from the last enqueue, not the first
	assert.Equal(t, now.Add(30*time.Minute), deadline)
}

func TestQueueIgnoresDuplicateNotificationIDs(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	q.Add(1, ev(10, TypeRequestComment, now))

	_, count, ok := q.Pending(1)
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestQueueSingleDigestPerRecipient(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	q.Add(1, ev(11, TypeRequestComment, now))
	q.Add(2, ev(12, TypeNewMessage, now))

	_, count1, _ := q.Pending(1)
	_, count2, _ := q.Pending(2)
	assert.Equal(t, 2, count1)
	assert.Equal(t, 1, count2)
}

func TestQueueDrainReturnsEventsInInsertionOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	q.Add(1, ev(11, TypeNewMessage, now.Add(time.Minute)))
	q.Add(1, ev(12, TypeStatusChange, now.Add(2*time.Minute)))

	events := q.Drain(1)
	require.Len(t, events, 3)
	assert.Equal(t, int64(10), events[0].NotificationID)
	assert.Equal(t, int64(11), events[1].NotificationID)
	assert.Equal(t, int64(12), events[2].NotificationID)

	// Digest no longer exists after the drain
	assert.Nil(t, q.Drain(1))
	_, _, ok := q.Pending(1)
	assert.False(t, ok)
}

func TestQueueClaimExpiredOnlyTakesExpiredDigests(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(10 * time.Minute)
	q.Add(2, ev(11, TypeNewMessage, now))

	// Recipient 1's deadline passes; recipient 2's does not
	now = now.Add(25 * time.Minute)
	claims := q.claimExpired()
	require.Len(t, claims, 1)
	assert.Equal(t, int64(1), claims[0].recipientID)
}

func TestQueueClaimedDigestCannotBeDrainedOrReclaimed(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(time.Hour)

	claims := q.claimExpired()
	require.Len(t, claims, 1)

	// Flush during dispatch must not double-send
	assert.Nil(t, q.Drain(1))
	assert.Empty(t, q.claimExpired())
}

func TestQueueCompleteRemovesDigest(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(time.Hour)

	claims := q.claimExpired()
	require.Len(t, claims, 1)
	q.complete(1, len(claims[0].events))

	_, _, ok := q.Pending(1)
	assert.False(t, ok)
}

func TestQueueEventsAddedDuringDispatchSurviveCompletion(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(time.Hour)

	claims := q.claimExpired()
	require.Len(t, claims, 1)

	// A new event lands while the tick is sending
	q.Add(1, ev(11, TypeNewMessage, now))
	q.complete(1, len(claims[0].events))

	_, count, ok := q.Pending(1)
	require.True(t, ok)
	assert.Equal(t, 1, count)

	events := q.Drain(1)
	require.Len(t, events, 1)
	assert.Equal(t, int64(11), events[0].NotificationID)
}

func TestQueueRequeueMergesAndRetriesNextTick(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(time.Hour)

	claims := q.claimExpired()
	require.Len(t, claims, 1)

	// Event enqueued during the failed attempt merges into the same digest
	q.Add(1, ev(11, TypeNewMessage, now))
	dropped := q.requeue(1, len(claims[0].events), 3)
	assert.False(t, dropped)

	claims = q.claimExpired()
	require.Len(t, claims, 1)
	require.Len(t, claims[0].events, 2)
	assert.Equal(t, int64(10), claims[0].events[0].NotificationID)
	assert.Equal(t, int64(11), claims[0].events[1].NotificationID)
}

func TestQueueRequeueDropsAfterRetryCap(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(30*time.Minute, &now)
	maxRetries := 2

	q.Add(1, ev(10, TypeRequestComment, now))
	now = now.Add(time.Hour)

	var dropped bool
	for i := 0; i < maxRetries+1; i++ {
		claims := q.claimExpired()
		require.Len(t, claims, 1)
		dropped = q.requeue(1, len(claims[0].events), maxRetries)
	}

	assert.True(t, dropped)
	_, _, ok := q.Pending(1)
	assert.False(t, ok)
}
