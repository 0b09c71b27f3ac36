package notification

import (
	"sync"
	"time"
)

// Event is one queued notification awaiting digest delivery
type Event struct {
	NotificationID int64
	Type           string
	Message        string
	Link           string
	CreatedAt      time.Time
}

type digestState int

const (
	digestOpen digestState = iota
	digestDispatching
)

// digest is the pending batch for one recipient. Deadline moves forward on
// every enqueue; events stay in insertion order.
type digest struct {
	state    digestState
	events   []Event
	deadline time.Time
	retries  int
}

// Queue buffers notification events per recipient and coalesces them into
// one digest per recipient. At most one digest exists per recipient; a new
// event resets the digest deadline instead of opening a second one.
type Queue struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	digests map[int64]*digest
}

// NewQueue creates a digest queue with the given inactivity window
func NewQueue(window time.Duration) *Queue {
	return &Queue{
		window:  window,
		now:     time.Now,
		digests: make(map[int64]*digest),
	}
}

// Add appends an event to the recipient's digest, opening one if absent,
// and resets the deadline to now + window. Duplicate notification IDs are
// ignored. Events added while the digest is dispatching are kept for the
// next batch.
func (q *Queue) Add(recipientID int64, ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.digests[recipientID]
	if !ok {
		d = &digest{state: digestOpen}
		q.digests[recipientID] = d
	}

	for _, existing := range d.events {
		if existing.NotificationID == ev.NotificationID {
			return
		}
	}
	d.events = append(d.events, ev)

	if d.state == digestOpen {
		d.deadline = q.now().Add(q.window)
	}
}

// Drain removes the recipient's open digest and returns its events, oldest
// first. Returns nil when there is nothing to flush or when the scheduler
// has already claimed the digest for dispatch.
func (q *Queue) Drain(recipientID int64) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.digests[recipientID]
	if !ok || d.state != digestOpen || len(d.events) == 0 {
		return nil
	}

	delete(q.digests, recipientID)
	return d.events
}

// Pending reports whether the recipient has an open digest and its deadline
func (q *Queue) Pending(recipientID int64) (time.Time, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.digests[recipientID]
	if !ok || d.state != digestOpen {
		return time.Time{}, 0, false
	}
	return d.deadline, len(d.events), true
}

// claimed is one digest snapshot handed to the scheduler for dispatch
type claimed struct {
	recipientID int64
	events      []Event
	attempt     int
}

// claimExpired atomically marks every expired open digest as dispatching and
// returns a snapshot of each. Only one caller can claim a given digest; the
// digest stays claimed until complete or requeue is called for it.
func (q *Queue) claimExpired() []claimed {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var out []claimed
	for recipientID, d := range q.digests {
		if d.state != digestOpen || len(d.events) == 0 || d.deadline.After(now) {
			continue
		}
		d.state = digestDispatching
		snapshot := make([]Event, len(d.events))
		copy(snapshot, d.events)
		out = append(out, claimed{recipientID: recipientID, events: snapshot, attempt: d.retries})
	}
	return out
}

// complete records a successful dispatch of the first n events. Events that
// arrived during dispatch open a fresh digest.
func (q *Queue) complete(recipientID int64, n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.digests[recipientID]
	if !ok {
		return
	}

	d.events = d.events[n:]
	if len(d.events) == 0 {
		delete(q.digests, recipientID)
		return
	}

	d.state = digestOpen
	d.retries = 0
	d.deadline = q.now().Add(q.window)
}

// requeue reopens a digest after a failed dispatch. Claimed events merge
// back with anything enqueued during the attempt; the deadline is set to now
// so the next tick retries. When the retry cap is exceeded the claimed
// events are dropped instead and requeue reports true.
func (q *Queue) requeue(recipientID int64, n, maxRetries int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.digests[recipientID]
	if !ok {
		return false
	}

	d.retries++
	if d.retries > maxRetries {
		d.events = d.events[n:]
		if len(d.events) == 0 {
			delete(q.digests, recipientID)
		} else {
			d.state = digestOpen
			d.retries = 0
			d.deadline = q.now().Add(q.window)
		}
		return true
	}

	d.state = digestOpen
	d.deadline = q.now()
	return false
}
