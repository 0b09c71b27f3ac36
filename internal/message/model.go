package message

import "time"

// Thread types
const (
	ThreadDirect = "direct"
	ThreadGroup  = "group"
)

// Poll statuses
const (
	PollOpen     = "open"
	PollApproved = "approved"
	PollRejected = "rejected"
)

// Thread is a conversation between two (direct) or more (group) users
type Thread struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Name        *string   `json:"name,omitempty"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Participant is a user's membership in a thread. A blocked participant
// stops receiving messages and notifications from the thread.
type Participant struct {
	ThreadID   int64      `json:"thread_id"`
	UserID     int64      `json:"user_id"`
	IsBlocked  bool       `json:"is_blocked"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
}

// Message is one message in a thread
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Poll proposes adding a user to a group thread. Every eligible participant
// must approve; a single rejection closes the poll.
type Poll struct {
	ID          int64      `json:"id"`
	ThreadID    int64      `json:"thread_id"`
	CandidateID int64      `json:"candidate_id"`
	CreatedByID int64      `json:"created_by_id"`
	Status      string     `json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Vote is one participant's answer to a poll
type Vote struct {
	PollID  int64     `json:"poll_id"`
	VoterID int64     `json:"voter_id"`
	Approve bool      `json:"approve"`
	VotedAt time.Time `json:"voted_at"`
}
