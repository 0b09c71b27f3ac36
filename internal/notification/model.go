package notification

import "time"

// Notification represents an in-app notification record. Records are the
// source of truth and survive regardless of email delivery outcome.
type Notification struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
	Message   string            `json:"message"`
	Link      *string           `json:"link,omitempty"`
	IsRead    bool              `json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	EmailedAt *time.Time        `json:"emailed_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Notification types
const (
	TypeNewRequest       = "new_request"
	TypeRequestComment   = "request_comment"
	TypeStatusChange     = "request_status_change"
	TypeRequestCompleted = "request_completed"
	TypeDeveloperAdded   = "developer_added"
	TypeDeveloperRemoved = "developer_removed"
	TypePaymentReceived  = "payment_received"
	TypeNewMessage       = "new_message"
	TypePoll             = "poll"
)

// Preference values for how a notification type reaches a user by email
const (
	PreferenceNone      = "none"
	PreferenceImmediate = "immediate"
	PreferenceBulk      = "bulk"
)

// ValidPreference reports whether the value is a known preference
func ValidPreference(p string) bool {
	return p == PreferenceNone || p == PreferenceImmediate || p == PreferenceBulk
}

// Preference maps a (user, notification type) pair to a delivery cadence
type Preference struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	Preference string    `json:"preference"`
	CustomRule *string   `json:"custom_rule,omitempty"` // JSON, e.g. per-app filter for new_request
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
