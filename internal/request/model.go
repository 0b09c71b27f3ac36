package request

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request statuses
const (
	StatusRequested  = "requested"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusConfirmed  = "confirmed"
	StatusCancelled  = "cancelled"
)

// Request types
const (
	TypeUIUX    = "UI/UX"
	TypeBackend = "backend"
)

// Request categories
const (
	CategoryBug         = "bug"
	CategoryEnhancement = "enhancement"
)

// FeatureRequest represents a feature request raised against a client app
type FeatureRequest struct {
	ID             int64           `json:"id"`
	AppID          int64           `json:"app_id"`
	CreatedByID    int64           `json:"created_by_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	Category       string          `json:"category"`
	Status         string          `json:"status"`
	TotalBidAmount decimal.Decimal `json:"total_bid_amount"`
	ProjectedDate  *time.Time      `json:"projected_date,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Developer is a developer assigned to a request, joined with profile fields
// the payout flow needs.
type Developer struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Name              string    `json:"name"`
	PreferredCurrency string    `json:"preferred_currency"`
	IsLead            bool      `json:"is_lead"`
	AssignedAt        time.Time `json:"assigned_at"`
}

func ValidType(t string) bool {
	return t == TypeUIUX || t == TypeBackend
}

func ValidCategory(c string) bool {
	return c == CategoryBug || c == CategoryEnhancement
}

func ValidStatus(s string) bool {
	switch s {
	case StatusRequested, StatusInProgress, StatusCompleted, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[string][]string{
	StatusRequested:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusConfirmed, StatusInProgress, StatusCancelled},
	// confirmed and cancelled are terminal
}

// CanTransition reports whether a status change is allowed
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Open reports whether the request still accepts new bids. Bids freeze the
// moment work starts.
func Open(status string) bool {
	return status == StatusRequested
}
