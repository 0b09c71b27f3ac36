package comment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Comment is a comment on a feature request, optionally carrying a bid.
// A bid pledges money toward the request and freezes once work starts.
type Comment struct {
	ID               int64            `json:"id"`
	FeatureRequestID int64            `json:"feature_request_id"`
	UserID           int64            `json:"user_id"`
	Comment          string           `json:"comment"`
	BidAmount        *decimal.Decimal `json:"bid_amount,omitempty"`
	BidCurrency      *string          `json:"bid_currency,omitempty"`
	IsDeleted        bool             `json:"is_deleted"`
	EditedAt         *time.Time       `json:"edited_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// HasBid reports whether the comment carries a bid
func (c *Comment) HasBid() bool {
	return c.BidAmount != nil && c.BidCurrency != nil
}
