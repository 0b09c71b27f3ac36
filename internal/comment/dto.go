package comment

// CreateCommentRequest represents the request body for posting a comment.
// Amounts travel as strings to keep cent precision exact.
type CreateCommentRequest struct {
	FeatureRequestID int64   `json:"feature_request_id" validate:"required"`
	Comment          string  `json:"comment" validate:"required"`
	BidAmount        *string `json:"bid_amount,omitempty"`
	BidCurrency      *string `json:"bid_currency,omitempty" validate:"omitempty,oneof=CAD USD EUR"`
}

// UpdateCommentRequest represents the request body for editing a comment
type UpdateCommentRequest struct {
	Comment     *string `json:"comment,omitempty"`
	BidAmount   *string `json:"bid_amount,omitempty"`
	BidCurrency *string `json:"bid_currency,omitempty"`
}

// CommentResponse represents the response for a single comment
type CommentResponse struct {
	ID               int64  `json:"id"`
	FeatureRequestID int64  `json:"feature_request_id"`
	UserID           int64  `json:"user_id"`
	Comment          string `json:"comment"`
	BidAmount        string `json:"bid_amount,omitempty"`
	BidCurrency      string `json:"bid_currency,omitempty"`
	EditedAt         string `json:"edited_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// ToResponse converts a Comment model to a CommentResponse DTO
func (c *Comment) ToResponse() *CommentResponse {
	resp := &CommentResponse{
		ID:               c.ID,
		FeatureRequestID: c.FeatureRequestID,
		UserID:           c.UserID,
		Comment:          c.Comment,
		CreatedAt:        c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if c.HasBid() {
		resp.BidAmount = c.BidAmount.StringFixed(2)
		resp.BidCurrency = *c.BidCurrency
	}
	if c.EditedAt != nil {
		resp.EditedAt = c.EditedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}
