package payout

// RatioInput is one developer's weight in a rebalance request
type RatioInput struct {
	DeveloperID int64  `json:"developer_id"`
	Weight      string `json:"weight"`
}

type SetRatiosRequest struct {
	Ratios []RatioInput `json:"ratios"`
}

type RatioResponse struct {
	ID          int64  `json:"id"`
	DeveloperID int64  `json:"developer_id"`
	Weight      string `json:"weight"`
	IsAccepted  bool   `json:"is_accepted"`
	AcceptedAt  string `json:"accepted_at,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

func toRatioResponse(ratio *PaymentRatio) RatioResponse {
	resp := RatioResponse{
		ID:          ratio.ID,
		DeveloperID: ratio.DeveloperID,
		Weight:      ratio.Weight.String(),
		IsAccepted:  ratio.IsAccepted,
		UpdatedAt:   ratio.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if ratio.AcceptedAt != nil {
		resp.AcceptedAt = ratio.AcceptedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func toRatioResponses(ratios []PaymentRatio) []RatioResponse {
	responses := make([]RatioResponse, len(ratios))
	for i := range ratios {
		responses[i] = toRatioResponse(&ratios[i])
	}
	return responses
}

type RatioMessageRequest struct {
	Message string `json:"message"`
}

type RatioMessageResponse struct {
	ID        int64  `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func toRatioMessageResponse(m *RatioMessage) RatioMessageResponse {
	return RatioMessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Message:   m.Message,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

type TransactionResponse struct {
	ID               int64  `json:"id"`
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	FeatureRequestID int64  `json:"feature_request_id"`
	Direction        string `json:"direction"`
	CreatedAt        string `json:"created_at"`
}

func toTransactionResponse(t *Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		Type:             t.Type,
		Amount:           t.Amount.StringFixed(2),
		Currency:         t.Currency,
		FeatureRequestID: t.FeatureRequestID,
		Direction:        t.Direction,
		CreatedAt:        t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func toTransactionResponses(transactions []Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = toTransactionResponse(&transactions[i])
	}
	return responses
}
