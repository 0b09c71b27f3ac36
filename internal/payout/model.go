package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRatio is one developer's weight in a request's payout split.
// Weights need not sum to anything in particular; they are normalized when
// the payout is computed.
type PaymentRatio struct {
	ID               int64           `json:"id"`
	FeatureRequestID int64           `json:"feature_request_id"`
	DeveloperID      int64           `json:"developer_id"`
	Weight           decimal.Decimal `json:"weight"`
	IsAccepted       bool            `json:"is_accepted"`
	AcceptedAt       *time.Time      `json:"accepted_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RatioMessage is a discussion message in a request's ratio allocation thread
type RatioMessage struct {
	ID               int64     `json:"id"`
	FeatureRequestID int64     `json:"feature_request_id"`
	SenderID         int64     `json:"sender_id"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
}

// Transaction directions
const (
	DirectionPaid    = "paid"
	DirectionCharged = "charged"
)

// Transaction records one movement of money for audit and history. Rows are
// written after the payment processor accepts the instruction.
type Transaction struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	FeatureRequestID int64           `json:"feature_request_id"`
	ProcessorTxID    *string         `json:"processor_tx_id,omitempty"`
	Direction        string          `json:"direction"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Instruction is one computed payout: hand this developer this amount in
// this currency for this request. Instructions are emitted by the split
// engine and executed by the payment gateway.
type Instruction struct {
	DeveloperID      int64
	Amount           decimal.Decimal
	Currency         string
	FeatureRequestID int64
}
