package payout

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const ratioColumns = `id, feature_request_id, developer_id, weight, is_accepted, accepted_at, created_at, updated_at`

func scanRatio(row interface{ Scan(...interface{}) error }) (*PaymentRatio, error) {
	var ratio PaymentRatio
	err := row.Scan(&ratio.ID, &ratio.FeatureRequestID, &ratio.DeveloperID, &ratio.Weight,
		&ratio.IsAccepted, &ratio.AcceptedAt, &ratio.CreatedAt, &ratio.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ratio, nil
}

func (r *Repository) ListRatios(ctx context.Context, requestID int64) ([]PaymentRatio, error) {
	query := `SELECT ` + ratioColumns + `
			  FROM payment_ratios
			  WHERE feature_request_id = $1
			  ORDER BY developer_id`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment ratios: %w", err)
	}
	defer rows.Close()

	var ratios []PaymentRatio
	for rows.Next() {
		ratio, err := scanRatio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment ratio: %w", err)
		}
		ratios = append(ratios, *ratio)
	}
	return ratios, rows.Err()
}

// UpsertRatio sets a developer's weight. A changed weight resets acceptance
// so the developer has to re-confirm the new split.
func (r *Repository) UpsertRatio(ctx context.Context, requestID, developerID int64, weight decimal.Decimal) (*PaymentRatio, error) {
	query := `INSERT INTO payment_ratios (feature_request_id, developer_id, weight, is_accepted, created_at, updated_at)
			  VALUES ($1, $2, $3, FALSE, NOW(), NOW())
			  ON CONFLICT (feature_request_id, developer_id)
			  DO UPDATE SET weight = EXCLUDED.weight,
							is_accepted = CASE WHEN payment_ratios.weight = EXCLUDED.weight THEN payment_ratios.is_accepted ELSE FALSE END,
							accepted_at = CASE WHEN payment_ratios.weight = EXCLUDED.weight THEN payment_ratios.accepted_at ELSE NULL END,
							updated_at = NOW()
			  RETURNING ` + ratioColumns

	ratio, err := scanRatio(r.db.QueryRowContext(ctx, query, requestID, developerID, weight))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert payment ratio: %w", err)
	}
	return ratio, nil
}

func (r *Repository) AcceptRatio(ctx context.Context, requestID, developerID int64) (*PaymentRatio, error) {
	query := `UPDATE payment_ratios
			  SET is_accepted = TRUE, accepted_at = NOW(), updated_at = NOW()
			  WHERE feature_request_id = $1 AND developer_id = $2
			  RETURNING ` + ratioColumns

	ratio, err := scanRatio(r.db.QueryRowContext(ctx, query, requestID, developerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept payment ratio: %w", err)
	}
	return ratio, nil
}

func (r *Repository) DeleteRatio(ctx context.Context, requestID, developerID int64) error {
	query := `DELETE FROM payment_ratios WHERE feature_request_id = $1 AND developer_id = $2`
	if _, err := r.db.ExecContext(ctx, query, requestID, developerID); err != nil {
		return fmt.Errorf("failed to delete payment ratio: %w", err)
	}
	return nil
}

func (r *Repository) CreateRatioMessage(ctx context.Context, requestID, senderID int64, message string) (*RatioMessage, error) {
	query := `INSERT INTO ratio_messages (feature_request_id, sender_id, message, created_at)
			  VALUES ($1, $2, $3, NOW())
			  RETURNING id, feature_request_id, sender_id, message, created_at`

	var m RatioMessage
	err := r.db.QueryRowContext(ctx, query, requestID, senderID, message).
		Scan(&m.ID, &m.FeatureRequestID, &m.SenderID, &m.Message, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratio message: %w", err)
	}
	return &m, nil
}

func (r *Repository) ListRatioMessages(ctx context.Context, requestID int64) ([]RatioMessage, error) {
	query := `SELECT id, feature_request_id, sender_id, message, created_at
			  FROM ratio_messages
			  WHERE feature_request_id = $1
			  ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratio messages: %w", err)
	}
	defer rows.Close()

	var messages []RatioMessage
	for rows.Next() {
		var m RatioMessage
		if err := rows.Scan(&m.ID, &m.FeatureRequestID, &m.SenderID, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ratio message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

const transactionColumns = `id, user_id, type, amount, currency, feature_request_id, processor_tx_id, direction, created_at`

func (r *Repository) CreateTransaction(ctx context.Context, t *Transaction) (*Transaction, error) {
	query := `INSERT INTO payment_transactions (user_id, type, amount, currency, feature_request_id, processor_tx_id, direction, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			  RETURNING ` + transactionColumns

	var created Transaction
	err := r.db.QueryRowContext(ctx, query, t.UserID, t.Type, t.Amount, t.Currency,
		t.FeatureRequestID, t.ProcessorTxID, t.Direction).
		Scan(&created.ID, &created.UserID, &created.Type, &created.Amount, &created.Currency,
			&created.FeatureRequestID, &created.ProcessorTxID, &created.Direction, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return &created, nil
}

func (r *Repository) ListTransactionsByUser(ctx context.Context, userID int64) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + `
			  FROM payment_transactions
			  WHERE user_id = $1
			  ORDER BY created_at DESC`
	return r.queryTransactions(ctx, query, userID)
}

func (r *Repository) ListTransactionsByRequest(ctx context.Context, requestID int64) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + `
			  FROM payment_transactions
			  WHERE feature_request_id = $1
			  ORDER BY created_at DESC`
	return r.queryTransactions(ctx, query, requestID)
}

func (r *Repository) queryTransactions(ctx context.Context, query string, arg interface{}) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency,
			&t.FeatureRequestID, &t.ProcessorTxID, &t.Direction, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
