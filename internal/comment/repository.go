package comment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/featreq/feature-requestor/internal/payout"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const commentColumns = `id, feature_request_id, user_id, comment, bid_amount, bid_currency,
	is_deleted, edited_at, created_at, updated_at`

func scanComment(row interface{ Scan(...interface{}) error }) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.FeatureRequestID, &c.UserID, &c.Comment, &c.BidAmount, &c.BidCurrency,
		&c.IsDeleted, &c.EditedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, requestID, userID int64, text string, bidAmount *decimal.Decimal, bidCurrency *string) (*Comment, error) {
	query := `INSERT INTO comments (feature_request_id, user_id, comment, bid_amount, bid_currency, is_deleted, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())
			  RETURNING ` + commentColumns

	c, err := scanComment(r.db.QueryRowContext(ctx, query, requestID, userID, text, bidAmount, bidCurrency))
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return c, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListByRequest returns a request's comments oldest first, hiding deleted ones
func (r *Repository) ListByRequest(ctx context.Context, requestID int64) ([]*Comment, error) {
	query := `SELECT ` + commentColumns + `
			  FROM comments
			  WHERE feature_request_id = $1 AND is_deleted = FALSE
			  ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id int64, text *string, bidAmount *decimal.Decimal, bidCurrency *string) (*Comment, error) {
	query := `UPDATE comments
			  SET comment = COALESCE($2, comment),
				  bid_amount = COALESCE($3, bid_amount),
				  bid_currency = COALESCE($4, bid_currency),
				  edited_at = NOW(),
				  updated_at = NOW()
			  WHERE id = $1 AND is_deleted = FALSE
			  RETURNING ` + commentColumns

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id, text, bidAmount, bidCurrency))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return c, nil
}

// SoftDelete hides a comment while keeping the row for audit
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE comments SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// ListBids returns the live bids on a request in their original currencies
func (r *Repository) ListBids(ctx context.Context, requestID int64) ([]payout.Bid, error) {
	query := `SELECT user_id, bid_amount, bid_currency
			  FROM comments
			  WHERE feature_request_id = $1 AND is_deleted = FALSE
				AND bid_amount IS NOT NULL AND bid_currency IS NOT NULL
			  ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []payout.Bid
	for rows.Next() {
		var bid payout.Bid
		if err := rows.Scan(&bid.PayerID, &bid.Amount, &bid.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}
