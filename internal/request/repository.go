package request

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const requestColumns = `id, app_id, created_by_id, title, description, type, category, status,
	total_bid_amount, projected_date, completed_at, confirmed_at, created_at, updated_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*FeatureRequest, error) {
	var fr FeatureRequest
	err := row.Scan(&fr.ID, &fr.AppID, &fr.CreatedByID, &fr.Title, &fr.Description,
		&fr.Type, &fr.Category, &fr.Status, &fr.TotalBidAmount,
		&fr.ProjectedDate, &fr.CompletedAt, &fr.ConfirmedAt, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

func (r *Repository) Create(ctx context.Context, appID, createdByID int64, title, description, requestType, category string) (*FeatureRequest, error) {
	query := `INSERT INTO feature_requests (app_id, created_by_id, title, description, type, category, status, total_bid_amount, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, 'requested', 0, NOW(), NOW())
			  RETURNING ` + requestColumns

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, appID, createdByID, title, description, requestType, category))
	if err != nil {
		return nil, fmt.Errorf("failed to create feature request: %w", err)
	}
	return fr, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*FeatureRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM feature_requests WHERE id = $1`

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature request: %w", err)
	}
	return fr, nil
}

// List retrieves requests with optional app and status filters, newest first
func (r *Repository) List(ctx context.Context, appID *int64, status *string, limit, offset int) ([]*FeatureRequest, int, error) {
	where := `WHERE ($1::BIGINT IS NULL OR app_id = $1) AND ($2::TEXT IS NULL OR status = $2)`

	var total int
	countQuery := `SELECT COUNT(*) FROM feature_requests ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, appID, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count feature requests: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM feature_requests ` + where + `
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, appID, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feature requests: %w", err)
	}
	defer rows.Close()

	var requests []*FeatureRequest
	for rows.Next() {
		fr, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan feature request: %w", err)
		}
		requests = append(requests, fr)
	}
	return requests, total, rows.Err()
}

// ListByApp retrieves all non-cancelled requests for an app, used by the
// similarity ranking.
func (r *Repository) ListByApp(ctx context.Context, appID int64) ([]FeatureRequest, error) {
	query := `SELECT ` + requestColumns + `
			  FROM feature_requests
			  WHERE app_id = $1 AND status != 'cancelled'
			  ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature requests by app: %w", err)
	}
	defer rows.Close()

	var requests []FeatureRequest
	for rows.Next() {
		fr, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature request: %w", err)
		}
		requests = append(requests, *fr)
	}
	return requests, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id int64, title, description, requestType, category *string) (*FeatureRequest, error) {
	query := `UPDATE feature_requests
			  SET title = COALESCE($2, title),
				  description = COALESCE($3, description),
				  type = COALESCE($4, type),
				  category = COALESCE($5, category),
				  updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + requestColumns

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, id, title, description, requestType, category))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update feature request: %w", err)
	}
	return fr, nil
}

// UpdateStatus moves a request to a new status and stamps the completion and
// confirmation times as it passes through them.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (*FeatureRequest, error) {
	query := `UPDATE feature_requests
			  SET status = $2,
				  completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
				  confirmed_at = CASE WHEN $2 = 'confirmed' THEN NOW() ELSE confirmed_at END,
				  updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + requestColumns

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, id, status))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update feature request status: %w", err)
	}
	return fr, nil
}

// SetProjectedDate records when the assigned developers expect to deliver
func (r *Repository) SetProjectedDate(ctx context.Context, id int64, date time.Time) (*FeatureRequest, error) {
	query := `UPDATE feature_requests
			  SET projected_date = $2, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + requestColumns

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, id, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set projected date: %w", err)
	}
	return fr, nil
}

func (r *Repository) UpdateTotalBid(ctx context.Context, id int64, total decimal.Decimal) error {
	query := `UPDATE feature_requests SET total_bid_amount = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, total); err != nil {
		return fmt.Errorf("failed to update total bid amount: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM feature_requests WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete feature request: %w", err)
	}
	return nil
}

func (r *Repository) AddDeveloper(ctx context.Context, requestID, developerID int64, isLead bool) error {
	query := `INSERT INTO request_developers (feature_request_id, developer_id, is_lead, assigned_at)
			  VALUES ($1, $2, $3, NOW())
			  ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, requestID, developerID, isLead); err != nil {
		return fmt.Errorf("failed to add developer: %w", err)
	}
	return nil
}

func (r *Repository) RemoveDeveloper(ctx context.Context, requestID, developerID int64) error {
	query := `DELETE FROM request_developers WHERE feature_request_id = $1 AND developer_id = $2`
	if _, err := r.db.ExecContext(ctx, query, requestID, developerID); err != nil {
		return fmt.Errorf("failed to remove developer: %w", err)
	}
	return nil
}

func (r *Repository) IsDeveloper(ctx context.Context, requestID, developerID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM request_developers WHERE feature_request_id = $1 AND developer_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, requestID, developerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check developer assignment: %w", err)
	}
	return exists, nil
}

// ListDevelopers returns the developers assigned to a request with the
// profile fields payouts depend on.
func (r *Repository) ListDevelopers(ctx context.Context, requestID int64) ([]Developer, error) {
	query := `SELECT u.id, u.username, u.name, u.preferred_currency, rd.is_lead, rd.assigned_at
			  FROM request_developers rd
			  JOIN users u ON u.id = rd.developer_id
			  WHERE rd.feature_request_id = $1
			  ORDER BY rd.assigned_at`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list request developers: %w", err)
	}
	defer rows.Close()

	var developers []Developer
	for rows.Next() {
		var dev Developer
		if err := rows.Scan(&dev.ID, &dev.Username, &dev.Name, &dev.PreferredCurrency, &dev.IsLead, &dev.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request developer: %w", err)
		}
		developers = append(developers, dev)
	}
	return developers, rows.Err()
}
