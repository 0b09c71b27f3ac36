package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles notification data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const notificationColumns = `id, user_id, type, data, message, link, is_read, read_at, emailed_at, created_at`

func scanNotification(row interface{ Scan(...interface{}) error }) (*Notification, error) {
	n := &Notification{}
	var rawData []byte
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&rawData,
		&n.Message,
		&n.Link,
		&n.IsRead,
		&n.ReadAt,
		&n.EmailedAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to decode notification data: %w", err)
		}
	}
	return n, nil
}

// Create inserts a new notification record
func (r *Repository) Create(ctx context.Context, userID int64, notificationType, message string, link *string, data map[string]string) (*Notification, error) {
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (user_id, type, data, message, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, userID, notificationType, rawData, message, link))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// GetByID retrieves a notification by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListByUser retrieves notifications for a user, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	if unreadOnly {
		countQuery += ` AND is_read = false`
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, total, nil
}

// MarkAsRead marks a notification as read
func (r *Repository) MarkAsRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE id = $1 AND is_read = false`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all of a user's notifications as read
func (r *Repository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND is_read = false`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *Repository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkEmailed records that the given notifications were included in a sent email
func (r *Repository) MarkEmailed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE notifications SET emailed_at = NOW() WHERE id = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark notifications emailed: %w", err)
	}
	return nil
}

// GetPreference retrieves a user's preference for one notification type
func (r *Repository) GetPreference(ctx context.Context, userID int64, notificationType string) (*Preference, error) {
	query := `
		SELECT id, user_id, type, preference, custom_rule, created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1 AND type = $2
	`

	p := &Preference{}
	err := r.db.QueryRowContext(ctx, query, userID, notificationType).Scan(
		&p.ID, &p.UserID, &p.Type, &p.Preference, &p.CustomRule, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return p, nil
}

// ListPreferences retrieves all of a user's notification preferences
func (r *Repository) ListPreferences(ctx context.Context, userID int64) ([]*Preference, error) {
	query := `
		SELECT id, user_id, type, preference, custom_rule, created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1
		ORDER BY type ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*Preference
	for rows.Next() {
		p := &Preference{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Type, &p.Preference, &p.CustomRule, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}

	return prefs, nil
}

// UpsertPreference creates or updates a user's preference for one type
func (r *Repository) UpsertPreference(ctx context.Context, userID int64, notificationType, preference string, customRule *string) (*Preference, error) {
	query := `
		INSERT INTO notification_preferences (user_id, type, preference, custom_rule)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, type)
		DO UPDATE SET preference = $3, custom_rule = $4, updated_at = NOW()
		RETURNING id, user_id, type, preference, custom_rule, created_at, updated_at
	`

	p := &Preference{}
	err := r.db.QueryRowContext(ctx, query, userID, notificationType, preference, customRule).Scan(
		&p.ID, &p.UserID, &p.Type, &p.Preference, &p.CustomRule, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preference: %w", err)
	}

	return p, nil
}
