package clientapp

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles app data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new app repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const appColumns = `id, name, display_name, description, app_url, github_url, owner_id, created_at, updated_at`

func scanApp(row interface{ Scan(...interface{}) error }) (*App, error) {
	a := &App{}
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.DisplayName,
		&a.Description,
		&a.AppURL,
		&a.GithubURL,
		&a.OwnerID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new app into the database
func (r *Repository) Create(ctx context.Context, ownerID int64, req *CreateAppRequest) (*App, error) {
	query := `
		INSERT INTO apps (name, display_name, description, app_url, github_url, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + appColumns

	a, err := scanApp(r.db.QueryRowContext(ctx, query,
		req.Name, req.DisplayName, req.Description, req.AppURL, req.GithubURL, ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	return a, nil
}

// GetByID retrieves an app by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*App, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE id = $1`

	a, err := scanApp(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	return a, nil
}

// GetByName retrieves an app by its unique URL-safe name
func (r *Repository) GetByName(ctx context.Context, name string) (*App, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE name = $1`

	a, err := scanApp(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get app by name: %w", err)
	}

	return a, nil
}

// List retrieves all registered apps
func (r *Repository) List(ctx context.Context) ([]*App, error) {
	query := `SELECT ` + appColumns + ` FROM apps ORDER BY display_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []*App
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, a)
	}

	return apps, nil
}

// Update modifies an existing app
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateAppRequest) (*App, error) {
	query := `
		UPDATE apps
		SET display_name = COALESCE($2, display_name),
		    description = COALESCE($3, description),
		    app_url = COALESCE($4, app_url),
		    github_url = COALESCE($5, github_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appColumns

	a, err := scanApp(r.db.QueryRowContext(ctx, query,
		id, req.DisplayName, req.Description, req.AppURL, req.GithubURL))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update app: %w", err)
	}

	return a, nil
}

// Delete removes an app from the registry
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM apps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("app not found")
	}

	return nil
}
