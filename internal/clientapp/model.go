package clientapp

import "time"

// App represents a registered client application that accepts feature requests
type App struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"` // URL-safe identifier, unique
	DisplayName string    `json:"display_name"`
	Description *string   `json:"description,omitempty"`
	AppURL      *string   `json:"app_url,omitempty"`
	GithubURL   *string   `json:"github_url,omitempty"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
