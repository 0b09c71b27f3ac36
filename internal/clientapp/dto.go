package clientapp

// CreateAppRequest represents the request to register an app
type CreateAppRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=64"`
	DisplayName string  `json:"display_name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	AppURL      *string `json:"app_url,omitempty"`
	GithubURL   *string `json:"github_url,omitempty"`
}

// UpdateAppRequest represents the request to update an app
type UpdateAppRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	AppURL      *string `json:"app_url,omitempty"`
	GithubURL   *string `json:"github_url,omitempty"`
}

// AppResponse represents the response for an app
type AppResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Description *string `json:"description,omitempty"`
	AppURL      *string `json:"app_url,omitempty"`
	GithubURL   *string `json:"github_url,omitempty"`
	OwnerID     int64   `json:"owner_id"`
	CreatedAt   string  `json:"created_at"`
}

// ToResponse converts an App model to an AppResponse DTO
func (a *App) ToResponse() *AppResponse {
	return &AppResponse{
		ID:          a.ID,
		Name:        a.Name,
		DisplayName: a.DisplayName,
		Description: a.Description,
		AppURL:      a.AppURL,
		GithubURL:   a.GithubURL,
		OwnerID:     a.OwnerID,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
