package request

// CreateRequestRequest represents the request body for creating a feature request
type CreateRequestRequest struct {
	AppID       int64  `json:"app_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required"`
	Type        string `json:"type" validate:"required,oneof='UI/UX' backend"`
	Category    string `json:"category" validate:"required,oneof=bug enhancement"`
}

// UpdateRequestRequest represents the request body for editing a feature request
type UpdateRequestRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// UpdateStatusRequest represents the request body for a status change
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignDeveloperRequest represents the request body for adding a developer.
// An empty developer_id means the caller is joining the request themselves.
type AssignDeveloperRequest struct {
	DeveloperID int64 `json:"developer_id,omitempty"`
}

// SetProjectedDateRequest represents the request body for setting the
// expected delivery date.
type SetProjectedDateRequest struct {
	ProjectedDate string `json:"projected_date" validate:"required"`
}

// RequestResponse represents the response for a single feature request
type RequestResponse struct {
	ID             int64  `json:"id"`
	AppID          int64  `json:"app_id"`
	CreatedByID    int64  `json:"created_by_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Status         string `json:"status"`
	TotalBidAmount string `json:"total_bid_amount"`
	ProjectedDate  string `json:"projected_date,omitempty"`
	CompletedAt    string `json:"completed_at,omitempty"`
	ConfirmedAt    string `json:"confirmed_at,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ToResponse converts a FeatureRequest model to a RequestResponse DTO
func (fr *FeatureRequest) ToResponse() *RequestResponse {
	resp := &RequestResponse{
		ID:             fr.ID,
		AppID:          fr.AppID,
		CreatedByID:    fr.CreatedByID,
		Title:          fr.Title,
		Description:    fr.Description,
		Type:           fr.Type,
		Category:       fr.Category,
		Status:         fr.Status,
		TotalBidAmount: fr.TotalBidAmount.StringFixed(2),
		CreatedAt:      fr.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      fr.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if fr.ProjectedDate != nil {
		resp.ProjectedDate = fr.ProjectedDate.Format("2006-01-02")
	}
	if fr.CompletedAt != nil {
		resp.CompletedAt = fr.CompletedAt.Format("2006-01-02T15:04:05Z")
	}
	if fr.ConfirmedAt != nil {
		resp.ConfirmedAt = fr.ConfirmedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// SimilarMatchResponse pairs a candidate request with its similarity score
type SimilarMatchResponse struct {
	Request *RequestResponse `json:"request"`
	Score   float64          `json:"score"`
}

// DeveloperResponse represents a developer assigned to a request
type DeveloperResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	IsLead     bool   `json:"is_lead"`
	AssignedAt string `json:"assigned_at"`
}

func toDeveloperResponse(dev *Developer) DeveloperResponse {
	return DeveloperResponse{
		ID:         dev.ID,
		Username:   dev.Username,
		Name:       dev.Name,
		IsLead:     dev.IsLead,
		AssignedAt: dev.AssignedAt.Format("2006-01-02T15:04:05Z"),
	}
}
