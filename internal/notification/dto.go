package notification

// NotificationResponse represents the response for a notification
type NotificationResponse struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Link      *string `json:"link,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

// toResponse converts a Notification to a NotificationResponse
func toResponse(n *Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// SetPreferenceRequest represents the request to change one preference
type SetPreferenceRequest struct {
	Type       string  `json:"type" validate:"required"`
	Preference string  `json:"preference" validate:"required,oneof=none immediate bulk"`
	CustomRule *string `json:"custom_rule,omitempty"`
}

// PreferenceResponse represents the response for a preference
type PreferenceResponse struct {
	Type       string  `json:"type"`
	Preference string  `json:"preference"`
	CustomRule *string `json:"custom_rule,omitempty"`
}

// toPreferenceResponse converts a Preference to a PreferenceResponse
func toPreferenceResponse(p *Preference) *PreferenceResponse {
	return &PreferenceResponse{
		Type:       p.Type,
		Preference: p.Preference,
		CustomRule: p.CustomRule,
	}
}
