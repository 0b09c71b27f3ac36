package message

// CreateThreadRequest represents the request body for starting a conversation
type CreateThreadRequest struct {
	Type           string  `json:"type" validate:"required,oneof=direct group"`
	Name           *string `json:"name,omitempty"`
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1"`
}

// SendMessageRequest represents the request body for posting a message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// ProposePollRequest represents the request body for proposing a new member
type ProposePollRequest struct {
	CandidateID int64 `json:"candidate_id" validate:"required"`
}

// VoteRequest represents the request body for answering a poll
type VoteRequest struct {
	Approve bool `json:"approve"`
}

// ThreadResponse represents the response for a single thread
type ThreadResponse struct {
	ID           int64                 `json:"id"`
	Type         string                `json:"type"`
	Name         string                `json:"name,omitempty"`
	CreatedByID  int64                 `json:"created_by_id"`
	CreatedAt    string                `json:"created_at"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
}

// ParticipantResponse represents one member of a thread
type ParticipantResponse struct {
	UserID     int64  `json:"user_id"`
	IsBlocked  bool   `json:"is_blocked"`
	LastReadAt string `json:"last_read_at,omitempty"`
	JoinedAt   string `json:"joined_at"`
}

// MessageResponse represents a single message
type MessageResponse struct {
	ID        int64  `json:"id"`
	ThreadID  int64  `json:"thread_id"`
	SenderID  int64  `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// PollResponse represents an add-user poll
type PollResponse struct {
	ID          int64  `json:"id"`
	ThreadID    int64  `json:"thread_id"`
	CandidateID int64  `json:"candidate_id"`
	CreatedByID int64  `json:"created_by_id"`
	Status      string `json:"status"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05Z"

func toThreadResponse(t *Thread, participants []Participant) *ThreadResponse {
	resp := &ThreadResponse{
		ID:          t.ID,
		Type:        t.Type,
		CreatedByID: t.CreatedByID,
		CreatedAt:   t.CreatedAt.Format(timeLayout),
	}
	if t.Name != nil {
		resp.Name = *t.Name
	}
	for i := range participants {
		resp.Participants = append(resp.Participants, toParticipantResponse(&participants[i]))
	}
	return resp
}

func toParticipantResponse(p *Participant) ParticipantResponse {
	resp := ParticipantResponse{
		UserID:    p.UserID,
		IsBlocked: p.IsBlocked,
		JoinedAt:  p.JoinedAt.Format(timeLayout),
	}
	if p.LastReadAt != nil {
		resp.LastReadAt = p.LastReadAt.Format(timeLayout)
	}
	return resp
}

func toMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(timeLayout),
	}
}

func toPollResponse(p *Poll) PollResponse {
	resp := PollResponse{
		ID:          p.ID,
		ThreadID:    p.ThreadID,
		CandidateID: p.CandidateID,
		CreatedByID: p.CreatedByID,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt.Format(timeLayout),
	}
	if p.ResolvedAt != nil {
		resp.ResolvedAt = p.ResolvedAt.Format(timeLayout)
	}
	return resp
}
