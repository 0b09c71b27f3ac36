package message

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/featreq/feature-requestor/pkg/middleware"
	"github.com/featreq/feature-requestor/pkg/response"
)

// Handler handles HTTP requests for messaging operations
type Handler struct {
	service *Service
}

// NewHandler creates a new message handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for messaging endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/threads", h.CreateThread)
	r.Get("/threads", h.ListThreads)

	r.Route("/threads/{threadID}", func(r chi.Router) {
		r.Get("/", h.GetThread)
		r.Get("/messages", h.ListMessages)
		r.Post("/messages", h.SendMessage)
		r.Post("/block", h.Block)
		r.Delete("/block", h.Unblock)
		r.Get("/polls", h.ListPolls)
		r.Post("/polls", h.ProposePoll)
	})

	r.Post("/polls/{pollID}/vote", h.Vote)

	return r
}

func threadIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "threadID"), 10, 64)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrPollNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrBlocked), errors.Is(err, ErrCandidateVote):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidThreadType), errors.Is(err, ErrDirectNeedsOneUser):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrPollClosed), errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrGroupOnly):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// CreateThread handles POST /messages/threads
// @Summary      Start a conversation
// @Description  Create a direct thread with one other user or a group thread with several
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body CreateThreadRequest true "Thread"
// @Success      201 {object} response.APIResponse{data=ThreadResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /messages/threads [post]
func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if len(req.ParticipantIDs) == 0 {
		response.BadRequest(w, "participant_ids is required")
		return
	}

	t, err := h.service.CreateThread(r.Context(), userID, &req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create thread")
		return
	}

	response.JSON(w, http.StatusCreated, toThreadResponse(t, nil))
}

// ListThreads handles GET /messages/threads
// @Summary      List my conversations
// @Tags         messages
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]ThreadResponse}
// @Router       /messages/threads [get]
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threads, err := h.service.ListThreads(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list threads")
		return
	}

	responses := make([]*ThreadResponse, len(threads))
	for i, t := range threads {
		responses[i] = toThreadResponse(t, nil)
	}
	response.JSON(w, http.StatusOK, responses)
}

// GetThread handles GET /messages/threads/{threadID}
// @Summary      Get a conversation
// @Tags         messages
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Success      200 {object} response.APIResponse{data=ThreadResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /messages/threads/{threadID} [get]
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threadID, err := threadIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid thread ID")
		return
	}

	t, participants, err := h.service.GetThread(r.Context(), threadID, userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get thread")
		return
	}

	response.JSON(w, http.StatusOK, toThreadResponse(t, participants))
}

// SendMessage handles POST /messages/threads/{threadID}/messages
// @Summary      Send a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Param        request body SendMessageRequest true "Message"
// @Success      201 {object} response.APIResponse{data=MessageResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /messages/threads/{threadID}/messages [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threadID, err := threadIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid thread ID")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		response.BadRequest(w, "content is required")
		return
	}

	m, err := h.service.SendMessage(r.Context(), threadID, userID, req.Content)
	if err != nil {
		h.writeServiceError(w, err, "Failed to send message")
		return
	}

	response.JSON(w, http.StatusCreated, toMessageResponse(m))
}

// ListMessages handles GET /messages/threads/{threadID}/messages
// @Summary      List a conversation's messages
// @Description  Returns messages oldest first and marks the thread read
// @Tags         messages
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]MessageResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /messages/threads/{threadID}/messages [get]
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threadID, err := threadIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid thread ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	messages, err := h.service.ListMessages(r.Context(), threadID, userID, page, perPage)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list messages")
		return
	}

	responses := make([]MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = toMessageResponse(m)
	}
	response.JSON(w, http.StatusOK, responses)
}

// Block handles POST /messages/threads/{threadID}/block
// @Summary      Block a conversation
// @Description  Stop receiving messages and notifications from this thread
// @Tags         messages
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Success      200 {object} response.APIResponse
// @Router       /messages/threads/{threadID}/block [post]
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// Unblock handles DELETE /messages/threads/{threadID}/block
// @Summary      Unblock a conversation
// @Tags         messages
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Success      200 {object} response.APIResponse
// @Router       /messages/threads/{threadID}/block [delete]
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *Handler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threadID, err := threadIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid thread ID")
		return
	}

	if err := h.service.SetBlocked(r.Context(), threadID, userID, blocked); err != nil {
		h.writeServiceError(w, err, "Failed to update block flag")
		return
	}

	status := "unblocked"
	if blocked {
		status = "blocked"
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// ProposePoll handles POST /messages/threads/{threadID}/polls
// @Summary      Propose adding a user
// @Description  Open a poll to add a user to a group thread. Unanimous approval adds them.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Param        request body ProposePollRequest true "Candidate"
// @Success      201 {object} response.APIResponse{data=PollResponse}
// @Failure      422 {object} response.APIResponse
// @Router       /messages/threads/{threadID}/polls [post]
func (h *Handler) ProposePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threadID, err := threadIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid thread ID")
		return
	}

	var req ProposePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CandidateID == 0 {
		response.BadRequest(w, "candidate_id is required")
		return
	}

	poll, err := h.service.ProposeAddUser(r.Context(), threadID, userID, req.CandidateID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create poll")
		return
	}

	response.JSON(w, http.StatusCreated, toPollResponse(poll))
}

// ListPolls handles GET /messages/threads/{threadID}/polls
// @Summary      List a thread's polls
// @Tags         messages
// @Produce      json
// @Param        threadID path int true "Thread ID"
// @Success      200 {object} response.APIResponse{data=[]PollResponse}
// @Router       /messages/threads/{threadID}/polls [get]
func (h *Handler) ListPolls(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	threadID, err := threadIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid thread ID")
		return
	}

	polls, err := h.service.ListPolls(r.Context(), threadID, userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list polls")
		return
	}

	responses := make([]PollResponse, len(polls))
	for i, p := range polls {
		responses[i] = toPollResponse(p)
	}
	response.JSON(w, http.StatusOK, responses)
}

// Vote handles POST /messages/polls/{pollID}/vote
// @Summary      Vote on a poll
// @Description  Approve or reject adding the candidate. One rejection closes the poll.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        pollID path int true "Poll ID"
// @Param        request body VoteRequest true "Vote"
// @Success      200 {object} response.APIResponse{data=PollResponse}
// @Failure      422 {object} response.APIResponse
// @Router       /messages/polls/{pollID}/vote [post]
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	pollID, err := strconv.ParseInt(chi.URLParam(r, "pollID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid poll ID")
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	poll, err := h.service.Vote(r.Context(), pollID, userID, req.Approve)
	if err != nil {
		h.writeServiceError(w, err, "Failed to record vote")
		return
	}

	response.JSON(w, http.StatusOK, toPollResponse(poll))
}
