package comment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/featreq/feature-requestor/internal/request"
	"github.com/featreq/feature-requestor/pkg/middleware"
	"github.com/featreq/feature-requestor/pkg/response"
)

// Handler handles HTTP requests for comment operations
type Handler struct {
	service *Service
}

// NewHandler creates a new comment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for comment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListByRequest)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /comments
// @Summary      Post a comment
// @Description  Comment on a feature request, optionally with a bid. Bids are validated up front and only accepted while the request is open.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        request body CreateCommentRequest true "Comment"
// @Success      201 {object} response.APIResponse{data=CommentResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /comments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.FeatureRequestID == 0 || req.Comment == "" {
		response.BadRequest(w, "feature_request_id and comment are required")
		return
	}

	c, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, request.ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrInvalidBid), errors.Is(err, ErrInvalidCurrency):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrBidsFrozen), errors.Is(err, ErrRequestClosed):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to create comment")
		}
		return
	}

	response.JSON(w, http.StatusCreated, c.ToResponse())
}

// ListByRequest handles GET /comments?feature_request_id=
// @Summary      List a request's comments
// @Tags         comments
// @Produce      json
// @Param        feature_request_id query int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=[]CommentResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /comments [get]
func (h *Handler) ListByRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(r.URL.Query().Get("feature_request_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid feature_request_id")
		return
	}

	comments, err := h.service.ListByRequest(r.Context(), requestID)
	if err != nil {
		response.InternalError(w, "Failed to list comments")
		return
	}

	responses := make([]*CommentResponse, len(comments))
	for i, c := range comments {
		responses[i] = c.ToResponse()
	}
	response.JSON(w, http.StatusOK, responses)
}

// Update handles PATCH /comments/{id}
// @Summary      Edit a comment
// @Description  Edit comment text or bid. Bid changes are rejected once work has started.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        id path int true "Comment ID"
// @Param        request body UpdateCommentRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=CommentResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /comments/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid comment ID")
		return
	}

	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	c, err := h.service.Update(r.Context(), id, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthor):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidBid), errors.Is(err, ErrInvalidCurrency):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrBidsFrozen):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to update comment")
		}
		return
	}

	response.JSON(w, http.StatusOK, c.ToResponse())
}

// Delete handles DELETE /comments/{id}
// @Summary      Delete a comment
// @Description  Soft delete a comment. A comment with a bid cannot be deleted once work has started.
// @Tags         comments
// @Produce      json
// @Param        id path int true "Comment ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /comments/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid comment ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, userID, role); err != nil {
		switch {
		case errors.Is(err, ErrCommentNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthor):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrBidsFrozen):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete comment")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
