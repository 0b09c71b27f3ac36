package request

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/featreq/feature-requestor/pkg/middleware"
	"github.com/featreq/feature-requestor/pkg/response"
)

// Handler handles HTTP requests for feature request operations
type Handler struct {
	service *Service
}

// NewHandler creates a new feature request handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for feature request endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/similar", h.Similar)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/status", h.UpdateStatus)
		r.Put("/projected-date", h.SetProjectedDate)
		r.Get("/developers", h.ListDevelopers)
		r.Post("/developers", h.AssignDeveloper)
		r.Delete("/developers/{developerID}", h.RemoveDeveloper)
	})

	return r
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// Create handles POST /requests
// @Summary      Create a feature request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        request body CreateRequestRequest true "Feature request"
// @Success      201 {object} response.APIResponse{data=RequestResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /requests [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.AppID == 0 || req.Title == "" || req.Description == "" {
		response.BadRequest(w, "app_id, title and description are required")
		return
	}

	fr, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidCategory):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrAppNotFound):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to create feature request")
		}
		return
	}

	response.JSON(w, http.StatusCreated, fr.ToResponse())
}

// Similar handles GET /requests/similar
// @Summary      Find similar feature requests
// @Description  Rank existing requests for an app against a draft title and description
// @Tags         requests
// @Produce      json
// @Param        app_id query int true "App ID"
// @Param        title query string true "Draft title"
// @Param        description query string false "Draft description"
// @Success      200 {object} response.APIResponse{data=[]SimilarMatchResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /requests/similar [get]
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	appID, err := strconv.ParseInt(r.URL.Query().Get("app_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid app_id")
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		response.BadRequest(w, "title is required")
		return
	}

	matches, err := h.service.Similar(r.Context(), appID, title, r.URL.Query().Get("description"))
	if err != nil {
		response.InternalError(w, "Failed to find similar requests")
		return
	}

	responses := make([]SimilarMatchResponse, len(matches))
	for i, m := range matches {
		responses[i] = SimilarMatchResponse{Request: m.Request.ToResponse(), Score: m.Score}
	}
	response.JSON(w, http.StatusOK, responses)
}

// List handles GET /requests
// @Summary      List feature requests
// @Tags         requests
// @Produce      json
// @Param        app_id query int false "Filter by app"
// @Param        status query string false "Filter by status"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]RequestResponse}
// @Router       /requests [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var appID *int64
	if raw := r.URL.Query().Get("app_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid app_id")
			return
		}
		appID = &id
	}
	var status *string
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = &raw
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	requests, total, err := h.service.List(r.Context(), appID, status, page, perPage)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list feature requests")
		return
	}

	responses := make([]*RequestResponse, len(requests))
	for i, fr := range requests {
		responses[i] = fr.ToResponse()
	}

	if perPage < 1 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	response.JSONWithMeta(w, http.StatusOK, responses, meta)
}

// GetByID handles GET /requests/{id}
// @Summary      Get a feature request
// @Tags         requests
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=RequestResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /requests/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	fr, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get feature request")
		return
	}

	response.JSON(w, http.StatusOK, fr.ToResponse())
}

// Update handles PATCH /requests/{id}
// @Summary      Edit a feature request
// @Description  Edit title, description, type or category while the request is still open
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Param        request body UpdateRequestRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=RequestResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /requests/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req UpdateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	fr, err := h.service.Update(r.Context(), id, userID, role, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNotEditable):
			response.UnprocessableEntity(w, err.Error())
		case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidCategory):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to update feature request")
		}
		return
	}

	response.JSON(w, http.StatusOK, fr.ToResponse())
}

// Delete handles DELETE /requests/{id}
// @Summary      Delete a feature request
// @Tags         requests
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /requests/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, userID, role); err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNotEditable):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete feature request")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UpdateStatus handles POST /requests/{id}/status
// @Summary      Change a feature request's status
// @Description  Move a request along requested, in_progress, completed, confirmed or cancelled. Confirming runs the payout.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200 {object} response.APIResponse{data=RequestResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /requests/{id}/status [post]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	fr, err := h.service.UpdateStatus(r.Context(), id, userID, role, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotDeveloper):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidStatus):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrPayoutFailed):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to update status")
		}
		return
	}

	response.JSON(w, http.StatusOK, fr.ToResponse())
}

// SetProjectedDate handles PUT /requests/{id}/projected-date
// @Summary      Set a request's projected delivery date
// @Description  Record when the assigned developers expect to deliver the feature
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Param        request body SetProjectedDateRequest true "Projected date (YYYY-MM-DD)"
// @Success      200 {object} response.APIResponse{data=RequestResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /requests/{id}/projected-date [put]
func (h *Handler) SetProjectedDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req SetProjectedDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	date, err := time.Parse("2006-01-02", req.ProjectedDate)
	if err != nil {
		response.BadRequest(w, "projected_date must be YYYY-MM-DD")
		return
	}

	fr, err := h.service.SetProjectedDate(r.Context(), id, userID, role, date)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotDeveloper):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNotEditable):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to set projected date")
		}
		return
	}

	response.JSON(w, http.StatusOK, fr.ToResponse())
}

// ListDevelopers handles GET /requests/{id}/developers
// @Summary      List a request's developers
// @Tags         requests
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=[]DeveloperResponse}
// @Router       /requests/{id}/developers [get]
func (h *Handler) ListDevelopers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	developers, err := h.service.ListDevelopers(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Failed to list developers")
		return
	}

	responses := make([]DeveloperResponse, len(developers))
	for i := range developers {
		responses[i] = toDeveloperResponse(&developers[i])
	}
	response.JSON(w, http.StatusOK, responses)
}

// AssignDeveloper handles POST /requests/{id}/developers
// @Summary      Add a developer to a request
// @Description  Join a request as a developer, or assign one as the creator or an admin
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Param        request body AssignDeveloperRequest false "Developer to add (defaults to the caller)"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /requests/{id}/developers [post]
func (h *Handler) AssignDeveloper(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req AssignDeveloperRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	developerID := req.DeveloperID
	if developerID == 0 {
		developerID = userID
	}

	if err := h.service.AssignDeveloper(r.Context(), id, developerID, userID, role); err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to add developer")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "developer added"})
}

// RemoveDeveloper handles DELETE /requests/{id}/developers/{developerID}
// @Summary      Remove a developer from a request
// @Tags         requests
// @Produce      json
// @Param        id path int true "Feature request ID"
// @Param        developerID path int true "Developer ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /requests/{id}/developers/{developerID} [delete]
func (h *Handler) RemoveDeveloper(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}
	developerID, err := idParam(r, "developerID")
	if err != nil {
		response.BadRequest(w, "Invalid developer ID")
		return
	}

	if err := h.service.RemoveDeveloper(r.Context(), id, developerID, userID, role); err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to remove developer")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "developer removed"})
}
