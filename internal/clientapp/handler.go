package clientapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/featreq/feature-requestor/pkg/middleware"
	"github.com/featreq/feature-requestor/pkg/response"
)

// Handler handles HTTP requests for app registry operations
type Handler struct {
	service *Service
}

// NewHandler creates a new app handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for app endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /apps
// @Summary      Register a new app
// @Tags         apps
// @Accept       json
// @Produce      json
// @Param        request body CreateAppRequest true "App registration request"
// @Success      201 {object} response.APIResponse{data=AppResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /apps [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	a, err := h.service.Create(r.Context(), callerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrInvalidName):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to register app")
		}
		return
	}

	response.JSON(w, http.StatusCreated, a.ToResponse())
}

// List handles GET /apps
// @Summary      List registered apps
// @Tags         apps
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]AppResponse}
// @Router       /apps [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list apps")
		return
	}

	appResponses := make([]*AppResponse, len(apps))
	for i, a := range apps {
		appResponses[i] = a.ToResponse()
	}

	response.JSON(w, http.StatusOK, appResponses)
}

// GetByID handles GET /apps/{id}
// @Summary      Get app by ID
// @Tags         apps
// @Produce      json
// @Param        id path int true "App ID"
// @Success      200 {object} response.APIResponse{data=AppResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /apps/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid app ID")
		return
	}

	a, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAppNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get app")
		return
	}

	response.JSON(w, http.StatusOK, a.ToResponse())
}

// Update handles PATCH /apps/{id}
// @Summary      Update an app
// @Tags         apps
// @Accept       json
// @Produce      json
// @Param        id path int true "App ID"
// @Param        request body UpdateAppRequest true "App update request"
// @Success      200 {object} response.APIResponse{data=AppResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /apps/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid app ID")
		return
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req UpdateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	a, err := h.service.Update(r.Context(), id, callerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to update app")
		}
		return
	}

	response.JSON(w, http.StatusOK, a.ToResponse())
}

// Delete handles DELETE /apps/{id}
// @Summary      Delete an app
// @Tags         apps
// @Param        id path int true "App ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /apps/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid app ID")
		return
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), id, callerID); err != nil {
		switch {
		case errors.Is(err, ErrAppNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete app")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "App deleted"})
}
