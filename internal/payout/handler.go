package payout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/featreq/feature-requestor/pkg/middleware"
	"github.com/featreq/feature-requestor/pkg/response"
)

// Handler handles HTTP requests for payout ratios and transactions
type Handler struct {
	service *Service
}

// NewHandler creates a new payout handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for payout endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/transactions", h.MyTransactions)

	r.Route("/requests/{requestID}", func(r chi.Router) {
		r.Get("/ratios", h.ListRatios)
		r.Put("/ratios", h.SetRatios)
		r.Post("/ratios/accept", h.AcceptRatio)
		r.Get("/ratio-messages", h.ListRatioMessages)
		r.Post("/ratio-messages", h.AddRatioMessage)
		r.Get("/transactions", h.RequestTransactions)
		r.With(middleware.RequireRole("admin")).Post("/retry", h.Retry)
	})

	return r
}

func requestIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
}

// ListRatios handles GET /payouts/requests/{requestID}/ratios
// @Summary      List payment ratios
// @Description  Get the weight allocation for a request's developers
// @Tags         payouts
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=[]RatioResponse}
// @Router       /payouts/requests/{requestID}/ratios [get]
func (h *Handler) ListRatios(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	ratios, err := h.service.ListRatios(r.Context(), requestID)
	if err != nil {
		response.InternalError(w, "Failed to list payment ratios")
		return
	}

	response.JSON(w, http.StatusOK, toRatioResponses(ratios))
}

// SetRatios handles PUT /payouts/requests/{requestID}/ratios
// @Summary      Set payment ratios
// @Description  Replace the weight allocation for a request. Changed weights must be re-accepted.
// @Tags         payouts
// @Accept       json
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Param        request body SetRatiosRequest true "Ratio allocation"
// @Success      200 {object} response.APIResponse{data=[]RatioResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /payouts/requests/{requestID}/ratios [put]
func (h *Handler) SetRatios(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req SetRatiosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if len(req.Ratios) == 0 {
		response.BadRequest(w, "At least one ratio is required")
		return
	}

	ratios, err := h.service.SetRatios(r.Context(), requestID, userID, role, req.Ratios)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotDeveloper):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidWeight):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to set payment ratios")
		}
		return
	}

	response.JSON(w, http.StatusOK, toRatioResponses(ratios))
}

// AcceptRatio handles POST /payouts/requests/{requestID}/ratios/accept
// @Summary      Accept my payment ratio
// @Description  Record agreement to my current weight on this request
// @Tags         payouts
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=RatioResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /payouts/requests/{requestID}/ratios/accept [post]
func (h *Handler) AcceptRatio(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	ratio, err := h.service.AcceptRatio(r.Context(), requestID, userID)
	if err != nil {
		if errors.Is(err, ErrRatioNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to accept payment ratio")
		return
	}

	response.JSON(w, http.StatusOK, toRatioResponse(ratio))
}

// ListRatioMessages handles GET /payouts/requests/{requestID}/ratio-messages
// @Summary      List ratio discussion messages
// @Tags         payouts
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=[]RatioMessageResponse}
// @Router       /payouts/requests/{requestID}/ratio-messages [get]
func (h *Handler) ListRatioMessages(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	messages, err := h.service.ListRatioMessages(r.Context(), requestID)
	if err != nil {
		response.InternalError(w, "Failed to list ratio messages")
		return
	}

	responses := make([]RatioMessageResponse, len(messages))
	for i := range messages {
		responses[i] = toRatioMessageResponse(&messages[i])
	}
	response.JSON(w, http.StatusOK, responses)
}

// AddRatioMessage handles POST /payouts/requests/{requestID}/ratio-messages
// @Summary      Post a ratio discussion message
// @Tags         payouts
// @Accept       json
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Param        request body RatioMessageRequest true "Message"
// @Success      201 {object} response.APIResponse{data=RatioMessageResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /payouts/requests/{requestID}/ratio-messages [post]
func (h *Handler) AddRatioMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req RatioMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		response.BadRequest(w, "Message is required")
		return
	}

	m, err := h.service.AddRatioMessage(r.Context(), requestID, userID, req.Message)
	if err != nil {
		if errors.Is(err, ErrNotDeveloper) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to post ratio message")
		return
	}

	response.JSON(w, http.StatusCreated, toRatioMessageResponse(m))
}

// MyTransactions handles GET /payouts/transactions
// @Summary      List my payment transactions
// @Tags         payouts
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]TransactionResponse}
// @Router       /payouts/transactions [get]
func (h *Handler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	transactions, err := h.service.ListMyTransactions(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list transactions")
		return
	}

	response.JSON(w, http.StatusOK, toTransactionResponses(transactions))
}

// RequestTransactions handles GET /payouts/requests/{requestID}/transactions
// @Summary      List a request's payment transactions
// @Tags         payouts
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Success      200 {object} response.APIResponse{data=[]TransactionResponse}
// @Router       /payouts/requests/{requestID}/transactions [get]
func (h *Handler) RequestTransactions(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	transactions, err := h.service.ListRequestTransactions(r.Context(), requestID)
	if err != nil {
		response.InternalError(w, "Failed to list transactions")
		return
	}

	response.JSON(w, http.StatusOK, toTransactionResponses(transactions))
}

// Retry handles POST /payouts/requests/{requestID}/retry
// @Summary      Re-run a payout
// @Description  Release the once-only guard and execute the payout again
// @Tags         payouts
// @Produce      json
// @Param        requestID path int true "Feature request ID"
// @Success      200 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /payouts/requests/{requestID}/retry [post]
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	if err := h.service.Retrigger(r.Context(), requestID); err != nil {
		switch {
		case errors.Is(err, ErrZeroTotalWeight):
			response.UnprocessableEntity(w, err.Error())
		case errors.Is(err, ErrRateUnavailable):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to re-run payout")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "payout executed"})
}
