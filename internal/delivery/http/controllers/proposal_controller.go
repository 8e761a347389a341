package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mealplanner/internal/delivery/http/helpers"
	"mealplanner/internal/delivery/http/middleware"
	"mealplanner/internal/domain"
)

const dateLayout = "2006-01-02"

type ProposalController struct {
	Logger  *slog.Logger
	Service domain.ProposalService
}

func NewProposalController(logger *slog.Logger, svc domain.ProposalService) *ProposalController {
	return &ProposalController{
		Logger:  logger,
		Service: svc,
	}
}

// writeServiceError maps engine errors onto the API error envelope.
func (c *ProposalController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "proposal not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not allowed")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid input")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// CreateProposalRequest is the request body for POST /proposals.
type CreateProposalRequest struct {
	RecipeID  string  `json:"recipe_id"`
	Date      string  `json:"date"`
	StartTime *string `json:"start_time"`
}

// Validate implements helpers.Validator.
func (r *CreateProposalRequest) Validate() []string {
	var errs []string
	if r.RecipeID == "" {
		errs = append(errs, "recipe_id is required")
	}
	if r.Date == "" {
		errs = append(errs, "date is required")
	} else if _, err := time.Parse(dateLayout, r.Date); err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}
	return errs
}

// Create godoc
// @Summary Propose a recipe for a date
// @Description Creates a proposal for the given recipe and calendar date. Duplicate proposals for the same recipe and date are allowed.
// @Tags proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateProposalRequest true "Recipe, date, optional start time (HH:MM)"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals [post]
func (c *ProposalController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)

	p, err := c.Service.Create(r.Context(), req.RecipeID, date, req.StartTime, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "recipe not found")
			return
		}
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// JoinResponse reports the commitment state after a join or leave call.
type JoinResponse struct {
	State       string              `json:"state"`
	Participant *domain.Participant `json:"participant,omitempty"`
}

// Join godoc
// @Summary Join a proposal
// @Description Commits the current user to the meal. Joining twice is a no-op reported as state "already_joined".
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse "state: already_joined"
// @Success 201 {object} helpers.APIResponse "state: joined"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID}/join [post]
func (c *ProposalController) Join(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("proposalID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	part, joined, err := c.Service.Join(r.Context(), proposalID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if joined {
		helpers.WriteJSONSuccess(w, http.StatusCreated, JoinResponse{State: "joined", Participant: part})
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, JoinResponse{State: "already_joined", Participant: part})
}

// Leave godoc
// @Summary Leave a proposal
// @Description Removes the current user's commitment. Leaving when not joined is reported as state "was_not_joined".
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse "state: left or was_not_joined"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID}/unjoin [post]
func (c *ProposalController) Leave(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("proposalID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	left, err := c.Service.Leave(r.Context(), proposalID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	state := "was_not_joined"
	if left {
		state = "left"
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, JoinResponse{State: state})
}

// ClaimGrocery godoc
// @Summary Toggle grocery duty
// @Description Claims grocery duty when unclaimed, releases it when held by the caller, and returns 409 when held by someone else.
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /proposals/{proposalID}/claim_grocery [post]
func (c *ProposalController) ClaimGrocery(w http.ResponseWriter, r *http.Request) {
	c.toggleDuty(w, r, domain.DutyGrocery)
}

// ClaimCook godoc
// @Summary Toggle cook duty
// @Description Claims cook duty when unclaimed, releases it when held by the caller, and returns 409 when held by someone else.
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /proposals/{proposalID}/claim_cook [post]
func (c *ProposalController) ClaimCook(w http.ResponseWriter, r *http.Request) {
	c.toggleDuty(w, r, domain.DutyCook)
}

func (c *ProposalController) toggleDuty(w http.ResponseWriter, r *http.Request, kind domain.DutyKind) {
	proposalID := r.PathValue("proposalID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	change, err := c.Service.ToggleDuty(r.Context(), proposalID, kind, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if change.Outcome == domain.DutyRejected {
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already claimed by someone else")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, change)
}

// ChangeStartTimeRequest is the request body for POST /proposals/{proposalID}/start_time.
// A null or omitted start_time clears the time.
type ChangeStartTimeRequest struct {
	StartTime *string `json:"start_time"`
}

// ChangeStartTime godoc
// @Summary Set or clear the start time
// @Description Only the proposer or an admin may change the start time. Null clears it.
// @Tags proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Param body body controllers.ChangeStartTimeRequest true "New start time (HH:MM) or null"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID}/start_time [post]
func (c *ProposalController) ChangeStartTime(w http.ResponseWriter, r *http.Request) {
	var req ChangeStartTimeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	proposalID := r.PathValue("proposalID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p, err := c.Service.ChangeStartTime(r.Context(), proposalID, req.StartTime, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// PostMessageRequest is the request body for POST /proposals/{proposalID}/messages.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessage godoc
// @Summary Post a discussion message
// @Description Appends a message to the proposal's discussion. Participation is not required. Whitespace-only content is rejected.
// @Tags proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Param body body controllers.PostMessageRequest true "Message content"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID}/messages [post]
func (c *ProposalController) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	proposalID := r.PathValue("proposalID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	m, err := c.Service.PostMessage(r.Context(), proposalID, req.Content, userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "message content must not be empty")
			return
		}
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, m)
}

// Delete godoc
// @Summary Delete a proposal
// @Description Only the proposer or an admin may delete. Removes the proposal with all its participants and messages; participants get a removal notice.
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID}/delete [post]
func (c *ProposalController) Delete(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("proposalID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), proposalID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Get godoc
// @Summary Get a proposal with participants and discussion
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID} [get]
func (c *ProposalController) Get(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("proposalID")
	detail, err := c.Service.Get(r.Context(), proposalID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail)
}

// List godoc
// @Summary List proposals in a date range
// @Description Returns proposals with from <= date <= to. Used for calendar week views.
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /proposals [get]
func (c *ProposalController) List(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "to must be YYYY-MM-DD")
		return
	}
	proposals, err := c.Service.ListByDateRange(r.Context(), from, to)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, proposals)
}

// Messages godoc
// @Summary List discussion messages
// @Description Returns the proposal's messages ordered by creation time ascending.
// @Tags proposals
// @Produce json
// @Security BearerAuth
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /proposals/{proposalID}/messages [get]
func (c *ProposalController) Messages(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("proposalID")
	detail, err := c.Service.Get(r.Context(), proposalID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail.Messages)
}
