package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/logger"
	"github.com/png-egov/procurement-plans/internal/service"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// HTTPHandler exposes the plan and import services over HTTP JSON.
type HTTPHandler struct {
	plans   *service.PlanService
	imports *service.ImportService
	log     *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(plans *service.PlanService, imports *service.ImportService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{plans: plans, imports: imports, log: log}
}

// actorFrom resolves the authenticated actor from the identity headers set
// by the external identity collaborator.
func actorFrom(r *http.Request) (service.Actor, error) {
	id := r.Header.Get("X-Actor-Id")
	if id == "" {
		return service.Actor{}, apperr.New(apperr.ErrCodeUnauthorized, "missing X-Actor-Id header")
	}
	role, ok := workflow.ParseRole(r.Header.Get("X-Actor-Role"))
	if !ok {
		return service.Actor{}, apperr.New(apperr.ErrCodeUnauthorized, "missing or unknown X-Actor-Role header")
	}
	return service.Actor{
		ID:       id,
		Role:     role,
		AgencyID: r.Header.Get("X-Actor-Agency"),
	}, nil
}

// CreatePlan handles POST /api/v1/plans.
func (h *HTTPHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req service.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	plan, err := h.plans.CreatePlan(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// GetPlan handles GET /api/v1/plans/get?id=.
func (h *HTTPHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, apperr.InvalidInput("id", "plan id is required"))
		return
	}
	plan, err := h.plans.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ListPlans handles GET /api/v1/plans.
func (h *HTTPHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	plans, total, err := h.plans.ListPlans(r.Context(),
		optionalParam(q.Get("agency_id")),
		optionalParam(q.Get("financial_year")),
		optionalParam(q.Get("status")),
		page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plans":    plans,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetSummary handles GET /api/v1/plans/summary?id=.
func (h *HTTPHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, apperr.InvalidInput("id", "plan id is required"))
		return
	}
	summary, err := h.plans.Summary(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetHistory handles GET /api/v1/plans/history?id=.
func (h *HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, apperr.InvalidInput("id", "plan id is required"))
		return
	}
	history, err := h.plans.GetHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// GetTransitions handles GET /api/v1/plans/transitions?id= — the legal
// transitions for this actor on this plan in its current status.
func (h *HTTPHandler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, apperr.InvalidInput("id", "plan id is required"))
		return
	}
	transitions, err := h.plans.AvailableTransitions(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": transitions})
}

// Transition handles POST /api/v1/plans/transition.
func (h *HTTPHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req service.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	plan, err := h.plans.RequestTransition(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// AddItem handles POST /api/v1/plans/items?plan_id=.
func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	planID := r.URL.Query().Get("plan_id")
	if planID == "" {
		writeError(w, apperr.InvalidInput("plan_id", "plan id is required"))
		return
	}

	var req service.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	item, err := h.plans.AddItem(r.Context(), actor, planID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// DeleteItem handles DELETE /api/v1/plans/items?plan_id=&item_id=.
func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	planID := r.URL.Query().Get("plan_id")
	itemID := r.URL.Query().Get("item_id")
	if planID == "" || itemID == "" {
		writeError(w, apperr.InvalidInput("plan_id", "plan id and item id are required"))
		return
	}

	if err := h.plans.DeleteItem(r.Context(), actor, planID, itemID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func optionalParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps application error codes onto HTTP statuses. Rejections
// carry the specific missing precondition in the message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.Code(err) {
	case apperr.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperr.ErrCodeInvalidInput, apperr.ErrCodeMissingComment:
		status = http.StatusBadRequest
	case apperr.ErrCodeUnauthorized:
		status = http.StatusForbidden
	case apperr.ErrCodeIllegalTransition, apperr.ErrCodePlanLocked,
		apperr.ErrCodeStaleState, apperr.ErrCodeDuplicateSequence, apperr.ErrCodeConflict:
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    apperr.Code(err),
			"message": err.Error(),
		},
	})
}
