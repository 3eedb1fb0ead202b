package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/budget"
	"github.com/png-egov/procurement-plans/internal/catalog"
	"github.com/png-egov/procurement-plans/internal/importer"
	"github.com/png-egov/procurement-plans/internal/logger"
	"github.com/png-egov/procurement-plans/internal/metrics"
	"github.com/png-egov/procurement-plans/internal/repository"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

const dateLayout = "2006-01-02"

// PlanService handles procurement plan business logic: plan CRUD, item
// mutations, and status transitions.
type PlanService struct {
	store    PlanStore
	history  HistoryStore
	catalogs *catalog.Set
	metrics  *metrics.Metrics
	validate *validator.Validate
	log      *logger.Logger
}

// NewPlanService creates a new plan service.
func NewPlanService(store PlanStore, history HistoryStore, catalogs *catalog.Set, m *metrics.Metrics, log *logger.Logger) *PlanService {
	return &PlanService{
		store:    store,
		history:  history,
		catalogs: catalogs,
		metrics:  m,
		validate: validator.New(),
		log:      log,
	}
}

// CreatePlanRequest creates a plan in draft status.
type CreatePlanRequest struct {
	AgencyID       string  `json:"agency_id" validate:"required,uuid4"`
	FinancialYear  string  `json:"financial_year" validate:"required"`
	FundSourceCode *string `json:"fund_source_code,omitempty"`
	PeriodStart    string  `json:"period_start" validate:"required"`
	PeriodEnd      string  `json:"period_end" validate:"required"`
}

// TransitionRequest asks for a plan status change on behalf of an actor.
type TransitionRequest struct {
	PlanID       string `json:"plan_id" validate:"required,uuid4"`
	TargetStatus string `json:"target_status" validate:"required"`
	Comments     string `json:"comments,omitempty"`
}

// AddItemRequest adds one item to a plan outside the bulk import path. It
// goes through the same validation rules as an import candidate.
type AddItemRequest struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	ClassificationCode string `json:"classification_code,omitempty"`
	MethodCode         string `json:"method_code"`
	ContractTypeCode   string `json:"contract_type_code"`
	Quantity           int64  `json:"quantity"`
	UoMCode            string `json:"uom_code,omitempty"`
	UnitCost           int64  `json:"unit_cost"`
	ContractStart      string `json:"contract_start"`
	ContractEnd        string `json:"contract_end"`
	Q1Budget           int64  `json:"q1_budget"`
	Q2Budget           int64  `json:"q2_budget"`
	Q3Budget           int64  `json:"q3_budget"`
	Q4Budget           int64  `json:"q4_budget"`
	LocationScope      string `json:"location_scope"`
	ProvinceCode       string `json:"province_code,omitempty"`
	MultiYear          bool   `json:"multi_year"`
	MultiYearTotal     int64  `json:"multi_year_total"`
	ThirdPartyManaged  bool   `json:"third_party_managed"`
	Comments           string `json:"comments,omitempty"`
	RiskNotes          string `json:"risk_notes,omitempty"`
}

// PlanSummary is the per-plan budget report.
type PlanSummary struct {
	PlanID              string   `json:"plan_id"`
	ItemCount           int      `json:"item_count"`
	TotalEstimatedValue int64    `json:"total_estimated_value"`
	QuarterTotals       [4]int64 `json:"quarter_totals"`
	AnnualTotal         int64    `json:"annual_total"`
}

// CreatePlan creates a plan in draft status after validating its period.
func (s *PlanService) CreatePlan(ctx context.Context, actor Actor, req *CreatePlanRequest) (*repository.ProcurementPlan, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeInvalidInput, "invalid create plan request")
	}

	start, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		return nil, apperr.InvalidInput("period_start", "invalid date format, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		return nil, apperr.InvalidInput("period_end", "invalid date format, expected YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, apperr.InvalidInput("period_start", "period start must be on or before period end")
	}

	if actor.AgencyID != req.AgencyID && actor.Role != workflow.RoleSystemAdmin {
		return nil, apperr.New(apperr.ErrCodeUnauthorized, "cannot create a plan for another agency")
	}

	plan := &repository.ProcurementPlan{
		AgencyID:       req.AgencyID,
		FinancialYear:  req.FinancialYear,
		FundSourceCode: req.FundSourceCode,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		CreatedBy:      &actor.ID,
	}
	if err := s.store.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("plan_id", plan.ID).
		Str("agency_id", plan.AgencyID).
		Str("financial_year", plan.FinancialYear).
		Msg("Plan created")

	return plan, nil
}

// GetPlan retrieves a plan with its items.
func (s *PlanService) GetPlan(ctx context.Context, id string) (*repository.ProcurementPlan, error) {
	return s.store.GetByID(ctx, id)
}

// ListPlans lists plans with filtering and pagination.
func (s *PlanService) ListPlans(ctx context.Context, agencyID, financialYear, status *string, page, pageSize int) ([]*repository.ProcurementPlan, int64, error) {
	offset := (page - 1) * pageSize
	return s.store.List(ctx, agencyID, financialYear, status, pageSize, offset)
}

// GetHistory returns a plan's workflow history ordered oldest-first.
func (s *PlanService) GetHistory(ctx context.Context, planID string) ([]*repository.WorkflowAction, error) {
	if _, err := s.store.GetByID(ctx, planID); err != nil {
		return nil, err
	}
	return s.history.ListByPlan(ctx, planID)
}

// AvailableTransitions returns the transitions the actor may request on a
// plan in its current status.
func (s *PlanService) AvailableTransitions(ctx context.Context, actor Actor, planID string) ([]workflow.Transition, error) {
	plan, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return workflow.LegalTransitions(plan.Status, actor.Role, actor.OwnsPlan(plan)), nil
}

// RequestTransition validates and applies a status transition. Authorization
// is checked against the permission table before any mutation; the store
// applies the status change and history entry atomically, guarding on the
// expected source status so a concurrent change surfaces as StaleState.
func (s *PlanService) RequestTransition(ctx context.Context, actor Actor, req *TransitionRequest) (*repository.ProcurementPlan, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeInvalidInput, "invalid transition request")
	}

	target, ok := workflow.ParseStatus(req.TargetStatus)
	if !ok {
		return nil, apperr.InvalidInput("target_status", "unknown status '"+req.TargetStatus+"'")
	}

	plan, err := s.store.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	if err := workflow.Authorize(plan.Status, actor.Role, actor.OwnsPlan(plan), target, req.Comments); err != nil {
		s.metrics.TransitionRejections.WithLabelValues(apperr.Code(err)).Inc()
		return nil, err
	}

	from := plan.Status
	action := &repository.WorkflowAction{
		PlanID:     plan.ID,
		FromStatus: &from,
		ToStatus:   target,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Comments:   optional(req.Comments),
	}

	if err := s.store.Transition(ctx, plan.ID, from, target, action); err != nil {
		if apperr.IsCode(err, apperr.ErrCodeStaleState) {
			s.metrics.TransitionRejections.WithLabelValues(apperr.ErrCodeStaleState).Inc()
		}
		return nil, err
	}

	s.metrics.Transitions.WithLabelValues(string(from), string(target)).Inc()
	s.log.Info().
		Str("plan_id", plan.ID).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("Plan status transitioned")

	return s.store.GetByID(ctx, plan.ID)
}

// AddItem adds one item to a mutable plan, running the same validation
// rules as the import pipeline.
func (s *PlanService) AddItem(ctx context.Context, actor Actor, planID string, req *AddItemRequest) (*repository.PlanItem, error) {
	plan, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsPlan(plan) {
		return nil, apperr.New(apperr.ErrCodeUnauthorized, "only the plan's owning agency may add items")
	}

	c := &importer.Candidate{
		Title:              req.Title,
		Description:        req.Description,
		ClassificationCode: req.ClassificationCode,
		MethodCode:         req.MethodCode,
		ContractTypeCode:   req.ContractTypeCode,
		Quantity:           req.Quantity,
		UoMCode:            req.UoMCode,
		UnitCost:           req.UnitCost,
		Q1Budget:           req.Q1Budget,
		Q2Budget:           req.Q2Budget,
		Q3Budget:           req.Q3Budget,
		Q4Budget:           req.Q4Budget,
		LocationScope:      strings.ToLower(req.LocationScope),
		ProvinceCode:       req.ProvinceCode,
		MultiYear:          req.MultiYear,
		MultiYearTotal:     req.MultiYearTotal,
		ThirdPartyManaged:  req.ThirdPartyManaged,
		Comments:           req.Comments,
		RiskNotes:          req.RiskNotes,
	}
	if c.LocationScope == "" {
		c.LocationScope = importer.ScopeNational
	}
	if c.StartDate, err = time.Parse(dateLayout, req.ContractStart); err != nil {
		return nil, apperr.InvalidInput("contract_start", "invalid date format, expected YYYY-MM-DD")
	}
	if c.EndDate, err = time.Parse(dateLayout, req.ContractEnd); err != nil {
		return nil, apperr.InvalidInput("contract_end", "invalid date format, expected YYYY-MM-DD")
	}

	issues := importer.ValidateCandidate(c, s.catalogs)
	if len(issues.Errors) > 0 {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, strings.Join(issues.Errors, "; "))
	}

	item := itemFromCandidate(c)
	if err := s.store.AddItem(ctx, planID, item); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("plan_id", planID).
		Str("item_id", item.ID).
		Int("sequence_no", item.SequenceNo).
		Int64("estimated_total_cost", item.EstimatedTotalCost).
		Msg("Plan item added")

	return item, nil
}

// DeleteItem removes an item from a mutable plan.
func (s *PlanService) DeleteItem(ctx context.Context, actor Actor, planID, itemID string) error {
	plan, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if !actor.OwnsPlan(plan) {
		return apperr.New(apperr.ErrCodeUnauthorized, "only the plan's owning agency may delete items")
	}

	if err := s.store.DeleteItem(ctx, planID, itemID); err != nil {
		return err
	}

	s.log.Info().
		Str("plan_id", planID).
		Str("item_id", itemID).
		Msg("Plan item deleted")
	return nil
}

// Summary computes the plan's budget report from its items.
func (s *PlanService) Summary(ctx context.Context, planID string) (*PlanSummary, error) {
	plan, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	amounts := make([]budget.ItemAmounts, 0, len(plan.Items))
	var annual int64
	for _, it := range plan.Items {
		amounts = append(amounts, it.Amounts())
		annual += it.AnnualBudgetYearValue
	}

	summary := &PlanSummary{
		PlanID:              plan.ID,
		ItemCount:           len(plan.Items),
		TotalEstimatedValue: budget.PlanTotal(amounts),
		AnnualTotal:         annual,
	}
	for q := 1; q <= 4; q++ {
		summary.QuarterTotals[q-1] = budget.QuarterTotal(amounts, q)
	}
	return summary, nil
}

// itemFromCandidate maps a vetted import candidate onto a persistable item.
func itemFromCandidate(c *importer.Candidate) *repository.PlanItem {
	return &repository.PlanItem{
		SequenceNo:            c.SequenceNo,
		Title:                 c.Title,
		Description:           c.Description,
		ClassificationCode:    optional(c.ClassificationCode),
		MethodCode:            c.MethodCode,
		ContractTypeCode:      c.ContractTypeCode,
		Quantity:              c.Quantity,
		UoMCode:               optional(c.UoMCode),
		EstimatedUnitCost:     c.UnitCost,
		EstimatedTotalCost:    c.EstimatedTotalCost,
		ContractStart:         c.StartDate.Format(dateLayout),
		ContractEnd:           c.EndDate.Format(dateLayout),
		Q1Budget:              c.Q1Budget,
		Q2Budget:              c.Q2Budget,
		Q3Budget:              c.Q3Budget,
		Q4Budget:              c.Q4Budget,
		AnnualBudgetYearValue: c.AnnualBudgetYearValue,
		DurationMonths:        c.DurationMonths,
		LocationScope:         c.LocationScope,
		ProvinceCode:          optional(c.ProvinceCode),
		MultiYear:             c.MultiYear,
		MultiYearTotal:        c.MultiYearTotal,
		ThirdPartyManaged:     c.ThirdPartyManaged,
		Comments:              optional(c.Comments),
		RiskNotes:             optional(c.RiskNotes),
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
