package repository

import (
	"time"

	"github.com/png-egov/procurement-plans/internal/budget"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// ProcurementPlan is one agency's annual procurement programme for a
// financial year. ItemCount and TotalEstimatedValue are denormalized and
// recomputed in the same transaction as any item mutation.
type ProcurementPlan struct {
	ID                  string          `json:"id"`
	AgencyID            string          `json:"agency_id"`
	FinancialYear       string          `json:"financial_year"`
	FundSourceCode      *string         `json:"fund_source_code,omitempty"`
	PeriodStart         string          `json:"period_start"` // YYYY-MM-DD
	PeriodEnd           string          `json:"period_end"`
	Status              workflow.Status `json:"status"`
	ItemCount           int             `json:"item_count"`
	TotalEstimatedValue int64           `json:"total_estimated_value"` // minor units
	SubmittedAt         *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt          *time.Time      `json:"approved_at,omitempty"`
	CreatedBy           *string         `json:"created_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedBy           *string         `json:"updated_by,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Items               []*PlanItem     `json:"items,omitempty"`
}

// PlanItem is a single line entry within a plan. EstimatedTotalCost is
// derived from quantity and unit cost, never independently settable.
type PlanItem struct {
	ID                    string    `json:"id"`
	PlanID                string    `json:"plan_id"`
	SequenceNo            int       `json:"sequence_no"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	ClassificationCode    *string   `json:"classification_code,omitempty"`
	MethodCode            string    `json:"method_code"`
	ContractTypeCode      string    `json:"contract_type_code"`
	Quantity              int64     `json:"quantity"`
	UoMCode               *string   `json:"uom_code,omitempty"`
	EstimatedUnitCost     int64     `json:"estimated_unit_cost"` // minor units
	EstimatedTotalCost    int64     `json:"estimated_total_cost"`
	ContractStart         string    `json:"contract_start"` // YYYY-MM-DD
	ContractEnd           string    `json:"contract_end"`
	Q1Budget              int64     `json:"q1_budget"`
	Q2Budget              int64     `json:"q2_budget"`
	Q3Budget              int64     `json:"q3_budget"`
	Q4Budget              int64     `json:"q4_budget"`
	AnnualBudgetYearValue int64     `json:"annual_budget_year_value"`
	DurationMonths        int       `json:"anticipated_duration_months"`
	LocationScope         string    `json:"location_scope"`
	ProvinceCode          *string   `json:"province_code,omitempty"`
	MultiYear             bool      `json:"multi_year"`
	MultiYearTotal        int64     `json:"multi_year_total"`
	ThirdPartyManaged     bool      `json:"third_party_managed"`
	Comments              *string   `json:"comments,omitempty"`
	RiskNotes             *string   `json:"risk_notes,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Amounts adapts the item for the budget reconciler.
func (it *PlanItem) Amounts() budget.ItemAmounts {
	return budget.ItemAmounts{
		Quantity: it.Quantity,
		UnitCost: it.EstimatedUnitCost,
		Q1:       it.Q1Budget,
		Q2:       it.Q2Budget,
		Q3:       it.Q3Budget,
		Q4:       it.Q4Budget,
	}
}

// WorkflowAction is one immutable entry in the plan's workflow history.
// FromStatus is nil for the creation entry.
type WorkflowAction struct {
	ID         string           `json:"id"`
	PlanID     string           `json:"plan_id"`
	FromStatus *workflow.Status `json:"from_status,omitempty"`
	ToStatus   workflow.Status  `json:"to_status"`
	ActorID    string           `json:"actor_id"`
	ActorRole  workflow.Role    `json:"actor_role"`
	Comments   *string          `json:"comments,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
