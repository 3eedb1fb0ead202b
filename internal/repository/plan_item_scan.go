package repository

import (
	"github.com/png-egov/procurement-plans/internal/apperr"
)

const itemSelect = `
	SELECT id, plan_id, sequence_no, title, description,
	       classification_code, method_code, contract_type_code,
	       quantity, uom_code, estimated_unit_cost, estimated_total_cost,
	       contract_start::text, contract_end::text,
	       q1_budget, q2_budget, q3_budget, q4_budget,
	       annual_budget_year_value, anticipated_duration_months,
	       location_scope, province_code,
	       multi_year, multi_year_total, third_party_managed,
	       comments, risk_notes,
	       created_at, updated_at
	FROM procurement_plan_items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(sc rowScanner) (*PlanItem, error) {
	item := &PlanItem{}
	err := sc.Scan(
		&item.ID,
		&item.PlanID,
		&item.SequenceNo,
		&item.Title,
		&item.Description,
		&item.ClassificationCode,
		&item.MethodCode,
		&item.ContractTypeCode,
		&item.Quantity,
		&item.UoMCode,
		&item.EstimatedUnitCost,
		&item.EstimatedTotalCost,
		&item.ContractStart,
		&item.ContractEnd,
		&item.Q1Budget,
		&item.Q2Budget,
		&item.Q3Budget,
		&item.Q4Budget,
		&item.AnnualBudgetYearValue,
		&item.DurationMonths,
		&item.LocationScope,
		&item.ProvinceCode,
		&item.MultiYear,
		&item.MultiYearTotal,
		&item.ThirdPartyManaged,
		&item.Comments,
		&item.RiskNotes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to scan plan item")
	}
	return item, nil
}
