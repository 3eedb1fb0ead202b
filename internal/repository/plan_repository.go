package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/database"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// pgUniqueViolation is the postgres error code for unique constraint hits.
const pgUniqueViolation = "23505"

// PlanRepository handles procurement plan and plan item persistence.
type PlanRepository struct {
	db *database.DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new plan in draft status and appends the creation entry
// to the workflow history in the same transaction.
func (r *PlanRepository) Create(ctx context.Context, plan *ProcurementPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.Status = workflow.StatusDraft

	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO procurement_plans (id, agency_id, financial_year, fund_source_code,
			                               period_start, period_end, status, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			plan.ID,
			plan.AgencyID,
			plan.FinancialYear,
			plan.FundSourceCode,
			plan.PeriodStart,
			plan.PeriodEnd,
			plan.Status,
			plan.CreatedBy,
		).Scan(&plan.CreatedAt, &plan.UpdatedAt)
		if err != nil {
			return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to create plan")
		}

		actor := ""
		if plan.CreatedBy != nil {
			actor = *plan.CreatedBy
		}
		action := &WorkflowAction{
			PlanID:    plan.ID,
			ToStatus:  workflow.StatusDraft,
			ActorID:   actor,
			ActorRole: workflow.RoleAgencyUser,
		}
		return insertAction(ctx, tx, action)
	})
}

// GetByID retrieves a plan with all of its items.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*ProcurementPlan, error) {
	plan := &ProcurementPlan{}

	query := `
		SELECT id, agency_id, financial_year, fund_source_code,
		       period_start::text, period_end::text, status,
		       item_count, total_estimated_value,
		       submitted_at, approved_at,
		       created_by, created_at, updated_by, updated_at
		FROM procurement_plans
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.AgencyID,
		&plan.FinancialYear,
		&plan.FundSourceCode,
		&plan.PeriodStart,
		&plan.PeriodEnd,
		&plan.Status,
		&plan.ItemCount,
		&plan.TotalEstimatedValue,
		&plan.SubmittedAt,
		&plan.ApprovedAt,
		&plan.CreatedBy,
		&plan.CreatedAt,
		&plan.UpdatedBy,
		&plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("plan", id)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to get plan")
	}

	items, err := r.GetItems(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	plan.Items = items

	return plan, nil
}

// GetItems retrieves all items for a plan ordered by sequence number.
func (r *PlanRepository) GetItems(ctx context.Context, planID string) ([]*PlanItem, error) {
	query := itemSelect + ` WHERE plan_id = $1 ORDER BY sequence_no`

	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to get plan items")
	}
	defer rows.Close()

	items := make([]*PlanItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// List retrieves plans with filtering and pagination.
func (r *PlanRepository) List(ctx context.Context, agencyID, financialYear, status *string, limit, offset int) ([]*ProcurementPlan, int64, error) {
	query := `
		SELECT id, agency_id, financial_year, fund_source_code,
		       period_start::text, period_end::text, status,
		       item_count, total_estimated_value,
		       submitted_at, approved_at,
		       created_by, created_at, updated_by, updated_at
		FROM procurement_plans
		WHERE 1=1
	`
	countQuery := `SELECT COUNT(*) FROM procurement_plans WHERE 1=1`

	args := []any{}
	argCount := 1

	if agencyID != nil {
		clause := fmt.Sprintf(" AND agency_id = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, *agencyID)
		argCount++
	}
	if financialYear != nil {
		clause := fmt.Sprintf(" AND financial_year = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, *financialYear)
		argCount++
	}
	if status != nil {
		clause := fmt.Sprintf(" AND status = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, *status)
		argCount++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	queryArgs := append(args, limit, offset)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to count plans")
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to list plans")
	}
	defer rows.Close()

	plans := make([]*ProcurementPlan, 0)
	for rows.Next() {
		plan := &ProcurementPlan{}
		err := rows.Scan(
			&plan.ID,
			&plan.AgencyID,
			&plan.FinancialYear,
			&plan.FundSourceCode,
			&plan.PeriodStart,
			&plan.PeriodEnd,
			&plan.Status,
			&plan.ItemCount,
			&plan.TotalEstimatedValue,
			&plan.SubmittedAt,
			&plan.ApprovedAt,
			&plan.CreatedBy,
			&plan.CreatedAt,
			&plan.UpdatedBy,
			&plan.UpdatedAt,
		)
		if err != nil {
			return nil, 0, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to scan plan")
		}
		plans = append(plans, plan)
	}
	return plans, total, nil
}

// Transition atomically moves a plan from one status to another and appends
// the workflow history entry: both succeed or neither does. The UPDATE is
// guarded on the expected source status; a concurrent change surfaces as
// StaleState. Entering 'submitted' or 'approved_by_dnpm' stamps the
// corresponding timestamp, overwritten on re-entry (history keeps priors).
func (r *PlanRepository) Transition(ctx context.Context, planID string, from, to workflow.Status, action *WorkflowAction) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE procurement_plans
			SET status = $3,
			    submitted_at = CASE WHEN $4 THEN NOW() ELSE submitted_at END,
			    approved_at  = CASE WHEN $5 THEN NOW() ELSE approved_at END,
			    updated_by = $6,
			    updated_at = NOW()
			WHERE id = $1 AND status = $2
		`
		tag, err := tx.Exec(ctx, query, planID, from, to,
			workflow.StampsSubmittedAt(to), workflow.StampsApprovedAt(to), action.ActorID)
		if err != nil {
			return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to update plan status")
		}

		if tag.RowsAffected() == 0 {
			var current workflow.Status
			err := tx.QueryRow(ctx, `SELECT status FROM procurement_plans WHERE id = $1`, planID).Scan(&current)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("plan", planID)
			}
			if err != nil {
				return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to read plan status")
			}
			return apperr.Newf(apperr.ErrCodeStaleState,
				"plan status is '%s', expected '%s'", current, from)
		}

		return insertAction(ctx, tx, action)
	})
}

// NextSequenceNo returns max(existing sequence numbers) + 1 for a plan.
// Callers snapshot this once at batch start; within one batch, numbers are
// assigned in file order from the snapshot.
func (r *PlanRepository) NextSequenceNo(ctx context.Context, planID string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(sequence_no), 0) + 1 FROM procurement_plan_items WHERE plan_id = $1`
	if err := r.db.QueryRow(ctx, query, planID).Scan(&next); err != nil {
		return 0, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to compute next sequence number")
	}
	return next, nil
}

// InsertItems appends a batch of items to a plan as a whole: the plan row is
// locked, its status re-checked (import commits race against transitions),
// every item inserted, and the denormalized totals recomputed — all in one
// transaction. A sequence collision rejects the entire batch.
func (r *PlanRepository) InsertItems(ctx context.Context, planID string, items []*PlanItem) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockMutablePlan(ctx, tx, planID); err != nil {
			return err
		}
		for _, item := range items {
			if err := insertItem(ctx, tx, planID, item); err != nil {
				return err
			}
		}
		return refreshPlanTotals(ctx, tx, planID)
	})
}

// AddItem appends a single item, assigning the next sequence number inside
// the transaction.
func (r *PlanRepository) AddItem(ctx context.Context, planID string, item *PlanItem) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockMutablePlan(ctx, tx, planID); err != nil {
			return err
		}

		if item.SequenceNo == 0 {
			query := `SELECT COALESCE(MAX(sequence_no), 0) + 1 FROM procurement_plan_items WHERE plan_id = $1`
			if err := tx.QueryRow(ctx, query, planID).Scan(&item.SequenceNo); err != nil {
				return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to compute sequence number")
			}
		}
		if err := insertItem(ctx, tx, planID, item); err != nil {
			return err
		}
		return refreshPlanTotals(ctx, tx, planID)
	})
}

// DeleteItem removes an item from a mutable plan and recomputes totals.
func (r *PlanRepository) DeleteItem(ctx context.Context, planID, itemID string) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockMutablePlan(ctx, tx, planID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM procurement_plan_items WHERE id = $1 AND plan_id = $2`, itemID, planID)
		if err != nil {
			return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to delete plan item")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("plan item", itemID)
		}
		return refreshPlanTotals(ctx, tx, planID)
	})
}

// ── transaction helpers ───────────────────────────────────────────────────────

// lockMutablePlan takes a row lock on the plan and verifies items may still
// be mutated. Status is re-checked here, not only at batch start, to guard
// against a transition happening between validation and commit.
func lockMutablePlan(ctx context.Context, tx pgx.Tx, planID string) error {
	var status workflow.Status
	err := tx.QueryRow(ctx, `SELECT status FROM procurement_plans WHERE id = $1 FOR UPDATE`, planID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("plan", planID)
	}
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to lock plan")
	}
	if !workflow.ItemsMutable(status) {
		return apperr.Newf(apperr.ErrCodePlanLocked,
			"plan items cannot be modified while plan status is '%s'", status)
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, planID string, item *PlanItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.PlanID = planID

	query := `
		INSERT INTO procurement_plan_items (id, plan_id, sequence_no, title, description,
		                                    classification_code, method_code, contract_type_code,
		                                    quantity, uom_code, estimated_unit_cost, estimated_total_cost,
		                                    contract_start, contract_end,
		                                    q1_budget, q2_budget, q3_budget, q4_budget,
		                                    annual_budget_year_value, anticipated_duration_months,
		                                    location_scope, province_code,
		                                    multi_year, multi_year_total, third_party_managed,
		                                    comments, risk_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		item.ID,
		item.PlanID,
		item.SequenceNo,
		item.Title,
		item.Description,
		item.ClassificationCode,
		item.MethodCode,
		item.ContractTypeCode,
		item.Quantity,
		item.UoMCode,
		item.EstimatedUnitCost,
		item.EstimatedTotalCost,
		item.ContractStart,
		item.ContractEnd,
		item.Q1Budget,
		item.Q2Budget,
		item.Q3Budget,
		item.Q4Budget,
		item.AnnualBudgetYearValue,
		item.DurationMonths,
		item.LocationScope,
		item.ProvinceCode,
		item.MultiYear,
		item.MultiYearTotal,
		item.ThirdPartyManaged,
		item.Comments,
		item.RiskNotes,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Newf(apperr.ErrCodeDuplicateSequence,
			"sequence number %d already exists on plan", item.SequenceNo)
	}
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to insert plan item")
	}
	return nil
}

// refreshPlanTotals recomputes the denormalized item count and total
// estimated value from the items table.
func refreshPlanTotals(ctx context.Context, tx pgx.Tx, planID string) error {
	query := `
		UPDATE procurement_plans
		SET item_count = (SELECT COUNT(*) FROM procurement_plan_items WHERE plan_id = $1),
		    total_estimated_value = (SELECT COALESCE(SUM(estimated_total_cost), 0)
		                             FROM procurement_plan_items WHERE plan_id = $1),
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, planID); err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to refresh plan totals")
	}
	return nil
}
