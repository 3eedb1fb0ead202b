package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/database"
)

// WorkflowHistoryRepository reads the append-only workflow ledger. Entries
// are written only inside plan transactions (creation and transitions); the
// table carries a trigger rejecting updates and deletes. The log is audit
// material — current status is authoritative on the plan row, never
// re-derived from here.
type WorkflowHistoryRepository struct {
	db *database.DB
}

// NewWorkflowHistoryRepository creates a new WorkflowHistoryRepository.
func NewWorkflowHistoryRepository(db *database.DB) *WorkflowHistoryRepository {
	return &WorkflowHistoryRepository{db: db}
}

// ListByPlan returns the full history for a plan ordered by timestamp
// ascending.
func (r *WorkflowHistoryRepository) ListByPlan(ctx context.Context, planID string) ([]*WorkflowAction, error) {
	query := `
		SELECT id, plan_id, from_status, to_status, actor_id, actor_role, comments, created_at
		FROM plan_workflow_actions
		WHERE plan_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to get workflow history")
	}
	defer rows.Close()

	actions := make([]*WorkflowAction, 0)
	for rows.Next() {
		a := &WorkflowAction{}
		err := rows.Scan(
			&a.ID,
			&a.PlanID,
			&a.FromStatus,
			&a.ToStatus,
			&a.ActorID,
			&a.ActorRole,
			&a.Comments,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrCodeInternal, "failed to scan workflow action")
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// insertAction appends one history entry inside an existing transaction.
func insertAction(ctx context.Context, tx pgx.Tx, action *WorkflowAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	query := `
		INSERT INTO plan_workflow_actions (id, plan_id, from_status, to_status, actor_id, actor_role, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query,
		action.ID,
		action.PlanID,
		action.FromStatus,
		action.ToStatus,
		action.ActorID,
		action.ActorRole,
		action.Comments,
	).Scan(&action.CreatedAt)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to append workflow action")
	}
	return nil
}
