package service

import (
	"context"

	"github.com/png-egov/procurement-plans/internal/repository"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// PlanStore is the persistence surface the services depend on. The pgx
// implementation lives in internal/repository; tests use an in-memory fake.
// Transition and the item mutations are transactional: status change plus
// history entry succeed or fail together, item batches insert as a whole.
type PlanStore interface {
	Create(ctx context.Context, plan *repository.ProcurementPlan) error
	GetByID(ctx context.Context, id string) (*repository.ProcurementPlan, error)
	GetItems(ctx context.Context, planID string) ([]*repository.PlanItem, error)
	List(ctx context.Context, agencyID, financialYear, status *string, limit, offset int) ([]*repository.ProcurementPlan, int64, error)
	Transition(ctx context.Context, planID string, from, to workflow.Status, action *repository.WorkflowAction) error
	NextSequenceNo(ctx context.Context, planID string) (int, error)
	InsertItems(ctx context.Context, planID string, items []*repository.PlanItem) error
	AddItem(ctx context.Context, planID string, item *repository.PlanItem) error
	DeleteItem(ctx context.Context, planID, itemID string) error
}

// HistoryStore reads the append-only workflow ledger.
type HistoryStore interface {
	ListByPlan(ctx context.Context, planID string) ([]*repository.WorkflowAction, error)
}

// Actor is the authenticated caller, resolved by the external identity
// collaborator and passed through on every request.
type Actor struct {
	ID       string
	Role     workflow.Role
	AgencyID string
}

// OwnsPlan reports whether the actor's agency owns the plan.
func (a Actor) OwnsPlan(plan *repository.ProcurementPlan) bool {
	return a.AgencyID != "" && a.AgencyID == plan.AgencyID
}
