package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/budget"
	"github.com/png-egov/procurement-plans/internal/repository"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// memStore is an in-memory PlanStore and HistoryStore mirroring the
// transactional guarantees of the pgx repository: guarded transitions,
// all-or-nothing item batches, denormalized totals refreshed on every item
// mutation, and an append-only history.
type memStore struct {
	mu      sync.Mutex
	plans   map[string]*repository.ProcurementPlan
	items   map[string][]*repository.PlanItem
	history map[string][]*repository.WorkflowAction
}

func newMemStore() *memStore {
	return &memStore{
		plans:   make(map[string]*repository.ProcurementPlan),
		items:   make(map[string][]*repository.PlanItem),
		history: make(map[string][]*repository.WorkflowAction),
	}
}

func (m *memStore) Create(_ context.Context, plan *repository.ProcurementPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan.ID = uuid.NewString()
	plan.Status = workflow.StatusDraft
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	m.plans[plan.ID] = plan

	m.history[plan.ID] = append(m.history[plan.ID], &repository.WorkflowAction{
		ID:        uuid.NewString(),
		PlanID:    plan.ID,
		ToStatus:  workflow.StatusDraft,
		ActorID:   deref(plan.CreatedBy),
		ActorRole: workflow.RoleAgencyUser,
		CreatedAt: plan.CreatedAt,
	})
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*repository.ProcurementPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, ok := m.plans[id]
	if !ok {
		return nil, apperr.NotFound("procurement plan", id)
	}
	cp := *plan
	cp.Items = append([]*repository.PlanItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *memStore) GetItems(_ context.Context, planID string) ([]*repository.PlanItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*repository.PlanItem(nil), m.items[planID]...), nil
}

func (m *memStore) List(_ context.Context, agencyID, financialYear, status *string, limit, offset int) ([]*repository.ProcurementPlan, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*repository.ProcurementPlan
	for _, p := range m.plans {
		if agencyID != nil && p.AgencyID != *agencyID {
			continue
		}
		if financialYear != nil && p.FinancialYear != *financialYear {
			continue
		}
		if status != nil && string(p.Status) != *status {
			continue
		}
		matched = append(matched, p)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *memStore) Transition(_ context.Context, planID string, from, to workflow.Status, action *repository.WorkflowAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, ok := m.plans[planID]
	if !ok {
		return apperr.NotFound("procurement plan", planID)
	}
	if plan.Status != from {
		return apperr.Newf(apperr.ErrCodeStaleState,
			"plan status is '%s', expected '%s'", plan.Status, from)
	}

	now := time.Now()
	plan.Status = to
	plan.UpdatedAt = now
	if workflow.StampsSubmittedAt(to) {
		plan.SubmittedAt = &now
	}
	if workflow.StampsApprovedAt(to) {
		plan.ApprovedAt = &now
	}

	cp := *action
	cp.ID = uuid.NewString()
	cp.CreatedAt = now
	m.history[planID] = append(m.history[planID], &cp)
	return nil
}

func (m *memStore) NextSequenceNo(_ context.Context, planID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	max := 0
	for _, it := range m.items[planID] {
		if it.SequenceNo > max {
			max = it.SequenceNo
		}
	}
	return max + 1, nil
}

func (m *memStore) InsertItems(_ context.Context, planID string, items []*repository.PlanItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.lockMutable(planID); err != nil {
		return err
	}
	seen := make(map[int]bool)
	for _, it := range m.items[planID] {
		seen[it.SequenceNo] = true
	}
	for _, it := range items {
		if seen[it.SequenceNo] {
			return apperr.Newf(apperr.ErrCodeDuplicateSequence,
				"sequence number %d already exists in plan", it.SequenceNo)
		}
		seen[it.SequenceNo] = true
	}
	for _, it := range items {
		m.insertItem(planID, it)
	}
	m.refreshTotals(planID)
	return nil
}

func (m *memStore) AddItem(_ context.Context, planID string, item *repository.PlanItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.lockMutable(planID); err != nil {
		return err
	}
	seq := 0
	for _, it := range m.items[planID] {
		if it.SequenceNo > seq {
			seq = it.SequenceNo
		}
	}
	item.SequenceNo = seq + 1
	m.insertItem(planID, item)
	m.refreshTotals(planID)
	return nil
}

func (m *memStore) DeleteItem(_ context.Context, planID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.lockMutable(planID); err != nil {
		return err
	}
	items := m.items[planID]
	for i, it := range items {
		if it.ID == itemID {
			m.items[planID] = append(items[:i], items[i+1:]...)
			m.refreshTotals(planID)
			return nil
		}
	}
	return apperr.NotFound("plan item", itemID)
}

func (m *memStore) ListByPlan(_ context.Context, planID string) ([]*repository.WorkflowAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*repository.WorkflowAction(nil), m.history[planID]...), nil
}

func (m *memStore) lockMutable(planID string) error {
	plan, ok := m.plans[planID]
	if !ok {
		return apperr.NotFound("procurement plan", planID)
	}
	if !workflow.ItemsMutable(plan.Status) {
		return apperr.Newf(apperr.ErrCodePlanLocked,
			"plan items cannot be modified while plan status is '%s'", plan.Status)
	}
	return nil
}

func (m *memStore) insertItem(planID string, item *repository.PlanItem) {
	item.ID = uuid.NewString()
	item.PlanID = planID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[planID] = append(m.items[planID], item)
}

func (m *memStore) refreshTotals(planID string) {
	plan := m.plans[planID]
	plan.ItemCount = len(m.items[planID])
	var total int64
	for _, it := range m.items[planID] {
		total += budget.ItemTotal(it.Quantity, it.EstimatedUnitCost)
	}
	plan.TotalEstimatedValue = total
	plan.UpdatedAt = time.Now()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
