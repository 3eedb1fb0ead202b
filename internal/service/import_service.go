package service

import (
	"context"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/catalog"
	"github.com/png-egov/procurement-plans/internal/importer"
	"github.com/png-egov/procurement-plans/internal/logger"
	"github.com/png-egov/procurement-plans/internal/metrics"
	"github.com/png-egov/procurement-plans/internal/repository"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// ImportService runs the bulk-import pipeline: validate a tabular grid
// against a plan, and commit the valid subset as plan items. Validation is
// read-only and can be discarded freely; only Commit writes.
type ImportService struct {
	store    PlanStore
	catalogs *catalog.Set
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewImportService creates a new import service.
func NewImportService(store PlanStore, catalogs *catalog.Set, m *metrics.Metrics, log *logger.Logger) *ImportService {
	return &ImportService{store: store, catalogs: catalogs, metrics: m, log: log}
}

// CommitResult reports the outcome of a committed batch.
type CommitResult struct {
	Report        *importer.Report            `json:"report"`
	AppendedItems []*repository.PlanItem      `json:"appended_items"`
	Plan          *repository.ProcurementPlan `json:"plan"`
}

// Validate parses and validates a grid against the plan, assigning sequence
// numbers from a single snapshot taken at batch start. Nothing is
// persisted; the report can be discarded and the identical file re-imported
// for an identical result. Concurrent imports against the same plan must be
// serialized by the caller or sequence numbers may collide.
func (s *ImportService) Validate(ctx context.Context, actor Actor, planID string, grid [][]string) (*importer.Report, error) {
	plan, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsPlan(plan) {
		return nil, apperr.New(apperr.ErrCodeUnauthorized, "only the plan's owning agency may import items")
	}
	return s.validateBatch(ctx, planID, grid)
}

// Commit re-validates the grid and persists the valid subset as plan items.
// The lock state is checked up front for every caller regardless of role,
// and re-checked inside the insert transaction — not only at batch start —
// so a transition between validation and commit surfaces as PlanLocked with
// zero items inserted. Invalid rows are never partially persisted: a row
// becomes a whole plan item or nothing.
func (s *ImportService) Commit(ctx context.Context, actor Actor, planID string, grid [][]string) (*CommitResult, error) {
	plan, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !workflow.ItemsMutable(plan.Status) {
		return nil, apperr.Newf(apperr.ErrCodePlanLocked,
			"plan items cannot be imported while plan status is '%s'", plan.Status)
	}
	if !actor.OwnsPlan(plan) {
		return nil, apperr.New(apperr.ErrCodeUnauthorized, "only the plan's owning agency may import items")
	}

	report, err := s.validateBatch(ctx, planID, grid)
	if err != nil {
		return nil, err
	}

	validRows := report.ValidRowsOnly()
	items := make([]*repository.PlanItem, 0, len(validRows))
	for _, row := range validRows {
		items = append(items, itemFromCandidate(row.Candidate))
	}

	if len(items) > 0 {
		if err := s.store.InsertItems(ctx, planID, items); err != nil {
			return nil, err
		}
	}
	s.metrics.ImportCommits.Inc()

	updated, err := s.store.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("plan_id", planID).
		Int("appended_items", len(items)).
		Int64("total_estimated_value", updated.TotalEstimatedValue).
		Msg("Import batch committed")

	return &CommitResult{Report: report, AppendedItems: items, Plan: updated}, nil
}

func (s *ImportService) validateBatch(ctx context.Context, planID string, grid [][]string) (*importer.Report, error) {
	startSeq, err := s.store.NextSequenceNo(ctx, planID)
	if err != nil {
		return nil, err
	}

	report := importer.ValidateGrid(grid, s.catalogs, startSeq)

	s.metrics.ImportRows.WithLabelValues("valid").Add(float64(report.ValidRows))
	s.metrics.ImportRows.WithLabelValues("invalid").Add(float64(report.InvalidRows))
	s.metrics.ImportRows.WithLabelValues("warned").Add(float64(report.WarnedRows))

	s.log.Info().
		Str("plan_id", planID).
		Int("total_rows", report.TotalRows).
		Int("valid_rows", report.ValidRows).
		Int("invalid_rows", report.InvalidRows).
		Int("warned_rows", report.WarnedRows).
		Msg("Import batch validated")

	return report, nil
}
