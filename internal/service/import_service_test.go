package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/workflow"
)

// importRow builds one 21-column row of the positional import format.
func importRow(title, quantity, unitCost string) []string {
	cells := make([]string, 21)
	cells[0] = title                // Title
	cells[1] = "Imported line item" // Description
	cells[3] = "OPEN_TENDER"        // Procurement Method
	cells[4] = "GOODS"              // Contract Type
	cells[5] = quantity
	cells[6] = "EA"
	cells[7] = unitCost
	cells[8] = "2026-01-01"
	cells[9] = "2026-06-30"
	cells[14] = "national"
	return cells
}

func importGrid(rows ...[]string) [][]string {
	grid := [][]string{make([]string, 21)} // header
	return append(grid, rows...)
}

func TestImportValidate(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	ctx := context.Background()
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)

	grid := importGrid(
		importRow("Desks", "10", "500"),
		importRow("Chairs", "not-a-number", "120"),
	)

	report, err := importSvc.Validate(ctx, owner, plan.ID, grid)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.ValidRows)
	assert.Equal(t, 1, report.InvalidRows)
	assert.Equal(t, 1, report.Rows[0].Candidate.SequenceNo)

	// validation persists nothing
	current, err := planSvc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, current.ItemCount)

	// and is repeatable with an identical result
	again, err := importSvc.Validate(ctx, owner, plan.ID, grid)
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestImportValidate_NonOwner(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)

	outsider := testActor(workflow.RoleAgencyUser, uuid.NewString())
	_, err := importSvc.Validate(context.Background(), outsider, plan.ID, importGrid(importRow("Desks", "10", "500")))
	assert.Equal(t, apperr.ErrCodeUnauthorized, apperr.Code(err))
}

func TestImportCommit(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	ctx := context.Background()
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)

	grid := importGrid(
		importRow("Desks", "10", "500"),
		importRow("", "5", "100"), // missing title, rejected
		importRow("Chairs", "20", "120"),
	)

	result, err := importSvc.Commit(ctx, owner, plan.ID, grid)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Report.ValidRows)
	assert.Equal(t, 1, result.Report.InvalidRows)
	require.Len(t, result.AppendedItems, 2)

	// valid rows keep their file-order sequence slots
	assert.Equal(t, 1, result.AppendedItems[0].SequenceNo)
	assert.Equal(t, 3, result.AppendedItems[1].SequenceNo)

	// plan totals reflect only the committed subset: 10*500 + 20*120
	assert.Equal(t, 2, result.Plan.ItemCount)
	assert.Equal(t, int64(740000), result.Plan.TotalEstimatedValue)
}

func TestImportCommit_SequenceContinues(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	ctx := context.Background()
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)

	_, err := importSvc.Commit(ctx, owner, plan.ID, importGrid(importRow("Desks", "10", "500")))
	require.NoError(t, err)

	// a second batch snapshots the sequence after the first
	result, err := importSvc.Commit(ctx, owner, plan.ID, importGrid(
		importRow("Chairs", "20", "120"),
		importRow("Cabinets", "4", "900"),
	))
	require.NoError(t, err)
	require.Len(t, result.AppendedItems, 2)
	assert.Equal(t, 2, result.AppendedItems[0].SequenceNo)
	assert.Equal(t, 3, result.AppendedItems[1].SequenceNo)
	assert.Equal(t, 3, result.Plan.ItemCount)
}

func TestImportCommit_LockedPlan(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	ctx := context.Background()
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)
	transition(t, planSvc, owner, plan.ID, workflow.StatusSubmitted, "")

	grid := importGrid(importRow("Desks", "10", "500"))

	// every caller gets the lock rejection, the owner included
	_, err := importSvc.Commit(ctx, owner, plan.ID, grid)
	assert.Equal(t, apperr.ErrCodePlanLocked, apperr.Code(err))

	// and so does a non-owner: the lock state is checked first
	outsider := testActor(workflow.RoleAgencyUser, uuid.NewString())
	_, err = importSvc.Commit(ctx, outsider, plan.ID, grid)
	assert.Equal(t, apperr.ErrCodePlanLocked, apperr.Code(err))

	// zero items were written
	current, err := planSvc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, current.ItemCount)
}

func TestImportCommit_NonOwnerOnMutablePlan(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)

	outsider := testActor(workflow.RoleAgencyUser, uuid.NewString())
	_, err := importSvc.Commit(context.Background(), outsider, plan.ID, importGrid(importRow("Desks", "10", "500")))
	assert.Equal(t, apperr.ErrCodeUnauthorized, apperr.Code(err))
}

func TestImportCommit_AllRowsInvalid(t *testing.T) {
	planSvc, importSvc, _ := newTestServices(t)
	ctx := context.Background()
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	plan := createDraftPlan(t, planSvc, owner)

	result, err := importSvc.Commit(ctx, owner, plan.ID, importGrid(importRow("", "0", "x")))
	require.NoError(t, err)
	assert.Empty(t, result.AppendedItems)
	assert.Equal(t, 1, result.Report.InvalidRows)
	assert.Zero(t, result.Plan.ItemCount)
}

func TestImportCommit_PlanNotFound(t *testing.T) {
	_, importSvc, _ := newTestServices(t)
	owner := testActor(workflow.RoleAgencyUser, uuid.NewString())
	_, err := importSvc.Commit(context.Background(), owner, uuid.NewString(), importGrid(importRow("Desks", "10", "500")))
	assert.Equal(t, apperr.ErrCodeNotFound, apperr.Code(err))
}
