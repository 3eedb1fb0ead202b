package handler

import (
	"net/http"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/importer"
)

// maxImportBodyBytes caps uploaded import files at 10 MiB.
const maxImportBodyBytes = 10 << 20

// ValidateImport handles POST /api/v1/plans/import/validate?plan_id=.
// The body is the CSV file; the response is the full validation report.
// Nothing is persisted.
func (h *HTTPHandler) ValidateImport(w http.ResponseWriter, r *http.Request) {
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

	grid, err := importer.ReadCSV(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		writeError(w, apperr.Wrap(err, apperr.ErrCodeInvalidInput, "could not parse CSV body"))
		return
	}

	report, err := h.imports.Validate(r.Context(), actor, planID, grid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CommitImport handles POST /api/v1/plans/import/commit?plan_id=.
// The body is the CSV file; the valid subset is appended to the plan as a
// whole, or nothing is written.
func (h *HTTPHandler) CommitImport(w http.ResponseWriter, r *http.Request) {
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

	grid, err := importer.ReadCSV(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		writeError(w, apperr.Wrap(err, apperr.ErrCodeInvalidInput, "could not parse CSV body"))
		return
	}

	result, err := h.imports.Commit(r.Context(), actor, planID, grid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
