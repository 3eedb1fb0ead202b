package importer

import "github.com/png-egov/procurement-plans/internal/catalog"

// Issues is the validation outcome for a single candidate.
type Issues struct {
	Errors   []string
	Warnings []string
}

// ValidateCandidate runs the row validation rules over a programmatically
// built candidate (the single-item authoring path), deriving computed
// fields when it passes. Dates and amounts are assumed already coerced by
// the caller.
func ValidateCandidate(c *Candidate, catalogs *catalog.Set) Issues {
	c.quantityOK = true
	c.unitCostOK = true
	c.startDateOK = !c.StartDate.IsZero()
	c.endDateOK = !c.EndDate.IsZero()

	row := &Row{Candidate: c}
	if !c.startDateOK {
		row.Errors = append(row.Errors, "Start Date is required")
	}
	if !c.endDateOK {
		row.Errors = append(row.Errors, "End Date is required")
	}
	validateRow(row, catalogs)
	return Issues{Errors: row.Errors, Warnings: row.Warnings}
}
