package importer

import (
	"fmt"
	"time"

	"github.com/png-egov/procurement-plans/internal/budget"
	"github.com/png-egov/procurement-plans/internal/catalog"
)

// approxDaysPerMonth is the 30-day-month approximation used for the
// anticipated duration. Preserved exactly; downstream reports depend on it.
const approxDaysPerMonth = 30

// validateRow applies required-field, referential, range and consistency
// rules, then derives computed fields for structurally valid rows.
func validateRow(row *Row, catalogs *catalog.Set) {
	c := row.Candidate

	// required fields
	if c.Title == "" {
		row.Errors = append(row.Errors, "Title is required")
	}
	if c.Description == "" {
		row.Errors = append(row.Errors, "Description is required")
	}
	if c.MethodCode == "" {
		row.Errors = append(row.Errors, "Procurement Method is required")
	}
	if c.ContractTypeCode == "" {
		row.Errors = append(row.Errors, "Contract Type is required")
	}
	if c.quantityOK && c.Quantity <= 0 {
		row.Errors = append(row.Errors, "Quantity must be greater than zero")
	}
	if c.unitCostOK && c.UnitCost <= 0 {
		row.Errors = append(row.Errors, "Estimated Unit Cost must be greater than zero")
	}
	if c.startDateOK && c.endDateOK && c.StartDate.After(c.EndDate) {
		row.Errors = append(row.Errors, "Start Date must be on or before End Date")
	}

	// referential rules against the catalogs (blocking)
	if c.MethodCode != "" && !catalogs.Has(catalog.KindMethod, c.MethodCode) {
		row.Errors = append(row.Errors,
			fmt.Sprintf("Procurement Method '%s' not found in reference catalog", c.MethodCode))
	}
	if c.ContractTypeCode != "" && !catalogs.Has(catalog.KindContractType, c.ContractTypeCode) {
		row.Errors = append(row.Errors,
			fmt.Sprintf("Contract Type '%s' not found in reference catalog", c.ContractTypeCode))
	}
	switch c.LocationScope {
	case ScopeNational, ScopeProvincial, ScopeDistrict, ScopeSpecificSites:
	default:
		row.Errors = append(row.Errors,
			fmt.Sprintf("Location Scope '%s' must be one of national, provincial, district, specific_sites", c.LocationScope))
	}
	if scopeRequiresProvince(c.LocationScope) && c.ProvinceCode == "" {
		row.Errors = append(row.Errors,
			fmt.Sprintf("Province is required for location scope '%s'", c.LocationScope))
	}

	// referential warnings (optional codes present but unresolvable)
	if c.UoMCode != "" && !catalogs.Has(catalog.KindUnitOfMeasure, c.UoMCode) {
		row.Warnings = append(row.Warnings,
			fmt.Sprintf("Unit of Measure '%s' not found in reference catalog", c.UoMCode))
	}
	if c.ProvinceCode != "" && !catalogs.Has(catalog.KindProvince, c.ProvinceCode) {
		row.Warnings = append(row.Warnings,
			fmt.Sprintf("Province '%s' not found in reference catalog", c.ProvinceCode))
	}

	if !row.IsValid() {
		return
	}

	// derived fields, for every structurally valid row regardless of warnings
	amounts := c.Amounts()
	c.EstimatedTotalCost = amounts.Total()
	c.AnnualBudgetYearValue = amounts.AnnualValue()
	c.DurationMonths = durationMonths(c.StartDate, c.EndDate)

	// quarter/total reconciliation (warning only, never blocks the row)
	if !amounts.QuartersReconcile() {
		row.Warnings = append(row.Warnings,
			fmt.Sprintf("quarter totals (%s) don't match total cost (%s)",
				budget.FormatAmount(amounts.QuarterSum()),
				budget.FormatAmount(c.EstimatedTotalCost)))
	}
}

func scopeRequiresProvince(scope string) bool {
	switch scope {
	case ScopeProvincial, ScopeDistrict, ScopeSpecificSites:
		return true
	}
	return false
}

// durationMonths is max(1, ceil(days between start and end / 30)).
func durationMonths(start, end time.Time) int {
	days := int(end.Sub(start) / (24 * time.Hour))
	months := (days + approxDaysPerMonth - 1) / approxDaysPerMonth
	if months < 1 {
		months = 1
	}
	return months
}
