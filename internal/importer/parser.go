package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/png-egov/procurement-plans/internal/budget"
)

// Location scope enumeration (fixed set).
const (
	ScopeNational      = "national"
	ScopeProvincial    = "provincial"
	ScopeDistrict      = "district"
	ScopeSpecificSites = "specific_sites"
)

// dateLayouts accepted in import cells, tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// Candidate is the typed record parsed from one row, with derived fields
// filled in once the row is structurally valid.
type Candidate struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ClassificationCode string    `json:"classification_code,omitempty"`
	MethodCode         string    `json:"method_code"`
	ContractTypeCode   string    `json:"contract_type_code"`
	Quantity           int64     `json:"quantity"`
	UoMCode            string    `json:"uom_code,omitempty"`
	UnitCost           int64     `json:"unit_cost"` // minor units
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Q1Budget           int64     `json:"q1_budget"`
	Q2Budget           int64     `json:"q2_budget"`
	Q3Budget           int64     `json:"q3_budget"`
	Q4Budget           int64     `json:"q4_budget"`
	LocationScope      string    `json:"location_scope"`
	ProvinceCode       string    `json:"province_code,omitempty"`
	MultiYear          bool      `json:"multi_year"`
	MultiYearTotal     int64     `json:"multi_year_total"`
	ThirdPartyManaged  bool      `json:"third_party_managed"`
	Comments           string    `json:"comments,omitempty"`
	RiskNotes          string    `json:"risk_notes,omitempty"`

	// Derived. Computed for every structurally valid row regardless of
	// warnings.
	EstimatedTotalCost    int64 `json:"estimated_total_cost"`
	AnnualBudgetYearValue int64 `json:"annual_budget_year_value"`
	DurationMonths        int   `json:"anticipated_duration_months"`
	SequenceNo            int   `json:"sequence_no"`

	// coercion outcomes, consulted by the validator to avoid piling a
	// range error on top of a parse error for the same cell
	quantityOK  bool
	unitCostOK  bool
	startDateOK bool
	endDateOK   bool
}

// Amounts adapts the candidate for the budget reconciler.
func (c *Candidate) Amounts() budget.ItemAmounts {
	return budget.ItemAmounts{
		Quantity: c.Quantity,
		UnitCost: c.UnitCost,
		Q1:       c.Q1Budget,
		Q2:       c.Q2Budget,
		Q3:       c.Q3Budget,
		Q4:       c.Q4Budget,
	}
}

// parseRow coerces one row of cells into a Candidate, applying defaults.
// Coercion failures become row errors; semantic rules are the validator's
// job.
func parseRow(rowNumber int, cells []string) *Row {
	row := &Row{RowNumber: rowNumber}
	c := &Candidate{}
	row.Candidate = c

	cell := func(i int) string {
		if i < len(cells) {
			return trim(cells[i])
		}
		return ""
	}

	c.Title = cell(colTitle)
	c.Description = cell(colDescription)
	c.ClassificationCode = cell(colClassificationCode)
	c.MethodCode = cell(colMethodCode)
	c.ContractTypeCode = cell(colContractTypeCode)
	c.UoMCode = cell(colUoMCode)
	c.ProvinceCode = cell(colProvinceCode)
	c.Comments = cell(colComments)
	c.RiskNotes = cell(colRiskNotes)

	if v := cell(colQuantity); v != "" {
		q, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64)
		if err != nil {
			row.Errors = append(row.Errors, "Quantity must be a whole number")
		} else {
			c.Quantity = q
			c.quantityOK = true
		}
	} else {
		row.Errors = append(row.Errors, "Quantity is required")
	}

	if v := cell(colUnitCost); v != "" {
		amt, err := budget.ParseAmount(v)
		if err != nil {
			row.Errors = append(row.Errors, "Estimated Unit Cost must be a number")
		} else {
			c.UnitCost = amt
			c.unitCostOK = true
		}
	} else {
		row.Errors = append(row.Errors, "Estimated Unit Cost is required")
	}

	c.StartDate, c.startDateOK = parseDateCell(row, cell(colStartDate), "Start Date")
	c.EndDate, c.endDateOK = parseDateCell(row, cell(colEndDate), "End Date")

	c.Q1Budget = parseBudgetCell(row, cell(colQ1Budget), "Q1 Budget")
	c.Q2Budget = parseBudgetCell(row, cell(colQ2Budget), "Q2 Budget")
	c.Q3Budget = parseBudgetCell(row, cell(colQ3Budget), "Q3 Budget")
	c.Q4Budget = parseBudgetCell(row, cell(colQ4Budget), "Q4 Budget")

	// blank scope defaults to national
	c.LocationScope = strings.ToLower(cell(colLocationScope))
	if c.LocationScope == "" {
		c.LocationScope = ScopeNational
	}

	c.MultiYear = parseFlagCell(cell(colMultiYearFlag))
	c.ThirdPartyManaged = parseFlagCell(cell(colThirdPartyFlag))

	if v := cell(colMultiYearTotal); v != "" {
		amt, err := budget.ParseAmount(v)
		if err != nil {
			row.Errors = append(row.Errors, "Multi-Year Total Budget must be a number")
		} else {
			c.MultiYearTotal = amt
		}
	}

	return row
}

func parseDateCell(row *Row, v, label string) (time.Time, bool) {
	if v == "" {
		row.Errors = append(row.Errors, label+" is required")
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	row.Errors = append(row.Errors, label+" is not a valid date")
	return time.Time{}, false
}

func parseBudgetCell(row *Row, v, label string) int64 {
	if v == "" {
		return 0
	}
	amt, err := budget.ParseAmount(v)
	if err != nil {
		row.Errors = append(row.Errors, label+" must be a number")
		return 0
	}
	if amt < 0 {
		row.Errors = append(row.Errors, label+" cannot be negative")
		return 0
	}
	return amt
}

// parseFlagCell reads a Yes/No cell; blank means No.
func parseFlagCell(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func trim(s string) string { return strings.TrimSpace(s) }
