// Package budget holds the pure monetary arithmetic shared by the import
// pipeline and plan-level reporting.
package budget

// QuarterMismatchTolerance is the absolute difference (in minor units)
// allowed between an item's quarterly allocations and quantity*unitCost
// before a reconciliation warning is raised. One whole currency unit,
// preserved exactly: downstream reports depend on this behavior. It applies
// only at warning detection, never when summing or persisting.
const QuarterMismatchTolerance = MinorUnitsPerCurrencyUnit

// ItemAmounts is the minimal monetary view of a plan item.
type ItemAmounts struct {
	Quantity int64
	UnitCost int64 // minor units
	Q1       int64
	Q2       int64
	Q3       int64
	Q4       int64
}

// ItemTotal is quantity * unitCost. It is derived on every read or
// mutation, never stored independently of its inputs.
func ItemTotal(quantity, unitCost int64) int64 {
	return quantity * unitCost
}

// QuarterSum is the sum of the four quarterly allocations.
func (a ItemAmounts) QuarterSum() int64 {
	return a.Q1 + a.Q2 + a.Q3 + a.Q4
}

// Total is the item's derived total cost.
func (a ItemAmounts) Total() int64 {
	return ItemTotal(a.Quantity, a.UnitCost)
}

// AnnualValue is the item's budget-year value: the quarter sum when
// quarters were supplied, otherwise the derived total cost.
func (a ItemAmounts) AnnualValue() int64 {
	if qs := a.QuarterSum(); qs > 0 {
		return qs
	}
	return a.Total()
}

// QuartersReconcile reports whether the quarter sum matches the derived
// total within QuarterMismatchTolerance. A zero quarter sum always
// reconciles (quarters were simply not supplied).
func (a ItemAmounts) QuartersReconcile() bool {
	qs := a.QuarterSum()
	if qs == 0 {
		return true
	}
	diff := qs - a.Total()
	if diff < 0 {
		diff = -diff
	}
	return diff <= QuarterMismatchTolerance
}

// PlanTotal sums the derived totals of all items; it is the value
// denormalized onto the plan and must be recomputed whenever items change.
func PlanTotal(items []ItemAmounts) int64 {
	var total int64
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// QuarterTotal sums one quarter (1..4) across all items.
func QuarterTotal(items []ItemAmounts, quarter int) int64 {
	var total int64
	for _, it := range items {
		switch quarter {
		case 1:
			total += it.Q1
		case 2:
			total += it.Q2
		case 3:
			total += it.Q3
		case 4:
			total += it.Q4
		}
	}
	return total
}
