package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"500", 50000, false},
		{"5000", 500000, false},
		{"1,234.56", 123456, false},
		{"12.5", 1250, false},
		{"0.01", 1, false},
		{".5", 50, false},
		{"-250", -25000, false},
		{"  42  ", 4200, false},
		{"12.345", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12e3", 0, true},
		{".", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5000", FormatAmount(500000))
	assert.Equal(t, "5000.50", FormatAmount(500050))
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "0.01", FormatAmount(1))
	assert.Equal(t, "-12.34", FormatAmount(-1234))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"5000", "5000.50", "0.01", "123456789.99"} {
		minor, err := ParseAmount(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatAmount(minor))
	}
}

func TestItemAmounts(t *testing.T) {
	a := ItemAmounts{Quantity: 10, UnitCost: 50000, Q1: 100000, Q2: 100000, Q3: 100000, Q4: 100000}

	assert.Equal(t, int64(500000), a.Total())
	assert.Equal(t, int64(400000), a.QuarterSum())
	// quarters supplied, so the annual value is the quarter sum
	assert.Equal(t, int64(400000), a.AnnualValue())

	// no quarters supplied falls back to the derived total
	b := ItemAmounts{Quantity: 3, UnitCost: 2000}
	assert.Equal(t, int64(6000), b.AnnualValue())
}

func TestQuartersReconcile(t *testing.T) {
	base := ItemAmounts{Quantity: 10, UnitCost: 50000} // total 500000

	// zero quarter sum always reconciles
	assert.True(t, base.QuartersReconcile())

	exact := base
	exact.Q1, exact.Q2 = 250000, 250000
	assert.True(t, exact.QuartersReconcile())

	// off by exactly the tolerance still reconciles
	atEdge := base
	atEdge.Q1 = 500000 - QuarterMismatchTolerance
	assert.True(t, atEdge.QuartersReconcile())

	// one minor unit past the tolerance does not
	past := base
	past.Q1 = 500000 - QuarterMismatchTolerance - 1
	assert.False(t, past.QuartersReconcile())

	// over-allocation is symmetric
	over := base
	over.Q1 = 500000 + QuarterMismatchTolerance + 1
	assert.False(t, over.QuartersReconcile())
}

func TestPlanAggregates(t *testing.T) {
	items := []ItemAmounts{
		{Quantity: 2, UnitCost: 1000, Q1: 500, Q2: 1500},
		{Quantity: 1, UnitCost: 3000, Q3: 3000},
	}
	assert.Equal(t, int64(5000), PlanTotal(items))
	assert.Equal(t, int64(500), QuarterTotal(items, 1))
	assert.Equal(t, int64(1500), QuarterTotal(items, 2))
	assert.Equal(t, int64(3000), QuarterTotal(items, 3))
	assert.Equal(t, int64(0), QuarterTotal(items, 4))
}
