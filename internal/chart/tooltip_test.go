package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShareTooltip(t *testing.T) {
	fn := ShareTooltip([]float64{1, 3})

	assert.Equal(t, "Sales: 1 (25.00%)", fn("Sales", 1))
	assert.Equal(t, "Admin: 3 (75.00%)", fn("Admin", 3))
}

func TestShareTooltipZeroSum(t *testing.T) {
	fn := ShareTooltip([]float64{0, 0})

	assert.Equal(t, "A: 0 (0.00%)", fn("A", 0))
}

func TestFormatValueGroupsThousands(t *testing.T) {
	assert.Equal(t, "1,200", FormatValue(1200))
	assert.Equal(t, "12", FormatValue(12))
}

func TestSpecTooltipsStopAtMissingValues(t *testing.T) {
	spec := BuildTimeSeries(KindLine, []TimeSeries{
		{Name: "a", Points: []PeriodValue{{"Jan", 1}, {"Feb", 2}, {"Mar", 3}}},
		{Name: "b", Points: []PeriodValue{{"Jan", 5}}},
	}, nil)

	assert.Equal(t, []string{"Leaves: 5"}, spec.Tooltips(1, PrefixTooltip("Leaves")))
	assert.Len(t, spec.Tooltips(0, LabelTooltip()), 3)
	assert.Nil(t, spec.Tooltips(4, LabelTooltip()))
}
