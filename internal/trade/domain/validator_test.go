package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = day("2026-10-19")

func validDates() TradeDates {
	return TradeDates{
		TradeDate:     day("2026-10-15"),
		StartDate:     day("2026-10-17"),
		MaturityDate:  day("2028-10-17"),
		ExecutionDate: day("2026-10-15"),
	}
}

func TestValidateTradeDates_Valid(t *testing.T) {
	assert.True(t, ValidateTradeDates(validDates(), today, 30).Empty())

	d := validDates()
	d.TradeDate = day("2026-09-19")
	d.ExecutionDate = d.TradeDate
	assert.True(t, ValidateTradeDates(d, today, 30).Empty(), "exactly at the window edge")
}

func TestValidateTradeDates_EachRule(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *TradeDates)
		want   []string
	}{
		{
			name:   "maturity before start",
			mutate: func(d *TradeDates) { d.StartDate = day("2026-10-20"); d.MaturityDate = day("2026-10-18") },
			want:   []string{"maturity date cannot be before start date"},
		},
		{
			name:   "start before trade",
			mutate: func(d *TradeDates) { d.StartDate = day("2026-10-14") },
			want:   []string{"start date cannot be before trade date"},
		},
		{
			name: "trade date too old",
			mutate: func(d *TradeDates) {
				d.TradeDate = day("2026-09-18")
				d.ExecutionDate = d.TradeDate
			},
			want: []string{"trade date cannot be more than 30 days in the past"},
		},
		{
			name:   "execution differs from trade",
			mutate: func(d *TradeDates) { d.ExecutionDate = day("2026-10-16") },
			want:   []string{"execution date must equal trade date"},
		},
		{
			name:   "maturity before trade",
			mutate: func(d *TradeDates) { d.StartDate = day("2026-10-15"); d.MaturityDate = day("2026-10-14") },
			want: []string{
				"maturity date cannot be before start date",
				"maturity date cannot be before trade date",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDates()
			tc.mutate(&d)
			assert.Equal(t, tc.want, ValidateTradeDates(d, today, 30).Messages())
		})
	}
}

func TestValidateTradeDates_Combined(t *testing.T) {
	d := TradeDates{
		TradeDate:     day("2026-08-01"),
		ExecutionDate: day("2026-08-02"),
		StartDate:     day("2026-07-31"),
		MaturityDate:  day("2026-07-30"),
	}
	v := ValidateTradeDates(d, today, 30)
	assert.Len(t, v.Messages(), 5)

	err := v.Err()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Len(t, de.Messages, 5)
}

func TestValidateTradeDates_ConfigurableWindow(t *testing.T) {
	d := validDates()
	d.TradeDate = day("2026-09-01")
	d.ExecutionDate = d.TradeDate
	assert.False(t, ValidateTradeDates(d, today, 30).Empty())
	assert.True(t, ValidateTradeDates(d, today, 60).Empty())
}

func TestValidateTradeDates_MissingDates(t *testing.T) {
	v := ValidateTradeDates(TradeDates{}, today, 30)
	assert.Len(t, v.Messages(), 4)
}

func TestValidateLegs_Valid(t *testing.T) {
	legs := []TradeLeg{fixedLeg("10000000", "3.5", "Quarterly"), floatingLeg("10000000", "Quarterly")}
	assert.True(t, ValidateLegs(legs).Empty())
}

func TestValidateLegs_ReportsEveryViolation(t *testing.T) {
	fixed := fixedLeg("10000000", "3.5", "Quarterly")
	fixed.Rate = decimal.NewNullDecimal(decimal.Zero)
	floating := floatingLeg("0", "Quarterly")
	floating.Index = RefEntity{}
	floating.PayReceive = fixed.PayReceive

	got := ValidateLegs([]TradeLeg{fixed, floating}).Messages()
	assert.ElementsMatch(t, []string{
		"legs must have opposite pay/receive flags",
		"leg 1: fixed leg requires a positive rate",
		"leg 2: notional must be positive",
		"leg 2: floating leg requires an index",
	}, got)
}

func TestValidateLegs_Count(t *testing.T) {
	one := []TradeLeg{fixedLeg("1", "1", "Monthly")}
	assert.Equal(t, []string{"trade must have exactly 2 legs, got 1"}, ValidateLegs(one).Messages())

	three := []TradeLeg{fixedLeg("1", "1", "Monthly"), floatingLeg("1", "Monthly"), floatingLeg("1", "Monthly")}
	assert.Contains(t, ValidateLegs(three).Messages(), "trade must have exactly 2 legs, got 3")
}

func TestValidateLegs_UnsupportedRateType(t *testing.T) {
	leg := floatingLeg("1", "Monthly")
	leg.LegRateType = RefEntity{ID: 7, Name: "Inflation"}
	got := ValidateLegs([]TradeLeg{fixedLeg("1", "1", "Monthly"), leg}).Messages()
	assert.Equal(t, []string{`leg 2: unsupported leg rate type "Inflation"`}, got)
}

func TestViolations_ErrNilWhenEmpty(t *testing.T) {
	var v Violations
	assert.NoError(t, v.Err())

	var other Violations
	other.Add("x %d", 1)
	v.Merge(other)
	assert.Equal(t, []string{"x 1"}, v.Messages())
}
