package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newInvestment(start time.Time, days int, daily string) *Investment {
	return &Investment{
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, days),
		DailyReturn: decimal.RequireFromString(daily),
	}
}

func TestComputeAccrualMidway(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	inv := newInvestment(start, 30, "7.5")

	a := ComputeAccrual(inv, start.Add(10*24*time.Hour+3*time.Hour))

	assert.Equal(t, 10, a.DaysElapsed)
	assert.Equal(t, 30, a.TotalDays)
	assert.Equal(t, 20, a.DaysLeft)
	assert.Equal(t, 33, a.Progress)
	assert.True(t, a.ExpectedTotalReturn.Equal(decimal.RequireFromString("225")))
	assert.True(t, a.AccruedReturn.Equal(decimal.RequireFromString("75")))
	assert.False(t, a.IsMatured)
}

func TestComputeAccrualProgressRoundsToNearest(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := newInvestment(start, 3, "1")

	a := ComputeAccrual(inv, start.AddDate(0, 0, 2))

	// 2/3 = 66.67%
	assert.Equal(t, 67, a.Progress)
}

func TestComputeAccrualClampsAfterMaturity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := newInvestment(start, 7, "2")

	a := ComputeAccrual(inv, start.AddDate(0, 0, 40))

	assert.Equal(t, 40, a.DaysElapsed)
	assert.Equal(t, 0, a.DaysLeft)
	assert.Equal(t, 100, a.Progress)
	assert.True(t, a.AccruedReturn.Equal(decimal.RequireFromString("14")))
	assert.True(t, a.IsMatured)
}

func TestComputeAccrualBeforeStart(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	inv := newInvestment(start, 10, "1")

	a := ComputeAccrual(inv, start.Add(-48*time.Hour))

	assert.Equal(t, 0, a.DaysElapsed)
	assert.Equal(t, 10, a.DaysLeft)
	assert.Equal(t, 0, a.Progress)
	assert.True(t, a.AccruedReturn.IsZero())
}

func TestComputeAccrualZeroDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := newInvestment(start, 0, "1")

	a := ComputeAccrual(inv, start.Add(time.Hour))

	assert.Equal(t, 0, a.TotalDays)
	assert.Equal(t, 0, a.Progress)
	assert.True(t, a.IsMatured)
}

func TestPlanDailyReturnFor(t *testing.T) {
	plan := &InvestmentPlan{DailyReturnRate: decimal.RequireFromString("1.5")}
	got := plan.DailyReturnFor(decimal.RequireFromString("500"))
	assert.True(t, got.Equal(decimal.RequireFromString("7.5")), got.String())
}

func TestPlanAccepts(t *testing.T) {
	plan := &InvestmentPlan{
		MinAmount: decimal.NewFromInt(100),
		MaxAmount: decimal.NewFromInt(999),
	}
	assert.False(t, plan.Accepts(decimal.NewFromInt(50)))
	assert.True(t, plan.Accepts(decimal.NewFromInt(100)))
	assert.True(t, plan.Accepts(decimal.NewFromInt(500)))
	assert.True(t, plan.Accepts(decimal.NewFromInt(999)))
	assert.False(t, plan.Accepts(decimal.NewFromInt(1000)))
}
