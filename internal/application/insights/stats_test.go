package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/pkg/types/common"
)

func newDeal(t *testing.T, owner common.UserID, value int64) *deal.Deal {
	t.Helper()
	d, err := deal.NewDeal(common.NewID(), owner, "deal", decimal.NewFromInt(value),
		schedule.Date(2026, 8, 1))
	require.NoError(t, err)
	return d
}

func wonDeal(t *testing.T, owner common.UserID, value, closing int64) *deal.Deal {
	t.Helper()
	d := newDeal(t, owner, value)
	c := decimal.NewFromInt(closing)
	require.NoError(t, d.ChangeStatus(deal.StatusWon, deal.StatusChange{ClosingValue: &c}))
	return d
}

func lostDeal(t *testing.T, owner common.UserID, value int64) *deal.Deal {
	t.Helper()
	d := newDeal(t, owner, value)
	require.NoError(t, d.ChangeStatus(deal.StatusLost, deal.StatusChange{LostReason: "went elsewhere"}))
	return d
}

func engagedDeal(t *testing.T, owner common.UserID, value int64) *deal.Deal {
	t.Helper()
	d := newDeal(t, owner, value)
	_, err := d.AddFollowUp(deal.FollowUpInput{Notes: "called"})
	require.NoError(t, err)
	return d
}

func TestConversionRateNoDecidedDeals(t *testing.T) {
	_, ok := ConversionRate([]*deal.Deal{newDeal(t, "s1", 100)})
	assert.False(t, ok)
}

func TestConversionRate(t *testing.T) {
	deals := []*deal.Deal{
		wonDeal(t, "s1", 100, 100),
		wonDeal(t, "s1", 100, 100),
		lostDeal(t, "s1", 100),
		newDeal(t, "s1", 100),
	}
	rate, ok := ConversionRate(deals)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromFloat(0.6667)), "got %s", rate)
}

func TestFunnelStages(t *testing.T) {
	deals := []*deal.Deal{
		newDeal(t, "s1", 1000),         // sent only
		engagedDeal(t, "s1", 2000),     // sent + engaged
		wonDeal(t, "s1", 3000, 2800),   // reaches all three
		lostDeal(t, "s1", 4000),        // sent only, never followed up
	}

	stages := Funnel(deals)
	require.Len(t, stages, 3)

	assert.Equal(t, "sent", stages[0].Name)
	assert.Equal(t, 4, stages[0].Count)
	assert.True(t, stages[0].ConversionFromPrevious.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, "engaged", stages[1].Name)
	assert.Equal(t, 2, stages[1].Count)
	assert.True(t, stages[1].ConversionFromPrevious.Equal(decimal.NewFromInt(50)),
		"got %s", stages[1].ConversionFromPrevious)

	assert.Equal(t, "won", stages[2].Name)
	assert.Equal(t, 1, stages[2].Count)
	// Won value uses the recorded closing value.
	assert.True(t, stages[2].Value.Equal(decimal.NewFromInt(2800)))
	assert.True(t, stages[2].ConversionFromPrevious.Equal(decimal.NewFromInt(50)))
}

func TestFunnelEmptySet(t *testing.T) {
	stages := Funnel(nil)
	require.Len(t, stages, 3)
	assert.Equal(t, 0, stages[0].Count)
	assert.True(t, stages[0].ConversionFromPrevious.Equal(decimal.NewFromInt(100)))
	assert.True(t, stages[1].ConversionFromPrevious.IsZero())
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	deals := []*deal.Deal{
		newDeal(t, "s1", 1000),
		engagedDeal(t, "s1", 2000),
		wonDeal(t, "s1", 3000, 2800),
		lostDeal(t, "s1", 4000),
	}

	db := BuildDashboard(deals, decimal.NewFromInt(2800), decimal.NewFromInt(10000), now)

	assert.Equal(t, 4, db.TotalDeals)
	assert.Equal(t, 2, db.OpenDeals)
	assert.Equal(t, 1, db.WonDeals)
	assert.Equal(t, 1, db.LostDeals)
	assert.True(t, db.ActivePipelineValue.Equal(decimal.NewFromInt(3000)))
	assert.True(t, db.WonValue.Equal(decimal.NewFromInt(2800)))

	require.NotNil(t, db.ConversionRate)
	assert.True(t, db.ConversionRate.Equal(decimal.NewFromFloat(0.5)))
	require.NotNil(t, db.Forecast)
	assert.True(t, db.Forecast.Equal(decimal.NewFromInt(1500)), "got %s", db.Forecast)

	require.NotNil(t, db.Goal)
	require.NotNil(t, db.Goal.Percent)
	assert.True(t, db.Goal.Percent.Equal(decimal.NewFromInt(28)), "got %s", db.Goal.Percent)
}

func TestBuildDashboardNoDecidedNoGoal(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	db := BuildDashboard([]*deal.Deal{newDeal(t, "s1", 1000)}, decimal.Zero, decimal.Zero, now)

	assert.Nil(t, db.ConversionRate)
	assert.Nil(t, db.Forecast)
	assert.Nil(t, db.Goal, "zero goal leaves progress undefined")
}
