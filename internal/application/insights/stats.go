// Package insights reduces the raw deal records into the dashboard
// aggregates: conversion rate, forecast, funnel, monthly goal progress and
// the seller leaderboard.  Every reducer is pure and recomputed wholesale;
// the service memoises results in Redis purely as an optimisation.
package insights

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/deal"
)

// Dashboard is the aggregated pipeline view.
type Dashboard struct {
	TotalDeals int `json:"total_deals"`
	OpenDeals  int `json:"open_deals"`
	WonDeals   int `json:"won_deals"`
	LostDeals  int `json:"lost_deals"`

	// ActivePipelineValue sums the value of SENT and FOLLOWING_UP deals.
	ActivePipelineValue decimal.Decimal `json:"active_pipeline_value"`
	WonValue            decimal.Decimal `json:"won_value"`

	// ConversionRate is won/(won+lost); nil while no deal has been decided.
	ConversionRate *decimal.Decimal `json:"conversion_rate,omitempty"`

	// Forecast is ActivePipelineValue scaled by ConversionRate; nil
	// whenever the rate is.
	Forecast *decimal.Decimal `json:"forecast,omitempty"`

	Funnel []FunnelStage `json:"funnel"`

	Goal *GoalProgress `json:"goal,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// FunnelStage is one ordered step of the sales process.
type FunnelStage struct {
	Name  string          `json:"name"`
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`

	// ConversionFromPrevious is this stage's count over the previous
	// stage's, in percent.  The first stage is pinned to 100.
	ConversionFromPrevious decimal.Decimal `json:"conversion_from_previous"`
}

// GoalProgress reports monthly attainment.  Percent stays nil when no goal
// is configured.
type GoalProgress struct {
	Goal     decimal.Decimal  `json:"goal"`
	Achieved decimal.Decimal  `json:"achieved"`
	Percent  *decimal.Decimal `json:"percent,omitempty"`
}

const ratePlaces = 4

// ConversionRate computes won/(won+lost) over a deal set.  The second
// return is false while the set holds no decided deal.
func ConversionRate(deals []*deal.Deal) (decimal.Decimal, bool) {
	var won, lost int64
	for _, d := range deals {
		switch d.Status {
		case deal.StatusWon:
			won++
		case deal.StatusLost:
			lost++
		}
	}
	if won+lost == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(won).
		Div(decimal.NewFromInt(won + lost)).
		Round(ratePlaces), true
}

// wonAmount is what a won deal actually closed for, falling back to the
// negotiated value when no closing value was recorded.
func wonAmount(d *deal.Deal) decimal.Decimal {
	if d.ClosingValue != nil {
		return *d.ClosingValue
	}
	return d.Value
}

// reachedFollowingUp reports whether a deal ever progressed past the
// initial send: it either logged a contact or moved through FOLLOWING_UP.
func reachedFollowingUp(d *deal.Deal) bool {
	if len(d.FollowUps) > 0 || d.Status == deal.StatusFollowingUp {
		return true
	}
	for _, rec := range d.Log {
		if rec.Kind == deal.ChangeStatusChanged && rec.Target == deal.StatusFollowingUp {
			return true
		}
	}
	return false
}

// Funnel reduces a deal set into the three-stage pipeline funnel:
// proposals sent, deals engaged (at least one follow-up logged), deals won.
// Each stage counts deals that reached it, so a won deal appears in all
// three.
func Funnel(deals []*deal.Deal) []FunnelStage {
	sent := FunnelStage{Name: "sent", Value: decimal.Zero}
	engaged := FunnelStage{Name: "engaged", Value: decimal.Zero}
	won := FunnelStage{Name: "won", Value: decimal.Zero}

	for _, d := range deals {
		sent.Count++
		sent.Value = sent.Value.Add(d.Value)
		if reachedFollowingUp(d) || d.Status == deal.StatusWon {
			engaged.Count++
			engaged.Value = engaged.Value.Add(d.Value)
		}
		if d.Status == deal.StatusWon {
			won.Count++
			won.Value = won.Value.Add(wonAmount(d))
		}
	}

	stages := []FunnelStage{sent, engaged, won}
	hundred := decimal.NewFromInt(100)
	for i := range stages {
		if i == 0 || stages[i-1].Count == 0 {
			if i == 0 {
				stages[i].ConversionFromPrevious = hundred
			}
			continue
		}
		stages[i].ConversionFromPrevious = decimal.NewFromInt(int64(stages[i].Count)).
			Div(decimal.NewFromInt(int64(stages[i-1].Count))).
			Mul(hundred).
			Round(2)
	}
	return stages
}

// BuildDashboard reduces the full deal set plus the month's won value into
// the dashboard.  monthlyGoal ≤ 0 leaves goal progress undefined.
func BuildDashboard(deals []*deal.Deal, wonThisMonth decimal.Decimal, monthlyGoal decimal.Decimal, now time.Time) *Dashboard {
	db := &Dashboard{
		ActivePipelineValue: decimal.Zero,
		WonValue:            decimal.Zero,
		GeneratedAt:         now,
	}

	for _, d := range deals {
		db.TotalDeals++
		switch d.Status {
		case deal.StatusWon:
			db.WonDeals++
			db.WonValue = db.WonValue.Add(wonAmount(d))
		case deal.StatusLost:
			db.LostDeals++
		case deal.StatusSent, deal.StatusFollowingUp:
			db.OpenDeals++
			db.ActivePipelineValue = db.ActivePipelineValue.Add(d.Value)
		}
	}

	if rate, ok := ConversionRate(deals); ok {
		db.ConversionRate = &rate
		forecast := db.ActivePipelineValue.Mul(rate).Round(2)
		db.Forecast = &forecast
	}

	db.Funnel = Funnel(deals)

	if monthlyGoal.IsPositive() {
		percent := wonThisMonth.
			Div(monthlyGoal).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		db.Goal = &GoalProgress{
			Goal:     monthlyGoal,
			Achieved: wonThisMonth,
			Percent:  &percent,
		}
	}
	return db
}
