package insights

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/config"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/infrastructure/database/redis"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// Cache key classes.  The pipeline services invalidate everything under
// "insights" after each deal mutation.
const (
	dashboardCacheKey   = "insights:dashboard:"
	leaderboardCacheKey = "insights:leaderboard:"
)

// Service serves the dashboard and leaderboard views.
type Service interface {
	// Dashboard reduces the deal set into the aggregate view.  A non-empty
	// ownerID scopes every number to that seller.
	Dashboard(ctx context.Context, ownerID common.UserID) (*Dashboard, error)

	// MonthLeaderboard ranks sellers over the current calendar month.
	MonthLeaderboard(ctx context.Context, metric LeaderboardMetric) ([]LeaderboardEntry, error)
}

type service struct {
	deals  deal.Repository
	cache  redis.Cache
	cfg    config.InsightsConfig
	now    func() time.Time
	logger logging.Logger
}

// NewService wires the insights service.  cache may be nil; results are
// then recomputed on every call, which is always correct.
func NewService(deals deal.Repository, cache redis.Cache, cfg config.InsightsConfig, log logging.Logger) Service {
	return &service{
		deals:  deals,
		cache:  cache,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.Named("insights"),
	}
}

// monthStart returns midnight UTC on the first of now's month.
func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func filterByOwner(deals []*deal.Deal, ownerID common.UserID) []*deal.Deal {
	if ownerID == "" {
		return deals
	}
	out := deals[:0:0]
	for _, d := range deals {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out
}

func (s *service) Dashboard(ctx context.Context, ownerID common.UserID) (*Dashboard, error) {
	load := func(ctx context.Context) (interface{}, error) {
		return s.buildDashboard(ctx, ownerID)
	}

	if s.cache == nil {
		db, err := s.buildDashboard(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return db.(*Dashboard), nil
	}

	var db Dashboard
	if err := s.cache.GetOrSet(ctx, dashboardCacheKey+string(ownerID), &db, s.cfg.CacheTTL, load); err != nil {
		return nil, err
	}
	return &db, nil
}

func (s *service) buildDashboard(ctx context.Context, ownerID common.UserID) (interface{}, error) {
	all, err := s.deals.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	all = filterByOwner(all, ownerID)

	now := s.now()
	decided, err := s.deals.FindDecidedSince(ctx, monthStart(now))
	if err != nil {
		return nil, err
	}
	decided = filterByOwner(decided, ownerID)

	wonThisMonth := decimal.Zero
	for _, d := range decided {
		if d.Status == deal.StatusWon {
			wonThisMonth = wonThisMonth.Add(wonAmount(d))
		}
	}

	goal := decimal.NewFromFloat(s.cfg.DefaultMonthlyGoal)
	return BuildDashboard(all, wonThisMonth, goal, now), nil
}

func (s *service) MonthLeaderboard(ctx context.Context, metric LeaderboardMetric) ([]LeaderboardEntry, error) {
	load := func(ctx context.Context) (interface{}, error) {
		return s.buildLeaderboard(ctx, metric)
	}

	if s.cache == nil {
		rows, err := s.buildLeaderboard(ctx, metric)
		if err != nil {
			return nil, err
		}
		return rows.([]LeaderboardEntry), nil
	}

	var rows []LeaderboardEntry
	if err := s.cache.GetOrSet(ctx, leaderboardCacheKey+string(metric), &rows, s.cfg.CacheTTL, load); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) buildLeaderboard(ctx context.Context, metric LeaderboardMetric) (interface{}, error) {
	now := s.now()
	start := monthStart(now)

	decided, err := s.deals.FindDecidedSince(ctx, start)
	if err != nil {
		return nil, err
	}

	all, err := s.deals.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	created := all[:0:0]
	for _, d := range all {
		if !d.CreatedAt.Before(start) {
			created = append(created, d)
		}
	}

	return Leaderboard(decided, created, metric, nil), nil
}
