package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// LeaderboardMetric selects the ranking dimension.
type LeaderboardMetric string

const (
	MetricWonValue     LeaderboardMetric = "won_value"
	MetricWonCount     LeaderboardMetric = "won_count"
	MetricDealsCreated LeaderboardMetric = "deals_created"
)

// ParseLeaderboardMetric validates a metric name, defaulting to won value
// when empty.
func ParseLeaderboardMetric(s string) (LeaderboardMetric, error) {
	switch LeaderboardMetric(s) {
	case "":
		return MetricWonValue, nil
	case MetricWonValue, MetricWonCount, MetricDealsCreated:
		return LeaderboardMetric(s), nil
	}
	return "", errors.Validation("unknown leaderboard metric").WithDetail(s)
}

// LeaderboardEntry is one seller's row.
type LeaderboardEntry struct {
	Rank       int             `json:"rank"`
	SellerID   common.UserID   `json:"seller_id"`
	SellerName string          `json:"seller_name"`
	WonValue   decimal.Decimal `json:"won_value"`
	WonCount   int             `json:"won_count"`
	Created    int             `json:"deals_created"`
}

// Leaderboard ranks sellers over the given deal sets: decided carries the
// month's WON/LOST deals, created carries the month's new deals.  Ranking
// is by the chosen metric descending; ties break alphabetically by seller
// name ascending.  sellerNames maps IDs to display names and may be nil, in
// which case the raw ID serves as the name.
func Leaderboard(decided, created []*deal.Deal, metric LeaderboardMetric, sellerNames map[common.UserID]string) []LeaderboardEntry {
	rows := map[common.UserID]*LeaderboardEntry{}
	row := func(owner common.UserID) *LeaderboardEntry {
		if r, ok := rows[owner]; ok {
			return r
		}
		name := sellerNames[owner]
		if name == "" {
			name = string(owner)
		}
		r := &LeaderboardEntry{
			SellerID:   owner,
			SellerName: name,
			WonValue:   decimal.Zero,
		}
		rows[owner] = r
		return r
	}

	for _, d := range decided {
		if d.Status != deal.StatusWon {
			continue
		}
		r := row(d.OwnerID)
		r.WonCount++
		r.WonValue = r.WonValue.Add(wonAmount(d))
	}
	for _, d := range created {
		row(d.OwnerID).Created++
	}

	out := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var cmp int
		switch metric {
		case MetricWonCount:
			cmp = a.WonCount - b.WonCount
		case MetricDealsCreated:
			cmp = a.Created - b.Created
		default:
			cmp = a.WonValue.Cmp(b.WonValue)
		}
		if cmp != 0 {
			return cmp > 0
		}
		return a.SellerName < b.SellerName
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
