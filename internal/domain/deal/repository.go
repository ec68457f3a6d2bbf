package deal

import (
	"context"
	"time"

	"github.com/vperelman/dealflow/pkg/types/common"
)

// Repository is the persistence contract for deals.  Implementations return
// a consistent snapshot per call; the core does not reconcile concurrent
// writers, so conflicting updates resolve last-write-wins at this boundary.
type Repository interface {
	Create(ctx context.Context, d *Deal) error
	FindByID(ctx context.Context, id common.ID) (*Deal, error)
	FindAll(ctx context.Context) ([]*Deal, error)
	FindByClientID(ctx context.Context, clientID common.ID) ([]*Deal, error)

	// FindOpenScheduled returns deals with status SENT or FOLLOWING_UP and a
	// non-nil next-follow-up date: the task classifier's deal input.
	FindOpenScheduled(ctx context.Context) ([]*Deal, error)

	// FindDecidedSince returns WON/LOST deals whose last status change is at
	// or after the given instant; the insights aggregator uses it for
	// monthly goal and leaderboard windows.
	FindDecidedSince(ctx context.Context, since time.Time) ([]*Deal, error)

	Update(ctx context.Context, d *Deal) error
	Delete(ctx context.Context, id common.ID) error
}
