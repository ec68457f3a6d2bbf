package client

import (
	"math"
	"time"

	"github.com/vperelman/dealflow/internal/domain/deal"
)

// ActivityLevel classifies how recently a client was touched.
type ActivityLevel string

const (
	// ActivityIdle means the client has no deals at all.
	ActivityIdle ActivityLevel = "idle"

	// ActivityActive means the last touch is at most InactiveAfterDays old.
	ActivityActive ActivityLevel = "active"

	// ActivityInactive means the last touch is older than InactiveAfterDays.
	ActivityInactive ActivityLevel = "inactive"
)

// InactiveAfterDays is the staleness threshold: strictly more days than
// this flips a client to inactive.  Fixed policy, not configurable.
const InactiveAfterDays = 90

// Activity is the classifier's verdict for one client.
type Activity struct {
	Level ActivityLevel `json:"level"`

	// LastActivity is the most recent touch instant, nil for idle clients.
	LastActivity *time.Time `json:"last_activity,omitempty"`

	// DaysSince is ceil(hours since last activity / 24); zero for idle.
	DaysSince int `json:"days_since"`
}

// ClassifyActivity inspects a client's deals and computes the activity
// verdict at the given reference time.  The last touch is the latest of
// every deal's sent date and follow-up moment, regardless of deal status:
// a freshly lost deal still counts as recent contact.
func ClassifyActivity(deals []*deal.Deal, now time.Time) Activity {
	var last *time.Time
	bump := func(t time.Time) {
		if last == nil || t.After(*last) {
			v := t
			last = &v
		}
	}

	for _, d := range deals {
		bump(d.DateSent.Time())
		for _, fu := range d.FollowUps {
			bump(fu.Moment.Time())
		}
	}

	if last == nil {
		return Activity{Level: ActivityIdle}
	}

	days := int(math.Ceil(now.UTC().Sub(*last).Hours() / 24))
	if days < 0 {
		days = 0
	}
	level := ActivityActive
	if days > InactiveAfterDays {
		level = ActivityInactive
	}
	return Activity{Level: level, LastActivity: last, DaysSince: days}
}
