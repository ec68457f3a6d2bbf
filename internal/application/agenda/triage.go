// Package agenda computes the seller's working view of the pipeline: the
// triage of follow-up tasks and reminders into overdue / today / upcoming
// buckets, the value at risk behind the urgent ones, and the notifications
// derived from them.
package agenda

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// TaskKind distinguishes the two task sources.
type TaskKind string

const (
	TaskDealFollowUp TaskKind = "deal_follow_up"
	TaskReminder     TaskKind = "reminder"
)

// Task is the unified agenda item.  Deal tasks carry the deal's open value;
// reminder tasks carry no value and never contribute to value at risk.
type Task struct {
	Kind TaskKind `json:"kind"`

	DealID     common.ID `json:"deal_id,omitempty"`
	ReminderID common.ID `json:"reminder_id,omitempty"`

	ClientID   common.ID     `json:"client_id,omitempty"`
	ClientName string        `json:"client_name,omitempty"`
	OwnerID    common.UserID `json:"owner_id"`

	Title string          `json:"title"`
	Due   schedule.Moment `json:"due"`

	Value *decimal.Decimal `json:"value,omitempty"`
}

// Triage is the classified agenda.  The three buckets are disjoint and each
// is sorted by the task's full due moment, earliest first.
type Triage struct {
	Overdue  []Task `json:"overdue"`
	Today    []Task `json:"today"`
	Upcoming []Task `json:"upcoming"`

	// ValueAtRisk sums the deal value behind every overdue and today deal
	// task.  Reminders never contribute.
	ValueAtRisk decimal.Decimal `json:"value_at_risk"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Total returns the number of classified tasks.
func (t Triage) Total() int {
	return len(t.Overdue) + len(t.Today) + len(t.Upcoming)
}

// Classify buckets tasks against the given calendar day.  Bucket membership
// compares calendar dates only, so a task due today at 09:00 is still
// "today" at 17:00 regardless of its moment's precision; the time of day
// matters only for ordering inside a bucket.
func Classify(tasks []Task, today schedule.Moment, now time.Time) Triage {
	tr := Triage{
		Overdue:     []Task{},
		Today:       []Task{},
		Upcoming:    []Task{},
		ValueAtRisk: decimal.Zero,
		GeneratedAt: now,
	}

	for _, task := range tasks {
		if task.Due.IsZero() {
			continue
		}
		switch task.Due.CompareDate(today) {
		case -1:
			tr.Overdue = append(tr.Overdue, task)
		case 0:
			tr.Today = append(tr.Today, task)
		default:
			tr.Upcoming = append(tr.Upcoming, task)
		}
	}

	for _, bucket := range [][]Task{tr.Overdue, tr.Today, tr.Upcoming} {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Due.Before(bucket[j].Due)
		})
	}

	for _, bucket := range [][]Task{tr.Overdue, tr.Today} {
		for _, task := range bucket {
			if task.Kind == TaskDealFollowUp && task.Value != nil {
				tr.ValueAtRisk = tr.ValueAtRisk.Add(*task.Value)
			}
		}
	}
	return tr
}
