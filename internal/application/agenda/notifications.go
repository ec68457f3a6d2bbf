package agenda

import (
	"fmt"

	"github.com/vperelman/dealflow/pkg/types/common"
)

// NotificationKind mirrors the urgent triage buckets.
type NotificationKind string

const (
	NotificationOverdue  NotificationKind = "overdue"
	NotificationDueToday NotificationKind = "due_today"
)

// Notification is one actionable alert for the seller.  Notifications are
// derived on demand from the triage; nothing is stored or deduplicated.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	DealID     common.ID        `json:"deal_id"`
	ClientName string           `json:"client_name"`
	Message    string           `json:"message"`
}

// Notifications derives alerts from the urgent buckets.  Only deal
// follow-up tasks produce notifications; reminders surface through the
// agenda itself.
func Notifications(tr Triage) []Notification {
	out := []Notification{}
	for _, task := range tr.Overdue {
		if task.Kind != TaskDealFollowUp {
			continue
		}
		out = append(out, Notification{
			Kind:       NotificationOverdue,
			DealID:     task.DealID,
			ClientName: task.ClientName,
			Message: fmt.Sprintf("Follow-up with %s on %q was due %s.",
				task.ClientName, task.Title, task.Due.String()),
		})
	}
	for _, task := range tr.Today {
		if task.Kind != TaskDealFollowUp {
			continue
		}
		out = append(out, Notification{
			Kind:       NotificationDueToday,
			DealID:     task.DealID,
			ClientName: task.ClientName,
			Message: fmt.Sprintf("Follow-up with %s on %q is due today.",
				task.ClientName, task.Title),
		})
	}
	return out
}
