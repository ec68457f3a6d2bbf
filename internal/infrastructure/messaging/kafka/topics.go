// Package kafka publishes pipeline domain events.  Publication is advisory
// fan-out for downstream consumers; no operation in this service depends on
// a publish succeeding.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Topic suffixes; the producer prepends the configured topic prefix.
const (
	TopicDealStatusChanged = "deal.status_changed"
	TopicFollowUpLogged    = "followup.logged"
)

// EventEnvelope standardises every published message.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// DealStatusChangedPayload is emitted after a successful status transition.
type DealStatusChangedPayload struct {
	DealID       string           `json:"deal_id"`
	ClientID     string           `json:"client_id"`
	OwnerID      string           `json:"owner_id"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	ClosingValue *decimal.Decimal `json:"closing_value,omitempty"`
	LostReason   string           `json:"lost_reason,omitempty"`
	ChangedAt    time.Time        `json:"changed_at"`
}

// FollowUpLoggedPayload is emitted after a follow-up contact is logged.
type FollowUpLoggedPayload struct {
	DealID       string     `json:"deal_id"`
	ClientID     string     `json:"client_id"`
	OwnerID      string     `json:"owner_id"`
	FollowUpID   string     `json:"follow_up_id"`
	HasAudio     bool       `json:"has_audio"`
	NextFollowUp *time.Time `json:"next_follow_up,omitempty"`
	LoggedAt     time.Time  `json:"logged_at"`
}
