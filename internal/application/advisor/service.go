// Package advisor serves the four AI-assisted surfaces: the daily briefing,
// the re-engagement draft, the monthly goal suggestion and the follow-up
// email draft.  The assistant is advisory only: every operation degrades to
// a deterministic canned default when the model is disabled, slow or wrong,
// and the response says which of the two the caller got.
package advisor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/application/agenda"
	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/prometheus"
	"github.com/vperelman/dealflow/internal/intelligence/assistant"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// Use-case labels for metrics.
const (
	useCaseBriefing     = "briefing"
	useCaseReengagement = "reengagement"
	useCaseGoal         = "goal_suggestion"
	useCaseEmailDraft   = "email_draft"
)

// Draft is advisory text plus its provenance.
type Draft struct {
	Text          string    `json:"text"`
	FromAssistant bool      `json:"from_assistant"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// GoalSuggestion is a proposed monthly goal.
type GoalSuggestion struct {
	Goal          decimal.Decimal `json:"goal"`
	Rationale     string          `json:"rationale,omitempty"`
	FromAssistant bool            `json:"from_assistant"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// Service is the advisory surface.
type Service interface {
	DailyBriefing(ctx context.Context, ownerID common.UserID, sellerName string) (*Draft, error)
	ReengagementDraft(ctx context.Context, clientID common.ID) (*Draft, error)
	SuggestGoal(ctx context.Context, ownerID common.UserID, currentGoal decimal.Decimal) (*GoalSuggestion, error)
	DraftFollowUpEmail(ctx context.Context, dealID common.ID) (*Draft, error)
}

type service struct {
	ai      assistant.Client
	agenda  agenda.Service
	deals   deal.Repository
	clients client.Repository
	metrics *prometheus.Metrics
	now     func() time.Time
	logger  logging.Logger
}

// NewService wires the advisor.  metrics may be nil.
func NewService(
	ai assistant.Client,
	agendaSvc agenda.Service,
	deals deal.Repository,
	clients client.Repository,
	metrics *prometheus.Metrics,
	log logging.Logger,
) Service {
	return &service{
		ai:      ai,
		agenda:  agendaSvc,
		deals:   deals,
		clients: clients,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log.Named("advisor"),
	}
}

// complete runs one assistant request and records its outcome.  The empty
// string with ok=false means the caller should use its fallback.
func (s *service) complete(ctx context.Context, useCase string, req assistant.Request) (string, bool) {
	started := s.now()
	resp, err := s.ai.Complete(ctx, req)
	elapsed := s.now().Sub(started)

	if s.metrics != nil {
		s.metrics.AssistantDuration.Observe(elapsed.Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.AssistantRequestsTotal.WithLabelValues(useCase, "error").Inc()
			s.metrics.AssistantFallbacksTotal.WithLabelValues(useCase).Inc()
		}
		s.logger.Warn("assistant failed, serving canned default",
			logging.String("use_case", useCase),
			logging.Err(err),
		)
		return "", false
	}
	if s.metrics != nil {
		s.metrics.AssistantRequestsTotal.WithLabelValues(useCase, "ok").Inc()
	}
	return resp.Text, true
}

func taskLines(tasks []agenda.Task) []assistant.TaskLine {
	out := make([]assistant.TaskLine, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, assistant.TaskLine{
			Client: t.ClientName,
			Title:  t.Title,
			Due:    t.Due.String(),
			Value:  t.Value,
		})
	}
	return out
}

func (s *service) DailyBriefing(ctx context.Context, ownerID common.UserID, sellerName string) (*Draft, error) {
	tr, err := s.agenda.Compute(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	in := assistant.BriefingInput{
		SellerName:  sellerName,
		Date:        s.now(),
		Overdue:     taskLines(tr.Overdue),
		Today:       taskLines(tr.Today),
		Upcoming:    taskLines(tr.Upcoming),
		ValueAtRisk: tr.ValueAtRisk,
		Currency:    "EUR",
	}

	text, ok := s.complete(ctx, useCaseBriefing, assistant.BriefingPrompt(in))
	if !ok {
		text = assistant.FallbackBriefing(in)
	}
	return &Draft{Text: text, FromAssistant: ok, GeneratedAt: s.now()}, nil
}

func (s *service) ReengagementDraft(ctx context.Context, clientID common.ID) (*Draft, error) {
	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	deals, err := s.deals.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	activity := client.ClassifyActivity(deals, s.now())
	lastTitle := ""
	if len(deals) > 0 {
		lastTitle = deals[len(deals)-1].Title
	}
	contacts := make([]string, 0, len(c.Contacts))
	for _, contact := range c.Contacts {
		contacts = append(contacts, contact.Name)
	}

	in := assistant.ReengagementInput{
		ClientName:    c.Name,
		DaysSince:     activity.DaysSince,
		LastDealTitle: lastTitle,
		Contacts:      contacts,
	}

	text, ok := s.complete(ctx, useCaseReengagement, assistant.ReengagementPrompt(in))
	if !ok {
		text = assistant.FallbackReengagement(in)
	}
	return &Draft{Text: text, FromAssistant: ok, GeneratedAt: s.now()}, nil
}

// goalReply is the structured answer the goal prompt asks for.
type goalReply struct {
	Goal      decimal.Decimal `json:"goal"`
	Rationale string          `json:"rationale"`
}

func (s *service) SuggestGoal(ctx context.Context, ownerID common.UserID, currentGoal decimal.Decimal) (*GoalSuggestion, error) {
	now := s.now()
	threeMonthsBack := time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, time.UTC)

	decided, err := s.deals.FindDecidedSince(ctx, threeMonthsBack)
	if err != nil {
		return nil, err
	}

	// Won value per month, oldest first.
	byMonth := make([]decimal.Decimal, 3)
	for i := range byMonth {
		byMonth[i] = decimal.Zero
	}
	for _, d := range decided {
		if d.Status != deal.StatusWon {
			continue
		}
		if ownerID != "" && d.OwnerID != ownerID {
			continue
		}
		idx := monthsBetween(threeMonthsBack, d.UpdatedAt)
		if idx >= 0 && idx < len(byMonth) {
			amount := d.Value
			if d.ClosingValue != nil {
				amount = *d.ClosingValue
			}
			byMonth[idx] = byMonth[idx].Add(amount)
		}
	}

	in := assistant.GoalInput{
		Currency:       "EUR",
		WonLast3Months: byMonth,
		CurrentGoal:    currentGoal,
	}

	text, ok := s.complete(ctx, useCaseGoal, assistant.GoalPrompt(in))
	if ok {
		var reply goalReply
		if err := json.Unmarshal([]byte(text), &reply); err == nil && reply.Goal.IsPositive() {
			return &GoalSuggestion{
				Goal:          reply.Goal,
				Rationale:     reply.Rationale,
				FromAssistant: true,
				GeneratedAt:   s.now(),
			}, nil
		}
		// The model answered but not with usable JSON.
		if s.metrics != nil {
			s.metrics.AssistantFallbacksTotal.WithLabelValues(useCaseGoal).Inc()
		}
	}

	return &GoalSuggestion{
		Goal:        assistant.FallbackGoal(in),
		GeneratedAt: s.now(),
	}, nil
}

// monthsBetween counts whole calendar months from start's month to t's.
func monthsBetween(start, t time.Time) int {
	return (t.Year()-start.Year())*12 + int(t.Month()-start.Month())
}

func (s *service) DraftFollowUpEmail(ctx context.Context, dealID common.ID) (*Draft, error) {
	d, err := s.deals.FindByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	c, err := s.clients.FindByID(ctx, d.ClientID)
	if err != nil {
		return nil, err
	}

	contactName := ""
	if d.ContactID != nil {
		for _, contact := range c.Contacts {
			if contact.ID == *d.ContactID {
				contactName = contact.Name
				break
			}
		}
	}

	lastNotes := ""
	daysSinceLog := 0
	if n := len(d.FollowUps); n > 0 {
		last := d.FollowUps[n-1]
		lastNotes = last.Notes
		daysSinceLog = int(s.now().Sub(last.Moment.Time()).Hours() / 24)
	}

	in := assistant.EmailDraftInput{
		ClientName:   c.Name,
		ContactName:  contactName,
		DealTitle:    d.Title,
		LastNotes:    lastNotes,
		DaysSinceLog: daysSinceLog,
	}

	text, ok := s.complete(ctx, useCaseEmailDraft, assistant.EmailDraftPrompt(in))
	if !ok {
		text = assistant.FallbackEmailDraft(in)
	}
	return &Draft{Text: text, FromAssistant: ok, GeneratedAt: s.now()}, nil
}
