package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// systemPrompt frames every request.  Keeping it in one place makes the
// assistant's voice consistent across the advisory surfaces.
const systemPrompt = "You are a concise assistant for a sales pipeline tracker. " +
	"You receive a snapshot of the seller's deals and tasks and answer with " +
	"short, actionable text. Never invent deals or numbers that are not in " +
	"the snapshot."

// BriefingInput is the agenda snapshot fed to the daily briefing prompt.
type BriefingInput struct {
	SellerName  string
	Date        time.Time
	Overdue     []TaskLine
	Today       []TaskLine
	Upcoming    []TaskLine
	ValueAtRisk decimal.Decimal
	Currency    string
}

// TaskLine is one agenda item rendered for the model.
type TaskLine struct {
	Client string
	Title  string
	Due    string
	Value  *decimal.Decimal
}

// ReengagementInput describes an inactive client for the outreach draft.
type ReengagementInput struct {
	ClientName    string
	DaysSince     int
	LastDealTitle string
	Contacts      []string
}

// GoalInput feeds the monthly goal suggestion.
type GoalInput struct {
	Currency       string
	WonLast3Months []decimal.Decimal
	CurrentGoal    decimal.Decimal
}

// EmailDraftInput describes the deal a follow-up email should reference.
type EmailDraftInput struct {
	ClientName   string
	ContactName  string
	DealTitle    string
	LastNotes    string
	DaysSinceLog int
}

func renderTasks(b *strings.Builder, heading string, tasks []TaskLine) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", heading)
	for _, t := range tasks {
		fmt.Fprintf(b, "- %s / %s (due %s", t.Client, t.Title, t.Due)
		if t.Value != nil {
			fmt.Fprintf(b, ", value %s", t.Value.StringFixed(2))
		}
		b.WriteString(")\n")
	}
}

// BriefingPrompt renders the daily briefing request.
func BriefingPrompt(in BriefingInput) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a daily briefing for %s on %s. ", in.SellerName, in.Date.Format("Monday, 2 January 2006"))
	b.WriteString("Three to five sentences, lead with what is overdue.\n\n")
	renderTasks(&b, "Overdue", in.Overdue)
	renderTasks(&b, "Due today", in.Today)
	renderTasks(&b, "Upcoming", in.Upcoming)
	if in.ValueAtRisk.IsPositive() {
		fmt.Fprintf(&b, "Value at risk: %s %s\n", in.ValueAtRisk.StringFixed(2), in.Currency)
	}
	return Request{System: systemPrompt, Prompt: b.String()}
}

// ReengagementPrompt renders the inactive-client outreach request.
func ReengagementPrompt(in ReengagementInput) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a short, friendly re-engagement message to %s. ", in.ClientName)
	fmt.Fprintf(&b, "There has been no activity for %d days. ", in.DaysSince)
	if in.LastDealTitle != "" {
		fmt.Fprintf(&b, "The last deal discussed was %q. ", in.LastDealTitle)
	}
	if len(in.Contacts) > 0 {
		fmt.Fprintf(&b, "Known contacts: %s. ", strings.Join(in.Contacts, ", "))
	}
	b.WriteString("No subject line, two short paragraphs at most.")
	return Request{System: systemPrompt, Prompt: b.String()}
}

// GoalPrompt renders the monthly goal suggestion request.  The schema keeps
// the reply machine-readable.
func GoalPrompt(in GoalInput) Request {
	var b strings.Builder
	b.WriteString("Suggest a realistic monthly sales goal.\n")
	fmt.Fprintf(&b, "Currency: %s\n", in.Currency)
	for i, v := range in.WonLast3Months {
		fmt.Fprintf(&b, "Won value %d months ago: %s\n", len(in.WonLast3Months)-i, v.StringFixed(2))
	}
	if in.CurrentGoal.IsPositive() {
		fmt.Fprintf(&b, "Current goal: %s\n", in.CurrentGoal.StringFixed(2))
	}
	return Request{
		System:     systemPrompt,
		Prompt:     b.String(),
		JSONSchema: `{"goal": "number", "rationale": "string"}`,
	}
}

// EmailDraftPrompt renders the follow-up email draft request.
func EmailDraftPrompt(in EmailDraftInput) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a follow-up email about the deal %q with %s", in.DealTitle, in.ClientName)
	if in.ContactName != "" {
		fmt.Fprintf(&b, ", addressed to %s", in.ContactName)
	}
	b.WriteString(".\n")
	if in.LastNotes != "" {
		fmt.Fprintf(&b, "Notes from the last interaction: %s\n", in.LastNotes)
	}
	if in.DaysSinceLog > 0 {
		fmt.Fprintf(&b, "The last interaction was %d days ago.\n", in.DaysSinceLog)
	}
	b.WriteString("Include a subject line. Keep it under 120 words.")
	return Request{System: systemPrompt, Prompt: b.String()}
}

// ─────────────────────────────────────────────────────────────────────────────
// Canned fallbacks.  Services use these verbatim whenever the assistant is
// disabled, times out, or answers with something unusable.
// ─────────────────────────────────────────────────────────────────────────────

// FallbackBriefing builds a deterministic briefing from the same snapshot.
func FallbackBriefing(in BriefingInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d overdue, %d due today and %d upcoming tasks.",
		len(in.Overdue), len(in.Today), len(in.Upcoming))
	if len(in.Overdue) > 0 {
		first := in.Overdue[0]
		fmt.Fprintf(&b, " Start with %s (%s).", first.Client, first.Title)
	}
	if in.ValueAtRisk.IsPositive() {
		fmt.Fprintf(&b, " Value at risk: %s %s.", in.ValueAtRisk.StringFixed(2), in.Currency)
	}
	return b.String()
}

// FallbackReengagement is the deterministic outreach draft.
func FallbackReengagement(in ReengagementInput) string {
	return fmt.Sprintf(
		"Hi %s,\n\nIt has been a while since we last spoke and I wanted to check in. "+
			"Is there anything on your side we could help with?\n\nBest regards",
		in.ClientName)
}

// FallbackGoal suggests the average of recent won value, rounded up to a
// round number, or keeps the current goal when there is no history.
func FallbackGoal(in GoalInput) decimal.Decimal {
	if len(in.WonLast3Months) == 0 {
		return in.CurrentGoal
	}
	sum := decimal.Zero
	for _, v := range in.WonLast3Months {
		sum = sum.Add(v)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(in.WonLast3Months))))
	// Round up to the nearest hundred so the suggestion reads as a target,
	// not an accounting figure.
	hundred := decimal.NewFromInt(100)
	return avg.Div(hundred).Ceil().Mul(hundred)
}

// FallbackEmailDraft is the deterministic follow-up email.
func FallbackEmailDraft(in EmailDraftInput) string {
	to := in.ContactName
	if to == "" {
		to = in.ClientName
	}
	return fmt.Sprintf(
		"Subject: Following up on %s\n\nHi %s,\n\nI wanted to follow up on %s and see "+
			"whether you have any questions or updates on your side. Happy to jump on a "+
			"quick call if that is easier.\n\nBest regards",
		in.DealTitle, to, in.DealTitle)
}
