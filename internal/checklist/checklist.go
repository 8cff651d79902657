package checklist

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Log entry timestamps are rendered in the office time zone so the
// audit trail reads the same regardless of where a sync client runs.
var easternTime = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Local
	}
	return loc
}()

const (
	logTimeLayout = "03:04:05 PM"
	logDateLayout = "January 2, 2006"
)

// NewLogEntry stamps a log entry in the office time zone. itemID and
// itemQuestion may be empty for entries not tied to an item.
func NewLogEntry(now time.Time, message, itemID, itemQuestion string) LogEntry {
	local := now.In(easternTime)
	return LogEntry{
		ID:           uuid.NewString(),
		Timestamp:    local.Format(logTimeLayout),
		Date:         local.Format(logDateLayout),
		Message:      message,
		ItemID:       itemID,
		ItemQuestion: itemQuestion,
	}
}

// New creates a fresh aggregate from the template with a started log
// entry and a start time. The caller owns the returned value.
func New(template []Item, now time.Time, startMessage string) *Checklist {
	start := now
	saved := now
	return &Checklist{
		Items:     append([]Item(nil), template...),
		Notes:     []LogEntry{NewLogEntry(now, startMessage, "", "")},
		StartTime: &start,
		LastSaved: &saved,
	}
}

// clone returns a deep enough copy that callers holding the previous
// aggregate never observe later mutations.
func (c *Checklist) clone() *Checklist {
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	out.Notes = append([]LogEntry(nil), c.Notes...)
	return &out
}

// SetClient selects the client and records the change, including the
// empty selection which is logged as "None".
func (c *Checklist) SetClient(client Client, now time.Time) *Checklist {
	out := c.clone()
	out.Client = client
	label := string(client)
	if label == "" {
		label = "None"
	}
	out.Notes = append(out.Notes, NewLogEntry(now, "Client changed to: "+label, "", ""))
	return out
}

// SetLocationNumber updates the location field. Location edits are low
// signal and deliberately not logged.
func (c *Checklist) SetLocationNumber(value string) *Checklist {
	out := c.clone()
	out.LocationNumber = value
	return out
}

// AnswerItem records an answer, applies conditional rules, logs the
// direct answer plus one entry per applied rule, and evaluates
// completion. The second return is true exactly when this mutation
// completed the review, which is the caller's cue to sync immediately.
// Unknown item ids are a no-op.
func (c *Checklist) AnswerItem(itemID string, answer Answer, rules []ConditionalRule, now time.Time) (*Checklist, bool) {
	idx := -1
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, false
	}
	if !c.Items[idx].EffectiveAnswerType().PermitsAnswer(answer) {
		return c, false
	}

	out := c.clone()
	out.Items[idx].Answer = answer

	items, applied := ApplyRules(rules, out.Items, itemID, answer)
	out.Items = items

	question := out.Items[idx].Question
	out.Notes = append(out.Notes, NewLogEntry(now,
		fmt.Sprintf("Answered %q to: %s", answer, question), itemID, question))
	for _, rule := range applied {
		description := rule.Rule.Description
		if description == "" {
			description = "conditional rule"
		}
		out.Notes = append(out.Notes, NewLogEntry(now,
			fmt.Sprintf("Auto-set %q to: %s (%s)", rule.NewAnswer, rule.TargetQuestion, description),
			rule.TargetItemID, rule.TargetQuestion))
	}

	completed := false
	if out.CompletedAt == nil && allAnswered(VisibleItems(out.Items, out.Client)) {
		at := now
		out.CompletedAt = &at
		completed = true
	}
	return out, completed
}

// AddNote appends a free-text log entry with no item association.
func (c *Checklist) AddNote(message string, now time.Time) *Checklist {
	out := c.clone()
	out.Notes = append(out.Notes, NewLogEntry(now, message, "", ""))
	return out
}

// Reset discards the review and begins a logically new aggregate:
// template defaults, a single reset log entry, a fresh start time, and
// no remote identity.
func (c *Checklist) Reset(template []Item, now time.Time) *Checklist {
	return New(template, now, "Checklist reset")
}

// StampSaved returns a copy with LastSaved set, used on every cache
// write so resumed sessions can show when work was last persisted.
func (c *Checklist) StampSaved(now time.Time) *Checklist {
	out := c.clone()
	at := now
	out.LastSaved = &at
	return out
}

// WithID binds the aggregate to its remote identity after the first
// successful persist.
func (c *Checklist) WithID(id string) *Checklist {
	out := c.clone()
	out.ID = id
	return out
}

func allAnswered(items []Item) bool {
	for _, item := range items {
		if item.Answer == AnswerNone {
			return false
		}
	}
	return true
}
