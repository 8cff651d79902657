package checklist

import (
	"time"
)

// Answer is the recorded response for a checklist item. The empty
// string means the item has not been answered yet.
type Answer string

const (
	AnswerNone  Answer = ""
	AnswerYes   Answer = "yes"
	AnswerNo    Answer = "no"
	AnswerSub   Answer = "sub"
	AnswerSuper Answer = "super"
	AnswerApex  Answer = "apex"

	// AnswerAny is only valid as a rule trigger and matches any
	// non-empty answer.
	AnswerAny Answer = "any"
)

type AnswerType string

const (
	AnswerTypeYesNo    AnswerType = "yesno"
	AnswerTypeSubSuper AnswerType = "subsuper"
)

// PermitsAnswer reports whether answer is allowed for this answer type.
// The empty answer (unanswered) is always allowed.
func (t AnswerType) PermitsAnswer(answer Answer) bool {
	if answer == AnswerNone {
		return true
	}
	switch t {
	case AnswerTypeSubSuper:
		return answer == AnswerSub || answer == AnswerSuper || answer == AnswerApex
	default:
		return answer == AnswerYes || answer == AnswerNo
	}
}

type Section string

const (
	SectionCostSheet Section = "ce"
	SectionSOW       Section = "sow"
	SectionPAFolder  Section = "pa"
)

type Client string

// Clients returns the selectable client list in display order.
func Clients() []Client {
	return []Client{
		"Costco",
		"Home Depot",
		"Lowes",
		"Publix",
		"Dollar General",
		"ExtraSpace",
		"Wawa",
		"Walgreens",
		"Other",
	}
}

// Conditional restricts an item to a subset of clients. An item with a
// nil Conditional applies to every client.
type Conditional struct {
	Clients []Client `json:"clients"`
	Show    bool     `json:"show"`
}

type Item struct {
	ID          string       `json:"id"`
	Question    string       `json:"question"`
	Answer      Answer       `json:"answer"`
	Section     Section      `json:"section"`
	AnswerType  AnswerType   `json:"answerType,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty"`
}

// EffectiveAnswerType resolves the default answer type for items that
// omit it in the template.
func (it Item) EffectiveAnswerType() AnswerType {
	if it.AnswerType == "" {
		return AnswerTypeYesNo
	}
	return it.AnswerType
}

// LogEntry is an append-only audit record. Entries reference items
// weakly: ItemID and ItemQuestion are snapshots, not owned references.
type LogEntry struct {
	ID           string `json:"id"`
	Timestamp    string `json:"timestamp"`
	Date         string `json:"date"`
	Message      string `json:"message"`
	ItemID       string `json:"itemId,omitempty"`
	ItemQuestion string `json:"itemQuestion,omitempty"`
}

// Checklist is the aggregate root for one review in progress. The
// aggregate exclusively owns its Items and Notes slices; mutation
// methods return a fresh copy and never modify the receiver.
type Checklist struct {
	ID             string     `json:"id,omitempty"`
	Client         Client     `json:"client"`
	LocationNumber string     `json:"locationNumber"`
	Items          []Item     `json:"items"`
	Notes          []LogEntry `json:"notes"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	LastSaved      *time.Time `json:"lastSaved,omitempty"`
}
