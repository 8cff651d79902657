package checklist

// ConditionalRule forces a target item's answer when a trigger item is
// answered with a matching value. Rules are static configuration and
// are evaluated in declaration order; when several rules hit the same
// target, the last one applied wins.
type ConditionalRule struct {
	TriggerItemID string `json:"triggerItemId"`
	TriggerAnswer Answer `json:"triggerAnswer"`
	TargetItemID  string `json:"targetItemId"`
	TargetAnswer  Answer `json:"targetAnswer"`
	Description   string `json:"description,omitempty"`
}

// AppliedRule records one rule firing so the caller can log it.
type AppliedRule struct {
	Rule           ConditionalRule
	TargetItemID   string
	TargetQuestion string
	PreviousAnswer Answer
	NewAnswer      Answer
}

// DefaultRules returns the configured rule set.
func DefaultRules() []ConditionalRule {
	return []ConditionalRule{
		{
			TriggerItemID: "ce-4",
			TriggerAnswer: AnswerSub,
			TargetItemID:  "ce-5",
			TargetAnswer:  AnswerNo,
			Description:   "Sub jobs don't require Mob/Demob equipment",
		},
	}
}

// ApplyRules evaluates rules against the item just answered and
// returns a new item slice with any forced answers applied, plus a
// record per rule that actually changed a target. The input slice is
// never modified; ordering and identity of non-target items are
// preserved. Rules whose target id is not present are skipped.
func ApplyRules(rules []ConditionalRule, items []Item, changedID string, changedAnswer Answer) ([]Item, []AppliedRule) {
	var matching []ConditionalRule
	for _, rule := range rules {
		if rule.TriggerItemID != changedID {
			continue
		}
		if rule.TriggerAnswer != AnswerAny && rule.TriggerAnswer != changedAnswer {
			continue
		}
		matching = append(matching, rule)
	}
	if len(matching) == 0 {
		return items, nil
	}

	updated := append([]Item(nil), items...)
	var applied []AppliedRule
	for _, rule := range matching {
		for i := range updated {
			if updated[i].ID != rule.TargetItemID {
				continue
			}
			if updated[i].Answer == rule.TargetAnswer {
				break
			}
			previous := updated[i].Answer
			updated[i].Answer = rule.TargetAnswer
			applied = append(applied, AppliedRule{
				Rule:           rule,
				TargetItemID:   rule.TargetItemID,
				TargetQuestion: updated[i].Question,
				PreviousAnswer: previous,
				NewAnswer:      rule.TargetAnswer,
			})
			break
		}
	}
	return updated, applied
}
