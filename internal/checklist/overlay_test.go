package checklist

import "testing"

func TestOverlayAppliesSavedAnswers(t *testing.T) {
	saved := []SavedAnswer{
		{ItemID: "ce-1", Question: "Does the price make sense?", Answer: AnswerYes},
		{ItemID: "ce-4", Question: "Sub or Apex Super?", Answer: AnswerSub},
	}
	items := Overlay(Template(), saved)
	if got := itemByID(t, items, "ce-1").Answer; got != AnswerYes {
		t.Fatalf("ce-1 answer not applied, got %q", got)
	}
	if got := itemByID(t, items, "ce-4").Answer; got != AnswerSub {
		t.Fatalf("ce-4 answer not applied, got %q", got)
	}
	// Template metadata survives the overlay.
	if itemByID(t, items, "ce-4").AnswerType != AnswerTypeSubSuper {
		t.Fatalf("overlay dropped template answer type")
	}
	if itemByID(t, items, "ce-2").Conditional == nil {
		t.Fatalf("overlay dropped template conditional")
	}
}

func TestOverlayDropsStaleIDsAndDefaultsMissing(t *testing.T) {
	saved := []SavedAnswer{
		{ItemID: "retired-item", Answer: AnswerYes},
	}
	items := Overlay(Template(), saved)
	if len(items) != len(Template()) {
		t.Fatalf("stale id changed item count: %d", len(items))
	}
	for _, item := range items {
		if item.Answer != AnswerNone {
			t.Fatalf("item %s should default unanswered, got %q", item.ID, item.Answer)
		}
	}
}

func TestOverlayPrefersSavedQuestionSnapshot(t *testing.T) {
	saved := []SavedAnswer{
		{ItemID: "sow-1", Question: "Is the date current?", Answer: AnswerNo},
	}
	items := Overlay(Template(), saved)
	if got := itemByID(t, items, "sow-1").Question; got != "Is the date current?" {
		t.Fatalf("expected saved question snapshot, got %q", got)
	}
}

func TestSavedAnswersRoundTrip(t *testing.T) {
	agg := New(Template(), testNow(t), "Checklist started")
	agg, _ = agg.AnswerItem("ce-1", AnswerYes, DefaultRules(), testNow(t))
	agg, _ = agg.AnswerItem("ce-4", AnswerSub, DefaultRules(), testNow(t))

	restored := Overlay(Template(), SavedAnswers(agg.Items))
	for i, item := range agg.Items {
		if restored[i].ID != item.ID || restored[i].Answer != item.Answer {
			t.Fatalf("round trip diverged at %s: %q vs %q", item.ID, restored[i].Answer, item.Answer)
		}
	}
}
