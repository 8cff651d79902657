package checklist

import "testing"

func TestConditionalItemVisibility(t *testing.T) {
	item := Item{
		ID:       "ce-2",
		Question: "inspection costs?",
		Section:  SectionCostSheet,
		Conditional: &Conditional{
			Clients: []Client{"Walgreens", "Dollar General"},
			Show:    true,
		},
	}
	cases := []struct {
		client Client
		want   bool
	}{
		{"Walgreens", true},
		{"Dollar General", true},
		{"", false},
		{"Costco", false},
	}
	for _, tc := range cases {
		if got := Visible(item, tc.client); got != tc.want {
			t.Fatalf("client %q: expected visible=%v, got %v", tc.client, tc.want, got)
		}
	}
}

func TestUnconditionalItemAlwaysVisible(t *testing.T) {
	item := Item{ID: "ce-1", Question: "price?", Section: SectionCostSheet}
	for _, client := range []Client{"", "Costco", "Walgreens"} {
		if !Visible(item, client) {
			t.Fatalf("client %q: expected unconditional item visible", client)
		}
	}
}

func TestProgressDenominatorTracksClientSelection(t *testing.T) {
	agg := New(Template(), testNow(t), "Checklist started")
	agg, _ = agg.AnswerItem("ce-1", AnswerYes, DefaultRules(), testNow(t))

	progress := CalculateProgress(VisibleItems(agg.Items, agg.Client))
	if progress.Completed != 1 || progress.Total != 11 {
		t.Fatalf("no client selected: expected 1/11, got %d/%d", progress.Completed, progress.Total)
	}

	agg = agg.SetClient("Walgreens", testNow(t))
	progress = CalculateProgress(VisibleItems(agg.Items, agg.Client))
	if progress.Completed != 1 || progress.Total != 12 {
		t.Fatalf("Walgreens selected: expected 1/12, got %d/%d", progress.Completed, progress.Total)
	}
}

func TestHidingAnItemPreservesItsAnswer(t *testing.T) {
	agg := New(Template(), testNow(t), "Checklist started")
	agg = agg.SetClient("Walgreens", testNow(t))
	agg, _ = agg.AnswerItem("ce-2", AnswerYes, DefaultRules(), testNow(t))

	agg = agg.SetClient("Costco", testNow(t))
	if got := itemByID(t, agg.Items, "ce-2").Answer; got != AnswerYes {
		t.Fatalf("expected hidden item to keep its answer, got %q", got)
	}
	for _, item := range VisibleItems(agg.Items, agg.Client) {
		if item.ID == "ce-2" {
			t.Fatalf("ce-2 should not be visible for Costco")
		}
	}
}

func TestCalculateMetrics(t *testing.T) {
	agg := New(Template(), testNow(t), "Checklist started")
	agg, _ = agg.AnswerItem("ce-1", AnswerNo, DefaultRules(), testNow(t))
	agg, _ = agg.AnswerItem("ce-3", AnswerYes, DefaultRules(), testNow(t))

	m := agg.CalculateMetrics()
	if m.TotalChecks != 11 {
		t.Fatalf("expected 11 visible checks, got %d", m.TotalChecks)
	}
	if m.CompletedChecks != 2 {
		t.Fatalf("expected 2 completed, got %d", m.CompletedChecks)
	}
	if m.FailedChecks != 1 {
		t.Fatalf("expected 1 failed, got %d", m.FailedChecks)
	}
	if m.CompletionSeconds != nil {
		t.Fatalf("incomplete review should have no completion time")
	}
}
