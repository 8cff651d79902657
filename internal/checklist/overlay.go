package checklist

// SavedAnswer is the per-item state a store contributes back onto the
// template: the answer and a snapshot of the question text as it read
// when the answer was recorded.
type SavedAnswer struct {
	ItemID   string `json:"itemId"`
	Question string `json:"question"`
	Answer   Answer `json:"answer"`
}

// Overlay reconstitutes an item set by applying saved answers onto the
// template. The template defines the authoritative set, order, and
// metadata; saved ids unknown to the template are dropped silently and
// template items without saved state keep their defaults.
func Overlay(template []Item, saved []SavedAnswer) []Item {
	byID := make(map[string]SavedAnswer, len(saved))
	for _, s := range saved {
		byID[s.ItemID] = s
	}
	out := append([]Item(nil), template...)
	for i := range out {
		s, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		out[i].Answer = s.Answer
		if s.Question != "" {
			out[i].Question = s.Question
		}
	}
	return out
}

// SavedAnswers flattens items into the per-item rows a store persists.
func SavedAnswers(items []Item) []SavedAnswer {
	out := make([]SavedAnswer, 0, len(items))
	for _, item := range items {
		out = append(out, SavedAnswer{
			ItemID:   item.ID,
			Question: item.Question,
			Answer:   item.Answer,
		})
	}
	return out
}
