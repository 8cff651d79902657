package checklist

// Visible reports whether an item applies for the selected client. An
// item with no conditional always applies; a conditional item applies
// only when a client is selected and is listed. Hiding an item never
// clears a stored answer.
func Visible(item Item, selected Client) bool {
	if item.Conditional == nil {
		return true
	}
	if selected == "" {
		return false
	}
	for _, client := range item.Conditional.Clients {
		if client == selected {
			return true
		}
	}
	return false
}

// VisibleItems filters items through Visible, preserving order.
func VisibleItems(items []Item, selected Client) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if Visible(item, selected) {
			out = append(out, item)
		}
	}
	return out
}

type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// CalculateProgress counts answered items among the given (already
// visibility-filtered) items.
func CalculateProgress(items []Item) Progress {
	p := Progress{Total: len(items)}
	for _, item := range items {
		if item.Answer != AnswerNone {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(float64(p.Completed)/float64(p.Total)*100 + 0.5)
	}
	return p
}

type Metrics struct {
	TotalChecks       int  `json:"totalChecks"`
	CompletedChecks   int  `json:"completedChecks"`
	FailedChecks      int  `json:"failedChecks"`
	CompletionSeconds *int `json:"completionSeconds,omitempty"`
}

// CalculateMetrics summarizes a review for the dashboard: answered and
// failed counts over the visible items, and elapsed seconds when the
// review ran to completion.
func (c *Checklist) CalculateMetrics() Metrics {
	visible := VisibleItems(c.Items, c.Client)
	m := Metrics{TotalChecks: len(visible)}
	for _, item := range visible {
		if item.Answer != AnswerNone {
			m.CompletedChecks++
		}
		if item.Answer == AnswerNo {
			m.FailedChecks++
		}
	}
	if c.StartTime != nil && c.CompletedAt != nil {
		seconds := int(c.CompletedAt.Sub(*c.StartTime).Seconds() + 0.5)
		m.CompletionSeconds = &seconds
	}
	return m
}
