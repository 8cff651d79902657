package checklist

// Template returns the canonical item set for an estimating review.
// The template defines the authoritative ids, order, questions, answer
// types, and client conditions; stored data only ever contributes
// per-item answers back onto this set.
func Template() []Item {
	return []Item{
		{
			ID:       "ce-1",
			Question: "Does the price make sense?",
			Section:  SectionCostSheet,
		},
		{
			ID:       "ce-2",
			Question: "Do we need to include ER or inspection costs? (Walgreens, Target, Dollar General)",
			Section:  SectionCostSheet,
			Conditional: &Conditional{
				Clients: []Client{"Walgreens", "Dollar General"},
				Show:    true,
			},
		},
		{
			ID:       "ce-3",
			Question: "Is the State filled out and taxes populated in states where it needs to?",
			Section:  SectionCostSheet,
		},
		{
			ID:         "ce-4",
			Question:   "Sub or Apex Super?",
			Section:    SectionCostSheet,
			AnswerType: AnswerTypeSubSuper,
		},
		{
			ID:       "ce-5",
			Question: "Mob/Demob for equipment?",
			Section:  SectionCostSheet,
		},
		{
			ID:       "ce-6",
			Question: "Is this a concrete job? If so, is a breaker added?",
			Section:  SectionCostSheet,
		},
		{
			ID:       "sow-1",
			Question: "Is the date updated?",
			Section:  SectionSOW,
		},
		{
			ID:       "sow-2",
			Question: "Does everything make sense?",
			Section:  SectionSOW,
		},
		{
			ID:       "sow-3",
			Question: "Are all brand specific fields filled out?",
			Section:  SectionSOW,
		},
		{
			ID:       "sow-4",
			Question: "Formatting (Header, Spacing)",
			Section:  SectionSOW,
		},
		{
			ID:       "sow-5",
			Question: "Update price on SOW document?",
			Section:  SectionSOW,
		},
		{
			ID:       "pa-1",
			Question: "Is the PA folder created with a copy in the main project drive?",
			Section:  SectionPAFolder,
		},
	}
}
