package view

import "ledger/internal/core"

// Snapshot is everything a front end needs to redraw after an event.
type Snapshot struct {
	Filter  string         `json:"filter"`
	Summary SummaryDisplay `json:"summary"`
	Rows    []DisplayRow   `json:"transactions"`
	Chart   ChartDataset   `json:"chart"`

	totals Summary
}

// Totals returns the unrounded summary figures.
func (s Snapshot) Totals() Summary {
	return s.totals
}

// Project recomputes the full view. The summary always covers the whole
// collection; rows and chart cover only transactions matching filter.
func Project(all []core.Transaction, filter string) Snapshot {
	filter = core.NormalizeFilter(filter)
	filtered := all
	if filter != core.AllCategories {
		filtered = make([]core.Transaction, 0, len(all))
		for _, tx := range all {
			if core.MatchesCategory(filter, tx.Category) {
				filtered = append(filtered, tx)
			}
		}
	}

	summary := Summarize(all)
	return Snapshot{
		Filter:  filter,
		Summary: summary.Display(),
		Rows:    ToRows(filtered),
		Chart:   ChartData(filtered),
		totals:  summary,
	}
}
