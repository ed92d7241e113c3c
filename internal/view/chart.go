package view

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// ChartTitle is the heading of the expense chart.
const ChartTitle = "Expense Distribution by Category"

// Palette is cycled over chart slices in label order.
var Palette = []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6", "#1abc9c"}

// ChartSlice is one category of the expense chart.
type ChartSlice struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

// MarshalJSON renders Value rounded to two places.
func (s ChartSlice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label string `json:"label"`
		Value string `json:"value"`
		Color string `json:"color"`
	}{s.Label, core.FormatAmount(s.Value), s.Color})
}

// UnmarshalJSON reads the rendered form back.
func (s *ChartSlice) UnmarshalJSON(b []byte) error {
	var raw struct {
		Label string `json:"label"`
		Value string `json:"value"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := decimal.NewFromString(raw.Value)
	if err != nil && raw.Value != "" {
		return err
	}
	*s = ChartSlice{Label: raw.Label, Value: v, Color: raw.Color}
	return nil
}

// ChartDataset is the pie chart input: expense totals per category in
// order of first appearance.
type ChartDataset struct {
	Title  string       `json:"title"`
	Slices []ChartSlice `json:"slices"`
}

// Labels returns the slice labels in order.
func (c ChartDataset) Labels() []string {
	out := make([]string, len(c.Slices))
	for i, s := range c.Slices {
		out[i] = s.Label
	}
	return out
}

// Values returns the slice totals rounded for display.
func (c ChartDataset) Values() []string {
	out := make([]string, len(c.Slices))
	for i, s := range c.Slices {
		out[i] = core.FormatAmount(s.Value)
	}
	return out
}

// Empty reports whether there is nothing to draw.
func (c ChartDataset) Empty() bool {
	return len(c.Slices) == 0
}

// ChartData builds the dataset for the expense chart.
func ChartData(txs []core.Transaction) ChartDataset {
	totals := AggregateByCategory(txs)
	ds := ChartDataset{Title: ChartTitle, Slices: make([]ChartSlice, 0, len(totals))}
	seen := make(map[string]bool, len(totals))
	for _, tx := range txs {
		if tx.Kind != core.Expense || seen[tx.Category] {
			continue
		}
		seen[tx.Category] = true
		ds.Slices = append(ds.Slices, ChartSlice{
			Label: tx.Category,
			Value: totals[tx.Category],
			Color: Palette[len(ds.Slices)%len(Palette)],
		})
	}
	return ds
}
