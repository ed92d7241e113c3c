// Package view turns a transaction collection into what the user sees:
// the balance summary, the list rows and the expense chart dataset.
// Everything here is a pure function of its input.
package view

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// DisplayDateLayout is the human date shown in list rows.
const DisplayDateLayout = "Jan 2, 2006"

// Summary holds the three balance figures at full precision.
type Summary struct {
	Total   decimal.Decimal `json:"-"`
	Income  decimal.Decimal `json:"-"`
	Expense decimal.Decimal `json:"-"`
}

// SummaryDisplay is a Summary rounded to two places for rendering.
type SummaryDisplay struct {
	Total   string `json:"total"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

// Display rounds each figure once, half away from zero.
func (s Summary) Display() SummaryDisplay {
	return SummaryDisplay{
		Total:   core.FormatAmount(s.Total),
		Income:  core.FormatAmount(s.Income),
		Expense: core.FormatAmount(s.Expense),
	}
}

// Summarize sums income and expense magnitudes. Total is income minus
// expense.
func Summarize(txs []core.Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return Summary{
		Total:   income.Sub(expense),
		Income:  income,
		Expense: expense,
	}
}

// DisplayRow is one rendered list entry.
type DisplayRow struct {
	ID          int64     `json:"id"`
	Kind        core.Kind `json:"type"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Sign        string    `json:"sign"`
	Amount      string    `json:"amount"`
	Signed      string    `json:"signed_amount"`
	Date        string    `json:"date"`
	ISODate     string    `json:"iso_date"`
}

// ToRows renders one row per transaction, preserving order.
func ToRows(txs []core.Transaction) []DisplayRow {
	rows := make([]DisplayRow, 0, len(txs))
	for _, tx := range txs {
		amount := core.FormatAmount(tx.Amount)
		rows = append(rows, DisplayRow{
			ID:          tx.ID,
			Kind:        tx.Kind,
			Description: tx.Description,
			Category:    tx.Category,
			Sign:        tx.Kind.Sign(),
			Amount:      amount,
			Signed:      tx.Kind.Sign() + amount,
			Date:        humanDate(tx.Date),
			ISODate:     tx.Date.String(),
		})
	}
	return rows
}

func humanDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayDateLayout)
}

// AggregateByCategory sums expense amounts per category. Income is
// ignored and categories without expenses are absent.
func AggregateByCategory(txs []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out
}
