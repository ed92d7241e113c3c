package view

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func tx(id int64, kind core.Kind, desc, amount, category, date string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:          id,
		Kind:        kind,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Date:        d,
	}
}

func salaryAndLunch() []core.Transaction {
	return []core.Transaction{
		tx(1, core.Income, "Salary", "1000.00", "Job", "2024-01-01"),
		tx(2, core.Expense, "Lunch", "12.50", "Food", "2024-01-02"),
	}
}

func TestSummarizeSalaryAndLunch(t *testing.T) {
	got := Summarize(salaryAndLunch()).Display()
	assert.Equal(t, SummaryDisplay{Total: "987.50", Income: "1000.00", Expense: "12.50"}, got)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Total.IsZero())
	assert.True(t, s.Income.IsZero())
	assert.True(t, s.Expense.IsZero())
	assert.Equal(t, SummaryDisplay{Total: "0.00", Income: "0.00", Expense: "0.00"}, s.Display())
}

func TestSummarizeRoundsOnlyAtDisplay(t *testing.T) {
	var txs []core.Transaction
	for i := range 3 {
		txs = append(txs, tx(int64(i+1), core.Expense, "fee", "0.004", "Bank", "2024-01-01"))
	}
	s := Summarize(txs)
	assert.Equal(t, "0.012", s.Expense.String())
	assert.Equal(t, "0.01", s.Display().Expense, "per-item rounding would have produced 0.00")
	assert.Equal(t, "-0.01", s.Display().Total)
}

func TestToRows(t *testing.T) {
	rows := ToRows(salaryAndLunch())
	require.Len(t, rows, 2)

	assert.Equal(t, DisplayRow{
		ID: 1, Kind: core.Income, Description: "Salary", Category: "Job",
		Sign: "+", Amount: "1000.00", Signed: "+1000.00",
		Date: "Jan 1, 2024", ISODate: "2024-01-01",
	}, rows[0])
	assert.Equal(t, "-", rows[1].Sign)
	assert.Equal(t, "12.50", rows[1].Amount)
	assert.Equal(t, "-12.50", rows[1].Signed)
	assert.Equal(t, "Jan 2, 2024", rows[1].Date)

	assert.Empty(t, ToRows(nil))
}

func TestAggregateByCategory(t *testing.T) {
	agg := AggregateByCategory(salaryAndLunch())
	require.Len(t, agg, 1)
	assert.True(t, agg["Food"].Equal(decimal.RequireFromString("12.50")))

	txs := append(salaryAndLunch(),
		tx(3, core.Expense, "Dinner", "20", "Food", "2024-01-03"),
		tx(4, core.Income, "Refund", "5", "Transport", "2024-01-03"),
	)
	agg = AggregateByCategory(txs)
	assert.Equal(t, "32.50", core.FormatAmount(agg["Food"]))
	_, ok := agg["Transport"]
	assert.False(t, ok, "income-only categories are absent")
	_, ok = agg["Job"]
	assert.False(t, ok)

	assert.Empty(t, AggregateByCategory(nil))
}

func TestChartData(t *testing.T) {
	var txs []core.Transaction
	cats := []string{"Rent", "Food", "Rent", "Bus", "Gym", "Fun", "Pets", "Books"}
	for i, c := range cats {
		txs = append(txs, tx(int64(i+1), core.Expense, "x", "1", c, "2024-01-01"))
	}
	txs = append(txs, tx(99, core.Income, "Salary", "10", "Job", "2024-01-01"))

	ds := ChartData(txs)
	assert.Equal(t, ChartTitle, ds.Title)
	assert.Equal(t, []string{"Rent", "Food", "Bus", "Gym", "Fun", "Pets", "Books"}, ds.Labels())
	assert.Equal(t, "2.00", ds.Values()[0])
	assert.Equal(t, Palette[0], ds.Slices[0].Color)
	assert.Equal(t, Palette[0], ds.Slices[6].Color, "palette cycles")

	assert.True(t, ChartData(nil).Empty())
}

func TestProject(t *testing.T) {
	txs := salaryAndLunch()

	all := Project(txs, "")
	assert.Equal(t, core.AllCategories, all.Filter)
	assert.Len(t, all.Rows, 2)
	assert.Equal(t, "987.50", all.Summary.Total)

	food := Project(txs, "Food")
	assert.Equal(t, "Food", food.Filter)
	require.Len(t, food.Rows, 1)
	assert.Equal(t, "Lunch", food.Rows[0].Description)
	assert.Equal(t, "987.50", food.Summary.Total, "summary covers the whole collection")
	assert.Equal(t, []string{"Food"}, food.Chart.Labels())

	job := Project(txs, "Job")
	require.Len(t, job.Rows, 1)
	assert.True(t, job.Chart.Empty())

	none := Project(txs, "Travel")
	assert.Empty(t, none.Rows)
	assert.True(t, none.Totals().Income.Equal(decimal.NewFromInt(1000)))
}

func TestChartSliceJSON(t *testing.T) {
	ds := ChartData(salaryAndLunch())
	b, err := json.Marshal(ds)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"`+ChartTitle+`","slices":[{"label":"Food","value":"12.50","color":"`+Palette[0]+`"}]}`, string(b))

	var back ChartDataset
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"12.50"}, back.Values())
}
