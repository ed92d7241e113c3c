package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-01", "2024-01-01", true},
		{" 2024-12-31 ", "2024-12-31", true},
		{"2024-01-02T10:00:00Z", "2024-01-02", true},
		{"2024-02-30", "", false},
		{"01/02/2024", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && (err != nil || d.String() != tc.want) {
			t.Fatalf("case %d expected %s, got %s (err=%v)", i, tc.want, d, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 2))
	if err != nil || string(b) != `"2024-01-02"` {
		t.Fatalf("marshal: %s %v", b, err)
	}

	var d Date
	if err := json.Unmarshal([]byte(`""`), &d); err != nil || !d.IsZero() {
		t.Fatalf("empty date should unmarshal to zero, got %v %v", d, err)
	}
	if err := json.Unmarshal([]byte(`"bad"`), &d); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestSubmissionTransaction(t *testing.T) {
	good := Submission{Kind: "expense", Description: "  Lunch ", Amount: "12.50", Category: " Food ", Date: "2024-01-02"}
	tx, err := good.Transaction()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.Description != "Lunch" || tx.Category != "Food" || tx.Kind != Expense {
		t.Fatalf("fields not normalized: %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("amount = %s", tx.Amount)
	}
	if tx.ID != 0 {
		t.Fatalf("submission must not assign an id")
	}

	bads := []struct {
		sub  Submission
		want error
	}{
		{Submission{Kind: "expense", Description: "   ", Amount: "1", Date: "2024-01-01"}, ErrEmptyDescription},
		{Submission{Kind: "expense", Description: "a", Amount: "0", Date: "2024-01-01"}, ErrInvalidAmount},
		{Submission{Kind: "expense", Description: "a", Amount: "-4", Date: "2024-01-01"}, ErrInvalidAmount},
		{Submission{Kind: "expense", Description: "a", Amount: "abc", Date: "2024-01-01"}, ErrInvalidAmount},
		{Submission{Kind: "expense", Description: "a", Amount: "", Date: "2024-01-01"}, ErrInvalidAmount},
		{Submission{Kind: "expense", Description: "a", Amount: "1e100000000", Date: "2024-01-01"}, ErrInvalidAmount},
		{Submission{Kind: "transfer", Description: "a", Amount: "1", Date: "2024-01-01"}, ErrInvalidKind},
		{Submission{Kind: "income", Description: "a", Amount: "1", Date: "yesterday"}, ErrInvalidDate},
		{Submission{Kind: "income", Description: "a", Amount: "1", Date: ""}, ErrInvalidDate},
	}
	for i, tc := range bads {
		_, err := tc.sub.Transaction()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d expected *ValidationError, got %v", i, err)
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTransactionValidateAndSigned(t *testing.T) {
	tx := Transaction{ID: 1, Kind: Expense, Description: "x", Amount: decimal.NewFromInt(3)}
	if err := tx.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !tx.Signed().Equal(decimal.NewFromInt(-3)) {
		t.Fatalf("expense should be negative, got %s", tx.Signed())
	}
	tx.Kind = Income
	if !tx.Signed().Equal(decimal.NewFromInt(3)) {
		t.Fatalf("income should be positive, got %s", tx.Signed())
	}
	if Income.Sign() != "+" || Expense.Sign() != "-" {
		t.Fatalf("unexpected signs")
	}

	bads := []Transaction{
		{Kind: "other", Description: "x", Amount: decimal.NewFromInt(1)},
		{Kind: Income, Description: " ", Amount: decimal.NewFromInt(1)},
		{Kind: Income, Description: "x", Amount: decimal.Zero},
		{Kind: Income, Description: "x", Amount: decimal.NewFromInt(-1)},
		{Kind: Income, Description: "x", Amount: decimal.New(1, 100000000)},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMatchesCategory(t *testing.T) {
	if !MatchesCategory("all", "Food") || !MatchesCategory("", "Food") {
		t.Fatalf("sentinel should match everything")
	}
	if !MatchesCategory("Food", "Food") || MatchesCategory("Food", "food") {
		t.Fatalf("category match must be exact")
	}
	if NormalizeFilter(" ") != AllCategories || NormalizeFilter("Job") != "Job" {
		t.Fatalf("unexpected normalized filter")
	}
}
