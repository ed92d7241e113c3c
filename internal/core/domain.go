package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DateLayout is the calendar date format accepted at the input boundary
// and written to the durable slot.
const DateLayout = "2006-01-02"

type (
	// Kind tells whether a transaction adds to or subtracts from the balance.
	Kind string

	Date struct {
		time.Time
	}

	// Transaction is a single recorded income or expense entry. Amount is
	// always a positive magnitude; the direction comes from Kind.
	Transaction struct {
		ID          int64
		Kind        Kind
		Description string
		Amount      decimal.Decimal
		Category    string
		Date        Date
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
)

// ValidationError reports a rejected submission. Err is one of the
// sentinel errors above so callers can match with errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

// Sign returns "+" for income and "-" for expense.
func (k Kind) Sign() string {
	if k == Income {
		return "+"
	}
	return "-"
}

func (k Kind) String() string {
	return string(k)
}

// ParseDate accepts YYYY-MM-DD and, for data written by browsers, full
// RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return NewDate(y, int(m), d), nil
	}
	return Date{}, ErrInvalidDate
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the invariants every stored transaction must hold. It is
// used when hydrating records that did not come through a Submission.
func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return &ValidationError{Field: "type", Err: ErrInvalidKind}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if err := CheckAmount(t.Amount); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	return nil
}

// Signed returns the amount with the sign implied by Kind.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
