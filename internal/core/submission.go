package core

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Submission is the raw form data arriving from the presentation layer.
// Every field is a string exactly as the user typed it.
type Submission struct {
	Kind        string `json:"type" validate:"oneof=income expense"`
	Description string `json:"description" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Category    string `json:"category"`
	Date        string `json:"date" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (s Submission) Normalize() Submission {
	return Submission{
		Kind:        strings.ToLower(strings.TrimSpace(s.Kind)),
		Description: strings.TrimSpace(s.Description),
		Amount:      strings.TrimSpace(s.Amount),
		Category:    strings.TrimSpace(s.Category),
		Date:        strings.TrimSpace(s.Date),
	}
}

// Transaction validates the submission and converts it into a transaction
// without an ID. Any failure is a *ValidationError.
func (s Submission) Transaction() (Transaction, error) {
	s = s.Normalize()
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Transaction{}, fieldError(verrs[0].StructField())
		}
		return Transaction{}, err
	}

	amount, err := ParseAmount(s.Amount)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "amount", Err: err}
	}
	date, err := ParseDate(s.Date)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "date", Err: err}
	}

	return Transaction{
		Kind:        Kind(s.Kind),
		Description: s.Description,
		Amount:      amount,
		Category:    s.Category,
		Date:        date,
	}, nil
}

func fieldError(structField string) *ValidationError {
	switch structField {
	case "Kind":
		return &ValidationError{Field: "type", Err: ErrInvalidKind}
	case "Description":
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	case "Amount":
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	default:
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
}
