package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	KindExpense Kind = "chi"
	KindIncome  Kind = "thu"

	MaxTitleLength = 255
)

type (
	// Kind tells an outflow (chi) from an inflow (thu).
	Kind string

	Expense struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount"`
		Type      Kind      `json:"type"`
		IsPaid    bool      `json:"is_paid"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// NewExpense is the caller-supplied part of an Expense. Stores assign
	// everything else.
	NewExpense struct {
		Title  string
		Amount Money
		Type   Kind
	}
)

var (
	ErrEmptyTitle        = errors.New("the title field is required")
	ErrTitleTooLong      = errors.New("the title field must not be greater than 255 characters")
	ErrInvalidAmount     = errors.New("the amount field must be a number")
	ErrNonPositiveAmount = errors.New("the amount field must be greater than 0")
	ErrAmountTooLarge    = errors.New("the amount field is too large")
	ErrInvalidKind       = errors.New("the selected type is invalid")
	ErrNotToggleable     = errors.New("only chi records have a paid status")
)

// ValidationError reports the request field that failed a constraint.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts exactly "chi" or "thu".
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Toggleable reports whether the paid flag carries meaning for the record.
func (e Expense) Toggleable() bool {
	return e.Type == KindExpense
}

func (n NewExpense) Validate() error {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return fieldError("title", ErrEmptyTitle)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fieldError("title", ErrTitleTooLong)
	}
	if err := n.Amount.Validate(); err != nil {
		return fieldError("amount", err)
	}
	if !n.Type.Valid() {
		return fieldError("type", ErrInvalidKind)
	}
	return nil
}

// ParseNewExpense builds a validated NewExpense from raw request values.
// The title is trimmed; the first offending field is reported, checked in
// the order title, amount, type.
func ParseNewExpense(title, amount, kind string) (NewExpense, error) {
	return parseNewExpense(title, func() (Money, error) { return ParseAmount(amount) }, kind)
}

// ParseNewExpenseNumber is ParseNewExpense for an amount that arrived as a
// JSON number.
func ParseNewExpenseNumber(title string, amount json.Number, kind string) (NewExpense, error) {
	return parseNewExpense(title, func() (Money, error) { return ParseNumber(amount) }, kind)
}

func parseNewExpense(title string, amount func() (Money, error), kind string) (NewExpense, error) {
	n := NewExpense{Title: strings.TrimSpace(title)}

	if n.Title == "" {
		return NewExpense{}, fieldError("title", ErrEmptyTitle)
	}
	if utf8.RuneCountInString(n.Title) > MaxTitleLength {
		return NewExpense{}, fieldError("title", ErrTitleTooLong)
	}
	m, err := amount()
	if err != nil {
		return NewExpense{}, fieldError("amount", err)
	}
	n.Amount = m
	k, err := ParseKind(kind)
	if err != nil {
		return NewExpense{}, fieldError("type", err)
	}
	n.Type = k

	if err := n.Validate(); err != nil {
		return NewExpense{}, err
	}
	return n, nil
}

// Normalize validates n and returns it with the title trimmed. Stores call
// it before writing.
func (n NewExpense) Normalize() (NewExpense, error) {
	if err := n.Validate(); err != nil {
		return NewExpense{}, err
	}
	n.Title = strings.TrimSpace(n.Title)
	return n, nil
}
