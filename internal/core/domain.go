package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  EntryKind = "income"
	Expense EntryKind = "expense"

	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

type (
	// EntryKind tells incomes and expenses apart. Both share the same shape.
	EntryKind string

	// CategoryType classifies a category as income or expense.
	CategoryType string

	Money struct {
		Cents int64
	}

	Entry struct {
		ID          string    `json:"id"`
		Kind        EntryKind `json:"kind"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"` // category name, not id
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
		Description string    `json:"description,omitempty"`
	}

	Category struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	// EntryInput is what a form submits for a new or edited entry.
	EntryInput struct {
		Amount      string
		Category    string
		Date        time.Time
		Description string
	}
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrMissingAmount        = errors.New("missing amount")
	ErrUnparseableAmount    = errors.New("unparseable amount")
	ErrMissingCategory      = errors.New("missing category")
	ErrMissingDate          = errors.New("missing date")
	ErrInvalidDate          = errors.New("invalid date")
	ErrEmptyName            = errors.New("empty category name")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrInvalidKind          = errors.New("invalid entry kind")
	ErrCategoryTypeMismatch = errors.New("category does not belong to entry type")
)

// ValidationError marks err as a user-input problem so callers can tell it
// apart from store failures with errors.Is(err, ErrValidation).
func ValidationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func (k EntryKind) Valid() bool {
	return k == Income || k == Expense
}

// CategoryType returns the category type entries of this kind must use.
func (k EntryKind) CategoryType() CategoryType {
	return CategoryType(k)
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// ParseCategoryType accepts "income" or "expense", case-insensitively.
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidCategoryType
	}
	return t, nil
}

// Validate checks the fields a form must fill before anything is written.
// The amount must parse; its sign is not checked.
func (in EntryInput) Validate() error {
	if strings.TrimSpace(in.Amount) == "" {
		return ValidationError(ErrMissingAmount)
	}
	if _, err := ParseAmount(in.Amount); err != nil {
		return ValidationError(err)
	}
	if strings.TrimSpace(in.Category) == "" {
		return ValidationError(ErrMissingCategory)
	}
	if in.Date.IsZero() {
		return ValidationError(ErrMissingDate)
	}
	return nil
}

// Entry builds the entry to store. It validates first.
func (in EntryInput) Entry(kind EntryKind, createdAt time.Time) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, ErrInvalidKind
	}
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	amount, _ := ParseAmount(in.Amount)
	return Entry{
		Kind:        kind,
		Amount:      amount,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   createdAt,
		Description: strings.TrimSpace(in.Description),
	}, nil
}

// NewCategory validates name and type. Names are free text and may repeat.
func NewCategory(name string, typ CategoryType, createdAt time.Time) (Category, error) {
	if strings.TrimSpace(name) == "" {
		return Category{}, ValidationError(ErrEmptyName)
	}
	if !typ.Valid() {
		return Category{}, ValidationError(ErrInvalidCategoryType)
	}
	return Category{Name: name, Type: typ, CreatedAt: createdAt}, nil
}
