package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is either income or expense.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// ParseTransactionType validates s as a transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionIncome, TransactionExpense:
		return t, nil
	}
	return "", NewValidationError("type", "Invalid transaction type. Must be 'income' or 'expense'.")
}

// Transaction represents a single income or expense entry.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Type       TransactionType `json:"type"`
	CategoryID uuid.UUID       `json:"categoryId"`
	Category   *Category       `json:"category,omitempty"`
	Amount     float64         `json:"amount"`
	Note       string          `json:"note,omitempty"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"createdAt"`

	// DistributedAmount is the part of Amount already handed to the goal
	// distributor. Edits only distribute what exceeds it.
	DistributedAmount float64 `json:"-"`
}

// IsSavingsIncome reports whether the transaction feeds the user's goals.
func (t *Transaction) IsSavingsIncome() bool {
	return t.Type == TransactionIncome && t.Category != nil && t.Category.IsSavings
}

// ValidateAmount rejects non-positive amounts.
func ValidateAmount(field string, amount float64) error {
	if amount <= 0 {
		return NewValidationError(field, "must be greater than zero")
	}
	return nil
}
