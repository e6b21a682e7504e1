// Package store defines the persistence contract used by the finance core and
// its PostgreSQL implementation.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
)

// TransactionFilter selects a user's transactions. From is inclusive, To is
// exclusive. A zero Limit means no limit.
type TransactionFilter struct {
	Type       model.TransactionType
	CategoryID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Sort       Sort
	Offset     int
	Limit      int
}

// GoalFilter selects a user's goals. Empty fields match everything.
type GoalFilter struct {
	Status   model.GoalStatus
	Priority model.GoalPriority
}

// TypeTotal is the sum and count of one transaction type.
type TypeTotal struct {
	Type  model.TransactionType
	Total float64
	Count int
}

// StatusRollup aggregates a user's goals sharing one status.
type StatusRollup struct {
	Status      model.GoalStatus `json:"status"`
	Count       int              `json:"count"`
	TotalTarget float64          `json:"totalTarget"`
	TotalSaved  float64          `json:"totalSaved"`
}

// CategoryStore persists categories.
type CategoryStore interface {
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	// FindCategoryByName matches the trimmed name case-insensitively.
	FindCategoryByName(ctx context.Context, name string) (*model.Category, error)
	// FindOrCreateCategory inserts c unless a category with the same name
	// exists, and returns whichever record owns the name.
	FindOrCreateCategory(ctx context.Context, c *model.Category) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategories(ctx context.Context) error
}

// TransactionStore persists transactions. Reads populate Category.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error
	ListTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]model.Transaction, error)
	CountTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) (int, error)
	SumByType(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]TypeTotal, error)
}

// BudgetStore persists budgets, unique per (user, month).
type BudgetStore interface {
	UpsertBudget(ctx context.Context, userID uuid.UUID, month string, amount float64) (*model.Budget, error)
	GetBudget(ctx context.Context, userID, id uuid.UUID) (*model.Budget, error)
	GetBudgetByMonth(ctx context.Context, userID uuid.UUID, month string) (*model.Budget, error)
	ListBudgets(ctx context.Context, userID uuid.UUID, month string) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, b *model.Budget) error
	DeleteBudget(ctx context.Context, userID, id uuid.UUID) error
}

// GoalStore persists goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, g *model.Goal) error
	GetGoal(ctx context.Context, userID, id uuid.UUID) (*model.Goal, error)
	ListGoals(ctx context.Context, userID uuid.UUID, f GoalFilter) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, g *model.Goal) error
	DeleteGoal(ctx context.Context, userID, id uuid.UUID) error
	// AddToGoal atomically adds amount to an active goal and completes it
	// when the target is reached. Non-active goals yield ErrGoalInactive.
	AddToGoal(ctx context.Context, userID, id uuid.UUID, amount float64) (*model.Goal, error)
	GoalRollup(ctx context.Context, userID uuid.UUID) ([]StatusRollup, error)
}

// Store is the full persistence collaborator.
type Store interface {
	CategoryStore
	TransactionStore
	BudgetStore
	GoalStore

	// PurgeUser removes every transaction, budget and goal of a user.
	PurgeUser(ctx context.Context, userID uuid.UUID) error
	Ping(ctx context.Context) error
	Close() error
}

// Sort orders transaction listings.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort lists newest transactions first.
var DefaultSort = Sort{Field: "date", Desc: true}

var sortFields = map[string]bool{"date": true, "amount": true, "createdAt": true}

// ParseSort parses "field" or "-field". Empty input yields DefaultSort.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return DefaultSort, nil
	}
	sort := Sort{Field: strings.TrimPrefix(s, "-"), Desc: strings.HasPrefix(s, "-")}
	if !sortFields[sort.Field] {
		return Sort{}, model.NewValidationError("sort", fmt.Sprintf("unsupported sort field %q", sort.Field))
	}
	return sort, nil
}
