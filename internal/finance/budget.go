package finance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// BudgetProgress is a month's budget next to what was spent in that month.
// Budget and ProgressPercent are nil when the month has no budget.
type BudgetProgress struct {
	Month           string        `json:"month"`
	Budget          *model.Budget `json:"budget"`
	Spent           float64       `json:"spent"`
	ProgressPercent *int          `json:"progressPercent"`
}

// BudgetTracker derives budget progress from the month's expenses.
type BudgetTracker struct {
	budgets      store.BudgetStore
	transactions store.TransactionStore
	loc          *time.Location
}

// NewBudgetTracker creates a tracker aligning months to loc.
func NewBudgetTracker(budgets store.BudgetStore, transactions store.TransactionStore, loc *time.Location) *BudgetTracker {
	return &BudgetTracker{budgets: budgets, transactions: transactions, loc: loc}
}

// ProgressPercent is spent/amount as a whole percentage clamped to [0, 100].
func ProgressPercent(spent, amount float64) int {
	if amount <= 0 {
		return 0
	}
	p := math.Round(spent / amount * 100)
	return int(math.Max(0, math.Min(100, p)))
}

// Progress returns the budget of month and the expense total inside the
// month's boundaries.
func (t *BudgetTracker) Progress(ctx context.Context, userID uuid.UUID, month string) (*BudgetProgress, error) {
	start, end, err := model.MonthRange(month, t.loc)
	if err != nil {
		return nil, err
	}

	progress := &BudgetProgress{Month: month}
	budget, err := t.budgets.GetBudgetByMonth(ctx, userID, month)
	switch {
	case errors.Is(err, model.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("get budget %s: %w", month, err)
	default:
		progress.Budget = budget
	}

	totals, err := t.transactions.SumByType(ctx, userID, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("sum transactions %s: %w", month, err)
	}
	for _, tt := range totals {
		if tt.Type == model.TransactionExpense {
			progress.Spent = tt.Total
		}
	}

	if progress.Budget != nil {
		p := ProgressPercent(progress.Spent, progress.Budget.Amount)
		progress.ProgressPercent = &p
	}
	return progress, nil
}

// Upsert sets the budget of month, creating it when missing.
func (t *BudgetTracker) Upsert(ctx context.Context, userID uuid.UUID, month string, amount float64) (*model.Budget, error) {
	if _, err := model.ParseMonth(month); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, model.NewValidationError("amount", "Budget amount must be greater than zero")
	}
	b, err := t.budgets.UpsertBudget(ctx, userID, month, amount)
	if err != nil {
		return nil, fmt.Errorf("upsert budget %s: %w", month, err)
	}
	return b, nil
}
