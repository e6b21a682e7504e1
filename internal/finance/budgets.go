package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
)

// BudgetPatch changes the non-nil fields of a budget.
type BudgetPatch struct {
	Month  *string
	Amount *float64
}

// CreateBudget sets the budget of month, replacing the amount of an existing
// budget for the same month.
func (s *Service) CreateBudget(ctx context.Context, userID uuid.UUID, month string, amount float64) (*model.Budget, error) {
	b, err := s.budgets.Upsert(ctx, userID, month, amount)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Budget set",
		logging.FieldOperation, logging.OpCreate,
		logging.FieldUserID, userID,
		logging.FieldMonth, b.Month,
		logging.FieldAmount, b.Amount)
	s.invalidate(ctx, userID)
	return b, nil
}

// ListBudgets returns the user's budgets, newest month first. A non-empty
// month restricts the result to that month.
func (s *Service) ListBudgets(ctx context.Context, userID uuid.UUID, month string) ([]model.Budget, error) {
	if month != "" {
		if _, err := model.ParseMonth(month); err != nil {
			return nil, err
		}
	}
	return s.store.ListBudgets(ctx, userID, month)
}

// GetBudget returns one of the user's budgets.
func (s *Service) GetBudget(ctx context.Context, userID, id uuid.UUID) (*model.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

// UpdateBudget applies p. Moving a budget onto a month that already has one
// fails with ErrConflict.
func (s *Service) UpdateBudget(ctx context.Context, userID, id uuid.UUID, p BudgetPatch) (*model.Budget, error) {
	if p.Month != nil {
		if _, err := model.ParseMonth(*p.Month); err != nil {
			return nil, err
		}
	}
	if p.Amount != nil && *p.Amount <= 0 {
		return nil, model.NewValidationError("amount", "Budget amount must be greater than zero")
	}

	b, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Month != nil {
		b.Month = *p.Month
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	s.logger.DebugContext(ctx, "Budget updated",
		logging.FieldOperation, logging.OpUpdate,
		logging.FieldUserID, userID,
		logging.FieldMonth, b.Month,
		logging.FieldAmount, b.Amount)
	s.invalidate(ctx, userID)
	return b, nil
}

// DeleteBudget removes one of the user's budgets.
func (s *Service) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Budget deleted",
		logging.FieldOperation, logging.OpDelete, logging.FieldUserID, userID, "budget_id", id)
	s.invalidate(ctx, userID)
	return nil
}

// CurrentBudget returns the budget and spending of the current month.
func (s *Service) CurrentBudget(ctx context.Context, userID uuid.UUID) (*BudgetProgress, error) {
	return s.budgets.Progress(ctx, userID, model.MonthKey(s.now().In(s.loc)))
}
