package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

var userID = uuid.MustParse("b3f9a6c4-1e2d-4a7b-8c9d-0e1f2a3b4c5d")

func newCategory(t *testing.T, s *Store, name string, savings bool) *model.Category {
	t.Helper()
	c, err := s.FindOrCreateCategory(context.Background(), &model.Category{
		Name:      name,
		Type:      model.TransactionIncome,
		Icon:      model.DefaultCategoryIcon,
		IsSavings: savings,
	})
	require.NoError(t, err)
	return c
}

func TestFindOrCreateCategoryIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := newCategory(t, s, "Groceries", false)
	second := newCategory(t, s, "  groceries ", false)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Groceries", second.Name)

	found, err := s.FindCategoryByName(ctx, "GROCERIES")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	all, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindOrCreateCategoryConcurrent(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.FindOrCreateCategory(context.Background(), &model.Category{Name: "Rent", Type: model.TransactionExpense})
			if err == nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, _ := s.ListCategories(context.Background())
	assert.Len(t, all, 1)
}

func TestTransactionsFilterSortPaginate(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat := newCategory(t, s, "Salary", false)
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	for i, amount := range []float64{30, 10, 20} {
		require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
			UserID:     userID,
			Type:       model.TransactionIncome,
			CategoryID: cat.ID,
			Amount:     amount,
			Date:       base.AddDate(0, 0, i),
		}))
	}
	require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
		UserID:     uuid.New(),
		Type:       model.TransactionIncome,
		CategoryID: cat.ID,
		Amount:     99,
		Date:       base,
	}))

	list, err := s.ListTransactions(ctx, userID, store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 20.0, list[0].Amount, "newest first by default")
	require.NotNil(t, list[0].Category)
	assert.Equal(t, "Salary", list[0].Category.Name)

	list, err = s.ListTransactions(ctx, userID, store.TransactionFilter{Sort: store.Sort{Field: "amount"}, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 20.0, list[0].Amount)

	from := base.AddDate(0, 0, 1)
	n, err := s.CountTransactions(ctx, userID, store.TransactionFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	to := base.AddDate(0, 0, 2)
	totals, err := s.SumByType(ctx, userID, &base, &to)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, 40.0, totals[0].Total)
	assert.Equal(t, 2, totals[0].Count)
}

func TestTransactionOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat := newCategory(t, s, "Salary", false)

	tx := &model.Transaction{UserID: userID, Type: model.TransactionIncome, CategoryID: cat.ID, Amount: 5, Date: time.Now()}
	require.NoError(t, s.CreateTransaction(ctx, tx))

	_, err := s.GetTransaction(ctx, uuid.New(), tx.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, uuid.New(), tx.ID), model.ErrNotFound)
	assert.NoError(t, s.DeleteTransaction(ctx, userID, tx.ID))
}

func TestUpsertBudget(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.UpsertBudget(ctx, userID, "2025-04", 500)
	require.NoError(t, err)
	second, err := s.UpsertBudget(ctx, userID, "2025-04", 750)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 750.0, second.Amount)

	other, err := s.UpsertBudget(ctx, userID, "2025-05", 100)
	require.NoError(t, err)

	other.Month = "2025-04"
	assert.ErrorIs(t, s.UpdateBudget(ctx, other), model.ErrConflict)

	budgets, err := s.ListBudgets(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "2025-05", budgets[0].Month)
}

func TestAddToGoal(t *testing.T) {
	s := New()
	ctx := context.Background()

	g := &model.Goal{UserID: userID, Name: "Car", TargetAmount: 1000, SavedAmount: 800, Status: model.GoalActive}
	require.NoError(t, s.CreateGoal(ctx, g))

	updated, err := s.AddToGoal(ctx, userID, g.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, updated.SavedAmount)
	assert.Equal(t, model.GoalCompleted, updated.Status)

	_, err = s.AddToGoal(ctx, userID, g.ID, 10)
	assert.ErrorIs(t, err, model.ErrGoalInactive)

	_, err = s.AddToGoal(ctx, uuid.New(), g.ID, 10)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGoalRollupAndPurge(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, g := range []*model.Goal{
		{UserID: userID, Name: "a", TargetAmount: 100, SavedAmount: 100, Status: model.GoalCompleted},
		{UserID: userID, Name: "b", TargetAmount: 200, SavedAmount: 50, Status: model.GoalActive},
		{UserID: userID, Name: "c", TargetAmount: 300, SavedAmount: 0, Status: model.GoalActive},
	} {
		require.NoError(t, s.CreateGoal(ctx, g))
	}

	rollup, err := s.GoalRollup(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rollup, 2)
	assert.Equal(t, store.StatusRollup{Status: model.GoalActive, Count: 2, TotalTarget: 500, TotalSaved: 50}, rollup[0])
	assert.Equal(t, model.GoalCompleted, rollup[1].Status)

	require.NoError(t, s.PurgeUser(ctx, userID))
	goals, err := s.ListGoals(ctx, userID, store.GoalFilter{})
	require.NoError(t, err)
	assert.Empty(t, goals)
}
