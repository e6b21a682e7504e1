package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
	"personal-finance-backend/internal/store/memory"
)

func ptr[T any](v T) *T { return &v }

func TestCreateSavingsTransactionDistributes(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newTestService(t)
	savings := savingsCategory(t, st)
	car := createGoal(t, st, "Car", 1000, 800)

	tx, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "income", Category: "savings", Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, savings.ID, tx.CategoryID)
	assert.True(t, testNow.Equal(tx.Date))

	g, err := st.GetGoal(ctx, testUser, car.ID)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, g.SavedAmount)
	assert.Equal(t, model.GoalCompleted, g.Status)
	assert.Equal(t, []uuid.UUID{car.ID}, pub.completed)
}

func TestCreateTransactionOnlySavingsIncomeDistributes(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	savingsCategory(t, st)
	g := createGoal(t, st, "Trip", 1000, 0)

	_, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "expense", Category: "Savings", Amount: 100})
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "income", Category: "Salary", Amount: 100})
	require.NoError(t, err)

	got, err := st.GetGoal(ctx, testUser, g.ID)
	require.NoError(t, err)
	assert.Zero(t, got.SavedAmount)
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, st, _ := newTestService(t)

	tests := []struct {
		name string
		in   TransactionInput
	}{
		{"bad type", TransactionInput{Type: "transfer", Category: "Food", Amount: 1}},
		{"zero amount", TransactionInput{Type: "expense", Category: "Food", Amount: 0}},
		{"negative amount", TransactionInput{Type: "expense", Category: "Food", Amount: -5}},
		{"missing category", TransactionInput{Type: "expense", Amount: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransaction(context.Background(), testUser, tt.in)
			assert.True(t, model.IsValidation(err), "got %v", err)
		})
	}

	cats, err := st.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats, "validation runs before any category is created")
}

func TestUpdateTransactionDistributesOnlyIncrease(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	savingsCategory(t, st)
	g := createGoal(t, st, "House", 10000, 0)

	tx, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "income", Category: "Savings", Amount: 100})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(ctx, testUser, tx.ID, TransactionPatch{Note: ptr("monthly")})
	require.NoError(t, err)
	got, _ := st.GetGoal(ctx, testUser, g.ID)
	assert.Equal(t, 100.0, got.SavedAmount, "editing the note distributes nothing")

	_, err = svc.UpdateTransaction(ctx, testUser, tx.ID, TransactionPatch{Amount: ptr(150.0)})
	require.NoError(t, err)
	got, _ = st.GetGoal(ctx, testUser, g.ID)
	assert.Equal(t, 150.0, got.SavedAmount)

	_, err = svc.UpdateTransaction(ctx, testUser, tx.ID, TransactionPatch{Amount: ptr(120.0)})
	require.NoError(t, err)
	got, _ = st.GetGoal(ctx, testUser, g.ID)
	assert.Equal(t, 150.0, got.SavedAmount, "decreases are not taken back")
}

func TestUpdateTransactionIntoSavings(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	savingsCategory(t, st)
	g := createGoal(t, st, "House", 10000, 0)

	tx, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "income", Category: "Salary", Amount: 200})
	require.NoError(t, err)

	updated, err := svc.UpdateTransaction(ctx, testUser, tx.ID, TransactionPatch{Category: ptr("SAVINGS")})
	require.NoError(t, err)
	require.NotNil(t, updated.Category)
	assert.True(t, updated.Category.IsSavings)

	got, _ := st.GetGoal(ctx, testUser, g.ID)
	assert.Equal(t, 200.0, got.SavedAmount)
}

func TestUpdateTransactionValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tx, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "expense", Category: "Food", Amount: 20})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(ctx, testUser, tx.ID, TransactionPatch{Type: ptr("gift")})
	assert.True(t, model.IsValidation(err))

	_, err = svc.UpdateTransaction(ctx, testUser, tx.ID, TransactionPatch{Amount: ptr(0.0)})
	assert.True(t, model.IsValidation(err))

	_, err = svc.UpdateTransaction(ctx, uuid.New(), tx.ID, TransactionPatch{Note: ptr("x")})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListTransactionsPagination(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for i := 0; i < 25; i++ {
		d := testNow.AddDate(0, 0, -i)
		_, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "expense", Category: "Food", Amount: float64(i + 1), Date: &d})
		require.NoError(t, err)
	}

	page, err := svc.ListTransactions(ctx, testUser, TransactionQuery{})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 25, Pages: 3}, page.Pagination)
	require.Len(t, page.Transactions, 10)
	assert.Equal(t, 1.0, page.Transactions[0].Amount, "newest first")

	page, err = svc.ListTransactions(ctx, testUser, TransactionQuery{Page: 3, Limit: 10, Sort: "amount"})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 5)
	assert.Equal(t, 21.0, page.Transactions[0].Amount)

	page, err = svc.ListTransactions(ctx, testUser, TransactionQuery{Page: 4})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)

	_, err = svc.ListTransactions(ctx, testUser, TransactionQuery{Page: math.MaxInt/10 + 2, Limit: 10})
	assert.True(t, model.IsValidation(err), "offset overflow")

	_, err = svc.ListTransactions(ctx, testUser, TransactionQuery{Page: math.MaxInt})
	assert.True(t, model.IsValidation(err))

	_, err = svc.ListTransactions(ctx, testUser, TransactionQuery{Sort: "note"})
	assert.True(t, model.IsValidation(err))

	_, err = svc.ListTransactions(ctx, testUser, TransactionQuery{CategoryID: "food"})
	assert.True(t, model.IsValidation(err))
}

func TestGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	g, err := svc.CreateGoal(ctx, testUser, GoalInput{Name: "Laptop", TargetAmount: 1000})
	require.NoError(t, err)
	assert.Equal(t, model.IconCar, g.CategoryIcon)
	assert.Equal(t, model.PriorityMedium, g.Priority)
	assert.Equal(t, model.GoalActive, g.Status)

	g, err = svc.AddToGoal(ctx, testUser, g.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, 40, g.ProgressPercentage())

	t.Run("update reaching target completes", func(t *testing.T) {
		updated, err := svc.UpdateGoal(ctx, testUser, g.ID, GoalPatch{TargetAmount: ptr(400.0)})
		require.NoError(t, err)
		assert.Equal(t, model.GoalCompleted, updated.Status)
		assert.Equal(t, []uuid.UUID{g.ID}, pub.completed)
	})

	t.Run("adding to a completed goal is rejected", func(t *testing.T) {
		_, err := svc.AddToGoal(ctx, testUser, g.ID, 10)
		require.True(t, model.IsValidation(err))
		assert.Contains(t, err.Error(), "Cannot add money to inactive goal")
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.AddToGoal(ctx, testUser, g.ID, 0)
		assert.True(t, model.IsValidation(err))
	})

	t.Run("raising the target reopens a completed goal", func(t *testing.T) {
		updated, err := svc.UpdateGoal(ctx, testUser, g.ID, GoalPatch{TargetAmount: ptr(500.0)})
		require.NoError(t, err)
		assert.Equal(t, model.GoalActive, updated.Status)
		assert.False(t, updated.IsCompleted())
	})

	t.Run("completed status below target is rejected", func(t *testing.T) {
		_, err := svc.UpdateGoal(ctx, testUser, g.ID, GoalPatch{Status: ptr("completed")})
		require.True(t, model.IsValidation(err), "got %v", err)

		stored, err := svc.GetGoal(ctx, testUser, g.ID)
		require.NoError(t, err)
		assert.Equal(t, model.GoalActive, stored.Status)

		stats, err := svc.GoalStats(ctx, testUser)
		require.NoError(t, err)
		assert.Zero(t, stats.CompletedGoals)
	})

	t.Run("reactivated goal below target stays active", func(t *testing.T) {
		updated, err := svc.UpdateGoal(ctx, testUser, g.ID, GoalPatch{Status: ptr("active"), TargetAmount: ptr(2000.0)})
		require.NoError(t, err)
		assert.Equal(t, model.GoalActive, updated.Status)
	})

	t.Run("past due date on update", func(t *testing.T) {
		_, err := svc.UpdateGoal(ctx, testUser, g.ID, GoalPatch{DueDate: ptr(testNow.AddDate(0, 0, -1))})
		assert.True(t, model.IsValidation(err))
	})

	require.NoError(t, svc.DeleteGoal(ctx, testUser, g.ID))
	_, err = svc.GetGoal(ctx, testUser, g.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreateGoalValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name string
		in   GoalInput
	}{
		{"missing name", GoalInput{TargetAmount: 10}},
		{"zero target", GoalInput{Name: "x"}},
		{"past due date", GoalInput{Name: "x", TargetAmount: 10, DueDate: &past}},
		{"bad icon", GoalInput{Name: "x", TargetAmount: 10, CategoryIcon: "boat"}},
		{"bad priority", GoalInput{Name: "x", TargetAmount: 10, Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGoal(context.Background(), testUser, tt.in)
			assert.True(t, model.IsValidation(err), "got %v", err)
		})
	}
}

func TestActiveGoalsOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for _, in := range []GoalInput{
		{Name: "low", TargetAmount: 10, Priority: "low"},
		{Name: "high", TargetAmount: 10, Priority: "high"},
		{Name: "medium", TargetAmount: 10},
	} {
		_, err := svc.CreateGoal(ctx, testUser, in)
		require.NoError(t, err)
	}
	paused, err := svc.CreateGoal(ctx, testUser, GoalInput{Name: "paused", TargetAmount: 10, Priority: "high"})
	require.NoError(t, err)
	_, err = svc.UpdateGoal(ctx, testUser, paused.ID, GoalPatch{Status: ptr("paused")})
	require.NoError(t, err)

	goals, err := svc.ActiveGoals(ctx, testUser)
	require.NoError(t, err)
	names := make([]string, 0, len(goals))
	for _, g := range goals {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"high", "medium", "low"}, names)

	_, err = svc.ListGoals(ctx, testUser, GoalQuery{Status: "archived"})
	assert.True(t, model.IsValidation(err))
}

func TestBudgets(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	april, err := svc.CreateBudget(ctx, testUser, "2025-04", 500)
	require.NoError(t, err)
	again, err := svc.CreateBudget(ctx, testUser, "2025-04", 600)
	require.NoError(t, err)
	assert.Equal(t, april.ID, again.ID)
	assert.Equal(t, 600.0, again.Amount)

	may, err := svc.CreateBudget(ctx, testUser, "2025-05", 300)
	require.NoError(t, err)

	_, err = svc.UpdateBudget(ctx, testUser, may.ID, BudgetPatch{Month: ptr("2025-04")})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.UpdateBudget(ctx, testUser, may.ID, BudgetPatch{Amount: ptr(-1.0)})
	assert.True(t, model.IsValidation(err))

	list, err := svc.ListBudgets(ctx, testUser, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-05", list[0].Month)

	_, err = svc.ListBudgets(ctx, testUser, "April")
	assert.True(t, model.IsValidation(err))

	current, err := svc.CurrentBudget(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "2025-04", current.Month)
	require.NotNil(t, current.Budget)
	assert.Equal(t, april.ID, current.Budget.ID)

	require.NoError(t, svc.DeleteBudget(ctx, testUser, april.ID))
	current, err = svc.CurrentBudget(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, current.Budget)
	assert.Nil(t, current.ProgressPercent)
}

func TestPurgeUser(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	_, err := svc.CreateTransaction(ctx, testUser, TransactionInput{Type: "expense", Category: "Food", Amount: 20})
	require.NoError(t, err)
	_, err = svc.CreateGoal(ctx, testUser, GoalInput{Name: "Car", TargetAmount: 10})
	require.NoError(t, err)

	require.NoError(t, svc.PurgeUser(ctx, testUser, true))

	n, err := st.CountTransactions(ctx, testUser, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestWritesAreLogged(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	svc, err := NewService(memory.New(), Options{
		Clock:    fixedClock,
		Location: testLoc,
		Logger:   logging.New(&buf, slog.LevelDebug, "json"),
	})
	require.NoError(t, err)

	b, err := svc.CreateBudget(ctx, testUser, "2025-04", 500)
	require.NoError(t, err)
	_, err = svc.UpdateBudget(ctx, testUser, b.ID, BudgetPatch{Amount: ptr(600.0)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBudget(ctx, testUser, b.ID))

	var records []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)

	assert.Equal(t, logging.OpCreate, records[0][logging.FieldOperation])
	assert.Equal(t, "2025-04", records[0][logging.FieldMonth])
	assert.Equal(t, logging.OpUpdate, records[1][logging.FieldOperation])
	assert.Equal(t, 600.0, records[1][logging.FieldAmount])
	assert.Equal(t, logging.OpDelete, records[2][logging.FieldOperation])
	assert.Equal(t, testUser.String(), records[2][logging.FieldUserID])
}
