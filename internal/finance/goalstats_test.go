package finance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
	"personal-finance-backend/internal/store/memory"
)

func TestGoalStatsWithoutGoals(t *testing.T) {
	stats, err := NewGoalStatistics(memory.New()).Stats(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, &GoalStats{Breakdown: []store.StatusRollup{}}, stats)
}

func TestGoalStats(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	createGoal(t, st, "Car", 1000, 250)
	createGoal(t, st, "House", 3000, 0)
	done := createGoal(t, st, "Gift", 100, 100)
	done.Status = model.GoalCompleted
	require.NoError(t, st.UpdateGoal(ctx, done))

	stats, err := NewGoalStatistics(st).Stats(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalGoals)
	assert.Equal(t, 1, stats.CompletedGoals)
	assert.Equal(t, 4100.0, stats.TotalTargetAmount)
	assert.Equal(t, 350.0, stats.TotalSavedAmount)
	assert.Equal(t, 9, stats.OverallProgress)
	assert.Equal(t, []store.StatusRollup{
		{Status: model.GoalActive, Count: 2, TotalTarget: 4000, TotalSaved: 250},
		{Status: model.GoalCompleted, Count: 1, TotalTarget: 100, TotalSaved: 100},
	}, stats.Breakdown)
}
