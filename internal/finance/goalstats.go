package finance

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// GoalStats summarises a user's goals.
type GoalStats struct {
	TotalGoals        int                  `json:"totalGoals"`
	CompletedGoals    int                  `json:"completedGoals"`
	TotalTargetAmount float64              `json:"totalTargetAmount"`
	TotalSavedAmount  float64              `json:"totalSavedAmount"`
	OverallProgress   int                  `json:"overallProgress"`
	Breakdown         []store.StatusRollup `json:"breakdown"`
}

// GoalStatistics rolls goals up by status.
type GoalStatistics struct {
	goals store.GoalStore
}

// NewGoalStatistics creates a GoalStatistics backed by goals.
func NewGoalStatistics(goals store.GoalStore) *GoalStatistics {
	return &GoalStatistics{goals: goals}
}

// Stats returns totals across every goal of the user. A user without goals
// gets zero totals and an empty breakdown.
func (s *GoalStatistics) Stats(ctx context.Context, userID uuid.UUID) (*GoalStats, error) {
	rollup, err := s.goals.GoalRollup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("goal rollup: %w", err)
	}

	stats := &GoalStats{Breakdown: []store.StatusRollup{}}
	target, saved := decimal.Zero, decimal.Zero
	for _, r := range rollup {
		stats.TotalGoals += r.Count
		if r.Status == model.GoalCompleted {
			stats.CompletedGoals = r.Count
		}
		target = target.Add(decimal.NewFromFloat(r.TotalTarget))
		saved = saved.Add(decimal.NewFromFloat(r.TotalSaved))
		stats.Breakdown = append(stats.Breakdown, r)
	}

	stats.TotalTargetAmount = target.InexactFloat64()
	stats.TotalSavedAmount = saved.InexactFloat64()
	if stats.TotalTargetAmount > 0 {
		stats.OverallProgress = int(math.Round(stats.TotalSavedAmount / stats.TotalTargetAmount * 100))
	}
	return stats, nil
}
