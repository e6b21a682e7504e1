package finance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// GoalShare is the amount one goal received from a distribution.
type GoalShare struct {
	GoalID    uuid.UUID `json:"goalId"`
	Amount    float64   `json:"amount"`
	Completed bool      `json:"completed"`
}

// GoalFailure records a goal that could not be credited.
type GoalFailure struct {
	GoalID uuid.UUID
	Err    error
}

// Distribution is the outcome of spreading an amount across active goals.
type Distribution struct {
	Share    float64       `json:"share"`
	Applied  []GoalShare   `json:"applied"`
	Failures []GoalFailure `json:"-"`
}

// AppliedTotal is the sum actually credited to goals.
func (d *Distribution) AppliedTotal() float64 {
	var total float64
	for _, s := range d.Applied {
		total += s.Amount
	}
	return total
}

// PartialDistributionError reports goals that were not credited. Goals
// credited before or after the failures keep their new balance.
type PartialDistributionError struct {
	Failures []GoalFailure
}

func (e *PartialDistributionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.GoalID, f.Err))
	}
	return fmt.Sprintf("distribution failed for %d goal(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

// GoalIDs lists the goals that failed.
func (e *PartialDistributionError) GoalIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.GoalID)
	}
	return ids
}

// GoalDistributor splits savings income evenly across a user's active goals.
type GoalDistributor struct {
	goals     store.GoalStore
	publisher Publisher
	logger    *slog.Logger
}

// NewGoalDistributor creates a distributor. A nil publisher disables events.
func NewGoalDistributor(goals store.GoalStore, publisher Publisher) *GoalDistributor {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &GoalDistributor{
		goals:     goals,
		publisher: publisher,
		logger:    logging.Component(logging.ComponentFinance),
	}
}

// Distribute adds amount/n to each of the user's n active goals. Each goal is
// credited independently; a goal that fails is skipped and reported through
// a *PartialDistributionError alongside the partial result. A user without
// active goals gets an empty result.
func (d *GoalDistributor) Distribute(ctx context.Context, userID uuid.UUID, amount float64) (*Distribution, error) {
	active, err := d.goals.ListGoals(ctx, userID, store.GoalFilter{Status: model.GoalActive})
	if err != nil {
		return nil, fmt.Errorf("list active goals: %w", err)
	}

	result := &Distribution{Applied: []GoalShare{}}
	if len(active) == 0 || amount <= 0 {
		return result, nil
	}

	result.Share = amount / float64(len(active))
	for _, g := range active {
		updated, err := d.goals.AddToGoal(ctx, userID, g.ID, result.Share)
		if err != nil {
			result.Failures = append(result.Failures, GoalFailure{GoalID: g.ID, Err: err})
			continue
		}

		completed := g.Status == model.GoalActive && updated.Status == model.GoalCompleted
		result.Applied = append(result.Applied, GoalShare{GoalID: g.ID, Amount: result.Share, Completed: completed})
		if completed {
			if err := d.publisher.PublishGoalCompleted(ctx, updated); err != nil {
				d.logger.WarnContext(ctx, "Failed to publish goal completion",
					logging.FieldGoalID, g.ID, logging.FieldError, err)
			}
		}
	}

	if len(result.Failures) > 0 {
		perr := &PartialDistributionError{Failures: result.Failures}
		if err := d.publisher.PublishDistributionFailed(ctx, userID, amount, perr.GoalIDs()); err != nil {
			d.logger.WarnContext(ctx, "Failed to publish distribution failure",
				logging.FieldUserID, userID, logging.FieldError, err)
		}
		return result, perr
	}
	return result, nil
}
