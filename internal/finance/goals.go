package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// GoalInput creates a goal. Empty icon and priority take their defaults.
type GoalInput struct {
	Name         string
	Description  string
	TargetAmount float64
	SavedAmount  float64
	DueDate      *time.Time
	CategoryIcon string
	Priority     string
}

// GoalPatch changes the non-nil fields of a goal.
type GoalPatch struct {
	Name         *string
	Description  *string
	TargetAmount *float64
	SavedAmount  *float64
	DueDate      *time.Time
	CategoryIcon *string
	Status       *string
	Priority     *string
}

// GoalQuery filters ListGoals. Empty fields match everything.
type GoalQuery struct {
	Status   string
	Priority string
}

// completeIfReached marks an active goal completed once its target is met.
func completeIfReached(g *model.Goal) {
	if g.Status == model.GoalActive && g.IsCompleted() {
		g.Status = model.GoalCompleted
	}
}

// CreateGoal validates and stores a new active goal.
func (s *Service) CreateGoal(ctx context.Context, userID uuid.UUID, in GoalInput) (*model.Goal, error) {
	g := &model.Goal{
		UserID:       userID,
		Name:         in.Name,
		Description:  in.Description,
		TargetAmount: in.TargetAmount,
		SavedAmount:  in.SavedAmount,
		DueDate:      in.DueDate,
		CategoryIcon: model.IconCar,
		Status:       model.GoalActive,
		Priority:     model.PriorityMedium,
	}
	if in.CategoryIcon != "" {
		g.CategoryIcon = model.GoalIcon(in.CategoryIcon)
	}
	if in.Priority != "" {
		g.Priority = model.GoalPriority(in.Priority)
	}
	if err := g.Validate(s.now(), true); err != nil {
		return nil, err
	}
	completeIfReached(g)

	if err := s.store.CreateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	s.logger.DebugContext(ctx, "Goal created",
		logging.FieldOperation, logging.OpCreate, logging.FieldUserID, userID, logging.FieldGoalID, g.ID)
	s.invalidate(ctx, userID)
	return g, nil
}

// ListGoals returns the user's goals, newest first.
func (s *Service) ListGoals(ctx context.Context, userID uuid.UUID, q GoalQuery) ([]model.Goal, error) {
	var f store.GoalFilter
	if q.Status != "" {
		st, err := model.ParseGoalStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	if q.Priority != "" {
		p, err := model.ParseGoalPriority(q.Priority)
		if err != nil {
			return nil, err
		}
		f.Priority = p
	}
	return s.store.ListGoals(ctx, userID, f)
}

// GetGoal returns one of the user's goals.
func (s *Service) GetGoal(ctx context.Context, userID, id uuid.UUID) (*model.Goal, error) {
	return s.store.GetGoal(ctx, userID, id)
}

// UpdateGoal applies p. The due date rule is only checked when the due date
// changes. An active goal whose target is met after the update is completed,
// and a completed goal pushed back below its target is active again. Asking
// for completed below the target is rejected.
func (s *Service) UpdateGoal(ctx context.Context, userID, id uuid.UUID, p GoalPatch) (*model.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	wasCompleted := g.Status == model.GoalCompleted

	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.SavedAmount != nil {
		g.SavedAmount = *p.SavedAmount
	}
	if p.DueDate != nil {
		g.DueDate = p.DueDate
	}
	if p.CategoryIcon != nil {
		g.CategoryIcon = model.GoalIcon(*p.CategoryIcon)
	}
	if p.Status != nil {
		g.Status = model.GoalStatus(*p.Status)
	}
	if p.Priority != nil {
		g.Priority = model.GoalPriority(*p.Priority)
	}
	if err := g.Validate(s.now(), p.DueDate != nil); err != nil {
		return nil, err
	}
	if g.Status == model.GoalCompleted && !g.IsCompleted() {
		if p.Status != nil {
			return nil, model.NewValidationError("status", "Goal cannot be completed before its target amount is saved")
		}
		g.Status = model.GoalActive
	}
	completeIfReached(g)

	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	if !wasCompleted && g.Status == model.GoalCompleted {
		s.announceCompleted(ctx, g)
	}
	s.logger.DebugContext(ctx, "Goal updated",
		logging.FieldOperation, logging.OpUpdate, logging.FieldUserID, userID, logging.FieldGoalID, g.ID)
	s.invalidate(ctx, userID)
	return g, nil
}

// DeleteGoal removes one of the user's goals.
func (s *Service) DeleteGoal(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Goal deleted",
		logging.FieldOperation, logging.OpDelete, logging.FieldUserID, userID, logging.FieldGoalID, id)
	s.invalidate(ctx, userID)
	return nil
}

// AddToGoal adds amount to an active goal, completing it when the target is
// reached.
func (s *Service) AddToGoal(ctx context.Context, userID, id uuid.UUID, amount float64) (*model.Goal, error) {
	if amount <= 0 {
		return nil, model.NewValidationError("amount", "Amount must be greater than zero")
	}

	g, err := s.store.AddToGoal(ctx, userID, id, amount)
	switch {
	case errors.Is(err, model.ErrGoalInactive):
		return nil, model.NewValidationError("", "Cannot add money to inactive goal")
	case err != nil:
		return nil, err
	}

	if g.Status == model.GoalCompleted {
		s.announceCompleted(ctx, g)
	}
	s.invalidate(ctx, userID)
	return g, nil
}

// ActiveGoals returns the user's active goals, highest priority first and
// newest first within a priority.
func (s *Service) ActiveGoals(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID, store.GoalFilter{Status: model.GoalActive})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].Priority.Rank() > goals[j].Priority.Rank()
	})
	return goals, nil
}

// GoalStats returns totals and a per-status breakdown of the user's goals.
func (s *Service) GoalStats(ctx context.Context, userID uuid.UUID) (*GoalStats, error) {
	return cached(ctx, s, userID, "goalstats", func() (*GoalStats, error) {
		return s.goalStats.Stats(ctx, userID)
	})
}

func (s *Service) announceCompleted(ctx context.Context, g *model.Goal) {
	if err := s.publisher.PublishGoalCompleted(ctx, g); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish goal completion",
			logging.FieldGoalID, g.ID, logging.FieldError, err)
	}
}

// ListCategories returns every category by name.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}
