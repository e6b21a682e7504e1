package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// GoalPriority orders goals in the active list.
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// GoalIcon is one of a fixed set of icon names.
type GoalIcon string

const (
	IconCar       GoalIcon = "car"
	IconHouse     GoalIcon = "house"
	IconVacation  GoalIcon = "vacation"
	IconEducation GoalIcon = "education"
	IconEmergency GoalIcon = "emergency"
	IconGift      GoalIcon = "gift"
)

const (
	maxGoalNameLen        = 100
	maxGoalDescriptionLen = 500
)

// ParseGoalStatus validates s as a goal status.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch st := GoalStatus(s); st {
	case GoalActive, GoalCompleted, GoalPaused, GoalCancelled:
		return st, nil
	}
	return "", NewValidationError("status", "must be one of active, completed, paused, cancelled")
}

// ParseGoalPriority validates s as a goal priority.
func ParseGoalPriority(s string) (GoalPriority, error) {
	switch p := GoalPriority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", NewValidationError("priority", "must be one of low, medium, high")
}

// Rank orders priorities, high first.
func (p GoalPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParseGoalIcon validates s as a goal icon.
func ParseGoalIcon(s string) (GoalIcon, error) {
	switch i := GoalIcon(s); i {
	case IconCar, IconHouse, IconVacation, IconEducation, IconEmergency, IconGift:
		return i, nil
	}
	return "", NewValidationError("categoryIcon", "must be one of car, house, vacation, education, emergency, gift")
}

// Goal is a savings target. Progress fields are derived on every read and
// never stored.
type Goal struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"userId"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	TargetAmount float64      `json:"targetAmount"`
	SavedAmount  float64      `json:"savedAmount"`
	DueDate      *time.Time   `json:"dueDate,omitempty"`
	CategoryIcon GoalIcon     `json:"categoryIcon"`
	Status       GoalStatus   `json:"status"`
	Priority     GoalPriority `json:"priority"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ProgressPercentage is saved/target as a whole percentage capped at 100.
func (g Goal) ProgressPercentage() int {
	if g.TargetAmount <= 0 {
		return 0
	}
	return int(math.Min(100, math.Round(g.SavedAmount/g.TargetAmount*100)))
}

// RemainingAmount is what is left to save, never negative.
func (g Goal) RemainingAmount() float64 {
	return math.Max(0, g.TargetAmount-g.SavedAmount)
}

// IsCompleted reports whether the target has been reached.
func (g Goal) IsCompleted() bool {
	return g.SavedAmount >= g.TargetAmount
}

// AddSaved adds amount to the saved total and completes the goal once the
// target is reached. It reports whether this call completed the goal.
func (g *Goal) AddSaved(amount float64) bool {
	g.SavedAmount += amount
	if g.IsCompleted() && g.Status != GoalCompleted {
		g.Status = GoalCompleted
		return true
	}
	return false
}

// Validate checks the stored fields. now is used for the due date rule,
// which only applies when checkDueDate is set (creation or due date change).
func (g *Goal) Validate(now time.Time, checkDueDate bool) error {
	switch {
	case g.Name == "":
		return NewValidationError("name", "Goal name is required")
	case len(g.Name) > maxGoalNameLen:
		return NewValidationError("name", "Goal name cannot exceed 100 characters")
	case len(g.Description) > maxGoalDescriptionLen:
		return NewValidationError("description", "Description cannot exceed 500 characters")
	case g.TargetAmount <= 0:
		return NewValidationError("targetAmount", "Target amount must be greater than zero")
	case g.SavedAmount < 0:
		return NewValidationError("savedAmount", "Saved amount cannot be negative")
	}
	if checkDueDate && g.DueDate != nil && !g.DueDate.After(now) {
		return NewValidationError("dueDate", "Due date must be in the future")
	}
	if _, err := ParseGoalIcon(string(g.CategoryIcon)); err != nil {
		return err
	}
	if _, err := ParseGoalStatus(string(g.Status)); err != nil {
		return err
	}
	if _, err := ParseGoalPriority(string(g.Priority)); err != nil {
		return err
	}
	return nil
}

type goalFields Goal

// MarshalJSON adds the derived progress fields.
func (g Goal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		goalFields
		ProgressPercentage int     `json:"progressPercentage"`
		RemainingAmount    float64 `json:"remainingAmount"`
		IsCompleted        bool    `json:"isCompleted"`
	}{
		goalFields:         goalFields(g),
		ProgressPercentage: g.ProgressPercentage(),
		RemainingAmount:    g.RemainingAmount(),
		IsCompleted:        g.IsCompleted(),
	})
}
