package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
)

// Routing keys on the events exchange.
const (
	RoutingGoalCompleted      = "goal.completed"
	RoutingDistributionFailed = "goal.distribution_failed"
)

// GoalCompletedMessage is published when a goal reaches its target.
type GoalCompletedMessage struct {
	GoalID       uuid.UUID `json:"goalId"`
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	TargetAmount float64   `json:"targetAmount"`
	SavedAmount  float64   `json:"savedAmount"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewGoalCompletedMessage describes g.
func NewGoalCompletedMessage(g *model.Goal) *GoalCompletedMessage {
	return &GoalCompletedMessage{
		GoalID:       g.ID,
		UserID:       g.UserID,
		Name:         g.Name,
		TargetAmount: g.TargetAmount,
		SavedAmount:  g.SavedAmount,
		Timestamp:    time.Now().UTC(),
	}
}

// DistributionFailedMessage lists goals a savings deposit could not reach.
type DistributionFailedMessage struct {
	UserID    uuid.UUID   `json:"userId"`
	Amount    float64     `json:"amount"`
	GoalIDs   []uuid.UUID `json:"goalIds"`
	Timestamp time.Time   `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *GoalCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes
func (m *DistributionFailedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
