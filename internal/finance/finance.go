// Package finance holds the consistency and aggregation rules that tie
// transactions, categories, budgets and goals together.
package finance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
)

// Clock returns the current time.
type Clock func() time.Time

// DefaultTimezone aligns day, week and month boundaries when none is configured.
const DefaultTimezone = "Asia/Damascus"

// Publisher announces goal events to other systems. Publishing is best effort;
// errors are logged by the caller and never fail a request.
type Publisher interface {
	PublishGoalCompleted(ctx context.Context, g *model.Goal) error
	PublishDistributionFailed(ctx context.Context, userID uuid.UUID, amount float64, failed []uuid.UUID) error
}

// ReportCache stores per-user report results. Invalidate drops every entry of
// the user. Get returns the slot a miss should be filled through, so a result
// computed before an Invalidate cannot land in the fresh generation.
type ReportCache interface {
	Get(ctx context.Context, userID uuid.UUID, key string, dst any) (slot string, hit bool, err error)
	Set(ctx context.Context, slot string, v any) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type nopPublisher struct{}

func (nopPublisher) PublishGoalCompleted(context.Context, *model.Goal) error { return nil }

func (nopPublisher) PublishDistributionFailed(context.Context, uuid.UUID, float64, []uuid.UUID) error {
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID, string, any) (string, bool, error) {
	return "", false, nil
}
func (nopCache) Set(context.Context, string, any) error      { return nil }
func (nopCache) Invalidate(context.Context, uuid.UUID) error { return nil }
