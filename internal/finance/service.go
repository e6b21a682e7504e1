package finance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// Options configures a Service. Zero values select the system clock, the
// default timezone, no events and no report cache.
type Options struct {
	Clock     Clock
	Location  *time.Location
	Publisher Publisher
	Cache     ReportCache
	Logger    *slog.Logger
}

// Service runs one operation per API endpoint on top of a Store.
type Service struct {
	store       store.Store
	categories  *CategoryResolver
	distributor *GoalDistributor
	budgets     *BudgetTracker
	aggregator  *Aggregator
	goalStats   *GoalStatistics
	cache       ReportCache
	publisher   Publisher
	now         Clock
	loc         *time.Location
	logger      *slog.Logger
}

// NewService wires the finance components around st.
func NewService(st store.Store, opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, err
		}
		opts.Location = loc
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Cache == nil {
		opts.Cache = nopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component(logging.ComponentFinance)
	}

	budgets := NewBudgetTracker(st, st, opts.Location)
	return &Service{
		store:       st,
		categories:  NewCategoryResolver(st),
		distributor: NewGoalDistributor(st, opts.Publisher),
		budgets:     budgets,
		aggregator:  NewAggregator(st, budgets, opts.Clock, opts.Location),
		goalStats:   NewGoalStatistics(st),
		cache:       opts.Cache,
		publisher:   opts.Publisher,
		now:         opts.Clock,
		loc:         opts.Location,
		logger:      opts.Logger,
	}, nil
}

// Location is the timezone used for month and bucket boundaries.
func (s *Service) Location() *time.Location { return s.loc }

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// invalidate drops cached reports after a write. Cache errors are logged.
func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate report cache",
			logging.FieldUserID, userID, logging.FieldError, err)
	}
}

// cached serves key from the report cache, computing and storing it on a miss.
func cached[T any](ctx context.Context, s *Service, userID uuid.UUID, key string, compute func() (T, error)) (T, error) {
	var v T
	slot, hit, err := s.cache.Get(ctx, userID, key, &v)
	if err != nil {
		s.logger.WarnContext(ctx, "Report cache read failed",
			logging.FieldUserID, userID, logging.FieldError, err)
	}
	if hit {
		return v, nil
	}

	v, err = compute()
	if err != nil {
		return v, err
	}
	if slot == "" {
		return v, nil
	}
	if err := s.cache.Set(ctx, slot, v); err != nil {
		s.logger.WarnContext(ctx, "Report cache write failed",
			logging.FieldUserID, userID, logging.FieldError, err)
	}
	return v, nil
}

// distribute spreads amount of a savings deposit across the user's active
// goals. Failures are logged; the deposit itself is already stored.
func (s *Service) distribute(ctx context.Context, tx *model.Transaction, amount float64) {
	dist, err := s.distributor.Distribute(ctx, tx.UserID, amount)

	var perr *PartialDistributionError
	switch {
	case errors.As(err, &perr):
		s.logger.WarnContext(ctx, "Savings distribution partially failed",
			logging.FieldOperation, logging.OpDistribute,
			logging.FieldTxID, tx.ID,
			logging.FieldUserID, tx.UserID,
			logging.FieldGoalIDs, perr.GoalIDs(),
			logging.FieldError, err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Savings distribution failed",
			logging.FieldOperation, logging.OpDistribute,
			logging.FieldTxID, tx.ID,
			logging.FieldUserID, tx.UserID,
			logging.FieldError, err)
		return
	}

	s.logger.DebugContext(ctx, "Savings distributed",
		logging.FieldTxID, tx.ID,
		logging.FieldAmount, amount,
		"goals", len(dist.Applied))
}

// PurgeUser removes the user's transactions, budgets and goals. With
// categories set, categories no longer referenced by any transaction are
// removed as well.
func (s *Service) PurgeUser(ctx context.Context, userID uuid.UUID, categories bool) error {
	if err := s.store.PurgeUser(ctx, userID); err != nil {
		return err
	}
	if categories {
		if err := s.store.DeleteCategories(ctx); err != nil {
			return err
		}
	}
	s.invalidate(ctx, userID)
	return nil
}
