package finance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// TransactionInput creates a transaction. Category is an id or a name.
type TransactionInput struct {
	Type     string
	Category string
	Icon     string
	Amount   float64
	Note     string
	Date     *time.Time
}

// TransactionPatch changes the non-nil fields of a transaction.
type TransactionPatch struct {
	Type     *string
	Category *string
	Icon     *string
	Amount   *float64
	Note     *string
	Date     *time.Time
}

// TransactionQuery lists transactions one page at a time.
type TransactionQuery struct {
	Type       string
	CategoryID string
	Sort       string
	Page       int
	Limit      int
	From       *time.Time
	To         *time.Time
}

// Pagination describes the page returned by ListTransactions.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// TransactionPage is one page of transactions.
type TransactionPage struct {
	Transactions []model.Transaction
	Pagination   Pagination
}

// CreateTransaction stores a transaction and, for income in a savings
// category, distributes the amount across the user's active goals. A failed
// distribution does not fail the call.
func (s *Service) CreateTransaction(ctx context.Context, userID uuid.UUID, in TransactionInput) (*model.Transaction, error) {
	typ, err := model.ParseTransactionType(in.Type)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, model.NewValidationError("amount", "Transaction amount must be greater than zero.")
	}

	category, err := s.categories.Resolve(ctx, in.Category, typ, in.Icon)
	if err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		UserID:     userID,
		Type:       typ,
		CategoryID: category.ID,
		Category:   category,
		Amount:     in.Amount,
		Note:       in.Note,
		Date:       s.now(),
	}
	if in.Date != nil {
		tx.Date = *in.Date
	}
	savings := tx.IsSavingsIncome()
	if savings {
		tx.DistributedAmount = tx.Amount
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Transaction created",
		logging.FieldOperation, logging.OpCreate,
		logging.FieldUserID, userID,
		logging.FieldTxID, tx.ID,
		logging.FieldAmount, tx.Amount)
	if savings {
		s.distribute(ctx, tx, tx.Amount)
	}
	s.invalidate(ctx, userID)
	return tx, nil
}

// GetTransaction returns one of the user's transactions.
func (s *Service) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// ListTransactions returns a filtered, sorted page of the user's transactions.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, q TransactionQuery) (*TransactionPage, error) {
	var f store.TransactionFilter
	if q.Type != "" {
		typ, err := model.ParseTransactionType(q.Type)
		if err != nil {
			return nil, err
		}
		f.Type = typ
	}
	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return nil, model.NewValidationError("category", "Category must be a category id")
		}
		f.CategoryID = &id
	}
	sortBy, err := store.ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	f.Sort = sortBy
	f.From, f.To = q.From, q.To

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page-1 > math.MaxInt/limit {
		return nil, model.NewValidationError("page", "Page is out of range")
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	var (
		txs   []model.Transaction
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID, f)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountTransactions(gctx, userID, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &TransactionPage{
		Transactions: txs,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// UpdateTransaction applies p. A new category reference is resolved with the
// new type, or the stored one. When the result is savings income, only the
// part of the amount not distributed before is distributed now.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id uuid.UUID, p TransactionPatch) (*model.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Type != nil {
		typ, err := model.ParseTransactionType(*p.Type)
		if err != nil {
			return nil, err
		}
		tx.Type = typ
	}
	if p.Amount != nil {
		if *p.Amount <= 0 {
			return nil, model.NewValidationError("amount", "Transaction amount must be greater than zero.")
		}
		tx.Amount = *p.Amount
	}
	if p.Category != nil {
		icon := ""
		if p.Icon != nil {
			icon = *p.Icon
		}
		category, err := s.categories.Resolve(ctx, *p.Category, tx.Type, icon)
		if err != nil {
			return nil, err
		}
		tx.CategoryID = category.ID
		tx.Category = category
	}
	if p.Note != nil {
		tx.Note = *p.Note
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}

	var pending float64
	if tx.IsSavingsIncome() && tx.Amount > tx.DistributedAmount {
		pending = tx.Amount - tx.DistributedAmount
		tx.DistributedAmount = tx.Amount
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	s.logger.DebugContext(ctx, "Transaction updated",
		logging.FieldOperation, logging.OpUpdate,
		logging.FieldUserID, userID,
		logging.FieldTxID, tx.ID,
		logging.FieldAmount, tx.Amount)
	if pending > 0 {
		s.distribute(ctx, tx, pending)
	}
	s.invalidate(ctx, userID)
	return tx, nil
}

// DeleteTransaction removes a transaction. Amounts already distributed to
// goals stay there.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Transaction deleted",
		logging.FieldOperation, logging.OpDelete, logging.FieldUserID, userID, logging.FieldTxID, id)
	s.invalidate(ctx, userID)
	return nil
}

// Summary returns income and expense totals for q plus the current month
// budget.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID, q SummaryQuery) (*Summary, error) {
	key := "summary:" + model.MonthKey(s.now().In(s.loc)) + ":" + rangeKey(q.From, q.To)
	return cached(ctx, s, userID, key, func() (*Summary, error) {
		return s.aggregator.Summary(ctx, userID, q)
	})
}

// Trend returns transaction totals bucketed by q.Period.
func (s *Service) Trend(ctx context.Context, userID uuid.UUID, q TrendQuery) ([]TrendPoint, error) {
	if q.Period == "" {
		q.Period = PeriodMonthly
	}
	if _, err := ParsePeriod(string(q.Period)); err != nil {
		return nil, err
	}
	key := "trend:" + string(q.Period) + ":" + rangeKey(q.From, q.To)
	if q.From == nil && q.To == nil {
		// Implicit ranges move with the clock.
		from, to := ResolveDateRange(q.Period, nil, nil, s.now(), s.loc)
		key = "trend:" + string(q.Period) + ":" + rangeKey(from, to)
	}
	if q.CategoryID != nil {
		key += ":" + q.CategoryID.String()
	}
	return cached(ctx, s, userID, key, func() ([]TrendPoint, error) {
		return s.aggregator.Trend(ctx, userID, q)
	})
}

func rangeKey(from, to *time.Time) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return format(from) + ":" + format(to)
}
