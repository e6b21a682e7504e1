package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// Period selects the bucket granularity of a trend.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates s. Empty input selects PeriodMonthly.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodMonthly, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", model.NewValidationError("period", "Period must be one of daily, weekly, monthly")
}

// ResolveDateRange returns the [start, end) window of a report. Explicit
// bounds win over the period, and a single explicit bound leaves the other
// side open. Without bounds the window is the current day, the week starting
// on the most recent Monday, or the current calendar month, all in loc.
func ResolveDateRange(period Period, from, to *time.Time, now time.Time, loc *time.Location) (*time.Time, *time.Time) {
	if from != nil || to != nil {
		return from, to
	}

	now = now.In(loc)
	var start, end time.Time
	switch period {
	case PeriodDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		sinceMonday := (int(now.Weekday()) + 6) % 7
		start = time.Date(now.Year(), now.Month(), now.Day()-sinceMonday, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	}
	return &start, &end
}

// BucketKey formats t as the period-aligned key of its bucket in loc:
// 2006-01-02 for days, ISO year and week (2006-05) for weeks, 2006-01 for months.
func BucketKey(period Period, t time.Time, loc *time.Location) string {
	t = t.In(loc)
	switch period {
	case PeriodDaily:
		return t.Format("2006-01-02")
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}

// TypeCounts counts transactions per type.
type TypeCounts struct {
	Income  int `json:"income"`
	Expense int `json:"expense"`
}

// Summary totals a user's transactions and reports the current month budget.
type Summary struct {
	TotalIncome     float64    `json:"totalIncome"`
	TotalExpense    float64    `json:"totalExpense"`
	Balance         float64    `json:"balance"`
	Counts          TypeCounts `json:"counts"`
	Budget          *float64   `json:"budget"`
	ProgressPercent *int       `json:"progressPercent"`
}

// SummaryQuery bounds the summary totals. Both ends are optional.
type SummaryQuery struct {
	From *time.Time
	To   *time.Time
}

// TrendQuery selects the transactions of a trend.
type TrendQuery struct {
	Period     Period
	From       *time.Time
	To         *time.Time
	CategoryID *uuid.UUID
}

// TrendPoint is the total of one transaction type inside one bucket.
type TrendPoint struct {
	Bucket      string                `json:"bucket"`
	Type        model.TransactionType `json:"type"`
	TotalAmount float64               `json:"totalAmount"`
	Count       int                   `json:"count"`
}

// Aggregator computes summaries and trends over persisted transactions.
type Aggregator struct {
	transactions store.TransactionStore
	budgets      *BudgetTracker
	now          Clock
	loc          *time.Location
}

// NewAggregator creates an aggregator. budgets supplies the current month
// budget of summaries.
func NewAggregator(transactions store.TransactionStore, budgets *BudgetTracker, now Clock, loc *time.Location) *Aggregator {
	return &Aggregator{transactions: transactions, budgets: budgets, now: now, loc: loc}
}

// Summary totals the user's transactions inside q. The budget fields always
// describe the current month, whatever q selects.
func (a *Aggregator) Summary(ctx context.Context, userID uuid.UUID, q SummaryQuery) (*Summary, error) {
	var (
		totals   []store.TypeTotal
		progress *BudgetProgress
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = a.transactions.SumByType(gctx, userID, q.From, q.To)
		if err != nil {
			return fmt.Errorf("sum transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		progress, err = a.budgets.Progress(gctx, userID, model.MonthKey(a.now().In(a.loc)))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	income, expense := decimal.Zero, decimal.Zero
	s := &Summary{}
	for _, tt := range totals {
		switch tt.Type {
		case model.TransactionIncome:
			income = decimal.NewFromFloat(tt.Total)
			s.Counts.Income = tt.Count
		case model.TransactionExpense:
			expense = decimal.NewFromFloat(tt.Total)
			s.Counts.Expense = tt.Count
		}
	}
	s.TotalIncome = income.InexactFloat64()
	s.TotalExpense = expense.InexactFloat64()
	s.Balance = income.Sub(expense).InexactFloat64()

	if progress.Budget != nil {
		amount := progress.Budget.Amount
		s.Budget = &amount
		s.ProgressPercent = progress.ProgressPercent
	}
	return s, nil
}

// Trend groups the selected transactions by bucket and type, sorted by
// bucket then type.
func (a *Aggregator) Trend(ctx context.Context, userID uuid.UUID, q TrendQuery) ([]TrendPoint, error) {
	period := q.Period
	if period == "" {
		period = PeriodMonthly
	}
	from, to := ResolveDateRange(period, q.From, q.To, a.now(), a.loc)

	txs, err := a.transactions.ListTransactions(ctx, userID, store.TransactionFilter{
		CategoryID: q.CategoryID,
		From:       from,
		To:         to,
		Sort:       store.Sort{Field: "date"},
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	type key struct {
		bucket string
		typ    model.TransactionType
	}
	type acc struct {
		total decimal.Decimal
		count int
	}
	groups := make(map[key]*acc)
	for _, t := range txs {
		k := key{bucket: BucketKey(period, t.Date, a.loc), typ: t.Type}
		g, ok := groups[k]
		if !ok {
			g = &acc{total: decimal.Zero}
			groups[k] = g
		}
		g.total = g.total.Add(decimal.NewFromFloat(t.Amount))
		g.count++
	}

	points := make([]TrendPoint, 0, len(groups))
	for k, g := range groups {
		points = append(points, TrendPoint{
			Bucket:      k.bucket,
			Type:        k.typ,
			TotalAmount: g.total.InexactFloat64(),
			Count:       g.count,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Bucket != points[j].Bucket {
			return points[i].Bucket < points[j].Bucket
		}
		return points[i].Type < points[j].Type
	})
	return points, nil
}
