package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"personal-finance-backend/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Postgres implements Store on a database/sql handle opened with the pgx
// stdlib driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.NotFound(entity)
	}
	return nil
}

// Categories

const categoryColumns = `id, name, type, icon, is_savings, created_at`

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.IsSavings, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategory returns a category by id.
func (p *Postgres) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("category")
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// FindCategoryByName matches names case-insensitively, ignoring surrounding spaces.
func (p *Postgres) FindCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE lower(btrim(name)) = lower(btrim($1))
		ORDER BY created_at
		LIMIT 1`

	c, err := scanCategory(p.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("category")
	}
	if err != nil {
		return nil, fmt.Errorf("query category by name: %w", err)
	}
	return c, nil
}

// FindOrCreateCategory relies on the unique name index: a concurrent insert of
// the same name is ignored and the winning row is read back.
func (p *Postgres) FindOrCreateCategory(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, icon, is_savings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		c.ID, model.NormalizeCategoryName(c.Name), string(c.Type), c.Icon, c.IsSavings, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		slog.DebugContext(ctx, "created category", "name", c.Name, "type", c.Type)
	}

	return p.FindCategoryByName(ctx, c.Name)
}

// ListCategories returns all categories ordered by name.
func (p *Postgres) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// DeleteCategories removes every category no transaction references.
func (p *Postgres) DeleteCategories(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM categories
		WHERE id NOT IN (SELECT DISTINCT category_id FROM transactions)`)
	if err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	return nil
}

// Transactions

const transactionSelect = `
	SELECT t.id, t.user_id, t.type, t.category_id, t.amount, t.note, t.date, t.distributed_amount, t.created_at,
	       c.id, c.name, c.type, c.icon, c.is_savings, c.created_at
	FROM transactions t
	JOIN categories c ON c.id = t.category_id`

var sortColumns = map[string]string{
	"date":      "t.date",
	"amount":    "t.amount",
	"createdAt": "t.created_at",
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		t model.Transaction
		c model.Category
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.CategoryID, &t.Amount, &t.Note, &t.Date, &t.DistributedAmount, &t.CreatedAt,
		&c.ID, &c.Name, &c.Type, &c.Icon, &c.IsSavings, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category = &c
	return &t, nil
}

func transactionWhere(userID uuid.UUID, f TransactionFilter) (string, []any) {
	clauses := []string{"t.user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(cond, len(args)))
	}

	if f.Type != "" {
		add("t.type = $%d", string(f.Type))
	}
	if f.CategoryID != nil {
		add("t.category_id = $%d", *f.CategoryID)
	}
	if f.From != nil {
		add("t.date >= $%d", *f.From)
	}
	if f.To != nil {
		add("t.date < $%d", *f.To)
	}
	return strings.Join(clauses, " AND "), args
}

func orderBy(s Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		s = DefaultSort
		col = sortColumns[s.Field]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, t.id %s", col, dir, dir)
}

// CreateTransaction inserts t, assigning an id when missing.
func (p *Postgres) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, category_id, amount, note, date, distributed_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, string(t.Type), t.CategoryID, t.Amount, t.Note, t.Date, t.DistributedAmount, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransaction returns one of the user's transactions.
func (p *Postgres) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error) {
	row := p.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = $1 AND t.user_id = $2`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction stores the mutable fields of t.
func (p *Postgres) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = $3, category_id = $4, amount = $5, note = $6, date = $7, distributed_amount = $8
		WHERE id = $1 AND user_id = $2`,
		t.ID, t.UserID, string(t.Type), t.CategoryID, t.Amount, t.Note, t.Date, t.DistributedAmount,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectAffected(res, "transaction")
}

// DeleteTransaction removes one of the user's transactions.
func (p *Postgres) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectAffected(res, "transaction")
}

// ListTransactions returns the user's transactions matching f.
func (p *Postgres) ListTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]model.Transaction, error) {
	where, args := transactionWhere(userID, f)
	query := transactionSelect + ` WHERE ` + where + ` ORDER BY ` + orderBy(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	// ensure empty array ([]) instead of null when no rows
	transactions := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

// CountTransactions counts the user's transactions matching f, ignoring paging.
func (p *Postgres) CountTransactions(ctx context.Context, userID uuid.UUID, f TransactionFilter) (int, error) {
	where, args := transactionWhere(userID, f)
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// SumByType totals amounts per transaction type within [from, to).
func (p *Postgres) SumByType(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]TypeTotal, error) {
	where, args := transactionWhere(userID, TransactionFilter{From: from, To: to})
	query := `
		SELECT lower(t.type), COALESCE(SUM(t.amount), 0), COUNT(*)
		FROM transactions t
		WHERE ` + where + `
		GROUP BY lower(t.type)`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}
	defer rows.Close()

	var totals []TypeTotal
	for rows.Next() {
		var tt TypeTotal
		if err := rows.Scan(&tt.Type, &tt.Total, &tt.Count); err != nil {
			return nil, fmt.Errorf("scan transaction totals: %w", err)
		}
		totals = append(totals, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction totals: %w", err)
	}
	return totals, nil
}

// Budgets

const budgetColumns = `id, user_id, month, amount, created_at, updated_at`

func scanBudget(row rowScanner) (*model.Budget, error) {
	var b model.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertBudget creates the (user, month) budget or overwrites its amount.
func (p *Postgres) UpsertBudget(ctx context.Context, userID uuid.UUID, month string, amount float64) (*model.Budget, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO budgets (id, user_id, month, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, month) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = CURRENT_TIMESTAMP
		RETURNING `+budgetColumns,
		uuid.New(), userID, month, amount,
	)
	b, err := scanBudget(row)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return b, nil
}

func (p *Postgres) queryBudget(ctx context.Context, query string, args ...any) (*model.Budget, error) {
	b, err := scanBudget(p.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("budget")
	}
	if err != nil {
		return nil, fmt.Errorf("query budget: %w", err)
	}
	return b, nil
}

// GetBudget returns one of the user's budgets.
func (p *Postgres) GetBudget(ctx context.Context, userID, id uuid.UUID) (*model.Budget, error) {
	return p.queryBudget(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
}

// GetBudgetByMonth returns the user's budget for a YYYY-MM month.
func (p *Postgres) GetBudgetByMonth(ctx context.Context, userID uuid.UUID, month string) (*model.Budget, error) {
	return p.queryBudget(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND month = $2`, userID, month)
}

// ListBudgets returns the user's budgets, newest month first.
func (p *Postgres) ListBudgets(ctx context.Context, userID uuid.UUID, month string) ([]model.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	args := []any{userID}
	if month != "" {
		query += ` AND month = $2`
		args = append(args, month)
	}
	query += ` ORDER BY month DESC`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]model.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget stores month and amount. Moving onto a month that already has
// a budget yields ErrConflict.
func (p *Postgres) UpdateBudget(ctx context.Context, b *model.Budget) error {
	row := p.db.QueryRowContext(ctx, `
		UPDATE budgets SET month = $3, amount = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`,
		b.ID, b.UserID, b.Month, b.Amount,
	)
	err := row.Scan(&b.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.NotFound("budget")
	case isUniqueViolation(err):
		return fmt.Errorf("budget for %s already exists: %w", b.Month, model.ErrConflict)
	case err != nil:
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// DeleteBudget removes one of the user's budgets.
func (p *Postgres) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectAffected(res, "budget")
}

// Goals

const goalColumns = `id, user_id, name, description, target_amount, saved_amount, due_date,
	category_icon, status, priority, created_at, updated_at`

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		g   model.Goal
		due sql.NullTime
	)
	err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &g.Description, &g.TargetAmount, &g.SavedAmount, &due,
		&g.CategoryIcon, &g.Status, &g.Priority, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		g.DueDate = &due.Time
	}
	return &g, nil
}

// CreateGoal inserts g, assigning an id and timestamps.
func (p *Postgres) CreateGoal(ctx context.Context, g *model.Goal) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, description, target_amount, saved_amount, due_date,
			category_icon, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		g.ID, g.UserID, g.Name, g.Description, g.TargetAmount, g.SavedAmount, nullTime(g.DueDate),
		string(g.CategoryIcon), string(g.Status), string(g.Priority), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// GetGoal returns one of the user's goals.
func (p *Postgres) GetGoal(ctx context.Context, userID, id uuid.UUID) (*model.Goal, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("goal")
	}
	if err != nil {
		return nil, fmt.Errorf("query goal: %w", err)
	}
	return g, nil
}

// ListGoals returns the user's goals matching f, newest first.
func (p *Postgres) ListGoals(ctx context.Context, userID uuid.UUID, f GoalFilter) ([]model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1`
	args := []any{userID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Priority != "" {
		args = append(args, string(f.Priority))
		query += fmt.Sprintf(` AND priority = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal stores the mutable fields of g.
func (p *Postgres) UpdateGoal(ctx context.Context, g *model.Goal) error {
	row := p.db.QueryRowContext(ctx, `
		UPDATE goals
		SET name = $3, description = $4, target_amount = $5, saved_amount = $6, due_date = $7,
			category_icon = $8, status = $9, priority = $10, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`,
		g.ID, g.UserID, g.Name, g.Description, g.TargetAmount, g.SavedAmount, nullTime(g.DueDate),
		string(g.CategoryIcon), string(g.Status), string(g.Priority),
	)
	err := row.Scan(&g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound("goal")
	}
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// DeleteGoal removes one of the user's goals.
func (p *Postgres) DeleteGoal(ctx context.Context, userID, id uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectAffected(res, "goal")
}

// AddToGoal performs the addition and the completion check in one statement,
// so concurrent additions to the same goal cannot lose updates.
func (p *Postgres) AddToGoal(ctx context.Context, userID, id uuid.UUID, amount float64) (*model.Goal, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE goals
		SET saved_amount = saved_amount + $3,
			status = CASE WHEN saved_amount + $3 >= target_amount THEN 'completed' ELSE status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		RETURNING `+goalColumns,
		id, userID, amount,
	)
	g, err := scanGoal(row)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("add to goal: %w", err)
	}

	// Nothing matched: either the goal does not exist or it is not active.
	if _, err := p.GetGoal(ctx, userID, id); err != nil {
		return nil, err
	}
	return nil, model.ErrGoalInactive
}

// GoalRollup groups the user's goals by status.
func (p *Postgres) GoalRollup(ctx context.Context, userID uuid.UUID) ([]StatusRollup, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(target_amount), 0), COALESCE(SUM(saved_amount), 0)
		FROM goals
		WHERE user_id = $1
		GROUP BY status
		ORDER BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("query goal rollup: %w", err)
	}
	defer rows.Close()

	rollup := make([]StatusRollup, 0)
	for rows.Next() {
		var r StatusRollup
		if err := rows.Scan(&r.Status, &r.Count, &r.TotalTarget, &r.TotalSaved); err != nil {
			return nil, fmt.Errorf("scan goal rollup: %w", err)
		}
		rollup = append(rollup, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal rollup: %w", err)
	}
	return rollup, nil
}

// PurgeUser deletes the user's transactions, budgets and goals atomically.
func (p *Postgres) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purge: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"transactions", "budgets", "goals"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit purge: %w", err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)
