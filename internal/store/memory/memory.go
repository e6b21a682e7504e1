// Package memory provides an in-process Store used for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// Store implements store.Store with maps guarded by a RWMutex.
type Store struct {
	mu sync.RWMutex

	categories   map[uuid.UUID]*model.Category
	transactions map[uuid.UUID]*model.Transaction
	budgets      map[uuid.UUID]*model.Budget
	goals        map[uuid.UUID]*model.Goal

	// now stamps records; tests may replace it.
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		categories:   make(map[uuid.UUID]*model.Category),
		transactions: make(map[uuid.UUID]*model.Transaction),
		budgets:      make(map[uuid.UUID]*model.Budget),
		goals:        make(map[uuid.UUID]*model.Goal),
		now:          time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Categories

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, model.NotFound("category")
	}
	cp := *c
	return &cp, nil
}

func (s *Store) findByNameLocked(name string) *model.Category {
	key := model.CategoryKey(name)
	var found *model.Category
	for _, c := range s.categories {
		if model.CategoryKey(c.Name) != key {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	return found
}

func (s *Store) FindCategoryByName(_ context.Context, name string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.findByNameLocked(name)
	if c == nil {
		return nil, model.NotFound("category")
	}
	cp := *c
	return &cp, nil
}

func (s *Store) FindOrCreateCategory(_ context.Context, c *model.Category) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findByNameLocked(c.Name); existing != nil {
		cp := *existing
		return &cp, nil
	}

	created := *c
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = s.now()
	}
	created.Name = model.NormalizeCategoryName(created.Name)
	s.categories[created.ID] = &created

	cp := created
	return &cp, nil
}

func (s *Store) ListCategories(context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCategories(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[uuid.UUID]bool)
	for _, t := range s.transactions {
		used[t.CategoryID] = true
	}
	for id := range s.categories {
		if !used[id] {
			delete(s.categories, id)
		}
	}
	return nil
}

// Transactions

// populateLocked returns a copy of t with its category attached.
func (s *Store) populateLocked(t *model.Transaction) model.Transaction {
	cp := *t
	if c, ok := s.categories[t.CategoryID]; ok {
		cat := *c
		cp.Category = &cat
	}
	return cp
}

func (s *Store) CreateTransaction(_ context.Context, t *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[t.CategoryID]; !ok {
		return fmt.Errorf("insert transaction: unknown category %s", t.CategoryID)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	stored := *t
	stored.Category = nil
	s.transactions[t.ID] = &stored
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id uuid.UUID) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, model.NotFound("transaction")
	}
	out := s.populateLocked(t)
	return &out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return model.NotFound("transaction")
	}
	if _, ok := s.categories[t.CategoryID]; !ok {
		return fmt.Errorf("update transaction: unknown category %s", t.CategoryID)
	}
	existing.Type = t.Type
	existing.CategoryID = t.CategoryID
	existing.Amount = t.Amount
	existing.Note = t.Note
	existing.Date = t.Date
	existing.DistributedAmount = t.DistributedAmount
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return model.NotFound("transaction")
	}
	delete(s.transactions, id)
	return nil
}

func matches(t *model.Transaction, userID uuid.UUID, f store.TransactionFilter) bool {
	switch {
	case t.UserID != userID:
		return false
	case f.Type != "" && t.Type != f.Type:
		return false
	case f.CategoryID != nil && t.CategoryID != *f.CategoryID:
		return false
	case f.From != nil && t.Date.Before(*f.From):
		return false
	case f.To != nil && !t.Date.Before(*f.To):
		return false
	}
	return true
}

func less(a, b *model.Transaction, s store.Sort) bool {
	var cmp int
	switch s.Field {
	case "amount":
		cmp = compareFloat(a.Amount, b.Amount)
	case "createdAt":
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	default:
		cmp = a.Date.Compare(b.Date)
	}
	if cmp == 0 {
		cmp = compareID(a.ID, b.ID)
	}
	if s.Desc {
		return cmp > 0
	}
	return cmp < 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareID(a, b uuid.UUID) int {
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID, f store.TransactionFilter) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sortBy := f.Sort
	if sortBy.Field == "" {
		sortBy = store.DefaultSort
	}

	var selected []*model.Transaction
	for _, t := range s.transactions {
		if matches(t, userID, f) {
			selected = append(selected, t)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return less(selected[i], selected[j], sortBy) })

	if f.Offset > 0 {
		if f.Offset >= len(selected) {
			selected = nil
		} else {
			selected = selected[f.Offset:]
		}
	}
	if f.Limit > 0 && len(selected) > f.Limit {
		selected = selected[:f.Limit]
	}

	out := make([]model.Transaction, 0, len(selected))
	for _, t := range selected {
		out = append(out, s.populateLocked(t))
	}
	return out, nil
}

func (s *Store) CountTransactions(_ context.Context, userID uuid.UUID, f store.TransactionFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.transactions {
		if matches(t, userID, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SumByType(_ context.Context, userID uuid.UUID, from, to *time.Time) ([]store.TypeTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := make(map[model.TransactionType]*store.TypeTotal)
	f := store.TransactionFilter{From: from, To: to}
	for _, t := range s.transactions {
		if !matches(t, userID, f) {
			continue
		}
		tt, ok := byType[t.Type]
		if !ok {
			tt = &store.TypeTotal{Type: t.Type}
			byType[t.Type] = tt
		}
		tt.Total += t.Amount
		tt.Count++
	}

	totals := make([]store.TypeTotal, 0, len(byType))
	for _, tt := range byType {
		totals = append(totals, *tt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Type < totals[j].Type })
	return totals, nil
}

// Budgets

func (s *Store) UpsertBudget(_ context.Context, userID uuid.UUID, month string, amount float64) (*model.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month {
			b.Amount = amount
			b.UpdatedAt = now
			cp := *b
			return &cp, nil
		}
	}

	b := &model.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Month:     month,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.budgets[b.ID] = b
	cp := *b
	return &cp, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id uuid.UUID) (*model.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, model.NotFound("budget")
	}
	cp := *b
	return &cp, nil
}

func (s *Store) GetBudgetByMonth(_ context.Context, userID uuid.UUID, month string) (*model.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month {
			cp := *b
			return &cp, nil
		}
	}
	return nil, model.NotFound("budget")
}

func (s *Store) ListBudgets(_ context.Context, userID uuid.UUID, month string) ([]model.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID && (month == "" || b.Month == month) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b *model.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return model.NotFound("budget")
	}
	for id, other := range s.budgets {
		if id != b.ID && other.UserID == b.UserID && other.Month == b.Month {
			return fmt.Errorf("budget for %s already exists: %w", b.Month, model.ErrConflict)
		}
	}
	existing.Month = b.Month
	existing.Amount = b.Amount
	existing.UpdatedAt = s.now()
	b.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return model.NotFound("budget")
	}
	delete(s.budgets, id)
	return nil
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g *model.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := s.now()
	g.CreatedAt, g.UpdatedAt = now, now
	cp := *g
	s.goals[g.ID] = &cp
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id uuid.UUID) (*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return nil, model.NotFound("goal")
	}
	cp := *g
	return &cp, nil
}

func (s *Store) ListGoals(_ context.Context, userID uuid.UUID, f store.GoalFilter) ([]model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Goal, 0)
	for _, g := range s.goals {
		if g.UserID != userID ||
			(f.Status != "" && g.Status != f.Status) ||
			(f.Priority != "" && g.Priority != f.Priority) {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return compareID(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g *model.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return model.NotFound("goal")
	}
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = s.now()
	cp := *g
	s.goals[g.ID] = &cp
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return model.NotFound("goal")
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) AddToGoal(_ context.Context, userID, id uuid.UUID, amount float64) (*model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return nil, model.NotFound("goal")
	}
	if g.Status != model.GoalActive {
		return nil, model.ErrGoalInactive
	}
	g.AddSaved(amount)
	g.UpdatedAt = s.now()
	cp := *g
	return &cp, nil
}

func (s *Store) GoalRollup(_ context.Context, userID uuid.UUID) ([]store.StatusRollup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[model.GoalStatus]*store.StatusRollup)
	for _, g := range s.goals {
		if g.UserID != userID {
			continue
		}
		r, ok := byStatus[g.Status]
		if !ok {
			r = &store.StatusRollup{Status: g.Status}
			byStatus[g.Status] = r
		}
		r.Count++
		r.TotalTarget += g.TargetAmount
		r.TotalSaved += g.SavedAmount
	}

	out := make([]store.StatusRollup, 0, len(byStatus))
	for _, r := range byStatus {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *Store) PurgeUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.transactions {
		if t.UserID == userID {
			delete(s.transactions, id)
		}
	}
	for id, b := range s.budgets {
		if b.UserID == userID {
			delete(s.budgets, id)
		}
	}
	for id, g := range s.goals {
		if g.UserID == userID {
			delete(s.goals, id)
		}
	}
	return nil
}

var _ store.Store = (*Store)(nil)
