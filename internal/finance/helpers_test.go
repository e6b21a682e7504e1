package finance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
	"personal-finance-backend/internal/store/memory"
)

var (
	testLoc  = time.FixedZone("UTC+3", 3*60*60)
	testNow  = time.Date(2025, 4, 16, 12, 0, 0, 0, testLoc)
	testUser = uuid.MustParse("0d8f6a3e-5b2c-4e71-9f3a-7c1b2d4e5f60")
)

func fixedClock() time.Time { return testNow }

type recordingPublisher struct {
	mu        sync.Mutex
	completed []uuid.UUID
	failed    [][]uuid.UUID
}

func (p *recordingPublisher) PublishGoalCompleted(_ context.Context, g *model.Goal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, g.ID)
	return nil
}

func (p *recordingPublisher) PublishDistributionFailed(_ context.Context, _ uuid.UUID, _ float64, failed []uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, failed)
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingPublisher) {
	t.Helper()
	st := memory.New()
	pub := &recordingPublisher{}
	svc, err := NewService(st, Options{Clock: fixedClock, Location: testLoc, Publisher: pub})
	require.NoError(t, err)
	return svc, st, pub
}

func savingsCategory(t *testing.T, st *memory.Store) *model.Category {
	t.Helper()
	c, err := st.FindOrCreateCategory(context.Background(), &model.Category{
		Name:      "Savings",
		Type:      model.TransactionIncome,
		Icon:      "piggy-bank",
		IsSavings: true,
	})
	require.NoError(t, err)
	return c
}

func createGoal(t *testing.T, st store.GoalStore, name string, target, saved float64) *model.Goal {
	t.Helper()
	g := &model.Goal{
		UserID:       testUser,
		Name:         name,
		TargetAmount: target,
		SavedAmount:  saved,
		CategoryIcon: model.IconCar,
		Status:       model.GoalActive,
		Priority:     model.PriorityMedium,
	}
	require.NoError(t, st.CreateGoal(context.Background(), g))
	return g
}

// mockGoalStore lets tests fail individual goal updates.
type mockGoalStore struct {
	mock.Mock
}

func (m *mockGoalStore) CreateGoal(ctx context.Context, g *model.Goal) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockGoalStore) GetGoal(ctx context.Context, userID, id uuid.UUID) (*model.Goal, error) {
	args := m.Called(ctx, userID, id)
	g, _ := args.Get(0).(*model.Goal)
	return g, args.Error(1)
}

func (m *mockGoalStore) ListGoals(ctx context.Context, userID uuid.UUID, f store.GoalFilter) ([]model.Goal, error) {
	args := m.Called(ctx, userID, f)
	goals, _ := args.Get(0).([]model.Goal)
	return goals, args.Error(1)
}

func (m *mockGoalStore) UpdateGoal(ctx context.Context, g *model.Goal) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockGoalStore) DeleteGoal(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockGoalStore) AddToGoal(ctx context.Context, userID, id uuid.UUID, amount float64) (*model.Goal, error) {
	args := m.Called(ctx, userID, id, amount)
	g, _ := args.Get(0).(*model.Goal)
	return g, args.Error(1)
}

func (m *mockGoalStore) GoalRollup(ctx context.Context, userID uuid.UUID) ([]store.StatusRollup, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]store.StatusRollup)
	return r, args.Error(1)
}
