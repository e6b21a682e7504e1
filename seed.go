package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"personal-finance-backend/internal/finance"
	"personal-finance-backend/internal/logging"
	"personal-finance-backend/internal/model"
	"personal-finance-backend/internal/store"
)

// demoUserID owns the demo data unless --user is given.
var demoUserID = uuid.MustParse("00000000-0000-4000-8000-000000000001")

func parseUserFlag(s string) (uuid.UUID, error) {
	if s == "" {
		return demoUserID, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", s, err)
	}
	return id, nil
}

func seedDemoCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert demo categories, transactions, a budget and a goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePersistentBackend(cfg, "seed-demo"); err != nil {
				return err
			}
			userID, err := parseUserFlag(user)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			seeded, err := seedDemoData(cmd.Context(), a.service, a.store, userID)
			if err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}
			if !seeded {
				slog.Info("Demo data already present, skipping", logging.FieldUserID, userID)
				return nil
			}
			slog.Info("Demo data seeded", logging.FieldOperation, logging.OpSeed, logging.FieldUserID, userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id to seed (defaults to the demo user)")
	return cmd
}

func purgeCmd() *cobra.Command {
	var (
		user string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete a user's transactions, budgets and goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePersistentBackend(cfg, "purge"); err != nil {
				return err
			}
			userID, err := parseUserFlag(user)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.service.PurgeUser(cmd.Context(), userID, all); err != nil {
				return fmt.Errorf("failed to purge: %w", err)
			}
			slog.Info("Purged user data", logging.FieldUserID, userID, "categories", all)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id to purge (defaults to the demo user)")
	cmd.Flags().BoolVar(&all, "all", false, "also remove categories no transaction references")
	return cmd
}

type demoCategory struct {
	name      string
	txType    model.TransactionType
	icon      string
	isSavings bool
}

var demoCategories = []demoCategory{
	{"Salary", model.TransactionIncome, "salary", false},
	{"Savings", model.TransactionIncome, "piggy-bank", true},
	{"Groceries", model.TransactionExpense, "cart", false},
	{"Rent", model.TransactionExpense, "home", false},
	{"Transport", model.TransactionExpense, "bus", false},
	{"Food", model.TransactionExpense, "utensils", false},
}

// seedDemoData fills an empty account with demo data. It reports false
// without changes when the user already has transactions.
func seedDemoData(ctx context.Context, svc *finance.Service, st store.CategoryStore, userID uuid.UUID) (bool, error) {
	page, err := svc.ListTransactions(ctx, userID, finance.TransactionQuery{Limit: 1})
	if err != nil {
		return false, err
	}
	if page.Pagination.Total > 0 {
		return false, nil
	}

	for _, dc := range demoCategories {
		c := &model.Category{Name: dc.name, Type: dc.txType, Icon: dc.icon, IsSavings: dc.isSavings}
		existing, err := st.FindOrCreateCategory(ctx, c)
		if err != nil {
			return false, fmt.Errorf("category %s: %w", dc.name, err)
		}
		if dc.isSavings && !existing.IsSavings {
			return false, fmt.Errorf("category %s exists but is not a savings category", dc.name)
		}
	}

	loc := svc.Location()
	now := time.Now().In(loc)

	// The goal exists before the savings deposit so the deposit reaches it.
	due := time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, loc)
	if _, err := svc.CreateGoal(ctx, userID, finance.GoalInput{
		Name:         "Car Down Payment",
		Description:  "Save for a reliable used car",
		TargetAmount: 15000,
		SavedAmount:  5000,
		DueDate:      &due,
		CategoryIcon: "car",
		Priority:     string(model.PriorityHigh),
	}); err != nil {
		return false, fmt.Errorf("goal: %w", err)
	}

	day := func(offset int) *time.Time {
		d := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, loc).AddDate(0, 0, -offset)
		return &d
	}
	txs := []finance.TransactionInput{
		{Type: string(model.TransactionIncome), Category: "Salary", Amount: 30000, Note: "Monthly salary", Date: day(0)},
		{Type: string(model.TransactionExpense), Category: "Rent", Amount: 8000, Note: "Apartment rent", Date: day(0)},
		{Type: string(model.TransactionExpense), Category: "Groceries", Amount: 1200, Note: "Weekly groceries", Date: day(1)},
		{Type: string(model.TransactionExpense), Category: "Transport", Amount: 300, Note: "Bus card top-up", Date: day(2)},
		{Type: string(model.TransactionExpense), Category: "Food", Amount: 450, Note: "Dinner out", Date: day(3)},
		{Type: string(model.TransactionIncome), Category: "Savings", Amount: 1000, Note: "Savings deposit", Date: day(0)},
	}
	for _, in := range txs {
		if _, err := svc.CreateTransaction(ctx, userID, in); err != nil {
			return false, fmt.Errorf("transaction %q: %w", in.Note, err)
		}
	}

	if _, err := svc.CreateBudget(ctx, userID, model.MonthKey(now), 20000); err != nil {
		return false, fmt.Errorf("budget: %w", err)
	}
	return true, nil
}
