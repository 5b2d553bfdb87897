package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T) *Store {
	t.Helper()
	dsn := getTestDSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `truncate table transactions, assets, liabilities, users cascade`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func usd(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return a
}

func seedUser(t *testing.T, ctx context.Context, s *Store, email string) ledger.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Name: "Test", Email: email, Active: true, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestStore_Users(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	u := seedUser(t, ctx, s, "Owner@Example.com")

	got, err := s.GetUserByEmail(ctx, "owner@example.COM")
	if err != nil || got.ID != u.ID {
		t.Fatalf("by email: %+v %v", got, err)
	}
	if _, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Email: "owner@example.com"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if _, err := s.GetUser(ctx, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestStore_HoldingsAndTransactions(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()
	u := seedUser(t, ctx, s, "holder@example.com")
	now := time.Now().UTC().Truncate(time.Microsecond)

	bank := ledger.Asset{ID: uuid.New(), UserID: u.ID, Name: "Checking", Kind: ledger.AssetBankAccount, Currency: "USD",
		CurrentValue: usd(t, 100000), BaseValue: usd(t, 100000), IsLiquid: true, LastUpdated: now, CreatedAt: now}
	if _, err := s.CreateAsset(ctx, bank); err != nil {
		t.Fatalf("create asset: %v", err)
	}
	limit := usd(t, 500000)
	rate := 19.9
	card := ledger.Liability{ID: uuid.New(), UserID: u.ID, Name: "Visa", Kind: ledger.LiabilityCreditCard, Currency: "USD",
		CurrentBalance: usd(t, 0), BaseBalance: usd(t, 0), CreditLimit: &limit, InterestRate: &rate, LastUpdated: now, CreatedAt: now}
	if _, err := s.CreateLiability(ctx, card); err != nil {
		t.Fatalf("create liability: %v", err)
	}

	bankID := bank.ID
	for i, kind := range []ledger.TransactionKind{ledger.KindExpense, ledger.KindIncome, ledger.KindExpense} {
		tx := ledger.Transaction{ID: uuid.New(), UserID: u.ID, Date: now.AddDate(0, 0, -i), Amount: usd(t, int64(1000*(i+1))),
			Category: "Food", Kind: kind, PaymentMethod: ledger.PaymentBankAccount, SourceAssetID: &bankID, CreatedAt: now}
		if _, err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create tx: %v", err)
		}
	}

	list, err := s.ListTransactions(ctx, u.ID, ledger.TransactionFilter{Category: "FOOD", SourceAssetID: &bankID})
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %d %v", len(list), err)
	}
	if !list[0].Date.Before(list[2].Date) {
		t.Fatalf("expected ascending dates")
	}
	sum, err := s.SumTransactions(ctx, u.ID, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	// -10 + 20 - 30
	if sum.String() != "-20.00" {
		t.Fatalf("sum = %s", sum)
	}

	bank.CurrentValue = usd(t, 80000)
	if _, err := s.UpdateAsset(ctx, bank); err != nil {
		t.Fatalf("update asset: %v", err)
	}
	gotA, err := s.GetAsset(ctx, u.ID, bank.ID)
	if err != nil || gotA.CurrentValue.Decimal().String() != "800.00" {
		t.Fatalf("get asset: %+v %v", gotA, err)
	}
	gotL, err := s.GetLiability(ctx, u.ID, card.ID)
	if err != nil || gotL.CreditLimit == nil || gotL.InterestRate == nil || *gotL.InterestRate != rate {
		t.Fatalf("get liability: %+v %v", gotL, err)
	}

	// Deleting a holding leaves transactions naming it in place.
	if err := s.DeleteAsset(ctx, u.ID, bank.ID); err != nil {
		t.Fatalf("delete asset: %v", err)
	}
	list, _ = s.ListTransactions(ctx, u.ID, ledger.TransactionFilter{})
	if len(list) != 3 {
		t.Fatalf("transactions after asset delete = %d", len(list))
	}
	if err := s.DeleteTransaction(ctx, u.ID, list[0].ID); err != nil {
		t.Fatalf("delete tx: %v", err)
	}
	if err := s.DeleteTransaction(ctx, u.ID, list[0].ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
