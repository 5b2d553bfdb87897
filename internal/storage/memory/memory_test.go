package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

func mustAmount(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	if err != nil { t.Fatalf("amount: %v", err) }
	return a
}

func TestCreateUser_EmailUniqueCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Email: "Ana@Example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Email: " ana@example.COM"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	u, err := s.GetUserByEmail(ctx, "ANA@example.com")
	if err != nil || u.Email != "ana@example.com" {
		t.Fatalf("lookup: %+v %v", u, err)
	}
}

func TestListTransactions_OrderAndRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := uuid.New()
	s.SeedUser(ledger.User{ID: userID})
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

	ids := map[int]uuid.UUID{}
	for _, d := range []int{5, 1, 3} {
		tx := ledger.Transaction{ID: uuid.New(), UserID: userID, Date: day(d), Amount: mustAmount(t, int64(d)*100), Kind: ledger.KindExpense}
		if _, err := s.CreateTransaction(ctx, tx); err != nil { t.Fatalf("create: %v", err) }
		ids[d] = tx.ID
	}

	all, _ := s.ListTransactions(ctx, userID, ledger.TransactionFilter{})
	if len(all) != 3 || all[0].ID != ids[1] || all[2].ID != ids[5] {
		t.Fatalf("unexpected order: %+v", all)
	}

	from, to := day(2), day(5)
	ranged, _ := s.ListTransactions(ctx, userID, ledger.TransactionFilter{From: &from, To: &to})
	if len(ranged) != 2 || ranged[0].ID != ids[3] {
		t.Fatalf("unexpected range: %+v", ranged)
	}

	// Moving a transaction's date moves it in the index.
	moved := all[0]
	moved.Date = day(9)
	if _, err := s.UpdateTransaction(ctx, moved); err != nil { t.Fatalf("update: %v", err) }
	all, _ = s.ListTransactions(ctx, userID, ledger.TransactionFilter{})
	if all[2].ID != ids[1] {
		t.Fatalf("moved transaction not last: %+v", all)
	}

	sum, err := s.SumTransactions(ctx, userID, ledger.TransactionFilter{})
	if err != nil { t.Fatalf("sum: %v", err) }
	if sum.String() != "-9.00" {
		t.Fatalf("sum = %s, want -9.00", sum)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	s.SeedUser(ledger.User{ID: owner})
	s.SeedUser(ledger.User{ID: other})
	a := ledger.Asset{ID: uuid.New(), UserID: owner, Name: "Cash", Kind: ledger.AssetOther, Currency: "USD", CurrentValue: mustAmount(t, 100)}
	if _, err := s.CreateAsset(ctx, a); err != nil { t.Fatalf("create: %v", err) }

	if _, err := s.GetAsset(ctx, other, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign get: %v", err)
	}
	if err := s.DeleteAsset(ctx, other, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if _, err := s.CreateAsset(ctx, ledger.Asset{ID: uuid.New(), UserID: uuid.New()}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
	list, _ := s.ListAssets(ctx, owner)
	if len(list) != 1 {
		t.Fatalf("list = %d", len(list))
	}
}
