package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func usd(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	require.NoError(t, err)
	return a
}

func seedUser(t *testing.T, s *Store) ledger.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := s.CreateUser(context.Background(), ledger.User{ID: uuid.New(), Name: "Ana", Email: uuid.NewString() + "@example.com",
		Active: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	return u
}

func TestMigrate_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wealth.db")
	ctx := context.Background()
	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	var version int
	require.NoError(t, s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)
	assert.NoError(t, s.Ready(ctx))
}

func TestUsers(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := seedUser(t, s)

	got, err := s.GetUserByEmail(ctx, " "+u.Email+" ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.Active)
	assert.True(t, got.CreatedAt.Equal(u.CreatedAt))

	_, err = s.CreateUser(ctx, ledger.User{ID: uuid.New(), Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTransactions_FilterOrderSum(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := seedUser(t, s)
	base := time.Date(2025, 4, 1, 9, 30, 0, 123, time.UTC)
	assetID := uuid.New()

	var ids []uuid.UUID
	for i, c := range []struct {
		kind ledger.TransactionKind
		cat  string
		amt  int64
	}{
		{ledger.KindIncome, "Salary", 300000},
		{ledger.KindExpense, "Food", 4500},
		{ledger.KindExpense, "food", 5500},
	} {
		tx := ledger.Transaction{ID: uuid.New(), UserID: u.ID, Date: base.AddDate(0, 0, i), Amount: usd(t, c.amt),
			Category: c.cat, Kind: c.kind, CreatedAt: base}
		if i == 2 {
			tx.PaymentMethod = ledger.PaymentBankAccount
			tx.SourceAssetID = &assetID
		}
		_, err := s.CreateTransaction(ctx, tx)
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	food, err := s.ListTransactions(ctx, u.ID, ledger.TransactionFilter{Category: "FOOD"})
	require.NoError(t, err)
	require.Len(t, food, 2)
	assert.Equal(t, ids[1], food[0].ID)

	linked, err := s.ListTransactions(ctx, u.ID, ledger.TransactionFilter{SourceAssetID: &assetID})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.NotNil(t, linked[0].SourceAssetID)
	assert.Equal(t, assetID, *linked[0].SourceAssetID)
	assert.Nil(t, linked[0].SourceLiabilityID)
	assert.True(t, linked[0].Date.Equal(base.AddDate(0, 0, 2)))

	from, to := base.AddDate(0, 0, 1), base.AddDate(0, 0, 1)
	day, err := s.ListTransactions(ctx, u.ID, ledger.TransactionFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, day, 1)

	sum, err := s.SumTransactions(ctx, u.ID, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2900.00", sum.String())

	expenses, err := s.SumTransactions(ctx, u.ID, ledger.Since(ledger.KindExpense, base))
	require.NoError(t, err)
	assert.Equal(t, "-100.00", expenses.String())

	moved := linked[0]
	moved.SourceAssetID = nil
	moved.Amount = usd(t, 100)
	_, err = s.UpdateTransaction(ctx, moved)
	require.NoError(t, err)
	got, err := s.GetTransaction(ctx, u.ID, moved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SourceAssetID)
	assert.Equal(t, "1.00", got.Amount.Decimal().String())

	require.NoError(t, s.DeleteTransaction(ctx, u.ID, moved.ID))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, u.ID, moved.ID), errs.ErrNotFound)
}

func TestHoldings(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	u := seedUser(t, s)
	now := time.Now().UTC()
	purchase := usd(t, 2000000)
	bought := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	a := ledger.Asset{ID: uuid.New(), UserID: u.ID, Name: "Car", Kind: ledger.AssetVehicle, Currency: "USD",
		CurrentValue: usd(t, 1500000), BaseValue: usd(t, 1500000), PurchaseValue: &purchase, PurchaseDate: &bought,
		LastUpdated: now, CreatedAt: now}
	_, err := s.CreateAsset(ctx, a)
	require.NoError(t, err)
	_, err = s.CreateAsset(ctx, a)
	assert.ErrorIs(t, err, errs.ErrConflict)

	got, err := s.GetAsset(ctx, u.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PurchaseValue)
	assert.Equal(t, "20000.00", got.PurchaseValue.Decimal().String())
	assert.True(t, got.PurchaseDate.Equal(bought))

	_, err = s.GetAsset(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	limit := usd(t, 300000)
	rate := 22.5
	l := ledger.Liability{ID: uuid.New(), UserID: u.ID, Name: "Visa", Kind: ledger.LiabilityCreditCard, Currency: "USD",
		CurrentBalance: usd(t, 25000), BaseBalance: usd(t, 0), CreditLimit: &limit, InterestRate: &rate,
		LastUpdated: now, CreatedAt: now}
	_, err = s.CreateLiability(ctx, l)
	require.NoError(t, err)

	l.CurrentBalance = usd(t, 30000)
	l.CreditLimit = nil
	_, err = s.UpdateLiability(ctx, l)
	require.NoError(t, err)
	list, err := s.ListLiabilities(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "300.00", list[0].CurrentBalance.Decimal().String())
	assert.Nil(t, list[0].CreditLimit)
	require.NotNil(t, list[0].InterestRate)
	assert.Equal(t, rate, *list[0].InterestRate)

	_, err = s.CreateLiability(ctx, ledger.Liability{ID: uuid.New(), UserID: uuid.New(), Name: "x", Kind: ledger.LiabilityOther,
		Currency: "USD", CurrentBalance: usd(t, 0), BaseBalance: usd(t, 0)})
	assert.True(t, errors.Is(err, errs.ErrNotFound), "unknown owner: %v", err)

	require.NoError(t, s.DeleteLiability(ctx, u.ID, l.ID))
	assert.ErrorIs(t, s.DeleteLiability(ctx, u.ID, l.ID), errs.ErrNotFound)
}
