package holding_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/service/holding"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/storage/memory"
)

func usd(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	require.NoError(t, err)
	return a
}

func setup(t *testing.T) (*memory.Store, holding.Service, uuid.UUID) {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID, Email: "u@example.com", Active: true})
	return store, holding.New(store, store), userID
}

func TestCreateAsset_SetsBaseline(t *testing.T) {
	_, svc, userID := setup(t)
	a, err := svc.CreateAsset(context.Background(), ledger.Asset{
		UserID: userID, Name: " Checking ", Kind: ledger.AssetBankAccount, CurrentValue: usd(t, 100000), Currency: "usd", IsLiquid: true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "Checking", a.Name)
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, "1000.00", a.BaseValue.Decimal().String())
	assert.False(t, a.CreatedAt.IsZero())
}

func TestUpdateAsset_RebasesManualEdits(t *testing.T) {
	store, svc, userID := setup(t)
	ctx := context.Background()
	nw := networth.New(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	a, err := svc.CreateAsset(ctx, ledger.Asset{UserID: userID, Name: "Checking", Kind: ledger.AssetBankAccount, CurrentValue: usd(t, 100000), Currency: "USD"})
	require.NoError(t, err)

	aid := a.ID
	tx := ledger.Transaction{ID: uuid.New(), UserID: userID, Date: time.Now(), Amount: usd(t, 20000), Category: "Rent",
		Kind: ledger.KindExpense, PaymentMethod: ledger.PaymentBankAccount, SourceAssetID: &aid}
	_, err = store.CreateTransaction(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, nw.SyncTransactionImpact(ctx, networth.OpCreate, tx, nil))

	a, err = svc.GetAsset(ctx, userID, a.ID)
	require.NoError(t, err)
	require.Equal(t, "800.00", a.CurrentValue.Decimal().String())

	a.CurrentValue = usd(t, 90000)
	a, err = svc.UpdateAsset(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "1100.00", a.BaseValue.Decimal().String())

	got, err := nw.RecomputeAsset(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "900.00", got.CurrentValue.Decimal().String())
}

func TestUpdateAsset_ImmutableFields(t *testing.T) {
	_, svc, userID := setup(t)
	ctx := context.Background()
	a, err := svc.CreateAsset(ctx, ledger.Asset{UserID: userID, Name: "Car", Kind: ledger.AssetVehicle, CurrentValue: usd(t, 1500000), Currency: "USD"})
	require.NoError(t, err)

	kind := a
	kind.Kind = ledger.AssetOther
	_, err = svc.UpdateAsset(ctx, kind)
	assert.ErrorIs(t, err, errs.ErrUnprocessable)

	_, err = svc.UpdateAsset(ctx, ledger.Asset{ID: uuid.New(), UserID: userID, Name: "Ghost", Kind: ledger.AssetOther, Currency: "USD", CurrentValue: usd(t, 1)})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateAsset_KeepsOverdrawnValue(t *testing.T) {
	store, svc, userID := setup(t)
	ctx := context.Background()
	overdrawn := ledger.Asset{ID: uuid.New(), UserID: userID, Name: "Checking", Kind: ledger.AssetBankAccount,
		CurrentValue: usd(t, -5000), BaseValue: usd(t, 0), Currency: "USD"}
	store.SeedAsset(overdrawn)

	overdrawn.Name = "Main checking"
	got, err := svc.UpdateAsset(ctx, overdrawn)
	require.NoError(t, err)
	assert.Equal(t, "Main checking", got.Name)

	overdrawn.CurrentValue = usd(t, -6000)
	_, err = svc.UpdateAsset(ctx, overdrawn)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestValidateLiability(t *testing.T) {
	_, svc, userID := setup(t)
	limit := usd(t, 500000)
	rate := 120.0
	base := ledger.Liability{UserID: userID, Name: "Visa", Kind: ledger.LiabilityCreditCard, CurrentBalance: usd(t, 0), Currency: "USD", CreditLimit: &limit}
	require.NoError(t, svc.ValidateLiability(base))

	tests := []struct {
		name   string
		mutate func(*ledger.Liability)
	}{
		{"negative balance", func(l *ledger.Liability) { l.CurrentBalance = usd(t, -1) }},
		{"limit on mortgage", func(l *ledger.Liability) { l.Kind = ledger.LiabilityMortgage }},
		{"rate above 100", func(l *ledger.Liability) { l.InterestRate = &rate }},
		{"bad currency", func(l *ledger.Liability) { l.Currency = "US" }},
		{"unknown kind", func(l *ledger.Liability) { l.Kind = "payday" }},
		{"missing name", func(l *ledger.Liability) { l.Name = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := base
			tt.mutate(&l)
			assert.ErrorIs(t, svc.ValidateLiability(l), errs.ErrInvalid)
		})
	}
}

func TestLiabilityCRUD(t *testing.T) {
	_, svc, userID := setup(t)
	ctx := context.Background()
	l, err := svc.CreateLiability(ctx, ledger.Liability{UserID: userID, Name: "Mortgage", Kind: ledger.LiabilityMortgage, CurrentBalance: usd(t, 10000000), Currency: "USD"})
	require.NoError(t, err)

	l.CurrentBalance = usd(t, 9900000)
	l, err = svc.UpdateLiability(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, "99000.00", l.BaseBalance.Decimal().String())

	list, err := svc.ListLiabilities(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteLiability(ctx, userID, l.ID))
	_, err = svc.GetLiability(ctx, userID, l.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
