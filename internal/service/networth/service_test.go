package networth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/storage/memory"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func usd(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	require.NoError(t, err)
	return a
}

type fixture struct {
	store  *memory.Store
	svc    networth.Service
	userID uuid.UUID
	bank   ledger.Asset
	card   ledger.Liability
	loan   ledger.Liability
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID, Name: "Demo", Email: "demo@example.com", Active: true})

	limit := usd(t, 500000)
	f := fixture{
		store:  store,
		userID: userID,
		bank: ledger.Asset{ID: uuid.New(), UserID: userID, Name: "Checking", Kind: ledger.AssetBankAccount,
			CurrentValue: usd(t, 100000), BaseValue: usd(t, 100000), Currency: "USD", IsLiquid: true, CreatedAt: fixedNow},
		card: ledger.Liability{ID: uuid.New(), UserID: userID, Name: "Visa", Kind: ledger.LiabilityCreditCard,
			CurrentBalance: usd(t, 0), BaseBalance: usd(t, 0), CreditLimit: &limit, Currency: "USD", CreatedAt: fixedNow},
		loan: ledger.Liability{ID: uuid.New(), UserID: userID, Name: "Mortgage", Kind: ledger.LiabilityMortgage,
			CurrentBalance: usd(t, 10000000), BaseBalance: usd(t, 10000000), Currency: "USD", CreatedAt: fixedNow.Add(time.Second)},
	}
	store.SeedAsset(f.bank)
	store.SeedLiability(f.card)
	store.SeedLiability(f.loan)
	f.svc = networth.New(store, store, testLogger(), networth.WithClock(func() time.Time { return fixedNow }))
	return f
}

func (f fixture) tx(t *testing.T, kind ledger.TransactionKind, minor int64, method ledger.PaymentMethod) ledger.Transaction {
	t.Helper()
	tx := ledger.Transaction{
		ID: uuid.New(), UserID: f.userID, Date: fixedNow.AddDate(0, 0, -1), Amount: usd(t, minor),
		Category: "Groceries", Kind: kind, PaymentMethod: method, CreatedAt: fixedNow,
	}
	switch method {
	case ledger.PaymentBankAccount:
		id := f.bank.ID
		tx.SourceAssetID = &id
	case ledger.PaymentCreditCard:
		id := f.card.ID
		tx.SourceLiabilityID = &id
	case ledger.PaymentLoanDebit:
		id := f.loan.ID
		tx.SourceLiabilityID = &id
	}
	return tx
}

// create stores the transaction and syncs it, mirroring the transaction service.
func (f fixture) create(t *testing.T, tx ledger.Transaction) {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.CreateTransaction(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpCreate, tx, nil))
}

func (f fixture) assetValue(t *testing.T) string {
	t.Helper()
	a, err := f.store.GetAsset(context.Background(), f.userID, f.bank.ID)
	require.NoError(t, err)
	return a.CurrentValue.Decimal().String()
}

func (f fixture) liabilityBalance(t *testing.T, id uuid.UUID) string {
	t.Helper()
	l, err := f.store.GetLiability(context.Background(), f.userID, id)
	require.NoError(t, err)
	return l.CurrentBalance.Decimal().String()
}

func TestSync_BankAccountCreateAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	expense := f.tx(t, ledger.KindExpense, 20000, ledger.PaymentBankAccount)
	f.create(t, expense)
	assert.Equal(t, "800.00", f.assetValue(t))

	income := f.tx(t, ledger.KindIncome, 5000, ledger.PaymentBankAccount)
	f.create(t, income)
	assert.Equal(t, "850.00", f.assetValue(t))

	require.NoError(t, f.store.DeleteTransaction(ctx, f.userID, expense.ID))
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpDelete, expense, nil))
	assert.Equal(t, "1050.00", f.assetValue(t))

	require.NoError(t, f.store.DeleteTransaction(ctx, f.userID, income.ID))
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpDelete, income, nil))
	assert.Equal(t, "1000.00", f.assetValue(t))
}

func TestSync_CreditCardAndLoan(t *testing.T) {
	f := setup(t)

	f.create(t, f.tx(t, ledger.KindExpense, 30000, ledger.PaymentCreditCard))
	assert.Equal(t, "300.00", f.liabilityBalance(t, f.card.ID))

	f.create(t, f.tx(t, ledger.KindIncome, 10000, ledger.PaymentCreditCard))
	assert.Equal(t, "200.00", f.liabilityBalance(t, f.card.ID))

	f.create(t, f.tx(t, ledger.KindExpense, 100000, ledger.PaymentLoanDebit))
	assert.Equal(t, "99000.00", f.liabilityBalance(t, f.loan.ID))
}

func TestSync_CreateThenDeleteRestoresLiability(t *testing.T) {
	cases := []struct {
		name   string
		kind   ledger.TransactionKind
		method ledger.PaymentMethod
		card   bool
		during string
		before string
	}{
		{"card expense", ledger.KindExpense, ledger.PaymentCreditCard, true, "300.00", "0.00"},
		{"card income", ledger.KindIncome, ledger.PaymentCreditCard, true, "-300.00", "0.00"},
		{"loan expense", ledger.KindExpense, ledger.PaymentLoanDebit, false, "99700.00", "100000.00"},
		{"loan income", ledger.KindIncome, ledger.PaymentLoanDebit, false, "99700.00", "100000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			id := f.loan.ID
			if tc.card {
				id = f.card.ID
			}
			require.Equal(t, tc.before, f.liabilityBalance(t, id))

			tx := f.tx(t, tc.kind, 30000, tc.method)
			f.create(t, tx)
			assert.Equal(t, tc.during, f.liabilityBalance(t, id))

			require.NoError(t, f.store.DeleteTransaction(ctx, f.userID, tx.ID))
			require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpDelete, tx, nil))
			assert.Equal(t, tc.before, f.liabilityBalance(t, id))
		})
	}
}

func TestSync_CashHasNoEffect(t *testing.T) {
	f := setup(t)
	f.create(t, f.tx(t, ledger.KindExpense, 20000, ledger.PaymentCash))
	f.create(t, f.tx(t, ledger.KindExpense, 20000, ledger.PaymentNone))
	assert.Equal(t, "1000.00", f.assetValue(t))
	assert.Equal(t, "0.00", f.liabilityBalance(t, f.card.ID))
}

func TestSync_UpdateRecomputesEveryReferencedHolding(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	orig := f.tx(t, ledger.KindExpense, 20000, ledger.PaymentBankAccount)
	f.create(t, orig)
	require.Equal(t, "800.00", f.assetValue(t))

	// amount change
	bigger := orig
	bigger.Amount = usd(t, 25000)
	_, err := f.store.UpdateTransaction(ctx, bigger)
	require.NoError(t, err)
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpUpdate, bigger, &orig))
	assert.Equal(t, "750.00", f.assetValue(t))

	// move from bank account to credit card
	moved := bigger
	moved.PaymentMethod = ledger.PaymentCreditCard
	moved.SourceAssetID = nil
	cardID := f.card.ID
	moved.SourceLiabilityID = &cardID
	_, err = f.store.UpdateTransaction(ctx, moved)
	require.NoError(t, err)
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpUpdate, moved, &bigger))
	assert.Equal(t, "1000.00", f.assetValue(t))
	assert.Equal(t, "250.00", f.liabilityBalance(t, f.card.ID))

	// kind flip
	refund := moved
	refund.Kind = ledger.KindIncome
	_, err = f.store.UpdateTransaction(ctx, refund)
	require.NoError(t, err)
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpUpdate, refund, &moved))
	assert.Equal(t, "-250.00", f.liabilityBalance(t, f.card.ID))
}

func TestSync_ReferentialInconsistencyIsSkipped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	missing := uuid.New()
	tx := f.tx(t, ledger.KindExpense, 20000, ledger.PaymentBankAccount)
	tx.SourceAssetID = &missing
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpCreate, tx, nil))

	// credit card payment pointing at a mortgage
	loanID := f.loan.ID
	wrong := f.tx(t, ledger.KindExpense, 20000, ledger.PaymentCreditCard)
	wrong.SourceLiabilityID = &loanID
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpCreate, wrong, nil))

	noRef := f.tx(t, ledger.KindExpense, 20000, ledger.PaymentBankAccount)
	noRef.SourceAssetID = nil
	require.NoError(t, f.svc.SyncTransactionImpact(ctx, networth.OpCreate, noRef, nil))

	assert.Equal(t, "1000.00", f.assetValue(t))
	assert.Equal(t, "100000.00", f.liabilityBalance(t, f.loan.ID))
}

func TestSync_UnknownOperation(t *testing.T) {
	f := setup(t)
	err := f.svc.SyncTransactionImpact(context.Background(), networth.Operation("merge"), f.tx(t, ledger.KindExpense, 100, ledger.PaymentCash), nil)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestRecomputeAsset_RepairsDrift(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.create(t, f.tx(t, ledger.KindExpense, 20000, ledger.PaymentBankAccount))

	drifted, err := f.store.GetAsset(ctx, f.userID, f.bank.ID)
	require.NoError(t, err)
	drifted.CurrentValue = usd(t, 1)
	_, err = f.store.UpdateAsset(ctx, drifted)
	require.NoError(t, err)

	got, err := f.svc.RecomputeAsset(ctx, f.userID, f.bank.ID)
	require.NoError(t, err)
	assert.Equal(t, "800.00", got.CurrentValue.Decimal().String())

	_, err = f.svc.RecomputeAsset(ctx, f.userID, uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCalculateNetWorth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.store.SeedAsset(ledger.Asset{ID: uuid.New(), UserID: f.userID, Name: "House", Kind: ledger.AssetRealEstate,
		CurrentValue: usd(t, 30000000), BaseValue: usd(t, 30000000), Currency: "USD", CreatedAt: fixedNow})

	f.create(t, f.tx(t, ledger.KindExpense, 30000, ledger.PaymentCreditCard))
	f.create(t, f.tx(t, ledger.KindIncome, 50000, ledger.PaymentCash))

	got, err := f.svc.CalculateNetWorth(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "301200.00", got.TotalAssets.String())
	assert.Equal(t, "100300.00", got.TotalLiabilities.String())
	assert.Equal(t, "200900.00", got.NetWorth.String())
	assert.Equal(t, "1200.00", got.LiquidAssets.String())
	assert.Zero(t, got.NetWorth.Cmp(mustSub(t, got.TotalAssets, got.TotalLiabilities)))

	again, err := f.svc.CalculateNetWorth(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, "200.00", got.TransactionNetBalance.String())
	assert.Equal(t, 6.0, got.CreditUtilization)
	assert.Equal(t, "300000.00", got.AssetBreakdown[ledger.AssetRealEstate].String())
	assert.Equal(t, "300.00", got.LiabilityBreakdown[ledger.LiabilityCreditCard].String())
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, fixedNow, got.CalculatedAt)
}

func mustSub(t *testing.T, a, b decimal.Decimal) decimal.Decimal {
	t.Helper()
	d, err := a.Sub(b)
	require.NoError(t, err)
	return d
}

func TestCalculateNetWorth_EmptyAndUnknownUser(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID, Email: "empty@example.com"})
	svc := networth.New(store, store, testLogger())

	got, err := svc.CalculateNetWorth(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, got.NetWorth.IsZero())
	assert.Zero(t, got.CreditUtilization)
	assert.Empty(t, got.AssetBreakdown)

	_, err = svc.CalculateNetWorth(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
