package advice_test

import (
	"context"
	"fmt"
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
	"github.com/tinoosan/wealth/internal/llm"
	"github.com/tinoosan/wealth/internal/service/advice"
	"github.com/tinoosan/wealth/internal/service/analytics"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/storage/memory"
)

type fakeClient struct {
	text string
	err  error
	reqs []llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.text, f.err
}

func setup(t *testing.T, client llm.Client) (advice.Service, uuid.UUID) {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	store.SeedUser(ledger.User{ID: userID, Email: "u@example.com"})
	now := time.Now().UTC()
	for i, units := range []int64{120, 80, 45} {
		amt, err := money.NewAmountFromMinorUnits("EUR", units*100)
		require.NoError(t, err)
		store.SeedTransaction(ledger.Transaction{ID: uuid.New(), UserID: userID, Date: now.AddDate(0, 0, -10*(i+1)),
			Amount: amt, Category: fmt.Sprintf("Cat%d", i), Description: "purchase", Kind: ledger.KindExpense})
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	nw := networth.New(store, store, logger, networth.WithCurrency("EUR"))
	an := analytics.New(store)
	cfg := advice.Config{Currency: "EUR", Temperature: 0.4, MaxTokens: 300, Language: "French"}
	return advice.New(nw, an, client, cfg, logger), userID
}

func TestFallbackWithoutClient(t *testing.T) {
	svc, userID := setup(t, nil)
	ctx := context.Background()

	res, err := svc.FinancialAdvice(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, advice.SourceFallback, res.Source)
	assert.Contains(t, res.Text, "Cat0")

	again, err := svc.FinancialAdvice(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, res.Text, again.Text)

	sum, err := svc.SpendingSummary(ctx, userID, 3)
	require.NoError(t, err)
	assert.Contains(t, sum.Text, "245.00")

	anom, err := svc.ExplainAnomalies(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, advice.SourceFallback, anom.Source)

	ask, err := svc.Ask(ctx, userID, "Can I afford a holiday?")
	require.NoError(t, err)
	assert.Equal(t, advice.SourceFallback, ask.Source)
}

func TestProviderTextAndPrompt(t *testing.T) {
	client := &fakeClient{text: "Cut Cat0 by a tenth."}
	svc, userID := setup(t, client)

	res, err := svc.SpendingSummary(context.Background(), userID, 3)
	require.NoError(t, err)
	assert.Equal(t, advice.SourceProvider, res.Source)
	assert.Equal(t, "Cut Cat0 by a tenth.", res.Text)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Contains(t, req.System, "French")
	assert.Contains(t, req.Prompt, "245.00 EUR")
	assert.Contains(t, req.Prompt, "- Cat0: 120.00")
	assert.Equal(t, 0.4, req.Temperature)
	assert.Equal(t, 300, req.MaxTokens)
}

func TestProviderFailureFallsBackExceptAsk(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("%w: rate limited", errs.ErrProviderUnavailable)}
	svc, userID := setup(t, client)
	ctx := context.Background()

	res, err := svc.ExplainAnomalies(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, advice.SourceFallback, res.Source)

	_, err = svc.Ask(ctx, userID, "Should I refinance?")
	assert.ErrorIs(t, err, errs.ErrProviderUnavailable)
}

func TestValidationAndAnalyticsErrorsPropagate(t *testing.T) {
	svc, userID := setup(t, &fakeClient{text: "ok"})
	ctx := context.Background()

	_, err := svc.Ask(ctx, userID, "   ")
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = svc.SpendingSummary(ctx, userID, 0)
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = svc.FinancialAdvice(ctx, uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
