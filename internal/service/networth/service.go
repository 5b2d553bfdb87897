// Package networth computes net worth summaries and keeps the balances of
// assets and liabilities in step with the transactions that reference them.
//
// Every linked asset keeps CurrentValue = BaseValue + sum(effects) over the
// transactions that name it, and likewise for liabilities. Create and Delete
// apply one effect incrementally; Update recomputes every referenced holding
// from its full history so edits that move a transaction between holdings,
// change its amount, or flip its kind are reflected exactly.
package networth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/stats"
)

// Operation names the transaction mutation being synchronized.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type Repo interface {
	GetUser(ctx context.Context, userID uuid.UUID) (ledger.User, error)
	GetAsset(ctx context.Context, userID, assetID uuid.UUID) (ledger.Asset, error)
	GetLiability(ctx context.Context, userID, liabilityID uuid.UUID) (ledger.Liability, error)
	ListAssets(ctx context.Context, userID uuid.UUID) ([]ledger.Asset, error)
	ListLiabilities(ctx context.Context, userID uuid.UUID) ([]ledger.Liability, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error)
	SumTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) (decimal.Decimal, error)
}

type Writer interface {
	UpdateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error)
	UpdateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error)
}

type Service interface {
	CalculateNetWorth(ctx context.Context, userID uuid.UUID) (ledger.NetWorthSummary, error)
	SyncTransactionImpact(ctx context.Context, op Operation, current ledger.Transaction, previous *ledger.Transaction) error
	RecomputeAsset(ctx context.Context, userID, assetID uuid.UUID) (ledger.Asset, error)
	RecomputeLiability(ctx context.Context, userID, liabilityID uuid.UUID) (ledger.Liability, error)
}

type Option func(*service)

// WithCurrency labels summaries with the given base currency.
func WithCurrency(code string) Option { return func(s *service) { s.currency = code } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

type service struct {
	repo     Repo
	writer   Writer
	log      *slog.Logger
	currency string
	now      func() time.Time
}

func New(repo Repo, writer Writer, logger *slog.Logger, opts ...Option) Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &service{repo: repo, writer: writer, log: logger, currency: "USD", now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// accumulator folds decimals and keeps the first overflow error.
type accumulator struct {
	sum decimal.Decimal
	err error
}

func (a *accumulator) add(d decimal.Decimal) {
	if a.err != nil {
		return
	}
	a.sum, a.err = a.sum.Add(d)
}

func addTo(m map[string]*accumulator, key string, d decimal.Decimal) {
	acc, ok := m[key]
	if !ok {
		acc = &accumulator{}
		m[key] = acc
	}
	acc.add(d)
}

func (s *service) CalculateNetWorth(ctx context.Context, userID uuid.UUID) (ledger.NetWorthSummary, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil { return ledger.NetWorthSummary{}, err }
	assets, err := s.repo.ListAssets(ctx, userID)
	if err != nil { return ledger.NetWorthSummary{}, err }
	liabilities, err := s.repo.ListLiabilities(ctx, userID)
	if err != nil { return ledger.NetWorthSummary{}, err }
	txNet, err := s.repo.SumTransactions(ctx, userID, ledger.TransactionFilter{})
	if err != nil { return ledger.NetWorthSummary{}, err }

	// The transaction balance counts as an implicit liquid cash holding.
	var totalAssets, liquid, totalLiabilities, cardBalances, cardLimits accumulator
	totalAssets.add(txNet)
	liquid.add(txNet)
	assetKinds := map[string]*accumulator{}
	for _, a := range assets {
		v := a.CurrentValue.Decimal()
		totalAssets.add(v)
		if a.IsLiquid {
			liquid.add(v)
		}
		addTo(assetKinds, string(a.Kind), v)
	}
	liabilityKinds := map[string]*accumulator{}
	for _, l := range liabilities {
		b := l.CurrentBalance.Decimal()
		totalLiabilities.add(b)
		addTo(liabilityKinds, string(l.Kind), b)
		if l.Kind == ledger.LiabilityCreditCard && l.CreditLimit != nil && l.CreditLimit.Decimal().Sign() > 0 {
			cardBalances.add(b)
			cardLimits.add(l.CreditLimit.Decimal())
		}
	}
	for _, acc := range []*accumulator{&totalAssets, &liquid, &totalLiabilities, &cardBalances, &cardLimits} {
		if acc.err != nil { return ledger.NetWorthSummary{}, fmt.Errorf("net worth: %w", acc.err) }
	}
	net, err := totalAssets.sum.Sub(totalLiabilities.sum)
	if err != nil { return ledger.NetWorthSummary{}, fmt.Errorf("net worth: %w", err) }

	out := ledger.NetWorthSummary{
		UserID:                userID,
		Currency:              s.currency,
		TotalAssets:           totalAssets.sum,
		TotalLiabilities:      totalLiabilities.sum,
		NetWorth:              net,
		LiquidAssets:          liquid.sum,
		TransactionNetBalance: txNet,
		AssetBreakdown:        make(map[ledger.AssetKind]decimal.Decimal, len(assetKinds)),
		LiabilityBreakdown:    make(map[ledger.LiabilityKind]decimal.Decimal, len(liabilityKinds)),
		CalculatedAt:          s.now().UTC(),
	}
	for k, acc := range assetKinds {
		if acc.err != nil { return ledger.NetWorthSummary{}, fmt.Errorf("net worth: %w", acc.err) }
		out.AssetBreakdown[ledger.AssetKind(k)] = acc.sum
	}
	for k, acc := range liabilityKinds {
		if acc.err != nil { return ledger.NetWorthSummary{}, fmt.Errorf("net worth: %w", acc.err) }
		out.LiabilityBreakdown[ledger.LiabilityKind(k)] = acc.sum
	}
	if !cardLimits.sum.IsZero() {
		if ratio, err := cardBalances.sum.Quo(cardLimits.sum); err == nil {
			out.CreditUtilization = stats.Round2(stats.Float(ratio) * 100)
		}
	}
	return out, nil
}

func (s *service) SyncTransactionImpact(ctx context.Context, op Operation, current ledger.Transaction, previous *ledger.Transaction) error {
	var err error
	switch op {
	case OpCreate:
		err = s.apply(ctx, current, false)
	case OpDelete:
		err = s.apply(ctx, current, true)
	case OpUpdate:
		err = s.recomputeReferenced(ctx, current, previous)
	default:
		return fmt.Errorf("%w: unknown sync operation %q", errs.ErrInvalid, op)
	}
	syncOutcomes.WithLabelValues(string(op), string(current.PaymentMethod), outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// apply adds the transaction's effect to its funding holding, or removes it when reverse is set.
func (s *service) apply(ctx context.Context, t ledger.Transaction, reverse bool) error {
	switch t.PaymentMethod {
	case ledger.PaymentNone, ledger.PaymentCash, ledger.PaymentOther:
		return nil
	case ledger.PaymentBankAccount:
		a, ok, err := s.fundingAsset(ctx, t)
		if err != nil || !ok { return err }
		delta, ok := s.effect(t, a.CurrentValue.Curr().Code())
		if !ok { return nil }
		if reverse {
			delta = delta.Neg()
		}
		next, err := a.CurrentValue.Add(delta)
		if err != nil { return fmt.Errorf("sync asset %s: %w", a.ID, err) }
		a.CurrentValue = next
		a.LastUpdated = s.now().UTC()
		_, err = s.writer.UpdateAsset(ctx, a)
		return err
	case ledger.PaymentCreditCard, ledger.PaymentLoanDebit:
		l, ok, err := s.fundingLiability(ctx, t)
		if err != nil || !ok { return err }
		delta, ok := s.effect(t, l.CurrentBalance.Curr().Code())
		if !ok { return nil }
		if reverse {
			delta = delta.Neg()
		}
		next, err := l.CurrentBalance.Add(delta)
		if err != nil { return fmt.Errorf("sync liability %s: %w", l.ID, err) }
		l.CurrentBalance = next
		l.LastUpdated = s.now().UTC()
		_, err = s.writer.UpdateLiability(ctx, l)
		return err
	default:
		s.log.Warn("sync skipped: unknown payment method", "transaction_id", t.ID, "payment_method", t.PaymentMethod)
		return nil
	}
}

// effect is the signed change the transaction makes to its funding holding:
// bank accounts gain income and lose expenses, credit cards owe more on expenses
// and less on income, loans shrink on every debit.
func (s *service) effect(t ledger.Transaction, holdingCurrency string) (money.Amount, bool) {
	if t.Amount.Curr().Code() != holdingCurrency {
		s.log.Warn("sync skipped: currency mismatch",
			"transaction_id", t.ID, "transaction_currency", t.Amount.Curr().Code(), "holding_currency", holdingCurrency)
		return money.Amount{}, false
	}
	amt := t.Amount.Abs()
	switch t.PaymentMethod {
	case ledger.PaymentBankAccount:
		if t.Kind == ledger.KindExpense {
			return amt.Neg(), true
		}
		return amt, true
	case ledger.PaymentCreditCard:
		if t.Kind == ledger.KindIncome {
			return amt.Neg(), true
		}
		return amt, true
	case ledger.PaymentLoanDebit:
		return amt.Neg(), true
	}
	return money.Amount{}, false
}

func (s *service) inconsistent(t ledger.Transaction, reason string) {
	s.log.Warn("sync skipped: "+reason,
		"transaction_id", t.ID, "user_id", t.UserID, "payment_method", t.PaymentMethod,
		"error", errs.ErrReferentialInconsistency)
}

func (s *service) fundingAsset(ctx context.Context, t ledger.Transaction) (ledger.Asset, bool, error) {
	if t.SourceAssetID == nil {
		s.inconsistent(t, "missing source asset")
		return ledger.Asset{}, false, nil
	}
	a, err := s.repo.GetAsset(ctx, t.UserID, *t.SourceAssetID)
	if errors.Is(err, errs.ErrNotFound) {
		s.inconsistent(t, "source asset not found")
		return ledger.Asset{}, false, nil
	}
	if err != nil { return ledger.Asset{}, false, err }
	if a.Kind != ledger.AssetBankAccount {
		s.inconsistent(t, "source asset is not a bank account")
		return ledger.Asset{}, false, nil
	}
	return a, true, nil
}

func (s *service) fundingLiability(ctx context.Context, t ledger.Transaction) (ledger.Liability, bool, error) {
	if t.SourceLiabilityID == nil {
		s.inconsistent(t, "missing source liability")
		return ledger.Liability{}, false, nil
	}
	l, err := s.repo.GetLiability(ctx, t.UserID, *t.SourceLiabilityID)
	if errors.Is(err, errs.ErrNotFound) {
		s.inconsistent(t, "source liability not found")
		return ledger.Liability{}, false, nil
	}
	if err != nil { return ledger.Liability{}, false, err }
	if !fundsFrom(t.PaymentMethod, l.Kind) {
		s.inconsistent(t, "source liability kind does not match payment method")
		return ledger.Liability{}, false, nil
	}
	return l, true, nil
}

func fundsFrom(m ledger.PaymentMethod, k ledger.LiabilityKind) bool {
	switch m {
	case ledger.PaymentCreditCard:
		return k == ledger.LiabilityCreditCard
	case ledger.PaymentLoanDebit:
		return k.IsLoan()
	}
	return false
}

// recomputeReferenced rebuilds every holding named by either version of an updated transaction.
func (s *service) recomputeReferenced(ctx context.Context, current ledger.Transaction, previous *ledger.Transaction) error {
	versions := []ledger.Transaction{current}
	if previous != nil {
		versions = append(versions, *previous)
	}
	seen := map[uuid.UUID]bool{}
	for _, t := range versions {
		if id := t.SourceAssetID; id != nil && !seen[*id] {
			seen[*id] = true
			if _, err := s.RecomputeAsset(ctx, t.UserID, *id); err != nil {
				if !errors.Is(err, errs.ErrNotFound) { return err }
				s.inconsistent(t, "source asset not found")
			}
		}
		if id := t.SourceLiabilityID; id != nil && !seen[*id] {
			seen[*id] = true
			if _, err := s.RecomputeLiability(ctx, t.UserID, *id); err != nil {
				if !errors.Is(err, errs.ErrNotFound) { return err }
				s.inconsistent(t, "source liability not found")
			}
		}
	}
	return nil
}

// RecomputeAsset sets CurrentValue to BaseValue plus the effect of every linked transaction.
// Only bank accounts are moved by transactions; other kinds are returned unchanged.
func (s *service) RecomputeAsset(ctx context.Context, userID, assetID uuid.UUID) (ledger.Asset, error) {
	a, err := s.repo.GetAsset(ctx, userID, assetID)
	if err != nil { return ledger.Asset{}, err }
	if a.Kind != ledger.AssetBankAccount { return a, nil }
	txs, err := s.repo.ListTransactions(ctx, userID, ledger.TransactionFilter{SourceAssetID: &assetID})
	if err != nil { return ledger.Asset{}, err }
	value := a.BaseValue
	code := value.Curr().Code()
	for _, t := range txs {
		if t.PaymentMethod != ledger.PaymentBankAccount {
			continue
		}
		delta, ok := s.effect(t, code)
		if !ok {
			continue
		}
		if value, err = value.Add(delta); err != nil { return ledger.Asset{}, fmt.Errorf("recompute asset %s: %w", a.ID, err) }
	}
	a.CurrentValue = value
	a.LastUpdated = s.now().UTC()
	return s.writer.UpdateAsset(ctx, a)
}

// RecomputeLiability sets CurrentBalance to BaseBalance plus the effect of every linked transaction.
func (s *service) RecomputeLiability(ctx context.Context, userID, liabilityID uuid.UUID) (ledger.Liability, error) {
	l, err := s.repo.GetLiability(ctx, userID, liabilityID)
	if err != nil { return ledger.Liability{}, err }
	txs, err := s.repo.ListTransactions(ctx, userID, ledger.TransactionFilter{SourceLiabilityID: &liabilityID})
	if err != nil { return ledger.Liability{}, err }
	balance := l.BaseBalance
	code := balance.Curr().Code()
	for _, t := range txs {
		if !fundsFrom(t.PaymentMethod, l.Kind) {
			continue
		}
		delta, ok := s.effect(t, code)
		if !ok {
			continue
		}
		if balance, err = balance.Add(delta); err != nil { return ledger.Liability{}, fmt.Errorf("recompute liability %s: %w", l.ID, err) }
	}
	l.CurrentBalance = balance
	l.LastUpdated = s.now().UTC()
	return s.writer.UpdateLiability(ctx, l)
}
