// Package holding implements the asset and liability rules: immutable identity
// fields (id, owner, kind, currency), editable descriptive fields, and rebasing
// of the transaction-independent baseline when a value or balance is edited by hand.
package holding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

type Repo interface {
	GetAsset(ctx context.Context, userID, assetID uuid.UUID) (ledger.Asset, error)
	ListAssets(ctx context.Context, userID uuid.UUID) ([]ledger.Asset, error)
	GetLiability(ctx context.Context, userID, liabilityID uuid.UUID) (ledger.Liability, error)
	ListLiabilities(ctx context.Context, userID uuid.UUID) ([]ledger.Liability, error)
}

type Writer interface {
	CreateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error)
	UpdateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error)
	DeleteAsset(ctx context.Context, userID, assetID uuid.UUID) error
	CreateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error)
	UpdateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error)
	DeleteLiability(ctx context.Context, userID, liabilityID uuid.UUID) error
}

type Service interface {
	ValidateAsset(a ledger.Asset) error
	CreateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error)
	UpdateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error)
	DeleteAsset(ctx context.Context, userID, assetID uuid.UUID) error
	GetAsset(ctx context.Context, userID, assetID uuid.UUID) (ledger.Asset, error)
	ListAssets(ctx context.Context, userID uuid.UUID) ([]ledger.Asset, error)

	ValidateLiability(l ledger.Liability) error
	CreateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error)
	UpdateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error)
	DeleteLiability(ctx context.Context, userID, liabilityID uuid.UUID) error
	GetLiability(ctx context.Context, userID, liabilityID uuid.UUID) (ledger.Liability, error)
	ListLiabilities(ctx context.Context, userID uuid.UUID) ([]ledger.Liability, error)
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer, now: time.Now} }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errs.ErrInvalid}, args...)...)
}

func validCurrency(code string) bool {
	if len(code) != 3 { return false }
	for _, r := range code {
		if r < 'A' || r > 'Z' { return false }
	}
	return true
}

// checkAmount verifies a money field is non-negative and in the holding's currency.
func checkAmount(field string, a money.Amount, currency string) error {
	if a.Curr().Code() != currency { return invalid("%s currency must be %s", field, currency) }
	if a.Decimal().Sign() < 0 { return invalid("%s must be >= 0", field) }
	return nil
}

func changed(before, after money.Amount) bool {
	return before.Curr().Code() != after.Curr().Code() || before.Decimal().Cmp(after.Decimal()) != 0
}

func (s *service) ValidateAsset(a ledger.Asset) error { return s.validateAsset(a, true) }

func (s *service) ValidateLiability(l ledger.Liability) error { return s.validateLiability(l, true) }

// validateAsset skips the sign check of an untouched CurrentValue: synced bank
// accounts may legitimately be overdrawn.
func (s *service) validateAsset(a ledger.Asset, checkValue bool) error {
	if a.UserID == uuid.Nil { return invalid("user_id is required") }
	if strings.TrimSpace(a.Name) == "" { return invalid("name is required") }
	if !a.Kind.Valid() { return invalid("invalid asset kind") }
	if !validCurrency(a.Currency) { return invalid("currency must be a 3-letter code") }
	if a.CurrentValue.Curr().Code() != a.Currency { return invalid("current_value currency must be %s", a.Currency) }
	if checkValue {
		if err := checkAmount("current_value", a.CurrentValue, a.Currency); err != nil { return err }
	}
	if a.PurchaseValue != nil {
		if err := checkAmount("purchase_value", *a.PurchaseValue, a.Currency); err != nil { return err }
	}
	return nil
}

func (s *service) validateLiability(l ledger.Liability, checkBalance bool) error {
	if l.UserID == uuid.Nil { return invalid("user_id is required") }
	if strings.TrimSpace(l.Name) == "" { return invalid("name is required") }
	if !l.Kind.Valid() { return invalid("invalid liability kind") }
	if !validCurrency(l.Currency) { return invalid("currency must be a 3-letter code") }
	if l.CurrentBalance.Curr().Code() != l.Currency { return invalid("current_balance currency must be %s", l.Currency) }
	if checkBalance {
		if err := checkAmount("current_balance", l.CurrentBalance, l.Currency); err != nil { return err }
	}
	if l.CreditLimit != nil {
		if l.Kind != ledger.LiabilityCreditCard { return invalid("credit_limit is only allowed on credit cards") }
		if err := checkAmount("credit_limit", *l.CreditLimit, l.Currency); err != nil { return err }
	}
	if l.MonthlyPayment != nil {
		if err := checkAmount("monthly_payment", *l.MonthlyPayment, l.Currency); err != nil { return err }
	}
	if l.InterestRate != nil && (*l.InterestRate < 0 || *l.InterestRate > 100) {
		return invalid("interest_rate must be between 0 and 100")
	}
	return nil
}

func (s *service) CreateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error) {
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	a.Name = strings.TrimSpace(a.Name)
	if err := s.ValidateAsset(a); err != nil { return ledger.Asset{}, err }
	if a.ID == uuid.Nil { a.ID = uuid.New() }
	now := s.now().UTC()
	a.BaseValue = a.CurrentValue
	a.CreatedAt, a.LastUpdated = now, now
	return s.writer.CreateAsset(ctx, a)
}

// UpdateAsset applies editable fields. A changed CurrentValue shifts BaseValue by the
// same delta so the transaction-driven part of the value is preserved.
func (s *service) UpdateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error) {
	if a.UserID == uuid.Nil || a.ID == uuid.Nil { return ledger.Asset{}, errs.ErrInvalid }
	cur, err := s.repo.GetAsset(ctx, a.UserID, a.ID)
	if err != nil { return ledger.Asset{}, err }
	if a.Kind != cur.Kind { return ledger.Asset{}, fmt.Errorf("%w: kind is immutable", errs.ErrUnprocessable) }
	if a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency)); a.Currency != cur.Currency {
		return ledger.Asset{}, fmt.Errorf("%w: currency is immutable", errs.ErrUnprocessable)
	}
	a.Name = strings.TrimSpace(a.Name)
	if err := s.validateAsset(a, changed(cur.CurrentValue, a.CurrentValue)); err != nil { return ledger.Asset{}, err }
	base, err := rebase(cur.BaseValue, cur.CurrentValue, a.CurrentValue)
	if err != nil { return ledger.Asset{}, err }
	a.BaseValue = base
	a.CreatedAt = cur.CreatedAt
	a.LastUpdated = s.now().UTC()
	return s.writer.UpdateAsset(ctx, a)
}

// rebase returns oldBase + (newCurrent - oldCurrent).
func rebase(oldBase, oldCurrent, newCurrent money.Amount) (money.Amount, error) {
	delta, err := newCurrent.Sub(oldCurrent)
	if err != nil { return money.Amount{}, err }
	return oldBase.Add(delta)
}

func (s *service) DeleteAsset(ctx context.Context, userID, assetID uuid.UUID) error {
	if userID == uuid.Nil || assetID == uuid.Nil { return errs.ErrInvalid }
	return s.writer.DeleteAsset(ctx, userID, assetID)
}

func (s *service) GetAsset(ctx context.Context, userID, assetID uuid.UUID) (ledger.Asset, error) {
	if userID == uuid.Nil || assetID == uuid.Nil { return ledger.Asset{}, errs.ErrInvalid }
	return s.repo.GetAsset(ctx, userID, assetID)
}

func (s *service) ListAssets(ctx context.Context, userID uuid.UUID) ([]ledger.Asset, error) {
	if userID == uuid.Nil { return nil, errs.ErrInvalid }
	return s.repo.ListAssets(ctx, userID)
}

func (s *service) CreateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error) {
	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	l.Name = strings.TrimSpace(l.Name)
	if err := s.ValidateLiability(l); err != nil { return ledger.Liability{}, err }
	if l.ID == uuid.Nil { l.ID = uuid.New() }
	now := s.now().UTC()
	l.BaseBalance = l.CurrentBalance
	l.CreatedAt, l.LastUpdated = now, now
	return s.writer.CreateLiability(ctx, l)
}

// UpdateLiability applies editable fields and rebases BaseBalance like UpdateAsset.
func (s *service) UpdateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error) {
	if l.UserID == uuid.Nil || l.ID == uuid.Nil { return ledger.Liability{}, errs.ErrInvalid }
	cur, err := s.repo.GetLiability(ctx, l.UserID, l.ID)
	if err != nil { return ledger.Liability{}, err }
	if l.Kind != cur.Kind { return ledger.Liability{}, fmt.Errorf("%w: kind is immutable", errs.ErrUnprocessable) }
	if l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency)); l.Currency != cur.Currency {
		return ledger.Liability{}, fmt.Errorf("%w: currency is immutable", errs.ErrUnprocessable)
	}
	l.Name = strings.TrimSpace(l.Name)
	if err := s.validateLiability(l, changed(cur.CurrentBalance, l.CurrentBalance)); err != nil { return ledger.Liability{}, err }
	base, err := rebase(cur.BaseBalance, cur.CurrentBalance, l.CurrentBalance)
	if err != nil { return ledger.Liability{}, err }
	l.BaseBalance = base
	l.CreatedAt = cur.CreatedAt
	l.LastUpdated = s.now().UTC()
	return s.writer.UpdateLiability(ctx, l)
}

func (s *service) DeleteLiability(ctx context.Context, userID, liabilityID uuid.UUID) error {
	if userID == uuid.Nil || liabilityID == uuid.Nil { return errs.ErrInvalid }
	return s.writer.DeleteLiability(ctx, userID, liabilityID)
}

func (s *service) GetLiability(ctx context.Context, userID, liabilityID uuid.UUID) (ledger.Liability, error) {
	if userID == uuid.Nil || liabilityID == uuid.Nil { return ledger.Liability{}, errs.ErrInvalid }
	return s.repo.GetLiability(ctx, userID, liabilityID)
}

func (s *service) ListLiabilities(ctx context.Context, userID uuid.UUID) ([]ledger.Liability, error) {
	if userID == uuid.Nil { return nil, errs.ErrInvalid }
	return s.repo.ListLiabilities(ctx, userID)
}
