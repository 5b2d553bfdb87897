// Package transaction implements transaction validation and storage, and keeps
// linked asset and liability balances in sync after every write.
package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/service/networth"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (ledger.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	UpdateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error
}

// Syncer propagates a transaction write onto the holding it references.
type Syncer interface {
	SyncTransactionImpact(ctx context.Context, op networth.Operation, current ledger.Transaction, previous *ledger.Transaction) error
}

// Service exposes validation and CRUD of transactions.
type Service interface {
	ValidateTransaction(t ledger.Transaction) error
	Create(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	Update(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Get(ctx context.Context, userID, id uuid.UUID) (ledger.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error)
}

type service struct {
	repo   Repo
	writer Writer
	sync   Syncer
	log    *slog.Logger
	now    func() time.Time
}

func New(repo Repo, writer Writer, sync Syncer, logger *slog.Logger) Service {
	if logger == nil { logger = slog.Default() }
	return &service{repo: repo, writer: writer, sync: sync, log: logger, now: time.Now}
}

func invalid(msg string) error { return fmt.Errorf("%w: %s", errs.ErrInvalid, msg) }

func (s *service) ValidateTransaction(t ledger.Transaction) error {
	if t.UserID == uuid.Nil { return invalid("user_id is required") }
	if t.Date.IsZero() { return invalid("date is required") }
	if units, ok := t.Amount.MinorUnits(); !ok || units <= 0 {
		return invalid("amount must be > 0")
	}
	if !t.Kind.Valid() { return invalid("kind must be expense or income") }
	if !t.PaymentMethod.Valid() { return invalid("unknown payment_method") }
	if t.SourceAssetID != nil && t.SourceLiabilityID != nil {
		return invalid("a transaction cannot reference both an asset and a liability")
	}
	switch t.PaymentMethod {
	case ledger.PaymentBankAccount:
		if t.SourceLiabilityID != nil { return invalid("bank_account payments reference a source asset") }
	case ledger.PaymentCreditCard, ledger.PaymentLoanDebit:
		if t.SourceAssetID != nil { return invalid(string(t.PaymentMethod) + " payments reference a source liability") }
	case ledger.PaymentNone, ledger.PaymentCash, ledger.PaymentOther:
		if t.SourceAssetID != nil || t.SourceLiabilityID != nil {
			return invalid("source references need a bank_account, credit_card or loan_debit payment method")
		}
	}
	return nil
}

func normalize(t ledger.Transaction) ledger.Transaction {
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" { t.Category = ledger.DefaultCategory }
	t.Description = strings.TrimSpace(t.Description)
	t.Date = t.Date.UTC()
	return t
}

// syncQuietly runs the balance sync; its failures never fail the primary write.
func (s *service) syncQuietly(ctx context.Context, op networth.Operation, current ledger.Transaction, previous *ledger.Transaction) {
	if s.sync == nil { return }
	if err := s.sync.SyncTransactionImpact(ctx, op, current, previous); err != nil {
		s.log.Error("balance sync failed", "op", op, "transaction_id", current.ID, "user_id", current.UserID, "err", err)
	}
}

func (s *service) Create(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	t = normalize(t)
	if err := s.ValidateTransaction(t); err != nil { return ledger.Transaction{}, err }
	if t.ID == uuid.Nil { t.ID = uuid.New() }
	t.CreatedAt = s.now().UTC()
	created, err := s.writer.CreateTransaction(ctx, t)
	if err != nil { return ledger.Transaction{}, err }
	s.syncQuietly(ctx, networth.OpCreate, created, nil)
	return created, nil
}

// Update replaces the mutable fields of an existing transaction. ID, owner and
// creation time are kept from the stored record.
func (s *service) Update(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	if t.UserID == uuid.Nil || t.ID == uuid.Nil { return ledger.Transaction{}, errs.ErrInvalid }
	prev, err := s.repo.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil { return ledger.Transaction{}, err }
	t = normalize(t)
	t.CreatedAt = prev.CreatedAt
	if err := s.ValidateTransaction(t); err != nil { return ledger.Transaction{}, err }
	updated, err := s.writer.UpdateTransaction(ctx, t)
	if err != nil { return ledger.Transaction{}, err }
	s.syncQuietly(ctx, networth.OpUpdate, updated, &prev)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil { return errs.ErrInvalid }
	prev, err := s.repo.GetTransaction(ctx, userID, id)
	if err != nil { return err }
	if err := s.writer.DeleteTransaction(ctx, userID, id); err != nil { return err }
	s.syncQuietly(ctx, networth.OpDelete, prev, nil)
	return nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (ledger.Transaction, error) {
	if userID == uuid.Nil || id == uuid.Nil { return ledger.Transaction{}, errs.ErrInvalid }
	return s.repo.GetTransaction(ctx, userID, id)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	if userID == uuid.Nil { return nil, errs.ErrInvalid }
	if f.From != nil && f.To != nil && f.From.After(*f.To) { return nil, invalid("from must not be after to") }
	return s.repo.ListTransactions(ctx, userID, f)
}
