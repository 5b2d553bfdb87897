package memory

// Package memory provides an in-memory implementation used for development and tests.
// It mirrors the SQL stores closely enough that services can be exercised without a database.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

// txKey tracks ordering for transactions per user: sorted asc by (Date, ID)
type txKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of every service repo and writer.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]ledger.User
	emails       map[string]uuid.UUID
	assets       map[uuid.UUID]ledger.Asset
	liabilities  map[uuid.UUID]ledger.Liability
	transactions map[uuid.UUID]ledger.Transaction
	// Per-user sorted index of transactions for ordered scans and date ranges
	txKeysByUser map[uuid.UUID][]txKey
}

// New constructs an empty in-memory store.
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]ledger.User{}
	s.emails = map[string]uuid.UUID{}
	s.assets = map[uuid.UUID]ledger.Asset{}
	s.liabilities = map[uuid.UUID]ledger.Liability{}
	s.transactions = map[uuid.UUID]ledger.Transaction{}
	s.txKeysByUser = map[uuid.UUID][]txKey{}
	s.mu.Unlock()
}

// Ready always succeeds for the in-memory store.
func (s *Store) Ready(context.Context) error { return nil }

// Seed helpers for local dev/tests. They bypass validation and balance sync.
func (s *Store) SeedUser(u ledger.User) {
	s.mu.Lock(); defer s.mu.Unlock()
	u.Email = ledger.NormalizeEmail(u.Email)
	s.users[u.ID] = u
	if u.Email != "" { s.emails[u.Email] = u.ID }
}
func (s *Store) SeedAsset(a ledger.Asset)         { s.mu.Lock(); s.assets[a.ID] = a; s.mu.Unlock() }
func (s *Store) SeedLiability(l ledger.Liability) { s.mu.Lock(); s.liabilities[l.ID] = l; s.mu.Unlock() }
func (s *Store) SeedTransaction(t ledger.Transaction) {
	s.mu.Lock(); defer s.mu.Unlock()
	s.transactions[t.ID] = t
	s.insertTxIndexLocked(t.UserID, txKey{Date: t.Date, ID: t.ID})
}

// CreateUser stores a user; the email must be unique (case-insensitive).
func (s *Store) CreateUser(_ context.Context, u ledger.User) (ledger.User, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	u.Email = ledger.NormalizeEmail(u.Email)
	if _, taken := s.emails[u.Email]; taken { return ledger.User{}, errs.ErrConflict }
	if _, taken := s.users[u.ID]; taken { return ledger.User{}, errs.ErrConflict }
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, userID uuid.UUID) (ledger.User, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok { return ledger.User{}, errs.ErrNotFound }
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (ledger.User, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	id, ok := s.emails[ledger.NormalizeEmail(email)]
	if !ok { return ledger.User{}, errs.ErrNotFound }
	return s.users[id], nil
}

// CreateTransaction stores a transaction and indexes it by date.
func (s *Store) CreateTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	if _, ok := s.users[t.UserID]; !ok { return ledger.Transaction{}, errs.ErrNotFound }
	if _, exists := s.transactions[t.ID]; exists { return ledger.Transaction{}, errs.ErrConflict }
	s.transactions[t.ID] = t
	s.insertTxIndexLocked(t.UserID, txKey{Date: t.Date, ID: t.ID})
	return t, nil
}

// UpdateTransaction replaces an existing transaction, moving it in the index when its date changed.
func (s *Store) UpdateTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	old, ok := s.transactions[t.ID]
	if !ok || old.UserID != t.UserID { return ledger.Transaction{}, errs.ErrNotFound }
	if !old.Date.Equal(t.Date) {
		s.removeTxIndexLocked(old.UserID, old.ID)
		s.insertTxIndexLocked(t.UserID, txKey{Date: t.Date, ID: t.ID})
	}
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock(); defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID { return errs.ErrNotFound }
	delete(s.transactions, id)
	s.removeTxIndexLocked(userID, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id uuid.UUID) (ledger.Transaction, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID { return ledger.Transaction{}, errs.ErrNotFound }
	return t, nil
}

// ListTransactions returns a user's transactions matching f, ordered by (Date, ID).
func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	keys := s.rangeByTime(userID, f.From, f.To)
	s.mu.RLock(); defer s.mu.RUnlock()
	out := make([]ledger.Transaction, 0, len(keys))
	for _, k := range keys {
		if t, ok := s.transactions[k.ID]; ok && t.UserID == userID && f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// SumTransactions returns income minus expenses over the matching transactions.
func (s *Store) SumTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) (decimal.Decimal, error) {
	txs, err := s.ListTransactions(ctx, userID, f)
	if err != nil { return decimal.Decimal{}, err }
	sum := decimal.Zero
	for _, t := range txs {
		if sum, err = sum.Add(t.Signed()); err != nil { return decimal.Decimal{}, err }
	}
	return sum, nil
}

func (s *Store) CreateAsset(_ context.Context, a ledger.Asset) (ledger.Asset, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	if _, ok := s.users[a.UserID]; !ok { return ledger.Asset{}, errs.ErrNotFound }
	if _, exists := s.assets[a.ID]; exists { return ledger.Asset{}, errs.ErrConflict }
	s.assets[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAsset(_ context.Context, a ledger.Asset) (ledger.Asset, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	old, ok := s.assets[a.ID]
	if !ok || old.UserID != a.UserID { return ledger.Asset{}, errs.ErrNotFound }
	s.assets[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAsset(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock(); defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok || a.UserID != userID { return errs.ErrNotFound }
	delete(s.assets, id)
	return nil
}

func (s *Store) GetAsset(_ context.Context, userID, id uuid.UUID) (ledger.Asset, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok || a.UserID != userID { return ledger.Asset{}, errs.ErrNotFound }
	return a, nil
}

// ListAssets returns a user's assets ordered by creation time.
func (s *Store) ListAssets(_ context.Context, userID uuid.UUID) ([]ledger.Asset, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	out := make([]ledger.Asset, 0)
	for _, a := range s.assets {
		if a.UserID == userID { out = append(out, a) }
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) { return out[i].CreatedAt.Before(out[j].CreatedAt) }
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) CreateLiability(_ context.Context, l ledger.Liability) (ledger.Liability, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	if _, ok := s.users[l.UserID]; !ok { return ledger.Liability{}, errs.ErrNotFound }
	if _, exists := s.liabilities[l.ID]; exists { return ledger.Liability{}, errs.ErrConflict }
	s.liabilities[l.ID] = l
	return l, nil
}

func (s *Store) UpdateLiability(_ context.Context, l ledger.Liability) (ledger.Liability, error) {
	s.mu.Lock(); defer s.mu.Unlock()
	old, ok := s.liabilities[l.ID]
	if !ok || old.UserID != l.UserID { return ledger.Liability{}, errs.ErrNotFound }
	s.liabilities[l.ID] = l
	return l, nil
}

func (s *Store) DeleteLiability(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock(); defer s.mu.Unlock()
	l, ok := s.liabilities[id]
	if !ok || l.UserID != userID { return errs.ErrNotFound }
	delete(s.liabilities, id)
	return nil
}

func (s *Store) GetLiability(_ context.Context, userID, id uuid.UUID) (ledger.Liability, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	l, ok := s.liabilities[id]
	if !ok || l.UserID != userID { return ledger.Liability{}, errs.ErrNotFound }
	return l, nil
}

// ListLiabilities returns a user's liabilities ordered by creation time.
func (s *Store) ListLiabilities(_ context.Context, userID uuid.UUID) ([]ledger.Liability, error) {
	s.mu.RLock(); defer s.mu.RUnlock()
	out := make([]ledger.Liability, 0)
	for _, l := range s.liabilities {
		if l.UserID == userID { out = append(out, l) }
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) { return out[i].CreatedAt.Before(out[j].CreatedAt) }
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func keyLess(a, b txKey) bool {
	if a.Date.Equal(b.Date) { return a.ID.String() < b.ID.String() }
	return a.Date.Before(b.Date)
}

// insertTxIndexLocked inserts k into the per-user sorted index, keeping order asc by (Date, ID).
// Caller must hold s.mu (write lock).
func (s *Store) insertTxIndexLocked(userID uuid.UUID, k txKey) {
	keys := s.txKeysByUser[userID]
	i := sort.Search(len(keys), func(i int) bool { return keyLess(k, keys[i]) })
	keys = append(keys, txKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.txKeysByUser[userID] = keys
}

// removeTxIndexLocked drops id from the per-user index. Caller must hold s.mu (write lock).
func (s *Store) removeTxIndexLocked(userID, id uuid.UUID) {
	keys := s.txKeysByUser[userID]
	for i, k := range keys {
		if k.ID == id {
			s.txKeysByUser[userID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

// rangeByTime returns a copy of keys within [from,to] inclusive for a user.
func (s *Store) rangeByTime(userID uuid.UUID, from, to *time.Time) []txKey {
	s.mu.RLock(); defer s.mu.RUnlock()
	keys := s.txKeysByUser[userID]
	if len(keys) == 0 { return nil }
	start := 0
	if from != nil {
		f := *from
		start = sort.Search(len(keys), func(i int) bool { return !keys[i].Date.Before(f) })
	}
	end := len(keys)
	if to != nil {
		t := *to
		end = sort.Search(len(keys), func(i int) bool { return keys[i].Date.After(t) })
	}
	if start >= end { return nil }
	subset := make([]txKey, end-start)
	copy(subset, keys[start:end])
	return subset
}
