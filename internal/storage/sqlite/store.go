// Package sqlite provides a single-file storage implementation on database/sql
// and mattn/go-sqlite3 for local installs that do not run Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/mattn/go-sqlite3"

	"github.com/tinoosan/wealth/db"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

// timeLayout has a fixed width so text comparison orders timestamps correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: conn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ready(ctx context.Context) error { return s.db.PingContext(ctx) }

// Migrate applies embedded scripts newer than PRAGMA user_version, one transaction each.
func (s *Store) Migrate(ctx context.Context) error {
	scripts, err := db.SQLite()
	if err != nil {
		return err
	}
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i, sc := range scripts {
		version := i + 1
		if version <= current {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, sc.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", sc.Name, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
		slog.Info("applied sqlite migration", "version", version, "name", sc.Name)
	}
	return nil
}

func mapErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", errs.ErrConflict, se.Error())
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s", errs.ErrNotFound, se.Error())
		}
	}
	return err
}

func notFound(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func fmtOptTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

func parseOptTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseOptID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

type scanner interface{ Scan(dest ...any) error }

// --- Users ---

const userColumns = `id, name, coalesce(email, ''), password_hash, active, created_at, updated_at`

func scanUser(row scanner) (ledger.User, error) {
	var u ledger.User
	var id, created, updated string
	err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, err
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return ledger.User{}, err
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return ledger.User{}, err
	}
	u.UpdatedAt, err = parseTime(updated)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u ledger.User) (ledger.User, error) {
	u.Email = ledger.NormalizeEmail(u.Email)
	email := sql.NullString{String: u.Email, Valid: u.Email != ""}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Name, email, u.PasswordHash, u.Active, fmtTime(u.CreatedAt), fmtTime(u.UpdatedAt))
	if err != nil {
		return ledger.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (ledger.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID.String()))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (ledger.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, ledger.NormalizeEmail(email)))
}

// --- Transactions ---

const txColumns = `id, user_id, date, amount_minor, currency, description, category, kind, payment_method,
	source_asset_id, source_liability_id, created_at`

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	var id, userID, date, currency, created string
	var minor int64
	var assetID, liabilityID sql.NullString
	err := row.Scan(&id, &userID, &date, &minor, &currency, &t.Description, &t.Category, &t.Kind,
		&t.PaymentMethod, &assetID, &liabilityID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return ledger.Transaction{}, err
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return ledger.Transaction{}, err
	}
	if t.Date, err = parseTime(date); err != nil {
		return ledger.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return ledger.Transaction{}, err
	}
	if t.SourceAssetID, err = parseOptID(assetID); err != nil {
		return ledger.Transaction{}, err
	}
	if t.SourceLiabilityID, err = parseOptID(liabilityID); err != nil {
		return ledger.Transaction{}, err
	}
	t.Amount, err = ledger.AmountFromMinor(currency, minor)
	return t, err
}

func whereTransactions(userID uuid.UUID, f ledger.TransactionFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID.String()}
	add := func(clause string, v any) {
		clauses = append(clauses, clause)
		args = append(args, v)
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if f.Category != "" {
		add("category = ? COLLATE NOCASE", f.Category)
	}
	if f.PaymentMethod != ledger.PaymentNone {
		add("payment_method = ?", string(f.PaymentMethod))
	}
	if f.From != nil {
		add("date >= ?", fmtTime(*f.From))
	}
	if f.To != nil {
		add("date <= ?", fmtTime(*f.To))
	}
	if f.SourceAssetID != nil {
		add("source_asset_id = ?", f.SourceAssetID.String())
	}
	if f.SourceLiabilityID != nil {
		add("source_liability_id = ?", f.SourceLiabilityID.String())
	}
	return strings.Join(clauses, " AND "), args
}

func (s *Store) CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	minor, err := ledger.Minor(t.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, amount_minor, currency, description, category, kind,
			payment_method, source_asset_id, source_liability_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), fmtTime(t.Date), minor, t.Amount.Curr().Code(), t.Description, t.Category,
		string(t.Kind), string(t.PaymentMethod), optID(t.SourceAssetID), optID(t.SourceLiabilityID), fmtTime(t.CreatedAt))
	if err != nil {
		return ledger.Transaction{}, mapErr(err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	minor, err := ledger.Minor(t.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount_minor = ?, currency = ?, description = ?, category = ?, kind = ?,
			payment_method = ?, source_asset_id = ?, source_liability_id = ?
		WHERE id = ? AND user_id = ?`,
		fmtTime(t.Date), minor, t.Amount.Curr().Code(), t.Description, t.Category, string(t.Kind),
		string(t.PaymentMethod), optID(t.SourceAssetID), optID(t.SourceLiabilityID), t.ID.String(), t.UserID.String())
	if err := notFound(res, err); err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id.String(), userID.String()))
}

func (s *Store) GetTransaction(ctx context.Context, userID, id uuid.UUID) (ledger.Transaction, error) {
	return scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id.String(), userID.String()))
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	where, args := whereTransactions(userID, f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE `+where+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumTransactions returns income minus expenses over the matching transactions.
func (s *Store) SumTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) (decimal.Decimal, error) {
	where, args := whereTransactions(userID, f)
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency, COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_minor ELSE -amount_minor END), 0)
		FROM transactions
		WHERE `+where+`
		GROUP BY currency`, args...)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer func() { _ = rows.Close() }()
	total := decimal.Zero
	for rows.Next() {
		var currency string
		var minor int64
		if err := rows.Scan(&currency, &minor); err != nil {
			return decimal.Decimal{}, err
		}
		amt, err := ledger.AmountFromMinor(currency, minor)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if total, err = total.Add(amt.Decimal()); err != nil {
			return decimal.Decimal{}, err
		}
	}
	return total, rows.Err()
}

// --- Assets ---

const assetColumns = `id, user_id, name, kind, currency, current_minor, base_minor, purchase_minor, purchase_date,
	description, is_liquid, last_updated, created_at`

func scanAsset(row scanner) (ledger.Asset, error) {
	var a ledger.Asset
	var id, userID, updated, created string
	var current, base int64
	var purchase sql.NullInt64
	var purchaseDate sql.NullString
	err := row.Scan(&id, &userID, &a.Name, &a.Kind, &a.Currency, &current, &base, &purchase, &purchaseDate,
		&a.Description, &a.IsLiquid, &updated, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Asset{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Asset{}, err
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return ledger.Asset{}, err
	}
	if a.UserID, err = uuid.Parse(userID); err != nil {
		return ledger.Asset{}, err
	}
	if a.LastUpdated, err = parseTime(updated); err != nil {
		return ledger.Asset{}, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return ledger.Asset{}, err
	}
	if a.PurchaseDate, err = parseOptTime(purchaseDate); err != nil {
		return ledger.Asset{}, err
	}
	if a.CurrentValue, err = ledger.AmountFromMinor(a.Currency, current); err != nil {
		return ledger.Asset{}, err
	}
	if a.BaseValue, err = ledger.AmountFromMinor(a.Currency, base); err != nil {
		return ledger.Asset{}, err
	}
	a.PurchaseValue, err = ledger.OptionalAmountFromMinor(a.Currency, intPtr(purchase))
	return a, err
}

func assetArgs(a ledger.Asset) (current, base int64, purchase sql.NullInt64, err error) {
	if current, err = ledger.Minor(a.CurrentValue); err != nil {
		return
	}
	if base, err = ledger.Minor(a.BaseValue); err != nil {
		return
	}
	p, err := ledger.OptionalMinor(a.PurchaseValue)
	return current, base, optInt(p), err
}

func (s *Store) CreateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error) {
	current, base, purchase, err := assetArgs(a)
	if err != nil {
		return ledger.Asset{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assets (id, user_id, name, kind, currency, current_minor, base_minor, purchase_minor,
			purchase_date, description, is_liquid, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID.String(), a.Name, string(a.Kind), a.Currency, current, base, purchase,
		fmtOptTime(a.PurchaseDate), a.Description, a.IsLiquid, fmtTime(a.LastUpdated), fmtTime(a.CreatedAt))
	if err != nil {
		return ledger.Asset{}, mapErr(err)
	}
	return a, nil
}

func (s *Store) UpdateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error) {
	current, base, purchase, err := assetArgs(a)
	if err != nil {
		return ledger.Asset{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET name = ?, current_minor = ?, base_minor = ?, purchase_minor = ?, purchase_date = ?,
			description = ?, is_liquid = ?, last_updated = ?
		WHERE id = ? AND user_id = ?`,
		a.Name, current, base, purchase, fmtOptTime(a.PurchaseDate), a.Description, a.IsLiquid,
		fmtTime(a.LastUpdated), a.ID.String(), a.UserID.String())
	if err := notFound(res, err); err != nil {
		return ledger.Asset{}, err
	}
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ? AND user_id = ?`, id.String(), userID.String()))
}

func (s *Store) GetAsset(ctx context.Context, userID, id uuid.UUID) (ledger.Asset, error) {
	return scanAsset(s.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ? AND user_id = ?`, id.String(), userID.String()))
}

func (s *Store) ListAssets(ctx context.Context, userID uuid.UUID) ([]ledger.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE user_id = ? ORDER BY created_at, id`, userID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]ledger.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Liabilities ---

const liabilityColumns = `id, user_id, name, kind, currency, balance_minor, base_minor, credit_limit_minor,
	interest_rate, monthly_payment_minor, maturity_date, description, last_updated, created_at`

func scanLiability(row scanner) (ledger.Liability, error) {
	var l ledger.Liability
	var id, userID, updated, created string
	var balance, base int64
	var limit, payment sql.NullInt64
	var rate sql.NullFloat64
	var maturity sql.NullString
	err := row.Scan(&id, &userID, &l.Name, &l.Kind, &l.Currency, &balance, &base, &limit,
		&rate, &payment, &maturity, &l.Description, &updated, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Liability{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Liability{}, err
	}
	if l.ID, err = uuid.Parse(id); err != nil {
		return ledger.Liability{}, err
	}
	if l.UserID, err = uuid.Parse(userID); err != nil {
		return ledger.Liability{}, err
	}
	if l.LastUpdated, err = parseTime(updated); err != nil {
		return ledger.Liability{}, err
	}
	if l.CreatedAt, err = parseTime(created); err != nil {
		return ledger.Liability{}, err
	}
	if l.MaturityDate, err = parseOptTime(maturity); err != nil {
		return ledger.Liability{}, err
	}
	if rate.Valid {
		r := rate.Float64
		l.InterestRate = &r
	}
	if l.CurrentBalance, err = ledger.AmountFromMinor(l.Currency, balance); err != nil {
		return ledger.Liability{}, err
	}
	if l.BaseBalance, err = ledger.AmountFromMinor(l.Currency, base); err != nil {
		return ledger.Liability{}, err
	}
	if l.CreditLimit, err = ledger.OptionalAmountFromMinor(l.Currency, intPtr(limit)); err != nil {
		return ledger.Liability{}, err
	}
	l.MonthlyPayment, err = ledger.OptionalAmountFromMinor(l.Currency, intPtr(payment))
	return l, err
}

type liabilityArgs struct {
	balance, base  int64
	limit, payment sql.NullInt64
	rate           sql.NullFloat64
}

func liabilityValues(l ledger.Liability) (liabilityArgs, error) {
	var a liabilityArgs
	var err error
	if a.balance, err = ledger.Minor(l.CurrentBalance); err != nil {
		return a, err
	}
	if a.base, err = ledger.Minor(l.BaseBalance); err != nil {
		return a, err
	}
	limit, err := ledger.OptionalMinor(l.CreditLimit)
	if err != nil {
		return a, err
	}
	payment, err := ledger.OptionalMinor(l.MonthlyPayment)
	if err != nil {
		return a, err
	}
	a.limit, a.payment = optInt(limit), optInt(payment)
	if l.InterestRate != nil {
		a.rate = sql.NullFloat64{Float64: *l.InterestRate, Valid: true}
	}
	return a, nil
}

func (s *Store) CreateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error) {
	v, err := liabilityValues(l)
	if err != nil {
		return ledger.Liability{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO liabilities (id, user_id, name, kind, currency, balance_minor, base_minor, credit_limit_minor,
			interest_rate, monthly_payment_minor, maturity_date, description, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.UserID.String(), l.Name, string(l.Kind), l.Currency, v.balance, v.base, v.limit,
		v.rate, v.payment, fmtOptTime(l.MaturityDate), l.Description, fmtTime(l.LastUpdated), fmtTime(l.CreatedAt))
	if err != nil {
		return ledger.Liability{}, mapErr(err)
	}
	return l, nil
}

func (s *Store) UpdateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error) {
	v, err := liabilityValues(l)
	if err != nil {
		return ledger.Liability{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE liabilities
		SET name = ?, balance_minor = ?, base_minor = ?, credit_limit_minor = ?, interest_rate = ?,
			monthly_payment_minor = ?, maturity_date = ?, description = ?, last_updated = ?
		WHERE id = ? AND user_id = ?`,
		l.Name, v.balance, v.base, v.limit, v.rate, v.payment, fmtOptTime(l.MaturityDate), l.Description,
		fmtTime(l.LastUpdated), l.ID.String(), l.UserID.String())
	if err := notFound(res, err); err != nil {
		return ledger.Liability{}, err
	}
	return l, nil
}

func (s *Store) DeleteLiability(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(s.db.ExecContext(ctx, `DELETE FROM liabilities WHERE id = ? AND user_id = ?`, id.String(), userID.String()))
}

func (s *Store) GetLiability(ctx context.Context, userID, id uuid.UUID) (ledger.Liability, error) {
	return scanLiability(s.db.QueryRowContext(ctx,
		`SELECT `+liabilityColumns+` FROM liabilities WHERE id = ? AND user_id = ?`, id.String(), userID.String()))
}

func (s *Store) ListLiabilities(ctx context.Context, userID uuid.UUID) ([]ledger.Liability, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+liabilityColumns+` FROM liabilities WHERE user_id = ? ORDER BY created_at, id`, userID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]ledger.Liability, 0)
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
