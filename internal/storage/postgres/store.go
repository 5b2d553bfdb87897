package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the services.
//
// Migrations that create the expected schema live under db/migrations. This
// package only maps between domain entities and SQL rows.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/wealth/db"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil { return nil, err }
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil { return nil, err }
	if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// Migrate applies the embedded schema scripts in order. Every script is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	scripts, err := db.Postgres()
	if err != nil { return err }
	for _, sc := range scripts {
		if _, err := s.pool.Exec(ctx, sc.SQL); err != nil { return fmt.Errorf("apply %s: %w", sc.Name, err) }
	}
	return nil
}

// mapErr translates constraint violations into domain errors.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", errs.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", errs.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// --- Users ---

const userColumns = `id, name, coalesce(email, ''), password_hash, active, created_at, updated_at`

func scanUser(row pgx.Row) (ledger.User, error) {
	var u ledger.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.User{}, errs.ErrNotFound }
	return u, err
}

func nullableString(s string) *string {
	if s == "" { return nil }
	return &s
}

// CreateUser inserts a user; a duplicate email yields errs.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u ledger.User) (ledger.User, error) {
	u.Email = ledger.NormalizeEmail(u.Email)
	_, err := s.pool.Exec(ctx, `
        insert into users (id, name, email, password_hash, active, created_at, updated_at)
        values ($1,$2,$3,$4,$5,$6,$7)
    `, u.ID, u.Name, nullableString(u.Email), u.PasswordHash, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil { return ledger.User{}, mapErr(err) }
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (ledger.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `select `+userColumns+` from users where id = $1`, userID))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (ledger.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `select `+userColumns+` from users where email = $1`, ledger.NormalizeEmail(email)))
}

// --- Transactions ---

const txColumns = `id, user_id, date, amount_minor, currency, description, category, kind, payment_method,
    source_asset_id, source_liability_id, created_at`

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var t ledger.Transaction
	var minor int64
	var currency string
	err := row.Scan(&t.ID, &t.UserID, &t.Date, &minor, &currency, &t.Description, &t.Category, &t.Kind,
		&t.PaymentMethod, &t.SourceAssetID, &t.SourceLiabilityID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Transaction{}, errs.ErrNotFound }
	if err != nil { return ledger.Transaction{}, err }
	t.Date, t.CreatedAt = t.Date.UTC(), t.CreatedAt.UTC()
	if t.Amount, err = ledger.AmountFromMinor(currency, minor); err != nil { return ledger.Transaction{}, err }
	return t, nil
}

// whereTransactions renders f as SQL predicates over the transactions table.
func whereTransactions(userID uuid.UUID, f ledger.TransactionFilter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Kind != "" { add("kind = $%d", string(f.Kind)) }
	if f.Category != "" { add("lower(category) = lower($%d)", f.Category) }
	if f.PaymentMethod != ledger.PaymentNone { add("payment_method = $%d", string(f.PaymentMethod)) }
	if f.From != nil { add("date >= $%d", *f.From) }
	if f.To != nil { add("date <= $%d", *f.To) }
	if f.SourceAssetID != nil { add("source_asset_id = $%d", *f.SourceAssetID) }
	if f.SourceLiabilityID != nil { add("source_liability_id = $%d", *f.SourceLiabilityID) }
	return strings.Join(clauses, " and "), args
}

func (s *Store) CreateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	minor, err := ledger.Minor(t.Amount)
	if err != nil { return ledger.Transaction{}, err }
	_, err = s.pool.Exec(ctx, `
        insert into transactions (id, user_id, date, amount_minor, currency, description, category, kind,
            payment_method, source_asset_id, source_liability_id, created_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `, t.ID, t.UserID, t.Date, minor, t.Amount.Curr().Code(), t.Description, t.Category, string(t.Kind),
		string(t.PaymentMethod), t.SourceAssetID, t.SourceLiabilityID, t.CreatedAt)
	if err != nil { return ledger.Transaction{}, mapErr(err) }
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	minor, err := ledger.Minor(t.Amount)
	if err != nil { return ledger.Transaction{}, err }
	ct, err := s.pool.Exec(ctx, `
        update transactions
        set date=$1, amount_minor=$2, currency=$3, description=$4, category=$5, kind=$6,
            payment_method=$7, source_asset_id=$8, source_liability_id=$9
        where id=$10 and user_id=$11
    `, t.Date, minor, t.Amount.Curr().Code(), t.Description, t.Category, string(t.Kind),
		string(t.PaymentMethod), t.SourceAssetID, t.SourceLiabilityID, t.ID, t.UserID)
	if err != nil { return ledger.Transaction{}, mapErr(err) }
	if ct.RowsAffected() == 0 { return ledger.Transaction{}, errs.ErrNotFound }
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from transactions where id=$1 and user_id=$2`, id, userID)
	if err != nil { return err }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id uuid.UUID) (ledger.Transaction, error) {
	return scanTransaction(s.pool.QueryRow(ctx, `select `+txColumns+` from transactions where id=$1 and user_id=$2`, id, userID))
}

// ListTransactions returns a user's transactions matching f, ordered by (date, id).
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	where, args := whereTransactions(userID, f)
	rows, err := s.pool.Query(ctx, `select `+txColumns+` from transactions where `+where+` order by date asc, id asc`, args...)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil { return nil, err }
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumTransactions returns income minus expenses over the matching transactions.
// Sums are taken per currency in minor units and converted to decimals before adding.
func (s *Store) SumTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) (decimal.Decimal, error) {
	where, args := whereTransactions(userID, f)
	rows, err := s.pool.Query(ctx, `
        select currency, coalesce(sum(case when kind = 'income' then amount_minor else -amount_minor end), 0)::bigint
        from transactions
        where `+where+`
        group by currency
    `, args...)
	if err != nil { return decimal.Decimal{}, err }
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var currency string
		var minor int64
		if err := rows.Scan(&currency, &minor); err != nil { return decimal.Decimal{}, err }
		amt, err := ledger.AmountFromMinor(currency, minor)
		if err != nil { return decimal.Decimal{}, err }
		if total, err = total.Add(amt.Decimal()); err != nil { return decimal.Decimal{}, err }
	}
	return total, rows.Err()
}

// --- Assets ---

const assetColumns = `id, user_id, name, kind, currency, current_minor, base_minor, purchase_minor, purchase_date,
    description, is_liquid, last_updated, created_at`

func scanAsset(row pgx.Row) (ledger.Asset, error) {
	var a ledger.Asset
	var current, base int64
	var purchase *int64
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.Currency, &current, &base, &purchase, &a.PurchaseDate,
		&a.Description, &a.IsLiquid, &a.LastUpdated, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Asset{}, errs.ErrNotFound }
	if err != nil { return ledger.Asset{}, err }
	if a.CurrentValue, err = ledger.AmountFromMinor(a.Currency, current); err != nil { return ledger.Asset{}, err }
	if a.BaseValue, err = ledger.AmountFromMinor(a.Currency, base); err != nil { return ledger.Asset{}, err }
	if a.PurchaseValue, err = ledger.OptionalAmountFromMinor(a.Currency, purchase); err != nil { return ledger.Asset{}, err }
	a.LastUpdated, a.CreatedAt = a.LastUpdated.UTC(), a.CreatedAt.UTC()
	return a, nil
}

type assetRow struct {
	current, base int64
	purchase      *int64
}

func assetMinor(a ledger.Asset) (assetRow, error) {
	var r assetRow
	var err error
	if r.current, err = ledger.Minor(a.CurrentValue); err != nil { return r, err }
	if r.base, err = ledger.Minor(a.BaseValue); err != nil { return r, err }
	r.purchase, err = ledger.OptionalMinor(a.PurchaseValue)
	return r, err
}

func (s *Store) CreateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error) {
	r, err := assetMinor(a)
	if err != nil { return ledger.Asset{}, err }
	_, err = s.pool.Exec(ctx, `
        insert into assets (id, user_id, name, kind, currency, current_minor, base_minor, purchase_minor,
            purchase_date, description, is_liquid, last_updated, created_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, a.ID, a.UserID, a.Name, string(a.Kind), a.Currency, r.current, r.base, r.purchase,
		a.PurchaseDate, a.Description, a.IsLiquid, a.LastUpdated, a.CreatedAt)
	if err != nil { return ledger.Asset{}, mapErr(err) }
	return a, nil
}

// UpdateAsset writes every mutable column; kind and currency are never changed here.
func (s *Store) UpdateAsset(ctx context.Context, a ledger.Asset) (ledger.Asset, error) {
	r, err := assetMinor(a)
	if err != nil { return ledger.Asset{}, err }
	ct, err := s.pool.Exec(ctx, `
        update assets
        set name=$1, current_minor=$2, base_minor=$3, purchase_minor=$4, purchase_date=$5,
            description=$6, is_liquid=$7, last_updated=$8
        where id=$9 and user_id=$10
    `, a.Name, r.current, r.base, r.purchase, a.PurchaseDate, a.Description, a.IsLiquid, a.LastUpdated, a.ID, a.UserID)
	if err != nil { return ledger.Asset{}, err }
	if ct.RowsAffected() == 0 { return ledger.Asset{}, errs.ErrNotFound }
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, userID, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from assets where id=$1 and user_id=$2`, id, userID)
	if err != nil { return err }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

func (s *Store) GetAsset(ctx context.Context, userID, id uuid.UUID) (ledger.Asset, error) {
	return scanAsset(s.pool.QueryRow(ctx, `select `+assetColumns+` from assets where id=$1 and user_id=$2`, id, userID))
}

func (s *Store) ListAssets(ctx context.Context, userID uuid.UUID) ([]ledger.Asset, error) {
	rows, err := s.pool.Query(ctx, `select `+assetColumns+` from assets where user_id=$1 order by created_at asc, id asc`, userID)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]ledger.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil { return nil, err }
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Liabilities ---

const liabilityColumns = `id, user_id, name, kind, currency, balance_minor, base_minor, credit_limit_minor,
    interest_rate, monthly_payment_minor, maturity_date, description, last_updated, created_at`

func scanLiability(row pgx.Row) (ledger.Liability, error) {
	var l ledger.Liability
	var balance, base int64
	var limit, payment *int64
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Kind, &l.Currency, &balance, &base, &limit,
		&l.InterestRate, &payment, &l.MaturityDate, &l.Description, &l.LastUpdated, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Liability{}, errs.ErrNotFound }
	if err != nil { return ledger.Liability{}, err }
	if l.CurrentBalance, err = ledger.AmountFromMinor(l.Currency, balance); err != nil { return ledger.Liability{}, err }
	if l.BaseBalance, err = ledger.AmountFromMinor(l.Currency, base); err != nil { return ledger.Liability{}, err }
	if l.CreditLimit, err = ledger.OptionalAmountFromMinor(l.Currency, limit); err != nil { return ledger.Liability{}, err }
	if l.MonthlyPayment, err = ledger.OptionalAmountFromMinor(l.Currency, payment); err != nil { return ledger.Liability{}, err }
	l.LastUpdated, l.CreatedAt = l.LastUpdated.UTC(), l.CreatedAt.UTC()
	return l, nil
}

type liabilityRow struct {
	balance, base  int64
	limit, payment *int64
}

func liabilityMinor(l ledger.Liability) (liabilityRow, error) {
	var r liabilityRow
	var err error
	if r.balance, err = ledger.Minor(l.CurrentBalance); err != nil { return r, err }
	if r.base, err = ledger.Minor(l.BaseBalance); err != nil { return r, err }
	if r.limit, err = ledger.OptionalMinor(l.CreditLimit); err != nil { return r, err }
	r.payment, err = ledger.OptionalMinor(l.MonthlyPayment)
	return r, err
}

func (s *Store) CreateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error) {
	r, err := liabilityMinor(l)
	if err != nil { return ledger.Liability{}, err }
	_, err = s.pool.Exec(ctx, `
        insert into liabilities (id, user_id, name, kind, currency, balance_minor, base_minor, credit_limit_minor,
            interest_rate, monthly_payment_minor, maturity_date, description, last_updated, created_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    `, l.ID, l.UserID, l.Name, string(l.Kind), l.Currency, r.balance, r.base, r.limit,
		l.InterestRate, r.payment, l.MaturityDate, l.Description, l.LastUpdated, l.CreatedAt)
	if err != nil { return ledger.Liability{}, mapErr(err) }
	return l, nil
}

func (s *Store) UpdateLiability(ctx context.Context, l ledger.Liability) (ledger.Liability, error) {
	r, err := liabilityMinor(l)
	if err != nil { return ledger.Liability{}, err }
	ct, err := s.pool.Exec(ctx, `
        update liabilities
        set name=$1, balance_minor=$2, base_minor=$3, credit_limit_minor=$4, interest_rate=$5,
            monthly_payment_minor=$6, maturity_date=$7, description=$8, last_updated=$9
        where id=$10 and user_id=$11
    `, l.Name, r.balance, r.base, r.limit, l.InterestRate, r.payment, l.MaturityDate, l.Description, l.LastUpdated, l.ID, l.UserID)
	if err != nil { return ledger.Liability{}, err }
	if ct.RowsAffected() == 0 { return ledger.Liability{}, errs.ErrNotFound }
	return l, nil
}

func (s *Store) DeleteLiability(ctx context.Context, userID, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from liabilities where id=$1 and user_id=$2`, id, userID)
	if err != nil { return err }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

func (s *Store) GetLiability(ctx context.Context, userID, id uuid.UUID) (ledger.Liability, error) {
	return scanLiability(s.pool.QueryRow(ctx, `select `+liabilityColumns+` from liabilities where id=$1 and user_id=$2`, id, userID))
}

func (s *Store) ListLiabilities(ctx context.Context, userID uuid.UUID) ([]ledger.Liability, error) {
	rows, err := s.pool.Query(ctx, `select `+liabilityColumns+` from liabilities where user_id=$1 order by created_at asc, id asc`, userID)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]ledger.Liability, 0)
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil { return nil, err }
		out = append(out, l)
	}
	return out, rows.Err()
}
