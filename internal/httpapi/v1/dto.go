package v1

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/wealth/internal/ledger"
)

func normalizeCurrency(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

// nullableID distinguishes an absent field from an explicit null in PATCH bodies.
type nullableID struct {
	Set   bool
	Value *uuid.UUID
}

func (n *nullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" { n.Value = nil; return nil }
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil { return err }
	n.Value = &id
	return nil
}

func minorOf(a money.Amount) int64 {
	m, _ := a.MinorUnits()
	return m
}

func optionalMinor(a *money.Amount) *int64 {
	if a == nil { return nil }
	m := minorOf(*a)
	return &m
}

func optionalString(a *money.Amount) *string {
	if a == nil { return nil }
	s := a.Decimal().String()
	return &s
}

// Users

type postUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func toUserResponse(u ledger.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Active: u.Active, CreatedAt: u.CreatedAt}
}

// Transactions

type postTransactionRequest struct {
	UserID            uuid.UUID              `json:"user_id"`
	Date              time.Time              `json:"date"`
	AmountMinor       int64                  `json:"amount_minor"`
	Currency          string                 `json:"currency"`
	Description       string                 `json:"description"`
	Category          string                 `json:"category"`
	Kind              ledger.TransactionKind `json:"kind"`
	PaymentMethod     ledger.PaymentMethod   `json:"payment_method"`
	SourceAssetID     *uuid.UUID             `json:"source_asset_id,omitempty"`
	SourceLiabilityID *uuid.UUID             `json:"source_liability_id,omitempty"`
}

type patchTransactionRequest struct {
	Date              *time.Time              `json:"date"`
	AmountMinor       *int64                  `json:"amount_minor"`
	Currency          *string                 `json:"currency"`
	Description       *string                 `json:"description"`
	Category          *string                 `json:"category"`
	Kind              *ledger.TransactionKind `json:"kind"`
	PaymentMethod     *ledger.PaymentMethod   `json:"payment_method"`
	SourceAssetID     nullableID              `json:"source_asset_id"`
	SourceLiabilityID nullableID              `json:"source_liability_id"`
}

// apply overlays the patch on t.
func (p patchTransactionRequest) apply(t ledger.Transaction) (ledger.Transaction, error) {
	if p.Date != nil { t.Date = *p.Date }
	if p.AmountMinor != nil || p.Currency != nil {
		minor, cur := minorOf(t.Amount), t.Amount.Curr().Code()
		if p.AmountMinor != nil { minor = *p.AmountMinor }
		if p.Currency != nil { cur = normalizeCurrency(*p.Currency) }
		amt, err := money.NewAmountFromMinorUnits(cur, minor)
		if err != nil { return t, err }
		t.Amount = amt
	}
	if p.Description != nil { t.Description = *p.Description }
	if p.Category != nil { t.Category = *p.Category }
	if p.Kind != nil { t.Kind = *p.Kind }
	if p.PaymentMethod != nil { t.PaymentMethod = *p.PaymentMethod }
	if p.SourceAssetID.Set { t.SourceAssetID = p.SourceAssetID.Value }
	if p.SourceLiabilityID.Set { t.SourceLiabilityID = p.SourceLiabilityID.Value }
	return t, nil
}

type transactionResponse struct {
	ID                uuid.UUID              `json:"id"`
	UserID            uuid.UUID              `json:"user_id"`
	Date              time.Time              `json:"date"`
	AmountMinor       int64                  `json:"amount_minor"`
	Amount            string                 `json:"amount"`
	Currency          string                 `json:"currency"`
	Description       string                 `json:"description"`
	Category          string                 `json:"category"`
	Kind              ledger.TransactionKind `json:"kind"`
	PaymentMethod     ledger.PaymentMethod   `json:"payment_method,omitempty"`
	SourceAssetID     *uuid.UUID             `json:"source_asset_id,omitempty"`
	SourceLiabilityID *uuid.UUID             `json:"source_liability_id,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// listTransactionsQuery holds validated query params for GET /transactions.
type listTransactionsQuery struct {
	UserID uuid.UUID
	Filter ledger.TransactionFilter
}

type listTransactionsResponse struct {
	Items []transactionResponse `json:"items"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		UserID:            t.UserID,
		Date:              t.Date,
		AmountMinor:       minorOf(t.Amount),
		Amount:            t.Amount.Decimal().String(),
		Currency:          t.Amount.Curr().Code(),
		Description:       t.Description,
		Category:          t.Category,
		Kind:              t.Kind,
		PaymentMethod:     t.PaymentMethod,
		SourceAssetID:     t.SourceAssetID,
		SourceLiabilityID: t.SourceLiabilityID,
		CreatedAt:         t.CreatedAt,
	}
}

// Assets

type postAssetRequest struct {
	UserID             uuid.UUID        `json:"user_id"`
	Name               string           `json:"name"`
	Kind               ledger.AssetKind `json:"kind"`
	Currency           string           `json:"currency"`
	CurrentValueMinor  int64            `json:"current_value_minor"`
	PurchaseValueMinor *int64           `json:"purchase_value_minor,omitempty"`
	PurchaseDate       *time.Time       `json:"purchase_date,omitempty"`
	Description        string           `json:"description"`
	IsLiquid           bool             `json:"is_liquid"`
}

func (req postAssetRequest) toDomain(userID uuid.UUID, currency string) (ledger.Asset, error) {
	cur, err := ledger.AmountFromMinor(currency, req.CurrentValueMinor)
	if err != nil { return ledger.Asset{}, err }
	purchase, err := ledger.OptionalAmountFromMinor(currency, req.PurchaseValueMinor)
	if err != nil { return ledger.Asset{}, err }
	return ledger.Asset{
		UserID:        userID,
		Name:          req.Name,
		Kind:          req.Kind,
		Currency:      currency,
		CurrentValue:  cur,
		PurchaseValue: purchase,
		PurchaseDate:  req.PurchaseDate,
		Description:   req.Description,
		IsLiquid:      req.IsLiquid,
	}, nil
}

// patchAssetRequest may carry kind and currency so that attempts to change them
// reach the service and are rejected there.
type patchAssetRequest struct {
	Name               *string           `json:"name"`
	Kind               *ledger.AssetKind `json:"kind"`
	Currency           *string           `json:"currency"`
	CurrentValueMinor  *int64            `json:"current_value_minor"`
	PurchaseValueMinor *int64            `json:"purchase_value_minor"`
	PurchaseDate       *time.Time        `json:"purchase_date"`
	Description        *string           `json:"description"`
	IsLiquid           *bool             `json:"is_liquid"`
}

func (p patchAssetRequest) apply(a ledger.Asset) (ledger.Asset, error) {
	if p.Name != nil { a.Name = *p.Name }
	if p.Kind != nil { a.Kind = *p.Kind }
	if p.Currency != nil { a.Currency = normalizeCurrency(*p.Currency) }
	if p.CurrentValueMinor != nil {
		v, err := ledger.AmountFromMinor(a.Currency, *p.CurrentValueMinor)
		if err != nil { return a, err }
		a.CurrentValue = v
	}
	if p.PurchaseValueMinor != nil {
		v, err := ledger.AmountFromMinor(a.Currency, *p.PurchaseValueMinor)
		if err != nil { return a, err }
		a.PurchaseValue = &v
	}
	if p.PurchaseDate != nil { a.PurchaseDate = p.PurchaseDate }
	if p.Description != nil { a.Description = *p.Description }
	if p.IsLiquid != nil { a.IsLiquid = *p.IsLiquid }
	return a, nil
}

type assetResponse struct {
	ID                 uuid.UUID        `json:"id"`
	UserID             uuid.UUID        `json:"user_id"`
	Name               string           `json:"name"`
	Kind               ledger.AssetKind `json:"kind"`
	Currency           string           `json:"currency"`
	CurrentValueMinor  int64            `json:"current_value_minor"`
	CurrentValue       string           `json:"current_value"`
	BaseValueMinor     int64            `json:"base_value_minor"`
	PurchaseValueMinor *int64           `json:"purchase_value_minor,omitempty"`
	PurchaseValue      *string          `json:"purchase_value,omitempty"`
	PurchaseDate       *time.Time       `json:"purchase_date,omitempty"`
	Description        string           `json:"description"`
	IsLiquid           bool             `json:"is_liquid"`
	LastUpdated        time.Time        `json:"last_updated"`
	CreatedAt          time.Time        `json:"created_at"`
}

func toAssetResponse(a ledger.Asset) assetResponse {
	return assetResponse{
		ID:                 a.ID,
		UserID:             a.UserID,
		Name:               a.Name,
		Kind:               a.Kind,
		Currency:           a.Currency,
		CurrentValueMinor:  minorOf(a.CurrentValue),
		CurrentValue:       a.CurrentValue.Decimal().String(),
		BaseValueMinor:     minorOf(a.BaseValue),
		PurchaseValueMinor: optionalMinor(a.PurchaseValue),
		PurchaseValue:      optionalString(a.PurchaseValue),
		PurchaseDate:       a.PurchaseDate,
		Description:        a.Description,
		IsLiquid:           a.IsLiquid,
		LastUpdated:        a.LastUpdated,
		CreatedAt:          a.CreatedAt,
	}
}

// Liabilities

type postLiabilityRequest struct {
	UserID              uuid.UUID            `json:"user_id"`
	Name                string               `json:"name"`
	Kind                ledger.LiabilityKind `json:"kind"`
	Currency            string               `json:"currency"`
	CurrentBalanceMinor int64                `json:"current_balance_minor"`
	CreditLimitMinor    *int64               `json:"credit_limit_minor,omitempty"`
	InterestRate        *float64             `json:"interest_rate,omitempty"`
	MonthlyPaymentMinor *int64               `json:"monthly_payment_minor,omitempty"`
	MaturityDate        *time.Time           `json:"maturity_date,omitempty"`
	Description         string               `json:"description"`
}

func (req postLiabilityRequest) toDomain(userID uuid.UUID, currency string) (ledger.Liability, error) {
	bal, err := ledger.AmountFromMinor(currency, req.CurrentBalanceMinor)
	if err != nil { return ledger.Liability{}, err }
	limit, err := ledger.OptionalAmountFromMinor(currency, req.CreditLimitMinor)
	if err != nil { return ledger.Liability{}, err }
	monthly, err := ledger.OptionalAmountFromMinor(currency, req.MonthlyPaymentMinor)
	if err != nil { return ledger.Liability{}, err }
	return ledger.Liability{
		UserID:         userID,
		Name:           req.Name,
		Kind:           req.Kind,
		Currency:       currency,
		CurrentBalance: bal,
		CreditLimit:    limit,
		InterestRate:   req.InterestRate,
		MonthlyPayment: monthly,
		MaturityDate:   req.MaturityDate,
		Description:    req.Description,
	}, nil
}

type patchLiabilityRequest struct {
	Name                *string               `json:"name"`
	Kind                *ledger.LiabilityKind `json:"kind"`
	Currency            *string               `json:"currency"`
	CurrentBalanceMinor *int64                `json:"current_balance_minor"`
	CreditLimitMinor    *int64                `json:"credit_limit_minor"`
	InterestRate        *float64              `json:"interest_rate"`
	MonthlyPaymentMinor *int64                `json:"monthly_payment_minor"`
	MaturityDate        *time.Time            `json:"maturity_date"`
	Description         *string               `json:"description"`
}

func (p patchLiabilityRequest) apply(l ledger.Liability) (ledger.Liability, error) {
	if p.Name != nil { l.Name = *p.Name }
	if p.Kind != nil { l.Kind = *p.Kind }
	if p.Currency != nil { l.Currency = normalizeCurrency(*p.Currency) }
	if p.CurrentBalanceMinor != nil {
		v, err := ledger.AmountFromMinor(l.Currency, *p.CurrentBalanceMinor)
		if err != nil { return l, err }
		l.CurrentBalance = v
	}
	if p.CreditLimitMinor != nil {
		v, err := ledger.AmountFromMinor(l.Currency, *p.CreditLimitMinor)
		if err != nil { return l, err }
		l.CreditLimit = &v
	}
	if p.MonthlyPaymentMinor != nil {
		v, err := ledger.AmountFromMinor(l.Currency, *p.MonthlyPaymentMinor)
		if err != nil { return l, err }
		l.MonthlyPayment = &v
	}
	if p.InterestRate != nil { l.InterestRate = p.InterestRate }
	if p.MaturityDate != nil { l.MaturityDate = p.MaturityDate }
	if p.Description != nil { l.Description = *p.Description }
	return l, nil
}

type liabilityResponse struct {
	ID                  uuid.UUID            `json:"id"`
	UserID              uuid.UUID            `json:"user_id"`
	Name                string               `json:"name"`
	Kind                ledger.LiabilityKind `json:"kind"`
	Currency            string               `json:"currency"`
	CurrentBalanceMinor int64                `json:"current_balance_minor"`
	CurrentBalance      string               `json:"current_balance"`
	BaseBalanceMinor    int64                `json:"base_balance_minor"`
	CreditLimitMinor    *int64               `json:"credit_limit_minor,omitempty"`
	InterestRate        *float64             `json:"interest_rate,omitempty"`
	MonthlyPaymentMinor *int64               `json:"monthly_payment_minor,omitempty"`
	MaturityDate        *time.Time           `json:"maturity_date,omitempty"`
	Description         string               `json:"description"`
	LastUpdated         time.Time            `json:"last_updated"`
	CreatedAt           time.Time            `json:"created_at"`
}

func toLiabilityResponse(l ledger.Liability) liabilityResponse {
	return liabilityResponse{
		ID:                  l.ID,
		UserID:              l.UserID,
		Name:                l.Name,
		Kind:                l.Kind,
		Currency:            l.Currency,
		CurrentBalanceMinor: minorOf(l.CurrentBalance),
		CurrentBalance:      l.CurrentBalance.Decimal().String(),
		BaseBalanceMinor:    minorOf(l.BaseBalance),
		CreditLimitMinor:    optionalMinor(l.CreditLimit),
		InterestRate:        l.InterestRate,
		MonthlyPaymentMinor: optionalMinor(l.MonthlyPayment),
		MaturityDate:        l.MaturityDate,
		Description:         l.Description,
		LastUpdated:         l.LastUpdated,
		CreatedAt:           l.CreatedAt,
	}
}
