package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
)

// TransactionKind tells whether a transaction is money out or money in.
type TransactionKind string

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool { return k == KindExpense || k == KindIncome }

// DefaultCategory is assigned to transactions saved without a category.
const DefaultCategory = "Other"

// PaymentMethod identifies how a transaction was funded. The empty value means
// no payment method was recorded.
type PaymentMethod string

const (
	PaymentNone        PaymentMethod = ""
	PaymentCash        PaymentMethod = "cash"
	PaymentBankAccount PaymentMethod = "bank_account"
	PaymentCreditCard  PaymentMethod = "credit_card"
	PaymentLoanDebit   PaymentMethod = "loan_debit"
	PaymentOther       PaymentMethod = "other"
)

// Valid reports whether m is a known payment method (including none).
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentNone, PaymentCash, PaymentBankAccount, PaymentCreditCard, PaymentLoanDebit, PaymentOther:
		return true
	}
	return false
}

// AssetKind enumerates what an asset is.
type AssetKind string

const (
	AssetBankAccount    AssetKind = "bank_account"
	AssetInvestment     AssetKind = "investment"
	AssetRealEstate     AssetKind = "real_estate"
	AssetCryptocurrency AssetKind = "cryptocurrency"
	AssetVehicle        AssetKind = "vehicle"
	AssetOther          AssetKind = "other"
)

// AssetKinds lists every asset kind in display order.
var AssetKinds = []AssetKind{AssetBankAccount, AssetInvestment, AssetRealEstate, AssetCryptocurrency, AssetVehicle, AssetOther}

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	for _, v := range AssetKinds {
		if v == k {
			return true
		}
	}
	return false
}

// LiabilityKind enumerates what a liability is.
type LiabilityKind string

const (
	LiabilityCreditCard   LiabilityKind = "credit_card"
	LiabilityMortgage     LiabilityKind = "mortgage"
	LiabilityCarLoan      LiabilityKind = "car_loan"
	LiabilityPersonalLoan LiabilityKind = "personal_loan"
	LiabilityStudentLoan  LiabilityKind = "student_loan"
	LiabilityOther        LiabilityKind = "other"
)

// LiabilityKinds lists every liability kind in display order.
var LiabilityKinds = []LiabilityKind{LiabilityCreditCard, LiabilityMortgage, LiabilityCarLoan, LiabilityPersonalLoan, LiabilityStudentLoan, LiabilityOther}

// Valid reports whether k is a known liability kind.
func (k LiabilityKind) Valid() bool {
	for _, v := range LiabilityKinds {
		if v == k {
			return true
		}
	}
	return false
}

// IsLoan reports whether a LoanDebit payment may be drawn against k.
func (k LiabilityKind) IsLoan() bool { return k.Valid() && k != LiabilityCreditCard }

// User captures the owner of ledger data.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email so uniqueness is case-insensitive.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Transaction is a single income or expense recorded by a user.
// Amount is always positive; Kind carries the direction.
type Transaction struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Date          time.Time
	Amount        money.Amount
	Description   string
	Category      string
	Kind          TransactionKind
	PaymentMethod PaymentMethod
	// SourceAssetID is set for BankAccount payments.
	SourceAssetID *uuid.UUID
	// SourceLiabilityID is set for CreditCard and LoanDebit payments.
	SourceLiabilityID *uuid.UUID
	CreatedAt         time.Time
}

// Signed returns the amount as +amount for income and -amount for expenses.
func (t Transaction) Signed() decimal.Decimal {
	d := t.Amount.Decimal().Abs()
	if t.Kind == KindExpense {
		return d.Neg()
	}
	return d
}

// References reports whether the transaction is funded by the given asset or liability id.
func (t Transaction) References(id uuid.UUID) bool {
	if t.SourceAssetID != nil && *t.SourceAssetID == id {
		return true
	}
	return t.SourceLiabilityID != nil && *t.SourceLiabilityID == id
}

// Asset is something the user owns.
type Asset struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
	Kind   AssetKind
	// CurrentValue is the live value, including the effect of linked transactions.
	CurrentValue money.Amount
	// BaseValue is the part of CurrentValue not explained by linked transactions.
	BaseValue     money.Amount
	PurchaseValue *money.Amount
	PurchaseDate  *time.Time
	Currency      string
	Description   string
	IsLiquid      bool
	LastUpdated   time.Time
	CreatedAt     time.Time
}

// Liability is something the user owes. CurrentBalance is the amount owed.
type Liability struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Kind           LiabilityKind
	CurrentBalance money.Amount
	// BaseBalance is the part of CurrentBalance not explained by linked transactions.
	BaseBalance    money.Amount
	CreditLimit    *money.Amount
	InterestRate   *float64
	MonthlyPayment *money.Amount
	MaturityDate   *time.Time
	Currency       string
	Description    string
	LastUpdated    time.Time
	CreatedAt      time.Time
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) money.Amount {
	a, err := money.NewAmountFromMinorUnits(currency, 0)
	if err != nil {
		return money.MustNewAmount("USD", 0, 0)
	}
	return a
}
