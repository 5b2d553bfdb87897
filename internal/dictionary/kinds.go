// Package dictionary holds the display labels for the closed vocabularies
// clients pick from: holding kinds, payment methods and suggested categories.
package dictionary

import "github.com/tinoosan/wealth/internal/ledger"

type Term struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// CategoryDef is a suggested spending category. Default marks the one assigned
// when a transaction is saved without a category.
type CategoryDef struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

var assetLabels = map[ledger.AssetKind]string{
	ledger.AssetBankAccount:    "Bank Account",
	ledger.AssetInvestment:     "Investment",
	ledger.AssetRealEstate:     "Real Estate",
	ledger.AssetCryptocurrency: "Cryptocurrency",
	ledger.AssetVehicle:        "Vehicle",
	ledger.AssetOther:          "Other",
}

var liabilityLabels = map[ledger.LiabilityKind]string{
	ledger.LiabilityCreditCard:   "Credit Card",
	ledger.LiabilityMortgage:     "Mortgage",
	ledger.LiabilityCarLoan:      "Car Loan",
	ledger.LiabilityPersonalLoan: "Personal Loan",
	ledger.LiabilityStudentLoan:  "Student Loan",
	ledger.LiabilityOther:        "Other",
}

var paymentMethods = []Term{
	{Code: string(ledger.PaymentCash), Label: "Cash"},
	{Code: string(ledger.PaymentBankAccount), Label: "Bank Account"},
	{Code: string(ledger.PaymentCreditCard), Label: "Credit Card"},
	{Code: string(ledger.PaymentLoanDebit), Label: "Loan Debit"},
	{Code: string(ledger.PaymentOther), Label: "Other"},
}

var categories = []CategoryDef{
	{Name: "Groceries"},
	{Name: "Eating Out"},
	{Name: "Rent"},
	{Name: "Utilities"},
	{Name: "Transport"},
	{Name: "Shopping"},
	{Name: "Entertainment"},
	{Name: "Health"},
	{Name: "Subscriptions"},
	{Name: "Salary"},
	{Name: ledger.DefaultCategory, Default: true},
}

func AssetKinds() []Term {
	out := make([]Term, 0, len(ledger.AssetKinds))
	for _, k := range ledger.AssetKinds {
		out = append(out, Term{Code: string(k), Label: assetLabels[k]})
	}
	return out
}

func LiabilityKinds() []Term {
	out := make([]Term, 0, len(ledger.LiabilityKinds))
	for _, k := range ledger.LiabilityKinds {
		out = append(out, Term{Code: string(k), Label: liabilityLabels[k]})
	}
	return out
}

func PaymentMethods() []Term { return append([]Term(nil), paymentMethods...) }

func TransactionKinds() []Term {
	return []Term{{Code: string(ledger.KindExpense), Label: "Expense"}, {Code: string(ledger.KindIncome), Label: "Income"}}
}

func Categories() []CategoryDef { return append([]CategoryDef(nil), categories...) }
