package ledger

import (
	"fmt"

	"github.com/govalues/money"
)

// AmountFromMinor builds an amount from integer minor units (cents for USD).
func AmountFromMinor(currency string, minor int64) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(currency, minor)
}

// OptionalAmountFromMinor is AmountFromMinor for nullable columns and fields.
func OptionalAmountFromMinor(currency string, minor *int64) (*money.Amount, error) {
	if minor == nil {
		return nil, nil
	}
	a, err := AmountFromMinor(currency, *minor)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Minor returns a in minor units, rounded to the currency scale.
func Minor(a money.Amount) (int64, error) {
	m, ok := a.MinorUnits()
	if !ok {
		return 0, fmt.Errorf("amount %s does not fit in minor units", a)
	}
	return m, nil
}

// OptionalMinor is Minor for nullable amounts.
func OptionalMinor(a *money.Amount) (*int64, error) {
	if a == nil {
		return nil, nil
	}
	m, err := Minor(*a)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
