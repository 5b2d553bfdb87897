package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// NetWorthSummary is computed on demand from the current store state and never persisted.
type NetWorthSummary struct {
	UserID           uuid.UUID
	Currency         string
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	NetWorth         decimal.Decimal
	LiquidAssets     decimal.Decimal
	// TransactionNetBalance is income minus expenses over every transaction the user has.
	TransactionNetBalance decimal.Decimal
	// CreditUtilization is a percentage (0-100+) of credit-card balances over limits.
	CreditUtilization  float64
	AssetBreakdown     map[AssetKind]decimal.Decimal
	LiabilityBreakdown map[LiabilityKind]decimal.Decimal
	CalculatedAt       time.Time
}
