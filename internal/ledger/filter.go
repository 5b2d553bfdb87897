package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionFilter narrows a user's transactions. Zero fields match everything;
// From and To are inclusive.
type TransactionFilter struct {
	Kind              TransactionKind
	Category          string
	PaymentMethod     PaymentMethod
	From              *time.Time
	To                *time.Time
	SourceAssetID     *uuid.UUID
	SourceLiabilityID *uuid.UUID
}

// Match reports whether t passes the filter.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.PaymentMethod != PaymentNone && t.PaymentMethod != f.PaymentMethod {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	if f.SourceAssetID != nil && (t.SourceAssetID == nil || *t.SourceAssetID != *f.SourceAssetID) {
		return false
	}
	if f.SourceLiabilityID != nil && (t.SourceLiabilityID == nil || *t.SourceLiabilityID != *f.SourceLiabilityID) {
		return false
	}
	return true
}

// Since is a convenience filter for kind + lower date bound.
func Since(kind TransactionKind, from time.Time) TransactionFilter {
	return TransactionFilter{Kind: kind, From: &from}
}
