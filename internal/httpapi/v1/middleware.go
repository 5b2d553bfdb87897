package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/wealth/internal/ledger"
)

type ctxKey string

const (
	ctxKeyUser             ctxKey = "validatedUser"
	ctxKeyPostTransaction  ctxKey = "validatedPostTransaction"
	ctxKeyListTransactions ctxKey = "validatedListTransactions"
	ctxKeyPostAsset        ctxKey = "validatedPostAsset"
	ctxKeyPostLiability    ctxKey = "validatedPostLiability"
)

func userFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyUser).(uuid.UUID)
	return id
}

// withUser resolves the user_id query parameter for routes without a body.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.resolveUser(w, r, r.URL.Query().Get("user_id"))
		if !ok { return }
		ctx := context.WithValue(r.Context(), ctxKeyUser, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bodyUser(id uuid.UUID) string {
	if id == uuid.Nil { return "" }
	return id.String()
}

// currencyOr upper-cases code, defaulting to the server currency.
func (s *Server) currencyOr(code string) string {
	if code == "" { return s.currency }
	return normalizeCurrency(code)
}

// validatePostTransaction decodes POST /transactions, runs service validation and
// stores the domain transaction in the request context.
func (s *Server) validatePostTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postTransactionRequest
			if !decodeJSON(w, r, &req) { return }
			userID, ok := s.resolveUser(w, r, bodyUser(req.UserID))
			if !ok { return }
			amt, err := money.NewAmountFromMinorUnits(s.currencyOr(req.Currency), req.AmountMinor)
			if err != nil { badRequest(w, "invalid currency"); return }
			t := ledger.Transaction{
				UserID:            userID,
				Date:              req.Date,
				Amount:            amt,
				Description:       req.Description,
				Category:          req.Category,
				Kind:              req.Kind,
				PaymentMethod:     req.PaymentMethod,
				SourceAssetID:     req.SourceAssetID,
				SourceLiabilityID: req.SourceLiabilityID,
			}
			if t.Date.IsZero() { t.Date = time.Now().UTC() }
			if err := s.tx.ValidateTransaction(t); err != nil {
				writeErr(w, http.StatusBadRequest, err.Error(), "validation_error")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostTransaction, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseTime accepts RFC3339 or a bare date. A bare upper bound covers its whole day.
func parseTime(raw string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil { return t.UTC(), true }
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil { return time.Time{}, false }
	if endOfDay { d = d.Add(24*time.Hour - time.Nanosecond) }
	return d, true
}

// validateListTransactions parses the GET /transactions filters.
func (s *Server) validateListTransactions() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			userID, ok := s.resolveUser(w, r, q.Get("user_id"))
			if !ok { return }
			var f ledger.TransactionFilter
			if k := q.Get("kind"); k != "" {
				f.Kind = ledger.TransactionKind(k)
				if !f.Kind.Valid() { badRequest(w, "invalid kind"); return }
			}
			if pm := q.Get("payment_method"); pm != "" {
				f.PaymentMethod = ledger.PaymentMethod(pm)
				if !f.PaymentMethod.Valid() { badRequest(w, "invalid payment_method"); return }
			}
			f.Category = q.Get("category")
			if raw := q.Get("from"); raw != "" {
				t, ok := parseTime(raw, false)
				if !ok { badRequest(w, "invalid from"); return }
				f.From = &t
			}
			if raw := q.Get("to"); raw != "" {
				t, ok := parseTime(raw, true)
				if !ok { badRequest(w, "invalid to"); return }
				f.To = &t
			}
			if raw := q.Get("source_asset_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil { badRequest(w, "invalid source_asset_id"); return }
				f.SourceAssetID = &id
			}
			if raw := q.Get("source_liability_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil { badRequest(w, "invalid source_liability_id"); return }
				f.SourceLiabilityID = &id
			}
			ctx := context.WithValue(r.Context(), ctxKeyListTransactions, listTransactionsQuery{UserID: userID, Filter: f})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostAsset decodes POST /assets into a validated domain asset.
func (s *Server) validatePostAsset() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postAssetRequest
			if !decodeJSON(w, r, &req) { return }
			userID, ok := s.resolveUser(w, r, bodyUser(req.UserID))
			if !ok { return }
			a, err := req.toDomain(userID, s.currencyOr(req.Currency))
			if err != nil { badRequest(w, "invalid currency"); return }
			if err := s.holdings.ValidateAsset(a); err != nil {
				writeErr(w, http.StatusBadRequest, err.Error(), "validation_error")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAsset, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostLiability decodes POST /liabilities into a validated domain liability.
func (s *Server) validatePostLiability() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postLiabilityRequest
			if !decodeJSON(w, r, &req) { return }
			userID, ok := s.resolveUser(w, r, bodyUser(req.UserID))
			if !ok { return }
			l, err := req.toDomain(userID, s.currencyOr(req.Currency))
			if err != nil { badRequest(w, "invalid currency"); return }
			if err := s.holdings.ValidateLiability(l); err != nil {
				writeErr(w, http.StatusBadRequest, err.Error(), "validation_error")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostLiability, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
