package v1

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/wealth/internal/ledger"
)

// pathID parses the {id} URL parameter, answering 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil { badRequest(w, "invalid id"); return uuid.Nil, false }
	return id, true
}

// POST /v1/transactions
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := r.Context().Value(ctxKeyPostTransaction).(ledger.Transaction)
	if !ok { badRequest(w, "missing validated transaction"); return }
	created, err := s.tx.Create(r.Context(), t)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// GET /v1/transactions
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyListTransactions).(listTransactionsQuery)
	if !ok { badRequest(w, "missing validated query"); return }
	list, err := s.tx.List(r.Context(), q.UserID, q.Filter)
	if err != nil { s.serviceError(w, r, err); return }
	out := listTransactionsResponse{Items: make([]transactionResponse, 0, len(list))}
	for _, t := range list { out.Items = append(out.Items, toTransactionResponse(t)) }
	toJSON(w, http.StatusOK, out)
}

// GET /v1/transactions/{id}
func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	t, err := s.tx.Get(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

// PATCH /v1/transactions/{id}
func (s *Server) patchTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	var req patchTransactionRequest
	if !decodeJSON(w, r, &req) { return }
	cur, err := s.tx.Get(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	next, err := req.apply(cur)
	if err != nil { badRequest(w, "invalid currency"); return }
	updated, err := s.tx.Update(r.Context(), next)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toTransactionResponse(updated))
}

// DELETE /v1/transactions/{id}
func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	if err := s.tx.Delete(r.Context(), userFrom(r.Context()), id); err != nil { s.serviceError(w, r, err); return }
	w.WriteHeader(http.StatusNoContent)
}
