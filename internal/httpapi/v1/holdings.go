package v1

import (
	"net/http"

	"github.com/tinoosan/wealth/internal/ledger"
)

type listAssetsResponse struct {
	Items []assetResponse `json:"items"`
}

type listLiabilitiesResponse struct {
	Items []liabilityResponse `json:"items"`
}

// POST /v1/assets
func (s *Server) postAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := r.Context().Value(ctxKeyPostAsset).(ledger.Asset)
	if !ok { badRequest(w, "missing validated asset"); return }
	created, err := s.holdings.CreateAsset(r.Context(), a)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, toAssetResponse(created))
}

// GET /v1/assets
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	list, err := s.holdings.ListAssets(r.Context(), userFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	out := listAssetsResponse{Items: make([]assetResponse, 0, len(list))}
	for _, a := range list { out.Items = append(out.Items, toAssetResponse(a)) }
	toJSON(w, http.StatusOK, out)
}

// GET /v1/assets/{id}
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	a, err := s.holdings.GetAsset(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toAssetResponse(a))
}

// PATCH /v1/assets/{id}
func (s *Server) patchAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	var req patchAssetRequest
	if !decodeJSON(w, r, &req) { return }
	cur, err := s.holdings.GetAsset(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	next, err := req.apply(cur)
	if err != nil { badRequest(w, "invalid currency"); return }
	updated, err := s.holdings.UpdateAsset(r.Context(), next)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toAssetResponse(updated))
}

// DELETE /v1/assets/{id}
func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	if err := s.holdings.DeleteAsset(r.Context(), userFrom(r.Context()), id); err != nil { s.serviceError(w, r, err); return }
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/assets/{id}/recompute rebuilds the value from its base and linked transactions.
func (s *Server) recomputeAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	a, err := s.networth.RecomputeAsset(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toAssetResponse(a))
}

// POST /v1/liabilities
func (s *Server) postLiability(w http.ResponseWriter, r *http.Request) {
	l, ok := r.Context().Value(ctxKeyPostLiability).(ledger.Liability)
	if !ok { badRequest(w, "missing validated liability"); return }
	created, err := s.holdings.CreateLiability(r.Context(), l)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, toLiabilityResponse(created))
}

// GET /v1/liabilities
func (s *Server) listLiabilities(w http.ResponseWriter, r *http.Request) {
	list, err := s.holdings.ListLiabilities(r.Context(), userFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	out := listLiabilitiesResponse{Items: make([]liabilityResponse, 0, len(list))}
	for _, l := range list { out.Items = append(out.Items, toLiabilityResponse(l)) }
	toJSON(w, http.StatusOK, out)
}

// GET /v1/liabilities/{id}
func (s *Server) getLiability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	l, err := s.holdings.GetLiability(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toLiabilityResponse(l))
}

// PATCH /v1/liabilities/{id}
func (s *Server) patchLiability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	var req patchLiabilityRequest
	if !decodeJSON(w, r, &req) { return }
	cur, err := s.holdings.GetLiability(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	next, err := req.apply(cur)
	if err != nil { badRequest(w, "invalid currency"); return }
	updated, err := s.holdings.UpdateLiability(r.Context(), next)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toLiabilityResponse(updated))
}

// DELETE /v1/liabilities/{id}
func (s *Server) deleteLiability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	if err := s.holdings.DeleteLiability(r.Context(), userFrom(r.Context()), id); err != nil { s.serviceError(w, r, err); return }
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/liabilities/{id}/recompute
func (s *Server) recomputeLiability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok { return }
	l, err := s.networth.RecomputeLiability(r.Context(), userFrom(r.Context()), id)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toLiabilityResponse(l))
}
