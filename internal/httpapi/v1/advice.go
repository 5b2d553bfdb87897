package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/wealth/internal/service/advice"
)

type adviceResponse struct {
	Text        string        `json:"text"`
	Source      advice.Source `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type askRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Question string    `json:"question"`
}

func (s *Server) writeAdvice(w http.ResponseWriter, r *http.Request, res advice.Result, err error) {
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, adviceResponse{Text: res.Text, Source: res.Source, GeneratedAt: res.GeneratedAt})
}

// GET /v1/advice
func (s *Server) getAdvice(w http.ResponseWriter, r *http.Request) {
	res, err := s.advice.FinancialAdvice(r.Context(), userFrom(r.Context()))
	s.writeAdvice(w, r, res, err)
}

// GET /v1/advice/summary?months=
func (s *Server) getAdviceSummary(w http.ResponseWriter, r *http.Request) {
	months, ok := monthsParam(r)
	if !ok { badRequest(w, "invalid months"); return }
	res, err := s.advice.SpendingSummary(r.Context(), userFrom(r.Context()), months)
	s.writeAdvice(w, r, res, err)
}

// GET /v1/advice/anomalies
func (s *Server) getAdviceAnomalies(w http.ResponseWriter, r *http.Request) {
	res, err := s.advice.ExplainAnomalies(r.Context(), userFrom(r.Context()))
	s.writeAdvice(w, r, res, err)
}

// POST /v1/advice/ask
func (s *Server) postAdviceAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, &req) { return }
	userID, ok := s.resolveUser(w, r, bodyUser(req.UserID))
	if !ok { return }
	res, err := s.advice.Ask(r.Context(), userID, req.Question)
	s.writeAdvice(w, r, res, err)
}
