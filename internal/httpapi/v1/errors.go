package v1

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/wealth/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)                 { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func unauthorized(w http.ResponseWriter, msg string) { writeErr(w, http.StatusUnauthorized, msg, "unauthorized") }
func forbidden(w http.ResponseWriter, msg string)    { writeErr(w, http.StatusForbidden, msg, "forbidden") }
func conflict(w http.ResponseWriter, msg string)     { writeErr(w, http.StatusConflict, msg, "conflict") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// serviceError maps service sentinels onto statuses. Anything unrecognised is
// logged with the request id and reported as a bare 500.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err.Error(), "validation_error")
	case errors.Is(err, errs.ErrUnprocessable):
		unprocessable(w, err.Error(), "unprocessable")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		unauthorized(w, "unauthorized")
	case errors.Is(err, errs.ErrForbidden):
		forbidden(w, "forbidden")
	case errors.Is(err, errs.ErrProviderUnavailable):
		s.log.Warn("text provider unavailable", "req_id", chimw.GetReqID(r.Context()), "err", err)
		writeErr(w, http.StatusBadGateway, "advice provider unavailable", "provider_unavailable")
	default:
		s.log.Error("request failed", "req_id", chimw.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
	}
}
