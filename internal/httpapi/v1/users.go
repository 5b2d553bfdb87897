package v1

import "net/http"

// POST /v1/users
func (s *Server) postUser(w http.ResponseWriter, r *http.Request) {
	var req postUserRequest
	if !decodeJSON(w, r, &req) { return }
	u, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, toUserResponse(u))
}

// POST /v1/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) { return }
	tok, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, loginResponse{Token: tok.Value, TokenType: "Bearer", ExpiresAt: tok.ExpiresAt, User: toUserResponse(tok.User)})
}
