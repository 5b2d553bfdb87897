package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const ctxKeySubject ctxKey = "authSubject"

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" { return "", false }
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") { return "", false }
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

// authenticate verifies the bearer token and stores its subject for resolveUser.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := parseBearerToken(r)
		if !ok { unauthorized(w, "missing bearer token"); return }
		sub, err := s.users.Verify(tok)
		if err != nil { unauthorized(w, "invalid token"); return }
		ctx := context.WithValue(r.Context(), ctxKeySubject, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func subjectFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKeySubject).(uuid.UUID)
	return id, ok
}

// resolveUser settles which user a request acts for. raw is the user_id the
// client sent (query or body, may be empty). With a verified token the subject
// fills in a missing user_id and must match a supplied one.
func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	sub, authed := subjectFrom(r.Context())
	if raw == "" {
		if authed { return sub, true }
		badRequest(w, "user_id is required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		badRequest(w, "invalid user_id")
		return uuid.Nil, false
	}
	if authed && userID != sub {
		forbidden(w, "user_id does not match token")
		return uuid.Nil, false
	}
	return userID, true
}
