// Package user implements registration, password login and bearer token issue/verify.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

const minPasswordLen = 8

type Repo interface {
	GetUser(ctx context.Context, userID uuid.UUID) (ledger.User, error)
	GetUserByEmail(ctx context.Context, email string) (ledger.User, error)
}

type Writer interface {
	CreateUser(ctx context.Context, u ledger.User) (ledger.User, error)
}

// Config controls token signing. An empty Secret disables token issue.
type Config struct {
	Secret     string
	Issuer     string
	TTL        time.Duration
	BcryptCost int
}

// Claims carries the user id as the token subject.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Token is a signed bearer token for a user.
type Token struct {
	Value     string
	ExpiresAt time.Time
	User      ledger.User
}

type Service interface {
	Register(ctx context.Context, name, email, password string) (ledger.User, error)
	Login(ctx context.Context, email, password string) (Token, error)
	Verify(token string) (uuid.UUID, error)
	Get(ctx context.Context, userID uuid.UUID) (ledger.User, error)
}

type service struct {
	repo   Repo
	writer Writer
	cfg    Config
	now    func() time.Time
}

func New(repo Repo, writer Writer, cfg Config) Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &service{repo: repo, writer: writer, cfg: cfg, now: time.Now}
}

func (s *service) Register(ctx context.Context, name, email, password string) (ledger.User, error) {
	name = strings.TrimSpace(name)
	email = ledger.NormalizeEmail(email)
	if name == "" { return ledger.User{}, fmt.Errorf("%w: name is required", errs.ErrInvalid) }
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return ledger.User{}, fmt.Errorf("%w: email is invalid", errs.ErrInvalid)
	}
	if len(password) < minPasswordLen {
		return ledger.User{}, fmt.Errorf("%w: password must be at least %d characters", errs.ErrInvalid, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil { return ledger.User{}, fmt.Errorf("hash password: %w", err) }
	now := s.now().UTC()
	return s.writer.CreateUser(ctx, ledger.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (ledger.User, error) {
	if userID == uuid.Nil { return ledger.User{}, errs.ErrInvalid }
	return s.repo.GetUser(ctx, userID)
}

func (s *service) Login(ctx context.Context, email, password string) (Token, error) {
	if s.cfg.Secret == "" {
		return Token{}, fmt.Errorf("%w: token signing is not configured", errs.ErrUnprocessable)
	}
	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) { return Token{}, errs.ErrUnauthorized }
	if err != nil { return Token{}, err }
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Token{}, errs.ErrUnauthorized
	}
	if !u.Active { return Token{}, errs.ErrForbidden }

	now := s.now()
	exp := now.Add(s.cfg.TTL)
	claims := &Claims{
		UserID: u.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil { return Token{}, fmt.Errorf("sign token: %w", err) }
	return Token{Value: signed, ExpiresAt: exp.UTC(), User: u}, nil
}

// Verify checks signature, expiry and issuer and returns the subject user id.
func (s *service) Verify(token string) (uuid.UUID, error) {
	if s.cfg.Secret == "" { return uuid.Nil, errs.ErrUnauthorized }
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil { return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err) }
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid { return uuid.Nil, errs.ErrUnauthorized }
	id, err := uuid.Parse(claims.Subject)
	if err != nil { return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized) }
	return id, nil
}
