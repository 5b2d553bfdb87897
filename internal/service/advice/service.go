// Package advice turns computed financial summaries into prompts for a text
// generation provider, with deterministic local text when no provider is
// configured or the provider fails.
package advice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/llm"
	"github.com/tinoosan/wealth/internal/service/analytics"
)

const maxQuestionLen = 1000

// Source tells where a Result's text came from.
type Source string

const (
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
)

type Result struct {
	Text        string
	Source      Source
	GeneratedAt time.Time
}

// Config holds the generation settings chosen at startup.
type Config struct {
	Currency    string
	Temperature float64
	MaxTokens   int
	// Language the provider should answer in, e.g. "English".
	Language string
}

type NetWorth interface {
	CalculateNetWorth(ctx context.Context, userID uuid.UUID) (ledger.NetWorthSummary, error)
}

type Analytics interface {
	AnalyzeSpendingPatterns(ctx context.Context, userID uuid.UUID, months int) (analytics.SpendingPatterns, error)
	DetectAnomalies(ctx context.Context, userID uuid.UUID) (analytics.AnomalyReport, error)
	GenerateRecommendations(ctx context.Context, userID uuid.UUID) ([]analytics.Recommendation, error)
}

type Service interface {
	FinancialAdvice(ctx context.Context, userID uuid.UUID) (Result, error)
	SpendingSummary(ctx context.Context, userID uuid.UUID, months int) (Result, error)
	ExplainAnomalies(ctx context.Context, userID uuid.UUID) (Result, error)
	Ask(ctx context.Context, userID uuid.UUID, question string) (Result, error)
}

type service struct {
	networth  NetWorth
	analytics Analytics
	client    llm.Client
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// New builds the service. A nil client always yields fallback text.
func New(nw NetWorth, an Analytics, client llm.Client, cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	return &service{networth: nw, analytics: an, client: client, cfg: cfg, log: logger, now: time.Now}
}

// generate asks the provider and falls back to local text on any failure unless strict is set.
func (s *service) generate(ctx context.Context, op, prompt, fallback string, strict bool) (Result, error) {
	now := s.now().UTC()
	if s.client == nil {
		results.WithLabelValues(op, string(SourceFallback)).Inc()
		return Result{Text: fallback, Source: SourceFallback, GeneratedAt: now}, nil
	}
	text, err := s.client.Complete(ctx, llmRequest(s.cfg, prompt))
	if err != nil {
		if strict {
			results.WithLabelValues(op, "error").Inc()
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Warn("advice provider failed; using fallback", "op", op, "err", err)
		results.WithLabelValues(op, string(SourceFallback)).Inc()
		return Result{Text: fallback, Source: SourceFallback, GeneratedAt: now}, nil
	}
	results.WithLabelValues(op, string(SourceProvider)).Inc()
	return Result{Text: text, Source: SourceProvider, GeneratedAt: now}, nil
}

func (s *service) FinancialAdvice(ctx context.Context, userID uuid.UUID) (Result, error) {
	nw, err := s.networth.CalculateNetWorth(ctx, userID)
	if err != nil { return Result{}, err }
	patterns, err := s.analytics.AnalyzeSpendingPatterns(ctx, userID, analytics.DefaultMonths)
	if err != nil { return Result{}, err }
	recs, err := s.analytics.GenerateRecommendations(ctx, userID)
	if err != nil { return Result{}, err }
	return s.generate(ctx, "financial_advice",
		advicePrompt(s.cfg, nw, patterns, recs),
		adviceFallback(s.cfg, nw, patterns, recs), false)
}

func (s *service) SpendingSummary(ctx context.Context, userID uuid.UUID, months int) (Result, error) {
	patterns, err := s.analytics.AnalyzeSpendingPatterns(ctx, userID, months)
	if err != nil { return Result{}, err }
	return s.generate(ctx, "spending_summary", summaryPrompt(s.cfg, patterns), summaryFallback(s.cfg, patterns), false)
}

func (s *service) ExplainAnomalies(ctx context.Context, userID uuid.UUID) (Result, error) {
	report, err := s.analytics.DetectAnomalies(ctx, userID)
	if err != nil { return Result{}, err }
	return s.generate(ctx, "explain_anomalies", anomalyPrompt(s.cfg, report), anomalyFallback(s.cfg, report), false)
}

// Ask answers a free-form question. Provider failures are returned, not masked.
func (s *service) Ask(ctx context.Context, userID uuid.UUID, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" { return Result{}, fmt.Errorf("%w: question is required", errs.ErrInvalid) }
	if len(question) > maxQuestionLen {
		return Result{}, fmt.Errorf("%w: question is longer than %d characters", errs.ErrInvalid, maxQuestionLen)
	}
	nw, err := s.networth.CalculateNetWorth(ctx, userID)
	if err != nil { return Result{}, err }
	patterns, err := s.analytics.AnalyzeSpendingPatterns(ctx, userID, analytics.DefaultMonths)
	if err != nil { return Result{}, err }
	return s.generate(ctx, "ask", askPrompt(s.cfg, nw, patterns, question), askFallback(s.cfg, nw, patterns), true)
}
