// Package analytics derives spending patterns, anomalies and recommendations
// from a user's expense history. Results are recomputed on every call.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/stats"
)

const (
	// DefaultMonths is the lookback window used when the caller does not pick one.
	DefaultMonths = 3
	// monthsKept is how many of the most recent months with spending feed the monthly statistics.
	monthsKept = 3
	// trendThreshold is the percentage change beyond which a trend is reported.
	trendThreshold = 10.0
)

type Repo interface {
	GetUser(ctx context.Context, userID uuid.UUID) (ledger.User, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, error)
}

type Service interface {
	AnalyzeSpendingPatterns(ctx context.Context, userID uuid.UUID, months int) (SpendingPatterns, error)
	DetectAnomalies(ctx context.Context, userID uuid.UUID) (AnomalyReport, error)
	GenerateRecommendations(ctx context.Context, userID uuid.UUID) ([]Recommendation, error)
}

type Option func(*service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

type service struct {
	repo Repo
	now  func() time.Time
}

func New(repo Repo, opts ...Option) Service {
	s := &service{repo: repo, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// expenses loads the user's expenses dated on or after from.
func (s *service) expenses(ctx context.Context, userID uuid.UUID, from time.Time) ([]ledger.Transaction, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil { return nil, err }
	return s.repo.ListTransactions(ctx, userID, ledger.Since(ledger.KindExpense, from))
}

func amountOf(t ledger.Transaction) float64 { return stats.Float(t.Amount.Decimal().Abs()) }

// newestFirst sorts by date descending, breaking ties by id for a stable order.
func newestFirst(txs []ledger.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID.String() > txs[j].ID.String()
	})
}

// groupByCategory keeps first-seen category spelling; matching is case-insensitive.
func groupByCategory(txs []ledger.Transaction) map[string][]ledger.Transaction {
	out := map[string][]ledger.Transaction{}
	names := map[string]string{}
	for _, t := range txs {
		key := strings.ToLower(strings.TrimSpace(t.Category))
		name, ok := names[key]
		if !ok {
			name = strings.TrimSpace(t.Category)
			if name == "" {
				name = ledger.DefaultCategory
			}
			names[key] = name
		}
		out[name] = append(out[name], t)
	}
	return out
}

func (s *service) AnalyzeSpendingPatterns(ctx context.Context, userID uuid.UUID, months int) (SpendingPatterns, error) {
	if months <= 0 {
		return SpendingPatterns{}, fmt.Errorf("%w: months must be positive", errs.ErrInvalid)
	}
	now := s.now().UTC()
	from := now.AddDate(0, -months, 0)
	out := SpendingPatterns{
		UserID:            userID,
		Months:            months,
		From:              from,
		To:                now,
		Categories:        []CategorySpending{},
		MonthlyTotals:     []MonthlySpending{},
		TrendDirection:    TrendNeutral,
		MostSpentCategory: ledger.DefaultCategory,
		GeneratedAt:       now,
	}
	txs, err := s.expenses(ctx, userID, from)
	if err != nil { return SpendingPatterns{}, err }
	if len(txs) == 0 {
		return out, nil
	}

	amounts := make([]float64, len(txs))
	for i, t := range txs {
		amounts[i] = amountOf(t)
	}
	total := stats.Sum(amounts)
	out.TotalSpent = stats.Round2(total)
	out.TotalTransactions = len(txs)

	for name, group := range groupByCategory(txs) {
		newestFirst(group)
		var sum float64
		for _, t := range group {
			sum += amountOf(t)
		}
		c := CategorySpending{
			Category:        name,
			Total:           stats.Round2(sum),
			Count:           len(group),
			Average:         stats.Round2(sum / float64(len(group))),
			LastTransaction: group[0].Date,
			IsRecurring:     isRecurring(group),
		}
		if total > 0 {
			c.Percentage = stats.Round2(sum / total * 100)
		}
		out.Categories = append(out.Categories, c)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		if out.Categories[i].Total != out.Categories[j].Total {
			return out.Categories[i].Total > out.Categories[j].Total
		}
		return out.Categories[i].Category < out.Categories[j].Category
	})
	out.MostSpentCategory = out.Categories[0].Category

	out.MonthlyTotals = monthlyTotals(txs)
	totals := make([]float64, len(out.MonthlyTotals))
	for i, m := range out.MonthlyTotals {
		totals[i] = m.Total
	}
	mean := stats.Mean(totals)
	out.AverageMonthlySpending = stats.Round2(mean)
	out.HighestSpendingMonth = stats.Max(totals)
	out.LowestSpendingMonth = stats.Min(totals)
	if len(totals) >= 2 && mean != 0 {
		out.SpendingVariance = stats.Round2(stats.PopulationStdDev(totals) / mean * 100)
	}
	out.TrendDirection, out.TrendPercentage = trend(totals)
	return out, nil
}

// isRecurring compares the two most recent transactions of a category (newest first):
// amounts within 10% of the newer one and 20 to 40 days apart.
func isRecurring(group []ledger.Transaction) bool {
	if len(group) < 2 {
		return false
	}
	latest, prev := group[0], group[1]
	a, b := amountOf(latest), amountOf(prev)
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	gapDays := latest.Date.Sub(prev.Date).Hours() / 24
	return diff < 0.1*a && gapDays > 20 && gapDays < 40
}

// monthlyTotals groups by calendar month and keeps the most recent months present, oldest first.
func monthlyTotals(txs []ledger.Transaction) []MonthlySpending {
	byMonth := map[int]*MonthlySpending{}
	for _, t := range txs {
		d := t.Date.UTC()
		key := d.Year()*12 + int(d.Month()) - 1
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlySpending{Year: d.Year(), Month: d.Month()}
			byMonth[key] = m
		}
		m.Total += amountOf(t)
		m.Count++
	}
	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) > monthsKept {
		keys = keys[len(keys)-monthsKept:]
	}
	out := make([]MonthlySpending, 0, len(keys))
	for _, k := range keys {
		m := *byMonth[k]
		m.Total = stats.Round2(m.Total)
		out = append(out, m)
	}
	return out
}

// trend compares the two highest monthly totals, highest against runner-up.
// The months are picked by value rather than by date.
func trend(totals []float64) (Trend, float64) {
	if len(totals) < 2 {
		return TrendNeutral, 0
	}
	sorted := append([]float64(nil), totals...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	current, previous := sorted[0], sorted[1]
	if previous == 0 {
		return TrendNeutral, 0
	}
	change := stats.Round2(stats.PercentChange(previous, current))
	switch {
	case change > trendThreshold:
		return TrendIncreasing, change
	case change < -trendThreshold:
		return TrendDecreasing, change
	default:
		return TrendNeutral, change
	}
}
