package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tinoosan/wealth/internal/stats"
)

const (
	dominantCategoryPct  = 40.0
	dominantCutRate      = 0.10
	recurringMinPct      = 5.0
	recurringSavingsRate = 0.15
	dailyBudgetRate      = 0.90
	volatileVariancePct  = 30.0
)

func ptr(f float64) *float64 { return &f }

func (s *service) GenerateRecommendations(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	patterns, err := s.AnalyzeSpendingPatterns(ctx, userID, DefaultMonths)
	if err != nil { return nil, err }
	report, err := s.DetectAnomalies(ctx, userID)
	if err != nil { return nil, err }
	return recommend(patterns, report), nil
}

// recommend applies each rule independently; every rule yields at most one recommendation.
func recommend(p SpendingPatterns, r AnomalyReport) []Recommendation {
	out := []Recommendation{}

	if len(p.Categories) > 0 && p.Categories[0].Percentage > dominantCategoryPct {
		top := p.Categories[0]
		out = append(out, Recommendation{
			Type:             RecReduceCategory,
			Priority:         PriorityHigh,
			Title:            fmt.Sprintf("Reduce %s spending", top.Category),
			Description:      fmt.Sprintf("%s takes %.2f%% of your spending. Cutting it by 10%% would save %.2f.", top.Category, top.Percentage, top.Total*dominantCutRate),
			Category:         top.Category,
			PotentialSavings: ptr(stats.Round2(top.Total * dominantCutRate)),
		})
	}

	var highSum float64
	var highCount int
	for _, a := range r.Anomalies {
		if a.Severity == SeverityHigh {
			highSum += a.Amount
			highCount++
		}
	}
	if highCount > 0 {
		out = append(out, Recommendation{
			Type:             RecReviewAnomalies,
			Priority:         PriorityHigh,
			Title:            "Review unusual transactions",
			Description:      fmt.Sprintf("%d transaction(s) are far above their category average, %.2f in total.", highCount, highSum),
			PotentialSavings: ptr(stats.Round2(highSum)),
		})
	}

	for _, c := range p.Categories {
		if !c.IsRecurring || c.Percentage <= recurringMinPct {
			continue
		}
		out = append(out, Recommendation{
			Type:             RecOptimizeRecurring,
			Priority:         PriorityMedium,
			Title:            fmt.Sprintf("Optimize recurring %s costs", c.Category),
			Description:      fmt.Sprintf("%s repeats monthly and is %.2f%% of your spending. Renegotiating or switching could save about 15%%.", c.Category, c.Percentage),
			Category:         c.Category,
			PotentialSavings: ptr(stats.Round2(c.Total * recurringSavingsRate)),
		})
		break
	}

	if p.AverageMonthlySpending > 0 {
		daily := stats.Round2(p.AverageMonthlySpending / 30 * dailyBudgetRate)
		out = append(out, Recommendation{
			Type:        RecDailyBudget,
			Priority:    PriorityLow,
			Title:       "Set a daily budget",
			Description: fmt.Sprintf("Keeping daily spending under %.2f would land 10%% below your monthly average of %.2f.", daily, p.AverageMonthlySpending),
			Target:      ptr(daily),
		})
	}

	if p.SpendingVariance > volatileVariancePct {
		out = append(out, Recommendation{
			Type:        RecStabilize,
			Priority:    PriorityMedium,
			Title:       "Stabilize monthly spending",
			Description: fmt.Sprintf("Your monthly spending varies by %.2f%%. Planning large purchases ahead smooths it out.", p.SpendingVariance),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.rank() < out[j].Priority.rank() })
	return out
}
