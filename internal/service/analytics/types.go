package analytics

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	// TrendDecreasing is not produced yet: trend compares the top two months, so the change is never negative.
	TrendDecreasing Trend = "decreasing"
	TrendNeutral    Trend = "neutral"
)

// SpendingPatterns summarizes a user's expenses over a lookback window.
type SpendingPatterns struct {
	UserID            uuid.UUID
	Months            int
	From              time.Time
	To                time.Time
	TotalSpent        float64
	TotalTransactions int
	// Categories are ordered by descending total.
	Categories []CategorySpending
	// MonthlyTotals holds at most three months, oldest first.
	MonthlyTotals          []MonthlySpending
	AverageMonthlySpending float64
	HighestSpendingMonth   float64
	LowestSpendingMonth    float64
	SpendingVariance       float64
	TrendDirection         Trend
	TrendPercentage        float64
	MostSpentCategory      string
	GeneratedAt            time.Time
}

// Category returns the named category, if present.
func (p SpendingPatterns) Category(name string) (CategorySpending, bool) {
	for _, c := range p.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategorySpending{}, false
}

type CategorySpending struct {
	Category        string
	Total           float64
	Count           int
	Average         float64
	Percentage      float64
	LastTransaction time.Time
	IsRecurring     bool
}

type MonthlySpending struct {
	Year  int
	Month time.Month
	Total float64
	Count int
}

// Label formats the month as YYYY-MM.
func (m MonthlySpending) Label() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

type AnomalyType string

const (
	AnomalyUnusualAmount   AnomalyType = "unusual_amount"
	AnomalyUnusualCategory AnomalyType = "unusual_category"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type Anomaly struct {
	Type          AnomalyType
	Severity      Severity
	TransactionID uuid.UUID
	Description   string
	Category      string
	Amount        float64
	Date          time.Time
	Message       string
	// ExcessPercentage is how far above the category mean the amount is; 0 for category anomalies.
	ExcessPercentage float64
	ExpectedMin      float64
	ExpectedMax      float64
}

type AnomalyReport struct {
	UserID              uuid.UUID
	Anomalies           []Anomaly
	TotalAnomalies      int
	HighSeverityCount   int
	MediumSeverityCount int
	LowSeverityCount    int
	HasCritical         bool
	GeneratedAt         time.Time
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type RecommendationType string

const (
	RecReduceCategory    RecommendationType = "reduce_category"
	RecReviewAnomalies   RecommendationType = "review_anomalies"
	RecOptimizeRecurring RecommendationType = "optimize_recurring"
	RecDailyBudget       RecommendationType = "daily_budget"
	RecStabilize         RecommendationType = "stabilize_spending"
)

type Recommendation struct {
	Type        RecommendationType
	Priority    Priority
	Title       string
	Description string
	Category    string
	// PotentialSavings is nil when the rule has no savings estimate.
	PotentialSavings *float64
	// Target is the figure the recommendation suggests, e.g. a daily budget.
	Target *float64
}
