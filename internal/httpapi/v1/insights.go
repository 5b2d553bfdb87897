package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/service/analytics"
)

type netWorthResponse struct {
	UserID                uuid.UUID         `json:"user_id"`
	Currency              string            `json:"currency"`
	TotalAssets           string            `json:"total_assets"`
	TotalLiabilities      string            `json:"total_liabilities"`
	NetWorth              string            `json:"net_worth"`
	LiquidAssets          string            `json:"liquid_assets"`
	TransactionNetBalance string            `json:"transaction_net_balance"`
	CreditUtilization     float64           `json:"credit_utilization"`
	AssetBreakdown        map[string]string `json:"asset_breakdown"`
	LiabilityBreakdown    map[string]string `json:"liability_breakdown"`
	CalculatedAt          time.Time         `json:"calculated_at"`
}

func toNetWorthResponse(s ledger.NetWorthSummary) netWorthResponse {
	out := netWorthResponse{
		UserID:                s.UserID,
		Currency:              s.Currency,
		TotalAssets:           s.TotalAssets.String(),
		TotalLiabilities:      s.TotalLiabilities.String(),
		NetWorth:              s.NetWorth.String(),
		LiquidAssets:          s.LiquidAssets.String(),
		TransactionNetBalance: s.TransactionNetBalance.String(),
		CreditUtilization:     s.CreditUtilization,
		AssetBreakdown:        make(map[string]string, len(s.AssetBreakdown)),
		LiabilityBreakdown:    make(map[string]string, len(s.LiabilityBreakdown)),
		CalculatedAt:          s.CalculatedAt,
	}
	for k, v := range s.AssetBreakdown { out.AssetBreakdown[string(k)] = v.String() }
	for k, v := range s.LiabilityBreakdown { out.LiabilityBreakdown[string(k)] = v.String() }
	return out
}

type categoryResponse struct {
	Category        string    `json:"category"`
	Total           float64   `json:"total"`
	Count           int       `json:"count"`
	Average         float64   `json:"average"`
	Percentage      float64   `json:"percentage"`
	LastTransaction time.Time `json:"last_transaction"`
	IsRecurring     bool      `json:"is_recurring"`
}

type monthResponse struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type spendingPatternsResponse struct {
	UserID                 uuid.UUID          `json:"user_id"`
	Months                 int                `json:"months"`
	From                   time.Time          `json:"from"`
	To                     time.Time          `json:"to"`
	TotalSpent             float64            `json:"total_spent"`
	TotalTransactions      int                `json:"total_transactions"`
	Categories             []categoryResponse `json:"categories"`
	MonthlyTotals          []monthResponse    `json:"monthly_totals"`
	AverageMonthlySpending float64            `json:"average_monthly_spending"`
	HighestSpendingMonth   float64            `json:"highest_spending_month"`
	LowestSpendingMonth    float64            `json:"lowest_spending_month"`
	SpendingVariance       float64            `json:"spending_variance"`
	TrendDirection         analytics.Trend    `json:"trend_direction"`
	TrendPercentage        float64            `json:"trend_percentage"`
	MostSpentCategory      string             `json:"most_spent_category"`
	GeneratedAt            time.Time          `json:"generated_at"`
}

func toSpendingPatternsResponse(p analytics.SpendingPatterns) spendingPatternsResponse {
	out := spendingPatternsResponse{
		UserID:                 p.UserID,
		Months:                 p.Months,
		From:                   p.From,
		To:                     p.To,
		TotalSpent:             p.TotalSpent,
		TotalTransactions:      p.TotalTransactions,
		Categories:             make([]categoryResponse, 0, len(p.Categories)),
		MonthlyTotals:          make([]monthResponse, 0, len(p.MonthlyTotals)),
		AverageMonthlySpending: p.AverageMonthlySpending,
		HighestSpendingMonth:   p.HighestSpendingMonth,
		LowestSpendingMonth:    p.LowestSpendingMonth,
		SpendingVariance:       p.SpendingVariance,
		TrendDirection:         p.TrendDirection,
		TrendPercentage:        p.TrendPercentage,
		MostSpentCategory:      p.MostSpentCategory,
		GeneratedAt:            p.GeneratedAt,
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, categoryResponse(c))
	}
	for _, m := range p.MonthlyTotals {
		out.MonthlyTotals = append(out.MonthlyTotals, monthResponse{Month: m.Label(), Total: m.Total, Count: m.Count})
	}
	return out
}

type anomalyResponse struct {
	Type             analytics.AnomalyType `json:"type"`
	Severity         analytics.Severity    `json:"severity"`
	TransactionID    uuid.UUID             `json:"transaction_id"`
	Description      string                `json:"description"`
	Category         string                `json:"category"`
	Amount           float64               `json:"amount"`
	Date             time.Time             `json:"date"`
	Message          string                `json:"message"`
	ExcessPercentage float64               `json:"excess_percentage"`
	ExpectedMin      float64               `json:"expected_min"`
	ExpectedMax      float64               `json:"expected_max"`
}

type anomalyReportResponse struct {
	UserID              uuid.UUID         `json:"user_id"`
	Anomalies           []anomalyResponse `json:"anomalies"`
	TotalAnomalies      int               `json:"total_anomalies"`
	HighSeverityCount   int               `json:"high_severity_count"`
	MediumSeverityCount int               `json:"medium_severity_count"`
	LowSeverityCount    int               `json:"low_severity_count"`
	HasCritical         bool              `json:"has_critical"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

func toAnomalyReportResponse(rep analytics.AnomalyReport) anomalyReportResponse {
	out := anomalyReportResponse{
		UserID:              rep.UserID,
		Anomalies:           make([]anomalyResponse, 0, len(rep.Anomalies)),
		TotalAnomalies:      rep.TotalAnomalies,
		HighSeverityCount:   rep.HighSeverityCount,
		MediumSeverityCount: rep.MediumSeverityCount,
		LowSeverityCount:    rep.LowSeverityCount,
		HasCritical:         rep.HasCritical,
		GeneratedAt:         rep.GeneratedAt,
	}
	for _, a := range rep.Anomalies { out.Anomalies = append(out.Anomalies, anomalyResponse(a)) }
	return out
}

type recommendationResponse struct {
	Type             analytics.RecommendationType `json:"type"`
	Priority         analytics.Priority           `json:"priority"`
	Title            string                       `json:"title"`
	Description      string                       `json:"description"`
	Category         string                       `json:"category,omitempty"`
	PotentialSavings *float64                     `json:"potential_savings,omitempty"`
	Target           *float64                     `json:"target,omitempty"`
}

type recommendationsResponse struct {
	Items []recommendationResponse `json:"items"`
}

// monthsParam reads ?months=, defaulting to the analytics window. Range checks
// are left to the service.
func monthsParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("months")
	if raw == "" { return analytics.DefaultMonths, true }
	n, err := strconv.Atoi(raw)
	if err != nil { return 0, false }
	return n, true
}

// GET /v1/net-worth
func (s *Server) getNetWorth(w http.ResponseWriter, r *http.Request) {
	sum, err := s.networth.CalculateNetWorth(r.Context(), userFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toNetWorthResponse(sum))
}

// GET /v1/analytics/spending-patterns?months=
func (s *Server) getSpendingPatterns(w http.ResponseWriter, r *http.Request) {
	months, ok := monthsParam(r)
	if !ok { badRequest(w, "invalid months"); return }
	p, err := s.analytics.AnalyzeSpendingPatterns(r.Context(), userFrom(r.Context()), months)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toSpendingPatternsResponse(p))
}

// GET /v1/analytics/anomalies
func (s *Server) getAnomalies(w http.ResponseWriter, r *http.Request) {
	rep, err := s.analytics.DetectAnomalies(r.Context(), userFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toAnomalyReportResponse(rep))
}

// GET /v1/analytics/recommendations
func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.analytics.GenerateRecommendations(r.Context(), userFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	out := recommendationsResponse{Items: make([]recommendationResponse, 0, len(recs))}
	for _, rec := range recs { out.Items = append(out.Items, recommendationResponse(rec)) }
	toJSON(w, http.StatusOK, out)
}
