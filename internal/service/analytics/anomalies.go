package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/wealth/internal/stats"
)

const (
	anomalyWindowMonths = 3
	// recentPerCategory is how many of a category's newest transactions are tested.
	recentPerCategory = 10
	maxAnomalies      = 10
	// rareCategoryMax is the transaction count at or below which a category counts as rare.
	rareCategoryMax    = 2
	rareCategoryWindow = 7 * 24 * time.Hour
	// criticalAmount marks a high-severity anomaly as critical.
	criticalAmount = 500.0
)

func (s *service) DetectAnomalies(ctx context.Context, userID uuid.UUID) (AnomalyReport, error) {
	now := s.now().UTC()
	txs, err := s.expenses(ctx, userID, now.AddDate(0, -anomalyWindowMonths, 0))
	if err != nil { return AnomalyReport{}, err }

	found := []Anomaly{}
	for category, group := range groupByCategory(txs) {
		newestFirst(group)
		amounts := make([]float64, len(group))
		for i, t := range group {
			amounts[i] = amountOf(t)
		}
		mean := stats.Mean(amounts)
		sd := stats.SampleStdDev(amounts)
		limit := mean + 2*sd

		recent := group
		if len(recent) > recentPerCategory {
			recent = recent[:recentPerCategory]
		}
		for _, t := range recent {
			amt := amountOf(t)
			if amt <= limit {
				continue
			}
			var excess float64
			if mean > 0 {
				excess = stats.Round2((amt - mean) / mean * 100)
			}
			sev := SeverityMedium
			if excess > 100 {
				sev = SeverityHigh
			}
			found = append(found, Anomaly{
				Type:             AnomalyUnusualAmount,
				Severity:         sev,
				TransactionID:    t.ID,
				Description:      t.Description,
				Category:         category,
				Amount:           stats.Round2(amt),
				Date:             t.Date,
				Message:          fmt.Sprintf("Amount %.2f is %.0f%% above the usual %.2f for %s", amt, excess, mean, category),
				ExcessPercentage: excess,
				ExpectedMin:      stats.Round2(mean - sd),
				ExpectedMax:      stats.Round2(mean + sd),
			})
		}

		latest := group[0]
		if len(group) <= rareCategoryMax && now.Sub(latest.Date) <= rareCategoryWindow {
			found = append(found, Anomaly{
				Type:          AnomalyUnusualCategory,
				Severity:      SeverityLow,
				TransactionID: latest.ID,
				Description:   latest.Description,
				Category:      category,
				Amount:        stats.Round2(amountOf(latest)),
				Date:          latest.Date,
				Message:       fmt.Sprintf("Rare spending category %s: %d transaction(s) in the last %d months", category, len(group), anomalyWindowMonths),
				ExpectedMin:   stats.Round2(mean - sd),
				ExpectedMax:   stats.Round2(mean + sd),
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Amount != found[j].Amount {
			return found[i].Amount > found[j].Amount
		}
		return found[i].TransactionID.String() < found[j].TransactionID.String()
	})
	if len(found) > maxAnomalies {
		found = found[:maxAnomalies]
	}

	report := AnomalyReport{UserID: userID, Anomalies: found, TotalAnomalies: len(found), GeneratedAt: now}
	for _, a := range found {
		switch a.Severity {
		case SeverityHigh:
			report.HighSeverityCount++
			if a.Amount > criticalAmount {
				report.HasCritical = true
			}
		case SeverityMedium:
			report.MediumSeverityCount++
		case SeverityLow:
			report.LowSeverityCount++
		}
	}
	return report, nil
}
