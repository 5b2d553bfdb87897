package advice

import (
	"fmt"
	"strings"

	"github.com/tinoosan/wealth/internal/ledger"
	"github.com/tinoosan/wealth/internal/llm"
	"github.com/tinoosan/wealth/internal/service/analytics"
)

// maxPromptCategories caps how many categories are listed in a prompt.
const maxPromptCategories = 5

func llmRequest(cfg Config, prompt string) llm.Request {
	return llm.Request{
		System: "You are a careful personal-finance assistant. Base every statement on the figures provided, " +
			"never invent numbers, and keep answers short and practical. Answer in " + cfg.Language + ".",
		Prompt:      prompt,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

func writeNetWorth(b *strings.Builder, cfg Config, nw ledger.NetWorthSummary) {
	fmt.Fprintf(b, "Net worth: %s %s (assets %s, liabilities %s, liquid %s).\n",
		nw.NetWorth.String(), cfg.Currency, nw.TotalAssets.String(), nw.TotalLiabilities.String(), nw.LiquidAssets.String())
	if nw.CreditUtilization > 0 {
		fmt.Fprintf(b, "Credit utilization: %.2f%%.\n", nw.CreditUtilization)
	}
}

func writePatterns(b *strings.Builder, cfg Config, p analytics.SpendingPatterns) {
	fmt.Fprintf(b, "Spending over the last %d month(s): %.2f %s across %d transactions.\n",
		p.Months, p.TotalSpent, cfg.Currency, p.TotalTransactions)
	for i, c := range p.Categories {
		if i == maxPromptCategories {
			break
		}
		recurring := ""
		if c.IsRecurring {
			recurring = ", recurring"
		}
		fmt.Fprintf(b, "- %s: %.2f (%.2f%%, %d transactions%s)\n", c.Category, c.Total, c.Percentage, c.Count, recurring)
	}
	if len(p.MonthlyTotals) > 0 {
		fmt.Fprintf(b, "Average monthly spending %.2f, variance %.2f%%, trend %s.\n",
			p.AverageMonthlySpending, p.SpendingVariance, p.TrendDirection)
	}
}

func advicePrompt(cfg Config, nw ledger.NetWorthSummary, p analytics.SpendingPatterns, recs []analytics.Recommendation) string {
	var b strings.Builder
	b.WriteString("Give me three concrete pieces of financial advice based on this snapshot.\n\n")
	writeNetWorth(&b, cfg, nw)
	writePatterns(&b, cfg, p)
	if len(recs) > 0 {
		b.WriteString("Rule-based recommendations already identified:\n")
		for _, r := range recs {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", r.Priority, r.Title, r.Description)
		}
	}
	return b.String()
}

func summaryPrompt(cfg Config, p analytics.SpendingPatterns) string {
	var b strings.Builder
	b.WriteString("Summarize my spending in one short paragraph and point out the biggest opportunity to save.\n\n")
	writePatterns(&b, cfg, p)
	return b.String()
}

func anomalyPrompt(cfg Config, r analytics.AnomalyReport) string {
	var b strings.Builder
	b.WriteString("Explain these unusual transactions in plain language and say which ones deserve a closer look.\n\n")
	if len(r.Anomalies) == 0 {
		b.WriteString("No anomalies were detected.\n")
	}
	for _, a := range r.Anomalies {
		fmt.Fprintf(&b, "- [%s] %s %s on %s: %.2f %s. %s\n",
			a.Severity, a.Category, a.Description, a.Date.Format("2006-01-02"), a.Amount, cfg.Currency, a.Message)
	}
	return b.String()
}

func askPrompt(cfg Config, nw ledger.NetWorthSummary, p analytics.SpendingPatterns, question string) string {
	var b strings.Builder
	b.WriteString("Context about my finances:\n")
	writeNetWorth(&b, cfg, nw)
	writePatterns(&b, cfg, p)
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

func adviceFallback(cfg Config, nw ledger.NetWorthSummary, p analytics.SpendingPatterns, recs []analytics.Recommendation) string {
	var b strings.Builder
	writeNetWorth(&b, cfg, nw)
	if p.TotalTransactions == 0 {
		b.WriteString("No recent expenses were recorded, so there is nothing to analyze yet.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Your largest spending category is %s.\n", p.MostSpentCategory)
	if len(recs) == 0 {
		b.WriteString("Your spending looks steady; keep tracking it.\n")
	}
	for _, r := range recs {
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Description)
	}
	return b.String()
}

func summaryFallback(cfg Config, p analytics.SpendingPatterns) string {
	if p.TotalTransactions == 0 {
		return fmt.Sprintf("No expenses were recorded in the last %d month(s).", p.Months)
	}
	var b strings.Builder
	writePatterns(&b, cfg, p)
	fmt.Fprintf(&b, "Most of your money went to %s.", p.MostSpentCategory)
	return b.String()
}

func anomalyFallback(cfg Config, r analytics.AnomalyReport) string {
	if r.TotalAnomalies == 0 {
		return "No unusual transactions were found in the last 3 months."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d unusual transaction(s): %d high, %d medium, %d low severity.\n",
		r.TotalAnomalies, r.HighSeverityCount, r.MediumSeverityCount, r.LowSeverityCount)
	if r.HasCritical {
		b.WriteString("At least one large transaction needs your attention.\n")
	}
	for _, a := range r.Anomalies {
		fmt.Fprintf(&b, "- %s (%s, %.2f %s): %s\n", a.Description, a.Category, a.Amount, cfg.Currency, a.Message)
	}
	return b.String()
}

func askFallback(cfg Config, nw ledger.NetWorthSummary, p analytics.SpendingPatterns) string {
	var b strings.Builder
	b.WriteString("Text generation is not configured, so here is your current snapshot instead.\n")
	writeNetWorth(&b, cfg, nw)
	writePatterns(&b, cfg, p)
	return b.String()
}
