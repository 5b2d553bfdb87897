package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/wealth/internal/errs"
	"github.com/tinoosan/wealth/internal/ledger"
)

const (
	devEmail    = "demo@wealth.local"
	devPassword = "demo-password"
)

// devSeed creates a demo user with a bank account, a credit card and a month of
// transactions. It is a no-op when the demo user already exists.
func devSeed(ctx context.Context, s services, currency string, logger *slog.Logger) error {
	u, err := s.users.Register(ctx, "Demo", devEmail, devPassword)
	if errors.Is(err, errs.ErrConflict) {
		logger.Info("dev seed skipped: demo user exists", "email", devEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("register demo user: %w", err)
	}

	return seedHoldings(ctx, s, u, currency, logger)
}

func seedHoldings(ctx context.Context, s services, u ledger.User, currency string, logger *slog.Logger) error {
	bankValue, err := ledger.AmountFromMinor(currency, 250000)
	if err != nil {
		return err
	}
	bank, err := s.holdings.CreateAsset(ctx, ledger.Asset{UserID: u.ID, Name: "Everyday Account", Kind: ledger.AssetBankAccount,
		Currency: currency, CurrentValue: bankValue, IsLiquid: true})
	if err != nil {
		return fmt.Errorf("seed bank account: %w", err)
	}

	zero, err := ledger.AmountFromMinor(currency, 0)
	if err != nil {
		return err
	}
	limit, err := ledger.AmountFromMinor(currency, 300000)
	if err != nil {
		return err
	}
	rate := 21.9
	card, err := s.holdings.CreateLiability(ctx, ledger.Liability{UserID: u.ID, Name: "Rewards Card", Kind: ledger.LiabilityCreditCard,
		Currency: currency, CurrentBalance: zero, CreditLimit: &limit, InterestRate: &rate})
	if err != nil {
		return fmt.Errorf("seed credit card: %w", err)
	}

	now := time.Now().UTC()
	for _, t := range []struct {
		days     int
		minor    int64
		kind     ledger.TransactionKind
		category string
		method   ledger.PaymentMethod
	}{
		{28, 320000, ledger.KindIncome, "Salary", ledger.PaymentBankAccount},
		{27, 120000, ledger.KindExpense, "Rent", ledger.PaymentBankAccount},
		{20, 8450, ledger.KindExpense, "Groceries", ledger.PaymentCreditCard},
		{12, 4200, ledger.KindExpense, "Eating Out", ledger.PaymentCreditCard},
		{5, 1500, ledger.KindExpense, "Transport", ledger.PaymentCash},
	} {
		amt, err := ledger.AmountFromMinor(currency, t.minor)
		if err != nil {
			return err
		}
		tx := ledger.Transaction{UserID: u.ID, Date: now.AddDate(0, 0, -t.days), Amount: amt, Category: t.category,
			Kind: t.kind, PaymentMethod: t.method}
		switch t.method {
		case ledger.PaymentBankAccount:
			tx.SourceAssetID = &bank.ID
		case ledger.PaymentCreditCard:
			tx.SourceLiabilityID = &card.ID
		}
		if _, err := s.transactions.Create(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}

	logger.Info("DEV seed", "user_id", u.ID.String(), "email", devEmail, "bank_account_id", bank.ID.String(), "credit_card_id", card.ID.String())
	printDevSeedBanner(u.ID, bank.ID, card.ID)
	return nil
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(userID, bankID, cardID uuid.UUID) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", userID)
	fmt.Printf("login: %s / %s\n", devEmail, devPassword)
	fmt.Printf("bank_account_id: %s\n", bankID)
	fmt.Printf("credit_card_id: %s\n", cardID)
	fmt.Println("==================================================")
}
