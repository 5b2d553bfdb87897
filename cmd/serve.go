package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	httpapi "github.com/tinoosan/wealth/internal/httpapi/v1"
	"github.com/tinoosan/wealth/internal/llm"
	"github.com/tinoosan/wealth/internal/service/advice"
	"github.com/tinoosan/wealth/internal/service/analytics"
	"github.com/tinoosan/wealth/internal/service/holding"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/service/transaction"
	"github.com/tinoosan/wealth/internal/service/user"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the postgres schema before serving")
	return cmd
}

type services struct {
	users        user.Service
	transactions transaction.Service
	holdings     holding.Service
	networth     networth.Service
	analytics    analytics.Service
	advice       advice.Service
}

func buildServices(store ledgerStore, client llm.Client, logger *slog.Logger) services {
	nw := networth.New(store, store, logger, networth.WithCurrency(cfg.App.Currency))
	an := analytics.New(store)
	return services{
		users: user.New(store, store, user.Config{
			Secret:     cfg.Auth.JWTSecret,
			Issuer:     cfg.Auth.Issuer,
			TTL:        cfg.Auth.TokenTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		transactions: transaction.New(store, store, nw, logger),
		holdings:     holding.New(store, store),
		networth:     nw,
		analytics:    an,
		advice: advice.New(nw, an, client, advice.Config{
			Currency:    cfg.App.Currency,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Language:    cfg.LLM.Language,
		}, logger),
	}
}

func serve(ctx context.Context, migrate bool) error {
	logger := slog.Default()

	b, err := openStore(ctx, cfg.Database, migrate, logger)
	if err != nil {
		return err
	}
	defer b.close()
	logger.Info("storage backend: " + b.name)

	client, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}
	if client == nil {
		logger.Warn("no text provider configured; advice endpoints return local summaries")
	}

	svcs := buildServices(b.store, client, logger)
	if cfg.App.DevSeed || b.name == "memory" {
		if err := devSeed(ctx, svcs, cfg.App.Currency, logger); err != nil {
			logger.Error("dev seed failed", "err", err)
		}
	}

	handler := httpapi.New(httpapi.Deps{
		Users:        svcs.users,
		Transactions: svcs.transactions,
		Holdings:     svcs.holdings,
		NetWorth:     svcs.networth,
		Analytics:    svcs.analytics,
		Advice:       svcs.advice,
		Ready:        b.store,
		Currency:     cfg.App.Currency,
		AuthEnabled:  cfg.Auth.JWTSecret != "",
	}, logger).Handler()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wealth service listening", "addr", srv.Addr, "auth", cfg.Auth.JWTSecret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
