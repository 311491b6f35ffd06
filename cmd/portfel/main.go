package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"portfel/internal/amqp"
	"portfel/internal/category"
	"portfel/internal/cli"
	"portfel/internal/currency"
	apphttp "portfel/internal/http"
	"portfel/internal/log"
	"portfel/internal/services"
)

func main() {
	logger, cfg, repo := cli.Bootstrap(log.ComponentApp)
	defer repo.Close()

	// AMQP is optional: without it transactions still commit, export and
	// alerts just fall back to the worker's pending sweep.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.SyncQueue, cfg.AlertQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without messaging", log.FieldError, err)
		} else {
			publisher = amqpClient
			defer amqpClient.Close()
		}
	}

	registry := category.NewDefault()
	txService := services.NewTransactionService(
		repo, repo.Budgets(), publisher, registry, cfg.DefaultCurrency, cfg.BudgetPeriodFilter)
	budgetService := services.NewBudgetService(
		repo.Budgets(), repo, registry, cfg.DefaultCurrency, cfg.BudgetPeriodFilter)
	reportService := services.NewReportingService(repo, cfg.DashboardWindowMonths)

	server := apphttp.NewServer(cfg.Port, apphttp.Deps{
		Logger:        logger,
		Transactions:  txService,
		Budgets:       budgetService,
		Reports:       reportService,
		Alerts:        repo.Alerts(),
		Registry:      registry,
		Rates:         currency.NewRatesClient(),
		TopCategories: cfg.TopCategories,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("portfel started", "port", cfg.Port, log.FieldOperation, log.OpStartup)
	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
