package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wantokjobs/wallet-service/internal/config"
	"github.com/wantokjobs/wallet-service/internal/handler"
	"github.com/wantokjobs/wallet-service/internal/logging"
	"github.com/wantokjobs/wallet-service/internal/middleware"
	"github.com/wantokjobs/wallet-service/internal/repository"
	"github.com/wantokjobs/wallet-service/internal/service/deposit"
	"github.com/wantokjobs/wallet-service/internal/service/ledger"
	"github.com/wantokjobs/wallet-service/internal/service/refund"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("wallet-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	walletRepo := repository.NewWalletRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	userRepo := repository.NewUserRepository(db)

	ledgerSvc := ledger.NewService(walletRepo, transactionRepo, db)
	depositSvc := deposit.NewService(depositRepo, ledgerSvc, db, cfg.DepositExpiry())
	refundSvc := refund.NewService(refundRepo, transactionRepo, ledgerSvc, db)

	sweeper := deposit.NewSweeper(depositRepo, slog.Default(), cfg.SweepInterval())
	go sweeper.Start(ctx)

	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry())
	walletHandler := handler.NewWalletHandler(ledgerSvc)
	depositHandler := handler.NewDepositHandler(depositSvc, handler.BankDetails{
		BankName:      cfg.BankName,
		AccountName:   cfg.BankAccountName,
		AccountNumber: cfg.BankAccountNumber,
	})
	refundHandler := handler.NewRefundHandler(refundSvc)
	adminHandler := handler.NewAdminHandler(depositSvc, refundSvc, ledgerSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(middleware.RequireAdmin(h))
	}

	mux.Handle("GET /api/v1/wallet", authed(walletHandler.Get))
	mux.Handle("GET /api/v1/wallet/transactions", authed(walletHandler.ListTransactions))
	mux.Handle("POST /api/v1/wallet/deposits", authed(depositHandler.Create))
	mux.Handle("GET /api/v1/wallet/deposits", authed(depositHandler.List))
	mux.Handle("POST /api/v1/wallet/deposits/{id}/cancel", authed(depositHandler.Cancel))
	mux.Handle("POST /api/v1/wallet/refunds", authed(refundHandler.Create))
	mux.Handle("GET /api/v1/wallet/refunds", authed(refundHandler.List))

	mux.Handle("GET /api/v1/admin/deposits", admin(adminHandler.ListDeposits))
	mux.Handle("POST /api/v1/admin/deposits/{id}/match", admin(adminHandler.MatchDeposit))
	mux.Handle("GET /api/v1/admin/refunds", admin(adminHandler.ListRefunds))
	mux.Handle("POST /api/v1/admin/refunds/{id}/approve", admin(adminHandler.ApproveRefund))
	mux.Handle("POST /api/v1/admin/refunds/{id}/reject", admin(adminHandler.RejectRefund))
	mux.Handle("GET /api/v1/admin/wallet-stats", admin(adminHandler.WalletStats))

	var root http.Handler = mux
	root = middleware.Logging(root)
	root = middleware.Recovery(root)
	root = middleware.RequestID(root)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var lastErr error
	for i := range 30 {
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Info("waiting for database", "attempt", i+1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", lastErr)
}
