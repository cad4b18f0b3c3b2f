package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/accounts"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/logging"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/session"
	"finance-tracker/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	db, err := storage.NewDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "dialect", db.Dialect())

	m := metrics.New()
	accountSvc := accounts.NewService(db, m)
	ledgerSvc := ledger.NewService(db, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedAdmin(ctx, db, accountSvc, cfg.Admin, logger); err != nil {
		return err
	}

	store, closeStore, err := newSessionStore(cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := session.NewManager(store, accountSvc, session.Options{
		Duration:     cfg.Session.Duration,
		SecureCookie: cfg.Server.SecureCookie,
		Logger:       logger,
	})
	go sessions.RunCleanup(ctx, cfg.Session.CleanupInterval)

	h := handlers.NewHandlers(handlers.Config{
		Accounts:     accountSvc,
		Ledger:       ledgerSvc,
		Sessions:     sessions,
		DB:           db,
		TemplateDir:  cfg.Server.TemplateDir,
		SecureCookie: cfg.Server.SecureCookie,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, m, logger, cfg.Server.StaticDir),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSessionStore(cfg *config.Config, db *storage.DB) (session.Store, func(), error) {
	if cfg.Session.Store != "redis" {
		return session.NewSQLStore(db), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis.url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return session.NewRedisStore(client), func() { client.Close() }, nil
}

// seedAdmin creates the configured admin account when the database has no
// accounts yet.
func seedAdmin(ctx context.Context, db *storage.DB, svc *accounts.Service, admin config.AdminConfig, logger *slog.Logger) error {
	if admin.User == "" {
		return nil
	}
	count, err := db.AccountCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := svc.Register(ctx, admin.User, admin.Password); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	logger.Info("admin account created", "username", admin.User)
	return nil
}

func setupRouter(h *handlers.Handlers, m *metrics.Metrics, logger *slog.Logger, staticDir string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(logging.RequestID)
	r.Use(logging.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", m.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.RequirePage)
		r.Get("/", h.Home)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/transactions", h.TransactionsPage)
		r.Get("/budget", h.BudgetPage)
		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.RequireAPI)
		r.Get("/transactions", h.ListTransactions)
		r.Post("/transactions", h.AddTransaction)
		r.Get("/transactions/summary", h.Summary)
		r.Get("/transactions/export", h.ExportTransactions)
		r.Get("/budgets", h.ListBudgets)
		r.Post("/budgets", h.UpsertBudget)
		r.Delete("/budgets/{id}", h.DeleteBudget)
	})

	return r
}
