package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/config"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/storage"
	"expense-ledger/web"
)

const (
	sessionCleanupInterval = time.Hour
	shutdownTimeout        = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET not set, using a random key; sessions will not survive a restart")
		if secret, err = auth.GenerateSecret(32); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedAdmin(ctx, db, cfg, logger); err != nil {
		return err
	}

	h, err := handlers.NewHandlers(db, auth.NewSigner(secret), handlers.Options{
		SessionDuration: cfg.SessionDuration,
		SecureCookie:    cfg.SecureCookie,
		ExportDir:       cfg.ExportDirectory(),
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	go cleanSessions(ctx, db, logger)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("starting server", "addr", ln.Addr().String(), "db", cfg.DBPath)
	return serve(ctx, srv, ln, logger)
}

// serve runs srv on ln until ctx is done, then drains in-flight requests.
// It only returns once Shutdown has finished, so callers may release
// resources the handlers use.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	if err := <-shutdownErr; err != nil {
		logger.Error("server shutdown error", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// setupRouter wires the application routes, static assets and middleware.
func setupRouter(h *handlers.Handlers, logger *slog.Logger) http.Handler {
	mux := h.Routes()

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	var handler http.Handler = mux
	handler = http.NewCrossOriginProtection().Handler(handler)
	handler = handlers.RequestLogger(logger)(handler)
	return handler
}

// seedAdmin creates the configured admin account unless one with that email exists.
func seedAdmin(ctx context.Context, db *storage.DB, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	existing, err := db.GetUsersByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("look up admin user: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user, err := db.CreateUser(ctx, cfg.AdminName, cfg.AdminEmail, hash)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.Info("admin user created", "user_id", user.ID, "email", user.Email)
	return nil
}

func cleanSessions(ctx context.Context, db *storage.DB, logger *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Warn("failed to clean expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
