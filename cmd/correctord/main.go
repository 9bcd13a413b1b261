// Entry point for the document-checking HTTP service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/docfeat"
	"github.com/msklnkk/Electronic-corrector/httpapi"
	"github.com/msklnkk/Electronic-corrector/notify"
	"github.com/msklnkk/Electronic-corrector/rules"
	"github.com/msklnkk/Electronic-corrector/service"
	"github.com/msklnkk/Electronic-corrector/store"
)

func main() {
	port := env("PORT", "8080")
	dbPath := env("DB_PATH", "db/corrector.db")
	dataDir := env("DATA_DIR", "data/uploads")
	rulesPath := os.Getenv("RULES_PATH")
	jwtSecret := os.Getenv("JWT_SECRET")
	logLevel := env("LOG_LEVEL", "info")
	reportFont := os.Getenv("REPORT_FONT")

	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Rule catalogue: configuration errors abort startup, never a check.
	var (
		catalogue *rules.Catalogue
		err       error
	)
	if rulesPath != "" {
		catalogue, err = rules.Load(rulesPath)
	} else {
		catalogue, err = rules.Default()
	}
	if err != nil {
		slog.Error("load rule catalogue", "error", err)
		os.Exit(1)
	}
	slog.Info("rule catalogue loaded", "rules", catalogue.Len(), "path", rulesPath)

	st, err := store.Open(dbPath)
	if err != nil {
		slog.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		slog.Error("init store", "error", err)
		os.Exit(1)
	}

	if err := seedAdmin(ctx, st); err != nil {
		slog.Error("seed admin", "error", err)
		os.Exit(1)
	}

	chk := checker.New(catalogue, checker.Config{
		Extractor: docfeat.Config{Logger: logger},
		Logger:    logger,
	})

	var notifier service.Notifier = service.NopNotifier{}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		chatID := os.Getenv("TELEGRAM_CHAT_ID")
		if chatID == "" {
			slog.Error("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
			os.Exit(1)
		}
		notifier = notify.NewTelegram(token, chatID, notify.WithLogger(logger))
	}

	svc := service.New(st, chk, service.Config{
		Workers:      envInt("CHECK_WORKERS", 2),
		CheckTimeout: envDuration("CHECK_TIMEOUT", 2*time.Minute),
		Notifier:     notifier,
		Logger:       logger,
	})
	svc.Start(ctx)
	defer svc.Stop()

	api := httpapi.New(svc, st, catalogue, httpapi.Config{
		JWTSecret:      []byte(jwtSecret),
		DataDir:        dataDir,
		ReportFontPath: reportFont,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// seedAdmin creates the admin account on first start when the
// credentials are configured.
func seedAdmin(ctx context.Context, st *store.Store) error {
	login := os.Getenv("ADMIN_LOGIN")
	password := os.Getenv("ADMIN_PASSWORD")
	if login == "" || password == "" {
		return nil
	}
	if _, err := st.GetUserByLogin(ctx, login); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = st.CreateUser(ctx, login, string(hash))
	if err == nil {
		slog.Info("admin account created", "login", login)
	}
	return err
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
