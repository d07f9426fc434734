package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"symptom-checker/internal/checker"
	"symptom-checker/internal/config"
	"symptom-checker/internal/inference"
	"symptom-checker/internal/journal"
	"symptom-checker/internal/knowledge"
	"symptom-checker/internal/platform/logger"
	"symptom-checker/internal/platform/metrics"
	"symptom-checker/internal/platform/telegram"
	"symptom-checker/internal/profile"
	"symptom-checker/internal/report"
	"symptom-checker/internal/scoring"
	"symptom-checker/internal/symptom"
)

const dbConnectAttempts = 10

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "symptom-checker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Knowledge base
	rules, err := knowledge.Default()
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	for _, id := range rules.Duplicates() {
		log.Warn("duplicate rule id in knowledge base, first occurrence kept", zap.String("rule_id", id))
	}
	for _, id := range rules.WithoutMustHave() {
		log.Warn("rule has no must-have keywords and can never match", zap.String("rule_id", id))
	}
	log.Info("knowledge base loaded", zap.Int("rules", rules.Len()))

	collector := metrics.NewCollector("symptom_checker")

	// 3. Storage
	var (
		db       *sql.DB
		profiles profile.Repository
		entries  journal.Repository
	)
	if cfg.DatabaseURL != "" {
		db, err = openDB(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := runMigrations(cfg.MigrationsPath, cfg.DatabaseURL, log); err != nil {
			return err
		}
		profiles = profile.NewPostgresRepository(db)
		entries = journal.NewPostgresRepository(db)
	} else {
		log.Warn("DATABASE_URL is not set, profiles and journal are kept in memory")
		profiles = profile.NewMemoryRepository()
		entries = journal.NewMemoryRepository()
	}

	// 4. Inference
	engine, err := inference.NewEngine(inference.Config{
		Predictor: buildPredictor(cfg, log),
		Breaker: inference.BreakerConfig{
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		},
		Logger:     log,
		OnFallback: collector.RecordFallback,
	})
	if err != nil {
		log.Error("model rejected, serving scorer output only", zap.Error(err))
		engine, err = inference.NewEngine(inference.Config{Logger: log, OnFallback: collector.RecordFallback})
		if err != nil {
			return err
		}
	}

	// 5. Reports
	var reports checker.ReportService
	if cfg.ReportsEnabled() {
		reports = report.NewService(telegram.NewClient(cfg.TelegramToken), cfg.DoctorChatID, cfg.ReportFontPath, log)
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID is not set, journal sharing is disabled")
	}

	svc := checker.NewService(checker.Dependencies{
		Rules:    rules,
		Symptoms: symptom.DefaultCatalog(),
		Engine:   engine,
		Profiles: profiles,
		Journal:  entries,
		Reports:  reports,
		Metrics:  collector,
		Logger:   log,
	})

	// 6. Router
	handler := newRouter(routerDeps{
		handler:     checker.NewHandler(svc, log),
		metrics:     collector,
		db:          db,
		corsOrigins: cfg.CORSOrigins,
		logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDB(ctx context.Context, dsn string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Simple retry while the database container starts.
	for i := 1; i <= dbConnectAttempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			log.Info("connected to database")
			return db, nil
		}
		log.Info("waiting for database", zap.Int("attempt", i), zap.Int("of", dbConnectAttempts), zap.Error(err))

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * 500 * time.Millisecond):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database: %w", err)
}

func runMigrations(source, dsn string, log *zap.Logger) error {
	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// buildPredictor returns nil when no model is configured or the model
// cannot be loaded; the engine then answers with the scorer.
func buildPredictor(cfg *config.Config, log *zap.Logger) inference.Predictor {
	switch {
	case cfg.ModelPath != "":
		ff, err := inference.LoadFeedForward(cfg.ModelPath)
		if err != nil {
			log.Error("failed to load model, using scorer fallback", zap.String("path", cfg.ModelPath), zap.Error(err))
			return nil
		}
		log.Info("loaded model", zap.String("name", ff.Name), zap.Strings("labels", ff.Labels()))
		return ff
	case cfg.ModelURL != "":
		labels := make([]string, len(scoring.Buckets))
		for i, b := range scoring.Buckets {
			labels[i] = string(b)
		}
		log.Info("using remote model", zap.String("url", cfg.ModelURL))
		return inference.NewRemotePredictor(cfg.ModelURL, labels, inference.NewEncoder(inference.DefaultVocabulary).Len(), cfg.ModelTimeout)
	default:
		log.Info("no model configured, using scorer fallback")
		return nil
	}
}
