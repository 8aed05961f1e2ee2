package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/announcer"
	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture/opencv"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/face"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
	"github.com/saturnino-fabrica-de-software/facegate/internal/session"
	"github.com/saturnino-fabrica-de-software/facegate/internal/webhook"
)

const announcerDrainTimeout = 10 * time.Second

// app holds the components shared by every command
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     repository.Store
	extractor provider.Extractor
	matcher   *matcher.Matcher
	auditor   audit.Logger
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	m, err := matcher.NewWithMetric(cfg.ConfidenceThreshold, matcher.Metric(cfg.DistanceMetric), logger)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	extractor, err := face.NewExtractor(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	var auditor audit.Logger = &audit.NoOpLogger{}
	if cfg.AuditEnabled {
		auditor = audit.NewSlogLogger(logger, cfg.ProviderType)
	}

	logger.Debug("facegate ready",
		slog.String("database", cfg.DatabaseDriver),
		slog.String("provider", cfg.ProviderType),
		slog.String("metric", cfg.DistanceMetric),
		slog.Float64("threshold", cfg.ConfidenceThreshold),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		extractor: extractor,
		matcher:   m,
		auditor:   auditor,
	}, nil
}

// openStore connects the configured backend and brings its schema up to date
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.DatabaseDriver == database.DialectPostgres {
		sqlDB, err := database.NewPool(database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		err = database.Migrate(sqlDB, database.DialectPostgres, "facegate")
		_ = sqlDB.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewPostgresStore(pool).WithLogger(logger).WithCloser(pool.Close), nil
	}

	db, err := database.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(db, database.DialectSQLite, ""); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repository.NewSQLiteStore(db).WithLogger(logger), nil
}

func (a *app) Close() {
	if err := a.extractor.Close(); err != nil {
		a.logger.Warn("failed to close extractor", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

func (a *app) device() capture.Device {
	return opencv.NewDevice(a.cfg.CameraDevice)
}

// startAnnouncer returns a running announcer and the func that drains it
func (a *app) startAnnouncer(ctx context.Context) (*announcer.Announcer, func(), error) {
	speaker, err := announcer.NewSpeaker(ctx, a.cfg.SpeakerType, a.cfg.VoiceIndex, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create speaker: %w", err)
	}

	ann := announcer.New(speaker, a.logger)
	ann.Start()

	shutdown := func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), announcerDrainTimeout)
		defer cancel()
		if err := ann.Shutdown(drainCtx); err != nil {
			a.logger.Warn("announcer did not drain", "error", err, "pending", ann.Pending())
		}
	}
	return ann, shutdown, nil
}

func (a *app) enrollment() *session.Enrollment {
	opts := session.DefaultEnrollmentOptions()
	opts.CaptureKey = rune(a.cfg.CaptureKey[0])
	opts.QuitKey = rune(a.cfg.QuitKey[0])
	opts.QuitCommand = a.cfg.QuitCommand
	opts.SnapshotDir = ""
	if a.cfg.SaveSnapshots {
		opts.SnapshotDir = a.cfg.ImageDir
	}

	prompter := session.NewLinePrompter(os.Stdin, os.Stdout, a.cfg.QuitCommand)
	return session.NewEnrollment(a.store, a.extractor, a.device(), prompter, a.auditor, a.logger, os.Stdout, opts)
}

func (a *app) authentication(ann session.Announcer) *session.Authentication {
	opts := session.AuthenticationOptions{
		DownscaleFactor: a.cfg.DownscaleFactor,
		QuitKey:         rune(a.cfg.QuitKey[0]),
		IndexKind:       a.cfg.MatchIndex,
		FailureCooldown: a.cfg.FailureAnnounceCooldown,
	}

	hooks := []session.PostAuthHook{session.WelcomeHook(os.Stdout, a.logger)}
	if a.cfg.WebhookURL != "" {
		notifier := webhook.NewNotifier(webhook.DefaultConfig(a.cfg.WebhookURL, a.cfg.WebhookSecret), a.logger)
		hooks = append(hooks, notifier.Authenticated)
	}

	return session.NewAuthentication(a.store, a.extractor, a.device(), ann, a.matcher, a.auditor, a.logger, opts, hooks...)
}

// loadImage opens an image file as a frame
func loadImage(path string) (capture.Frame, error) {
	frame, err := opencv.LoadFrame(path)
	if err != nil {
		return nil, err
	}
	return frame, nil
}
