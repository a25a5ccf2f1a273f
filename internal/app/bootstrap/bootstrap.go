package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"staticcms/app/internal/auth"
	"staticcms/app/internal/config"
	appdb "staticcms/app/internal/db"
	apphttp "staticcms/app/internal/http"
	"staticcms/app/internal/store"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Store      *store.Store
	HTTPServer *apphttp.Server
	Database   *gorm.DB
	Cleanup    func() error
}

// Build composes the CMS layers, loads the initial document and returns the
// constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	db, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := appdb.Close(db); closeErr != nil {
			logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := store.Migrate(ctx, db, logger); err != nil {
		return closeOnError(eris.Wrap(err, "running cache migrations"))
	}

	cache, err := store.NewGormCache(db, logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating cache"))
	}

	seeder, err := newSeeder(cfg, logger)
	if err != nil {
		return closeOnError(err)
	}

	var exporter store.Exporter
	if cfg.ExportDir != "" {
		fileExporter, err := store.NewFileExporter(cfg.ExportDir)
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating exporter"))
		}
		exporter = fileExporter
	}

	documents, err := store.New(store.Options{
		Cache:       cache,
		Seeder:      seeder,
		Exporter:    exporter,
		Logger:      logger,
		Sentry:      deps.SentryHub,
		StrictSlugs: cfg.StrictSlugs,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating document store"))
	}

	doc := documents.Load(ctx)
	logger.WithFields(logrus.Fields{
		"component": "bootstrap",
		"title":     doc.Site.Title,
		"pages":     len(doc.Pages),
	}).Info("document loaded")

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.WithField("component", "bootstrap").Warn("SESSION_SECRET not set; admin sessions will not survive a restart")
	}
	if cfg.AdminPassword == "" {
		logger.WithField("component", "bootstrap").Warn("ADMIN_PASSWORD not set; the admin screen is disabled")
	}

	gate, err := auth.NewGate(auth.Options{
		Password: cfg.AdminPassword,
		Secret:   secret,
		TTL:      cfg.SessionTTL,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating admin gate"))
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Store:         documents,
		Gate:          gate,
		Database:      db,
		Logger:        logger,
		SentryHub:     deps.SentryHub,
		SecureCookies: cfg.Environment == "production",
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             cfg.RateLimitBurst,
			RequestsPerSecond: cfg.RateLimitRPS,
			ClientTTL:         cfg.RateLimitTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return appdb.Close(db)
	}

	return Result{
		Store:      documents,
		HTTPServer: httpServer,
		Database:   db,
		Cleanup:    cleanup,
	}, nil
}

func newSeeder(cfg config.Config, logger *logrus.Logger) (store.Seeder, error) {
	if cfg.SeedURL != "" {
		seeder, err := store.NewHTTPSeeder(store.HTTPSeederOptions{
			BaseURL: cfg.SeedURL,
			Timeout: cfg.SeedTimeout,
		})
		if err != nil {
			return nil, eris.Wrap(err, "creating http seeder")
		}
		logger.WithFields(logrus.Fields{"component": "bootstrap", "seed_url": seeder.URL()}).Info("using remote seed document")
		return seeder, nil
	}

	seeder, err := store.NewFSSeeder(apphttp.StaticFS())
	if err != nil {
		return nil, eris.Wrap(err, "creating embedded seeder")
	}
	return seeder, nil
}
