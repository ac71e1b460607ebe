// Package bootstrap wires the Argus components together: logger,
// configuration, store, detection engine, enrichment, notification
// sinks, and the batch pipeline.
package bootstrap

import (
	"fmt"

	"argus/config"
	"argus/core"
	"argus/detect"
	"argus/enrich"
	"argus/notify"
	"argus/pipeline"
	"argus/storage"

	"go.uber.org/zap"
)

// App holds every initialized component.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	SQLite  *storage.SQLite
	Events  storage.EventStore
	Alerts  storage.AlertStore
	Configs storage.ConfigStore
	Blocks  storage.BlockStore

	Engine   *detect.Engine
	Oracle   enrich.Oracle
	Notifier *notify.Notifier
	Pipeline *pipeline.Pipeline

	redisSink *notify.RedisSink
}

// NewApp initializes all components from configuration.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, sugar, err := InitLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Sugar: sugar}

	app.SQLite, err = storage.NewSQLite(cfg.DataPaths.SQLitePath, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	app.Events = storage.NewSQLiteEventStorage(app.SQLite, sugar)
	app.Alerts = storage.NewSQLiteAlertStorage(app.SQLite, sugar)
	app.Configs = storage.NewSQLiteConfigStorage(app.SQLite, sugar)
	app.Blocks = storage.NewSQLiteBlockStorage(app.SQLite, sugar)

	app.Engine = detect.NewEngine(app.Events, app.Alerts, app.Configs, sugar,
		detect.WithWindow(cfg.Detection.Window),
		detect.WithCorrelationWindow(cfg.Detection.CorrelationWindow),
	)

	app.Oracle = enrich.NoopOracle{}
	if cfg.Enrichment.Enabled {
		oracle, err := enrich.NewIPAPIClient(
			cfg.Enrichment.BaseURL,
			cfg.Enrichment.Timeout,
			cfg.Enrichment.RequestsPerSecond,
			cfg.Enrichment.CacheSize,
			sugar,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize enrichment: %w", err)
		}
		app.Oracle = oracle
	}

	var sinks []notify.Sink
	if cfg.Notifications.Redis.Enabled {
		app.redisSink = notify.NewRedisSink(
			cfg.Notifications.Redis.Addr,
			cfg.Notifications.Redis.Password,
			cfg.Notifications.Redis.DB,
			cfg.Notifications.Redis.Channel,
		)
		sinks = append(sinks, app.redisSink)
	}
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhookSink(
			cfg.Notifications.Webhook.URL,
			cfg.Notifications.Webhook.Timeout,
		))
	}
	app.Notifier = notify.NewNotifier(sinks,
		core.Severity(cfg.Notifications.MinSeverity), sugar)

	app.Pipeline = pipeline.New(app.Events, app.Alerts, app.Configs,
		app.Engine, app.Notifier, app.Oracle, cfg.Detection.RiskWindow, sugar)

	return app, nil
}

// Shutdown releases held resources.
func (a *App) Shutdown() {
	if a.redisSink != nil {
		if err := a.redisSink.Close(); err != nil {
			a.Sugar.Warnw("failed to close redis sink", "error", err)
		}
	}
	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			a.Sugar.Warnw("failed to close store", "error", err)
		}
	}
	_ = a.Logger.Sync()
}
