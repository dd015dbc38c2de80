package daemon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tendlog/tend/internal/api"
	"github.com/tendlog/tend/internal/app/insight"
	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/health"
	_ "github.com/tendlog/tend/internal/infra/metrics" // Register Prometheus metrics
	"github.com/tendlog/tend/internal/infra/sqlite"
)

// Daemon is the core tend runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Log     *logrus.Logger
	DB      *sqlite.DB
	Service *progression.Service
	Insight *insight.Client
	Server  *api.Server
	Health  *health.Checker
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	db, err := sqlite.Open(tendHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	svc := progression.NewService(db, cfg.Progression.Rules(), cfg.LevelTable(), cfg.Quests)

	ins := insight.New(insight.Options{
		BaseURL:  cfg.Insight.BaseURL,
		APIKey:   cfg.Insight.APIKey,
		Model:    cfg.Insight.Model,
		Timeout:  cfg.InsightTimeout(),
		CacheFor: cfg.InsightCacheFor(),
	}, log)

	checker := health.NewChecker(db, tendHome())

	srv := api.NewServer(svc, ins, log)
	srv.SetHealth(checker)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Service: svc,
		Insight: ins,
		Server:  srv,
		Health:  checker,
	}, nil
}

// newLogger builds the logrus logger from config. An unwritable log file
// falls back to stderr rather than failing startup.
func newLogger(cfg LoggingConfig) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Warn("log file unwritable, logging to stderr")
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	}
	return log, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			d.Log.Info("shutdown signal received")
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	d.Log.WithField("addr", addr).Info("tend serving")
	if d.Config.API.Metrics {
		d.Log.Infof("metrics: http://%s/metrics", addr)
	}
	if d.Insight.Enabled() {
		d.Log.WithField("model", d.Config.Insight.Model).Info("insight collaborator configured")
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
