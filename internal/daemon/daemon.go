package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hotelops/hotelscore/internal/api"
	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/health"
	"github.com/hotelops/hotelscore/internal/infra/postgres"
	"github.com/hotelops/hotelscore/internal/infra/redisbus"
	"github.com/hotelops/hotelscore/internal/infra/sqlite"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// Store is a DocumentStore the daemon can health-check and close.
type Store interface {
	domain.DocumentStore
	Ping(ctx context.Context) error
	Close() error
}

// Daemon is the hotelscore runtime. It wires together all services.
type Daemon struct {
	Config Config
	Log    *logger.Logger
	Store  Store
	Engine *scoring.Engine
	Server *api.Server
	Health *health.Checker
	Redis  *redisbus.Publisher
	cancel context.CancelFunc
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	interval, err := cfg.HealthInterval()
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	d := &Daemon{Config: cfg, Log: log, Store: store}

	opts, err := ScoringOptions(cfg, log)
	if err != nil {
		d.Close()
		return nil, err
	}

	var sinks []domain.Notifier
	if cfg.Notify.Log {
		sinks = append(sinks, scoring.NewLogNotifier(log))
	}
	checks := []health.Check{health.PingCheck("store", store)}
	if cfg.Store.Driver == DriverSQLite {
		checks = append(checks, health.DirCheck("data_dir", cfg.Store.Dir))
	}

	if cfg.Notify.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pub, err := redisbus.New(ctx, redisbus.Options{
			Addr:     cfg.Notify.RedisAddr,
			Password: cfg.Notify.RedisPassword,
			DB:       cfg.Notify.RedisDB,
			Channel:  cfg.Notify.RedisChannel,
		}, log)
		cancel()
		if err != nil {
			// Scoring keeps working without the bus.
			log.Warn("redis notifications disabled", "addr", cfg.Notify.RedisAddr, "error", err)
		} else {
			d.Redis = pub
			sinks = append(sinks, pub)
			checks = append(checks, health.PingCheck("redis", pub))
		}
	}

	d.Engine = scoring.NewEngine(store, opts, sinks...)

	d.Health = health.NewChecker(checks...).WithInterval(interval)

	d.Server = api.NewServer(d.Engine, log)
	d.Server.SetHealth(d.Health)
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	return d, nil
}

// ScoringOptions builds engine options from the [scoring] section.
func ScoringOptions(cfg Config, log *logger.Logger) (scoring.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return scoring.Options{}, err
	}
	xpOverrides, err := cfg.XPOverrides()
	if err != nil {
		return scoring.Options{}, err
	}
	limitOverrides, err := cfg.LimitOverrides()
	if err != nil {
		return scoring.Options{}, err
	}

	xp := scoring.DefaultXPTable().WithOverrides(xpOverrides)
	limits := scoring.DefaultRateLimits().WithOverrides(limitOverrides)
	return scoring.Options{
		XP:     &xp,
		Limits: &limits,
		Clock:  scoring.Clock{Loc: loc},
		Logger: log,
	}, nil
}

func openStore(cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		s, err := postgres.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		db, err := sqlite.Open(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil
	}
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.Log.Warn("http shutdown", "error", err)
		}
	}()

	d.Log.Info("hotelscore serving",
		"addr", "http://"+addr,
		"store", d.Config.Store.Driver,
		"metrics", d.Config.Telemetry.Prometheus,
		"redis", d.Redis != nil,
	)

	err := httpServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		cancel()
		return err
	}
	<-done
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.Log != nil {
		d.Log.Sync()
	}
}
