// Package server is the composition root of the diary server: it opens the
// database, applies migrations and runs the gRPC endpoint, the change
// listener and the metrics endpoint until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/netx"
	"github.com/dmitrijs2005/diary/internal/server/auth"
	"github.com/dmitrijs2005/diary/internal/server/changes"
	"github.com/dmitrijs2005/diary/internal/server/config"
	"github.com/dmitrijs2005/diary/internal/server/gateway"
	"github.com/dmitrijs2005/diary/internal/server/metrics"
	"github.com/dmitrijs2005/diary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/diary/internal/server/services"

	gs "github.com/dmitrijs2005/diary/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	hub      *changes.Hub
	metrics  *metrics.Metrics
	gateway  *gateway.Gateway
	accounts *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hub := changes.NewHub()
	m := metrics.New()

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		hub:      hub,
		metrics:  m,
		gateway:  gateway.New(db, rm, hub, auth.ContextProvider{}, m, logger),
		accounts: services.NewUserService(db, rm, c),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts, app.gateway, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startListener(ctx context.Context) {
	l := changes.NewListener(app.config.DatabaseDSN, app.hub, app.logger)
	if err := l.Run(ctx); err != nil {
		app.logger.Error(ctx, "listener stopped", "error", err)
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := netx.ListenAndServe(ctx, srv); err != nil {
		app.logger.Error(ctx, "metrics server failed", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.ListenNotify {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startListener(ctx)
		}()
	}

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
