package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/config"
	"bountyhub.org/internal/httpapi"
	"bountyhub.org/internal/obs"
	"bountyhub.org/internal/store/mem"
	"bountyhub.org/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.Logger().Fatal().Err(err).Msg("load config")
	}

	obs.Init(cfg.Log.Level)
	obs.InitMetrics()
	obs.InitBuildInfo(version, commit)
	logger := obs.Logger()

	// Without a DSN the service runs against the in-memory store; state is
	// lost on restart. Intended for local development only.
	var (
		db    *sql.DB
		store bounty.Store
	)
	if cfg.DB.DSN != "" {
		db, err = sql.Open("pgx", cfg.DB.DSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db")
		}
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
		store = pg.New(db)
	} else {
		logger.Warn().Msg("no db.dsn configured, using in-memory store")
		store = mem.New()
	}

	svc, err := bounty.NewService(store, bounty.WithRoleSelect(cfg.Auth.AllowRoleSelect))
	if err != nil {
		logger.Fatal().Err(err).Msg("build service")
	}

	api := httpapi.New(svc, cfg, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting bountyhub-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info().Msg("stopped")
}
