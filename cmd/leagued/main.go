package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/justinjudd/league"
	"github.com/justinjudd/league/api"
	"github.com/justinjudd/league/config"
	"github.com/justinjudd/league/models/storm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	engine, err := storm.NewStorageEngine(cfg.DBPath, cfg.DBTimeout)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("db open failed")
	}
	defer engine.Close()

	manager := league.NewManager(engine, league.WithLogger(logger))

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(api.RouterOpts{
			Logger: logger,
			League: manager,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("env", cfg.Env).Str("addr", cfg.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			_ = engine.Close()
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.LogLevel == "warning" {
		level = zerolog.WarnLevel
	}

	var logger zerolog.Logger
	if cfg.IsProd() {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
