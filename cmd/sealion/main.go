// Command sealion is the command line client of the Sea Lion inventory API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/sealion/cmd/sealion/cli"
	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/app"
	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/observability"
	"github.com/odyssey-erp/sealion/internal/platform/cache"
	"github.com/odyssey-erp/sealion/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sealion: load config: %v\n", err)
		return cli.ExitError
	}
	logger := app.NewLogger(cfg.LogFormat, cfg.LogLevel)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open token store", slog.Any("error", err))
		return cli.ExitError
	}
	defer closeStore()

	ctrl, err := auth.NewController(ctx, store, logger)
	if err != nil {
		logger.Error("restore session", slog.Any("error", err))
		return cli.ExitError
	}

	metrics := observability.NewMetrics()
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: metrics.InstrumentRoundTripper(nil),
	}
	client, err := api.NewClient(cfg.APIURL, ctrl, api.WithHTTPClient(httpClient), api.WithLogger(logger))
	if err != nil {
		logger.Error("build api client", slog.Any("error", err))
		return cli.ExitError
	}
	ctrl.Bind(client)

	code := cli.New(client, ctrl, logger).Run(ctx, cli.Options{
		Args:   os.Args[1:],
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if trips, err := metrics.ClientRoundTrips(); err == nil {
		logger.Debug("api round trips", slog.Float64("count", trips), slog.Int("exit_code", code))
	}
	return code
}

// openStore returns the token store selected by SEALION_TOKEN_STORE.
func openStore(ctx context.Context, cfg *app.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.TokenStore != app.TokenStoreRedis {
		logger.Debug("token store", slog.String("path", cfg.TokenFile))
		return session.NewFileStore(cfg.TokenFile), func() {}, nil
	}
	rdb, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("token store", slog.String("redis", cfg.RedisAddr), slog.String("prefix", cfg.RedisPrefix))
	return session.NewRedisStore(rdb, cfg.RedisPrefix), func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}, nil
}
