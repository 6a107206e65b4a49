package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robotomize/ratechain"
	"github.com/robotomize/ratechain/cache"
	"github.com/robotomize/ratechain/internal/api"
	"github.com/robotomize/ratechain/internal/config"
	"github.com/robotomize/ratechain/internal/logging"
	"github.com/robotomize/ratechain/internal/telemetry"
	"github.com/robotomize/ratechain/provider/currencyapi"
	"github.com/robotomize/ratechain/provider/exchangerateapi"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ratechaind: %v\n", err)
		done()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w\n%s", err, config.Usage())
	}

	logger := logging.NewLogger("ratechain", cfg.LogLevel, cfg.LogJSON)
	ctx = logging.WithLogger(ctx, logger)

	metrics, err := telemetry.Setup()
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	backend, err := openBackend(ctx, cfg.Cache, logger.Named("cache"))
	if err != nil {
		return err
	}

	store := cache.NewStore(backend)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close cache", "err", err)
		}
	}()

	resolver, err := newResolver(cfg, &http.Client{}, store)
	if err != nil {
		return err
	}

	logger.Info("cache backend ready", "backend", cfg.Cache.Backend)

	handler := api.NewHandler(resolver, metrics, logger.Named("api"))

	return api.NewServer(cfg.Addr, handler, logger.Named("api")).Serve(ctx)
}

func newResolver(cfg *config.Config, client *http.Client, store *cache.Store) (*ratechain.Resolver, error) {
	templates := cfg.Source.Mirrors
	if len(templates) == 0 {
		templates = currencyapi.DefaultTemplates
	}

	mirrors, err := currencyapi.NewSources(client, templates...)
	if err != nil {
		return nil, fmt.Errorf("mirrors: %w", err)
	}

	opts := []ratechain.Option{
		ratechain.WithMirrors(mirrors...),
		ratechain.WithSecondary(exchangerateapi.NewSource(client, cfg.Source.APIKey)),
		ratechain.WithCache(store),
		ratechain.WithRequestTimeout(cfg.Source.RequestTimeout),
		ratechain.WithRetryNum(cfg.Source.RetryNum),
		ratechain.WithRetryDuration(cfg.Source.RetryDuration),
	}

	if cfg.Cache.PreserveCacheTier {
		opts = append(opts, ratechain.WithPreservedCacheTier())
	}

	return ratechain.New(client, opts...), nil
}
