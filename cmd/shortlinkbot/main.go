package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BorodachevAV/shortlinkbot/internal/bot"
	"github.com/BorodachevAV/shortlinkbot/internal/config"
	"github.com/BorodachevAV/shortlinkbot/internal/metrics"
	"github.com/BorodachevAV/shortlinkbot/internal/rewriter"
	"github.com/BorodachevAV/shortlinkbot/internal/shortener"
	"github.com/BorodachevAV/shortlinkbot/internal/storage"
	"github.com/BorodachevAV/shortlinkbot/internal/storage/database"
	"github.com/BorodachevAV/shortlinkbot/internal/storage/file"
	"github.com/BorodachevAV/shortlinkbot/internal/storage/memory"
	"github.com/BorodachevAV/shortlinkbot/internal/storage/redis"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}

type openedStorage struct {
	storage.CredentialStorage
	pinger Pinger
	closer io.Closer
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*openedStorage, error) {
	switch cfg.Storage() {
	case config.StorageDatabase:
		s, err := database.NewDBStorage(ctx, cfg.DataBaseDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open database storage: %w", err)
		}
		return &openedStorage{CredentialStorage: s, pinger: s, closer: s}, nil
	case config.StorageRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s, err := redis.NewRedisStorage(ctx, client)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return &openedStorage{CredentialStorage: s, pinger: s, closer: s}, nil
	case config.StorageFile:
		s, err := file.NewFileStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return &openedStorage{CredentialStorage: s, closer: s}, nil
	default:
		return &openedStorage{CredentialStorage: memory.NewMapStorage()}, nil
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := openStorage(openCtx, cfg, logger)
	if err != nil {
		return err
	}
	if store.closer != nil {
		defer store.closer.Close()
	}
	logger.Info("credential storage ready", zap.String("kind", string(cfg.Storage())))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client := shortener.New(cfg.ShortenerAPIURL, &http.Client{Timeout: cfg.ShortenTimeout})
	opts := []rewriter.Option{
		rewriter.WithTimeout(cfg.ShortenTimeout),
		rewriter.WithLogger(logger),
		rewriter.WithMetrics(m),
	}
	if len(cfg.ExcludedPrefixes) > 0 {
		opts = append(opts, rewriter.WithExcludedPrefixes(cfg.ExcludedPrefixes...))
	}
	rw := rewriter.New(client, opts...)
	b := bot.New(store, rw, logger, bot.WithDefaultAPIKey(cfg.DefaultAPIKey), bot.WithMetrics(m))

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("username", api.Self.UserName))

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           NewRouter(HealthHandler{pinger: store.pinger, logger: logger}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("health server listening", zap.String("addr", cfg.ServerAddress))
		return serve(gctx, srv)
	})
	g.Go(func() error {
		return b.RunTelegram(gctx, api)
	})
	return g.Wait()
}

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ParseFlags(flag.CommandLine, os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("shortlinkbot stopped", zap.Error(err))
	}
}
