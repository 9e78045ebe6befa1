package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/cheese-gamecore/internal/config"
	"github.com/park285/cheese-gamecore/internal/heartbeat"
	"github.com/park285/cheese-gamecore/internal/httpapi"
	"github.com/park285/cheese-gamecore/internal/metrics"
	"github.com/park285/cheese-gamecore/internal/msgcat"
	"github.com/park285/cheese-gamecore/internal/obslog"
	"github.com/park285/cheese-gamecore/internal/pvpchess"
	"github.com/park285/cheese-gamecore/internal/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		obslog.L().Error("gamecore_exit", zap.Error(err))
		obslog.Sync()
		log.Fatalf("gamecore: %v", err)
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	logger := obslog.L()

	store, ts, err := openStore(cfg)
	if err != nil {
		return err
	}
	mgr, err := pvpchess.NewManager(store, rules.NewChessEngine(), ts, pvpchess.Config{
		DrawOfferTTL:  cfg.DrawOfferTTL,
		AbandonAfter:  cfg.AbandonAfter,
		DefaultRating: cfg.DefaultRating,
	})
	if err != nil {
		_ = store.Close()
		return err
	}
	defer mgr.Close()

	if cfg.RatingsSeedFile != "" {
		if err := importRatings(ctx, mgr, cfg.RatingsSeedFile); err != nil {
			return err
		}
	}

	opts := []httpapi.Option{}
	if cfg.DatabaseURL != "" {
		repo, err := pvpchess.NewRepository(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		mgr.AttachRepository(repo)
		opts = append(opts, httpapi.WithHistory(repo))
	}

	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.NewRecorder()
		mgr.AttachObserver(rec)
		opts = append(opts, httpapi.WithMetrics(rec))
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return err
	}
	opts = append(opts, httpapi.WithCatalog(cat))
	srv := httpapi.New(mgr, opts...)

	var sweepRec heartbeat.Recorder
	if rec != nil {
		sweepRec = rec
	}
	sweeper := heartbeat.New(mgr, logger.Named("heartbeat"), sweepRec, cfg.HeartbeatInterval)

	logger.Info("gamecore_start",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.StoreBackend),
		zap.String("clock", cfg.ClockSource),
		zap.Bool("archive", cfg.DatabaseURL != ""),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(cfg.HTTPAddr)
	})
	g.Go(func() error {
		sweeper.Start(gctx)
		<-gctx.Done()
		sweeper.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("gamecore_stop")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func importRatings(ctx context.Context, mgr *pvpchess.Manager, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ratings seed: %w", err)
	}
	defer f.Close()
	records, err := pvpchess.ReadRatingSeed(f)
	if err != nil {
		return err
	}
	_, err = mgr.ImportRatings(ctx, records)
	return err
}

func openStore(cfg *config.AppConfig) (pvpchess.Store, pvpchess.TimeSource, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return pvpchess.NewMemoryStore(), pvpchess.LocalTime{}, nil
	default:
		rs, err := pvpchess.NewRedisStore(cfg.RedisURL, cfg.GameTTL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.ClockSource == config.ClockRedis {
			return rs, pvpchess.NewRedisTime(rs.Client()), nil
		}
		return rs, pvpchess.LocalTime{}, nil
	}
}
