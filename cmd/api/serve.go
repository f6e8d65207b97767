package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadp "seedflow-backend/internal/adapter/http"
	"seedflow-backend/internal/adapter/middleware"
	"seedflow-backend/internal/adapter/repository/memory"
	"seedflow-backend/internal/adapter/repository/mysql"
	redisrepo "seedflow-backend/internal/adapter/repository/redis"
	"seedflow-backend/internal/config"
	"seedflow-backend/internal/domain/oracle"
	"seedflow-backend/internal/infrastructure/cache"
	"seedflow-backend/internal/infrastructure/creditscore"
	"seedflow-backend/internal/infrastructure/db"
	"seedflow-backend/internal/infrastructure/settlement"
	walletmock "seedflow-backend/internal/infrastructure/wallet"
	"seedflow-backend/internal/marketplace"
	"seedflow-backend/internal/usecase/assistant"
	"seedflow-backend/internal/usecase/funding"
	"seedflow-backend/internal/usecase/impact"
	"seedflow-backend/internal/usecase/intake"
	oracleuc "seedflow-backend/internal/usecase/oracle"
	"seedflow-backend/internal/usecase/portfolio"
)

const (
	shutdownTimeout     = 10 * time.Second
	wizardSweepInterval = time.Minute
)

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB, log)
	if err != nil {
		return err
	}
	mws := []echo.MiddlewareFunc{middleware.RequestLogger(log)}
	var inbox oracle.Inbox
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		inbox = redisrepo.NewOracleInbox(rdb)
		mws = append(mws, middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log))
	} else {
		log.Warn("REDIS_ADDR not set: idempotency disabled, oracle inbox in memory")
		inbox = memory.NewOracleInbox()
	}

	listings := mysql.NewListingRepository(gdb)
	contributions := mysql.NewContributionRepository(gdb)
	tx := mysql.NewGormUoW(gdb)
	source := mysql.NewListingSource(listings, tx, seedListings, log)

	store := marketplace.NewStore(marketplace.WithLoadLatency(cfg.LoadLatency))
	ticker, err := marketplace.NewTicker(store, marketplace.TickerConfig{
		Interval:     cfg.LiveTickInterval,
		Probability:  cfg.LiveTickProbability,
		MaxIncrement: cfg.LiveTickMaxIncrement,
	}, nil, log)
	if err != nil {
		return err
	}

	sessions := walletmock.NewSessions(nil)
	fundingUC := funding.NewUsecase(store, settlement.NewMock(cfg.SettlementDelay, log), tx,
		funding.Options{PlatformCap: cfg.PlatformCap, WizardTTL: cfg.WizardTTL}, log)
	if err := ticker.Every(wizardSweepInterval, "wizard sweep", func() { fundingUC.Sweep() }); err != nil {
		return err
	}

	e := httpadp.NewEcho(log, mws...)
	httpadp.Register(e, httpadp.Handlers{
		Health:    httpadp.NewHandler(store),
		Listings:  httpadp.NewListingHandler(store, marketplace.NewView(store), intake.NewUsecase(creditscore.NewMock(), listings, store, cfg.IntakeLatency, log)),
		Fundings:  httpadp.NewFundingHandler(fundingUC, sessions),
		Wallet:    httpadp.NewWalletHandler(sessions),
		Portfolio: httpadp.NewPortfolioHandler(portfolio.NewUsecase(contributions, store, inbox, cfg.ClaimDelay, log), sessions),
		Oracle:    httpadp.NewOracleHandler(oracleuc.NewUsecase(store, contributions, inbox, log), sessions),
		Impact:    httpadp.NewImpactHandler(impact.NewUsecase(store, inbox)),
		Assistant: httpadp.NewAssistantHandler(assistant.New()),
	})

	g, gctx := errgroup.WithContext(ctx)
	loaded := make(chan struct{})

	g.Go(func() error {
		defer close(loaded)
		if err := store.Load(gctx, source); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		snap, _ := store.Snapshot()
		log.Info("listings loaded", zap.Int("count", len(snap.Listings)), zap.Uint64("version", snap.Version))
		ticker.Start()
		return nil
	})

	addr := ":" + cfg.AppPort
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		<-loaded
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ticker.Stop(sctx); err != nil {
			log.Warn("ticker stop", zap.Error(err))
		}
		log.Info("shutting down")
		return e.Shutdown(sctx)
	})

	return g.Wait()
}
