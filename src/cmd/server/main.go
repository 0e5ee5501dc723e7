package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/cache"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/events"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/postgres"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/seed"
	"github.com/api-sage/fcy-ledger/src/internal/config"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

type storage struct {
	uow          domain.UnitOfWork
	wallets      domain.WalletRepository
	transactions domain.TransactionRepository
	aml          domain.AMLRepository
	settlements  domain.SettlementRepository
	rates        domain.RateRepository
	banks        domain.BankRepository
	close        func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Setup(cfg.LogLevel); err != nil {
		log.Fatalf("setup logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server exited with error", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.close() }()

	var appCache domain.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", logger.Fields{"addr": cfg.RedisAddr, "error": err.Error()})
		} else {
			appCache = redisCache
			defer func() { _ = redisCache.Close() }()
		}
	}

	var publisher domain.EventPublisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPublisher
		defer func() { _ = kafkaPublisher.Close() }()
	}

	m := metrics.New()
	thresholds := services.AMLThresholds{Medium: cfg.AMLMediumThreshold, High: cfg.AMLHighThreshold}

	ledger := services.NewLedgerService(store.uow, store.wallets, store.transactions, appCache, m, services.LedgerConfig{
		AML:             thresholds,
		BalanceCacheTTL: cfg.BalanceCacheTTL,
	})
	rates := services.NewRateService(store.rates, appCache, m, services.RateConfig{
		CacheTTL: cfg.RateCacheTTL,
		FeeRate:  cfg.FXFeeRate,
	})
	fx := services.NewFXService(store.uow, ledger, rates, publisher, m, cfg.FXFeeRate)
	aml := services.NewAMLService(store.aml, thresholds, publisher, m)
	settlements := services.NewSettlementService(store.uow, store.settlements, store.banks, ledger, publisher, m, services.SettlementConfig{
		CompletionWindow: cfg.SettlementCompletionWindow,
		StaleAfter:       cfg.SettlementStaleAfter,
	})

	handler := router.New(
		router.Options{ChannelID: cfg.ChannelID, ChannelKey: cfg.ChannelKey, Metrics: m},
		controller.NewWebhookController(settlements, store.banks),
		controller.NewWalletController(ledger),
		controller.NewFXController(rates, fx),
		controller.NewSettlementController(settlements, ledger),
		controller.NewCardController(services.NewCardChargeService(ledger, aml), services.NewCollectionService(ledger)),
		controller.NewAMLController(aml, cfg.AMLScanLookbackMinutes),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", logger.Fields{"addr": cfg.HTTPAddr, "storage": cfg.StorageDriver})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runAMLScanner(gctx, aml, cfg.AMLScanInterval, cfg.AMLScanLookbackMinutes)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("http server shutting down", nil)
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	rates := seed.Rates()
	banks, err := seed.Banks(cfg.BankWebhookSecret)
	if err != nil {
		return storage{}, fmt.Errorf("seed banks: %w", err)
	}

	if cfg.StorageDriver == config.StorageDriverMemory {
		store := memory.NewStore()
		store.Rates().EnsureDefaultRates(ctx, rates)
		logger.Warn("using in-memory storage; data is lost on restart", nil)
		return storage{
			uow:          store,
			wallets:      store.Wallets(),
			transactions: store.Transactions(),
			aml:          store.AML(),
			settlements:  store.Settlements(),
			rates:        store.Rates(),
			banks:        memory.NewBankRepository(banks),
			close:        func() error { return nil },
		}, nil
	}

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(setupCtx, cfg.DatabaseDSN)
	if err != nil {
		return storage{}, fmt.Errorf("open database: %w", err)
	}
	if err := seedPostgres(setupCtx, db, cfg.MigrationsDir, rates, banks); err != nil {
		_ = db.Close()
		return storage{}, err
	}

	store := postgres.NewStore(db)
	return storage{
		uow:          store,
		wallets:      store.Wallets(),
		transactions: store.Transactions(),
		aml:          store.AML(),
		settlements:  store.Settlements(),
		rates:        store.Rates(),
		banks:        store.Banks(),
		close:        db.Close,
	}, nil
}

func seedPostgres(ctx context.Context, db *sql.DB, migrationsDir string, rates []domain.Rate, banks []domain.Bank) error {
	if err := postgres.RunMigrations(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	store := postgres.NewStore(db)
	if err := store.Rates().EnsureDefaultRates(ctx, rates); err != nil {
		return fmt.Errorf("seed rates: %w", err)
	}
	if err := store.Banks().EnsureBanks(ctx, banks); err != nil {
		return fmt.Errorf("seed banks: %w", err)
	}
	logger.Info("database migrations and seed data applied", nil)
	return nil
}

// runAMLScanner sweeps recent transactions until ctx is cancelled. A failed
// sweep is logged and retried on the next tick.
func runAMLScanner(ctx context.Context, aml *services.AMLService, interval time.Duration, lookbackMinutes int) {
	if interval <= 0 {
		logger.Info("aml scanner disabled", nil)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := aml.Scan(ctx, lookbackMinutes)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("aml scheduled scan failed", err, nil)
				}
				continue
			}
			logger.Info("aml scheduled scan completed", logger.Fields{
				"scanned":       result.Scanned,
				"alertsCreated": result.AlertsCreated,
			})
		}
	}
}
