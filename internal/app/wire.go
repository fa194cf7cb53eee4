package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	s3blob "github.com/quaylabs/saleswap/internal/blob/s3"
	"github.com/quaylabs/saleswap/internal/cache/redis"
	"github.com/quaylabs/saleswap/internal/chain"
	"github.com/quaylabs/saleswap/internal/config"
	"github.com/quaylabs/saleswap/internal/domain"
	"github.com/quaylabs/saleswap/internal/lock"
	"github.com/quaylabs/saleswap/internal/notify"
	"github.com/quaylabs/saleswap/internal/store/postgres"
	"github.com/quaylabs/saleswap/internal/swap"
	"github.com/quaylabs/saleswap/internal/wallet"
)

// Dependencies bundles every dependency the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	SwapStore   domain.SwapStore
	LockManager domain.LockManager
	SignalBus   domain.SignalBus
	Registry    *chain.Registry
	Resolver    *wallet.StaticResolver
	Provider    *swap.PresaleProvider
	Pair        swap.Pair
	Notifier    *notify.Notifier
	Archiver    *s3blob.Archiver // nil when S3 archival is disabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Pair: swap.Pair{
			From: asset(cfg.Pair.From),
			To:   asset(cfg.Pair.To),
		},
	}

	// --- Wallet ---
	key, err := wallet.LoadKey(wallet.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: wallet: %w", err)
	}
	resolver, err := wallet.NewStaticResolver(key)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: wallet: %w", err)
	}
	deps.Resolver = resolver

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.SwapStore = postgres.NewSwapStore(pgClient.Pool())

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SignalBus = redis.NewSignalBus(redisClient)
	balanceCache := redis.NewBalanceCache(redisClient)

	// The submission lock serializes transaction submission per (chain,
	// asset). A single-instance deployment can keep it in process; a
	// multi-instance one must share it through Redis.
	switch strings.ToLower(cfg.Runner.LockBackend) {
	case "redis":
		deps.LockManager = redis.NewLockManager(redisClient)
	default:
		deps.LockManager = lock.NewKeyed()
	}

	// --- Chain ---
	homeChain := cfg.Pair.From.ChainID
	registry := chain.NewRegistry(func(ctx context.Context, chainID string) (*chain.EthClient, error) {
		if chainID != homeChain {
			return nil, fmt.Errorf("wire: %w: %s", domain.ErrUnknownChain, chainID)
		}
		return chain.Dial(ctx, cfg.Chain.RPCURL, key, big.NewInt(cfg.Chain.ChainID))
	})
	deps.Registry = registry

	client, err := registry.Get(ctx, homeChain)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}

	// --- Swap provider ---
	tokens := chain.NewERC20(client)
	sale := chain.NewSale(client, cfg.Chain.PresaleAddress)
	controller := chain.NewController(cfg.Chain.ControllerAddress)
	balances := chain.NewBalanceKeeper(registry, balanceCache, logger)

	quotes := swap.NewQuoteEngine(sale, deps.Pair, logger)
	approvals := swap.NewApprovalManager(tokens, client, deps.LockManager, resolver, cfg.Chain.PresaleAddress, logger)
	executor := swap.NewExecutor(controller, client, deps.LockManager, resolver, cfg.Chain.ControllerAddress, logger)
	poller := swap.NewPoller(client, balances, resolver, logger)
	fees := swap.NewFeeEstimator(approvals, client, resolver, logger)
	machine := swap.NewMachine(executor, poller, logger)
	deps.Provider = swap.NewPresaleProvider(quotes, fees, approvals, machine, logger)

	// --- S3 archival ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.SwapStore, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	statuses := make([]domain.SwapStatus, 0, len(cfg.Notify.Statuses))
	for _, s := range cfg.Notify.Statuses {
		statuses = append(statuses, domain.SwapStatus(strings.ToUpper(s)))
	}
	deps.Notifier = notify.NewNotifier(senders, statuses, logger)

	return deps, cleanup, nil
}

// asset converts a configured asset into its domain form.
func asset(a config.AssetConfig) domain.Asset {
	return domain.Asset{
		Code:            a.Code,
		ChainID:         a.ChainID,
		ContractAddress: a.ContractAddress,
		Decimals:        a.Decimals,
	}
}
