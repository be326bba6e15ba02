package main

import (
	"context"
	"fmt"
	"os"

	"wallet-ledger/config"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/shopspring/decimal"
)

// seedOp is one ledger operation against a user's wallet.
type seedOp struct {
	kind   string // "credit" or "debit"
	amount string
}

// seedAccount is a sample user with their wallet activity. Each account
// starts with an opening credit, so the resulting lineages show several
// versions of history out of the box.
type seedAccount struct {
	name string
	ops  []seedOp
}

func seedAccounts() []seedAccount {
	return []seedAccount{
		{name: "Alice Johnson", ops: []seedOp{
			{"credit", "1000.00"}, {"credit", "200.00"}, {"debit", "150.00"}, {"credit", "300.00"},
		}},
		{name: "Bob Smith", ops: []seedOp{
			{"credit", "500.00"}, {"credit", "300.00"}, {"debit", "150.00"}, {"credit", "250.00"},
		}},
		{name: "Carol White", ops: []seedOp{
			{"credit", "750.00"}, {"credit", "500.00"}, {"debit", "300.00"}, {"credit", "200.00"},
		}},
		{name: "David Brown", ops: []seedOp{
			{"credit", "2000.00"}, {"credit", "500.00"}, {"debit", "300.00"}, {"debit", "100.00"},
		}},
		{name: "Eve Davis", ops: []seedOp{
			{"credit", "300.00"}, {"credit", "300.00"}, {"debit", "150.00"}, {"credit", "100.00"},
		}},
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	versionStore := pgStorage.NewVersionStore(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	balanceCache := redisStorage.NewBalanceCache(rdb)

	ledgerSvc := service.NewLedgerService(
		versionStore,
		balanceCache,
		cfg.Ledger.MaxRetries,
		cfg.Ledger.RetryTimeout,
		log,
	)
	snapshotSvc := service.NewSnapshotService(versionStore, balanceCache, cfg.Ledger.BalanceCacheTTL, log)
	accountSvc := service.NewAccountService(userRepo, versionStore, ledgerSvc, snapshotSvc, log)

	log.Info().Msg("Seeding wallet ledger with sample data")

	for _, sa := range seedAccounts() {
		account, err := accountSvc.CreateUser(ctx, sa.name)
		if err != nil {
			log.Fatal().Err(err).Str("name", sa.name).Msg("Failed to create account")
		}

		walletID := account.Wallet.WalletID
		for _, op := range sa.ops {
			amount := decimal.RequireFromString(op.amount)
			switch op.kind {
			case "credit":
				_, err = ledgerSvc.Credit(ctx, walletID, amount)
			case "debit":
				_, err = ledgerSvc.Debit(ctx, walletID, amount)
			}
			if err != nil {
				log.Fatal().Err(err).
					Str("name", sa.name).
					Str("op", op.kind).
					Str("amount", op.amount).
					Msg("Failed to apply seed operation")
			}
		}

		balance, err := snapshotSvc.CurrentBalance(ctx, walletID)
		if err != nil {
			log.Fatal().Err(err).Str("name", sa.name).Msg("Failed to read seeded balance")
		}
		log.Info().
			Str("name", sa.name).
			Str("email", account.User.Email).
			Str("wallet_id", walletID.String()).
			Str("balance", balance.StringFixed(2)).
			Msg("account seeded")
	}

	log.Info().Msg("Database seeded successfully")
}
