package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService is the only path through which balances change. It enforces
// the balance and existence invariants before any write, and runs a bounded
// retry loop around version conflicts before surfacing them.
type LedgerService interface {
	// CreateWallet opens a fresh lineage (version 1, balance 0) for a user.
	// Fails with a duplicate error when the user already owns a live wallet.
	CreateWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletVersion, error)

	// Credit appends a version with balance increased by amount.
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*domain.WalletVersion, error)

	// Debit appends a version with balance decreased by amount. Fails with
	// an insufficient-funds error when the balance would go negative.
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*domain.WalletVersion, error)

	// DeleteWallet appends the terminal version that ends the lineage.
	// History stays queryable. Deleting twice fails with an
	// already-deleted error, not a silent no-op.
	DeleteWallet(ctx context.Context, walletID uuid.UUID) (*domain.WalletVersion, error)
}

// SnapshotService answers "what is true right now" without touching history
// internals, plus the audit-trail query over full lineage history.
type SnapshotService interface {
	ListActiveWallets(ctx context.Context) ([]domain.WalletVersion, error)
	CurrentBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
	AuditTrail(ctx context.Context, walletID uuid.UUID) ([]domain.WalletVersion, error)
}

// AccountService orchestrates the user lifecycle: user creation cascades
// wallet creation, user deletion cascades wallet deletion.
type AccountService interface {
	CreateUser(ctx context.Context, name string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// Account pairs a user with their active wallet version, if any.
type Account struct {
	User   domain.User           `json:"user"`
	Wallet *domain.WalletVersion `json:"wallet,omitempty"`
}
