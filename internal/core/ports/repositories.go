package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VersionStore is the append-only persistence for wallet version lineages.
// It is the sole writer of is_active transitions.
type VersionStore interface {
	// Append commits v and deactivates the predecessor version as one
	// indivisible unit. predecessor is the version number the caller read
	// as current; zero means the lineage must not exist yet. Returns an
	// apperror version conflict when the predecessor is no longer the
	// active version, and a duplicate error when a zero-predecessor append
	// races another active lineage for the same user.
	Append(ctx context.Context, v *domain.WalletVersion, predecessor int64) error

	// Latest returns the active version of a lineage, or nil, nil when the
	// lineage has no active version (deleted or never created).
	Latest(ctx context.Context, walletID uuid.UUID) (*domain.WalletVersion, error)

	// History returns the full lineage ordered by version ascending,
	// including inactive rows. Empty when the lineage never existed.
	History(ctx context.Context, walletID uuid.UUID) ([]domain.WalletVersion, error)

	// ListActive returns every row currently flagged active. Callers must
	// not assume lineage uniqueness here; the snapshot reader reconciles.
	ListActive(ctx context.Context) ([]domain.WalletVersion, error)

	// ActiveByUser returns the active wallet version owned by a user, or
	// nil, nil when the user has no live wallet.
	ActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.WalletVersion, error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// List returns users that have not been logically deleted.
	List(ctx context.Context) ([]domain.User, error)
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error
}

// BalanceCache is the Redis-layer snapshot of current balances (fast path).
// All methods are best-effort: a cache failure must never fail a read.
type BalanceCache interface {
	// Get returns the cached balance or nil, nil on a miss.
	Get(ctx context.Context, walletID uuid.UUID) (*decimal.Decimal, error)
	Set(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal, ttl time.Duration) error
	Invalidate(ctx context.Context, walletID uuid.UUID) error
}
