package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SnapshotServiceImpl implements ports.SnapshotService: read-only views
// reconstructed from the version store, with a read-through balance cache.
type SnapshotServiceImpl struct {
	store    ports.VersionStore
	cache    ports.BalanceCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewSnapshotService creates a new SnapshotServiceImpl.
func NewSnapshotService(
	store ports.VersionStore,
	cache ports.BalanceCache,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *SnapshotServiceImpl {
	return &SnapshotServiceImpl{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// ListActiveWallets returns the current snapshot: one version per live
// lineage. The store guarantees a single active row per lineage; if that
// invariant is ever broken the highest version wins and the anomaly is
// logged rather than letting duplicates leak into the snapshot.
func (s *SnapshotServiceImpl) ListActiveWallets(ctx context.Context) ([]domain.WalletVersion, error) {
	rows, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list active versions: %w", err))
	}

	byLineage := make(map[uuid.UUID]int, len(rows))
	snapshot := make([]domain.WalletVersion, 0, len(rows))
	for _, v := range rows {
		idx, seen := byLineage[v.WalletID]
		if !seen {
			byLineage[v.WalletID] = len(snapshot)
			snapshot = append(snapshot, v)
			continue
		}
		s.log.Error().
			Str("wallet_id", v.WalletID.String()).
			Int64("version", v.Version).
			Int64("other_version", snapshot[idx].Version).
			Msg("multiple active versions for lineage")
		if v.Version > snapshot[idx].Version {
			snapshot[idx] = v
		}
	}

	return snapshot, nil
}

// CurrentBalance returns the balance of the active version of a lineage.
func (s *SnapshotServiceImpl) CurrentBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	cached, err := s.cache.Get(ctx, walletID)
	if err != nil {
		s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("balance cache read failed")
	} else if cached != nil {
		return *cached, nil
	}

	cur, err := s.store.Latest(ctx, walletID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("read active version: %w", err))
	}
	if cur == nil {
		return decimal.Zero, apperror.ErrNotFound("wallet")
	}

	if err := s.cache.Set(ctx, walletID, cur.Balance, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("balance cache write failed")
	}

	return cur.Balance, nil
}

// AuditTrail returns every version of a lineage in ascending version order,
// including the terminal one for deleted wallets.
func (s *SnapshotServiceImpl) AuditTrail(ctx context.Context, walletID uuid.UUID) ([]domain.WalletVersion, error) {
	history, err := s.store.History(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read lineage history: %w", err))
	}
	if len(history) == 0 {
		return nil, apperror.ErrNotFound("wallet")
	}
	return history, nil
}
