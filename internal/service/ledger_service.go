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

// LedgerServiceImpl implements ports.LedgerService. Every balance change
// goes through here: validate, read the active version, compute, append with
// the read version as predecessor. A concurrent writer makes the append fail
// with a version conflict, which is retried a bounded number of times under
// an overall deadline before being surfaced.
type LedgerServiceImpl struct {
	store        ports.VersionStore
	cache        ports.BalanceCache
	log          zerolog.Logger
	maxRetries   int
	retryTimeout time.Duration
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	store ports.VersionStore,
	cache ports.BalanceCache,
	maxRetries int,
	retryTimeout time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &LedgerServiceImpl{
		store:        store,
		cache:        cache,
		log:          log,
		maxRetries:   maxRetries,
		retryTimeout: retryTimeout,
	}
}

// CreateWallet opens a fresh lineage for a user: version 1, balance 0.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletVersion, error) {
	existing, err := s.store.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing wallet: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateWallet()
	}

	v := domain.NewLineage(uuid.New(), userID)
	if err := s.store.Append(ctx, &v, 0); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", v.WalletID.String()).
		Str("user_id", userID.String()).
		Msg("wallet lineage created")

	return &v, nil
}

// Credit appends a version with the balance increased by amount.
func (s *LedgerServiceImpl) Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*domain.WalletVersion, error) {
	if !domain.ValidAmount(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	return s.mutate(ctx, walletID, "credit", func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(amount), nil
	})
}

// Debit appends a version with the balance decreased by amount. The funds
// check is evaluated against the same snapshot the append names as its
// predecessor, so a stale read can only ever produce a conflict, never a
// wrong balance.
func (s *LedgerServiceImpl) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*domain.WalletVersion, error) {
	if !domain.ValidAmount(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	return s.mutate(ctx, walletID, "debit", func(balance decimal.Decimal) (decimal.Decimal, error) {
		next := balance.Sub(amount)
		if next.IsNegative() {
			return decimal.Zero, apperror.ErrInsufficientFunds()
		}
		return next, nil
	})
}

// DeleteWallet appends the terminal version that ends the lineage. History
// stays queryable; only the active pointer goes away.
func (s *LedgerServiceImpl) DeleteWallet(ctx context.Context, walletID uuid.UUID) (*domain.WalletVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.retryTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		cur, err := s.store.Latest(ctx, walletID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("read active version: %w", err))
		}
		if cur == nil {
			history, err := s.store.History(ctx, walletID)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("read lineage history: %w", err))
			}
			if len(history) > 0 {
				return nil, apperror.ErrAlreadyDeleted("wallet")
			}
			return nil, apperror.ErrNotFound("wallet")
		}

		tomb := cur.Tombstone()
		err = s.store.Append(ctx, &tomb, cur.Version)
		if err == nil {
			s.invalidateBalance(ctx, walletID)
			s.log.Info().
				Str("wallet_id", walletID.String()).
				Int64("version", tomb.Version).
				Msg("wallet lineage deleted")
			return &tomb, nil
		}
		if !apperror.IsConflict(err) || attempt >= s.maxRetries || ctx.Err() != nil {
			return nil, err
		}
		s.log.Debug().
			Str("wallet_id", walletID.String()).
			Int("attempt", attempt).
			Msg("version conflict on delete, retrying")
	}
}

// mutate runs the read-compute-append cycle for credit/debit under the
// bounded retry loop.
func (s *LedgerServiceImpl) mutate(
	ctx context.Context,
	walletID uuid.UUID,
	op string,
	compute func(decimal.Decimal) (decimal.Decimal, error),
) (*domain.WalletVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.retryTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		cur, err := s.store.Latest(ctx, walletID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("read active version: %w", err))
		}
		if cur == nil {
			return nil, apperror.ErrNotFound("wallet")
		}

		newBalance, err := compute(cur.Balance)
		if err != nil {
			return nil, err
		}

		next := cur.Next(newBalance)
		err = s.store.Append(ctx, &next, cur.Version)
		if err == nil {
			s.invalidateBalance(ctx, walletID)
			s.log.Info().
				Str("wallet_id", walletID.String()).
				Str("op", op).
				Int64("version", next.Version).
				Str("balance", next.Balance.StringFixed(2)).
				Msg("wallet version appended")
			return &next, nil
		}
		if !apperror.IsConflict(err) || attempt >= s.maxRetries || ctx.Err() != nil {
			return nil, err
		}
		s.log.Debug().
			Str("wallet_id", walletID.String()).
			Str("op", op).
			Int("attempt", attempt).
			Msg("version conflict, retrying")
	}
}

// invalidateBalance drops the cached balance snapshot (best-effort).
func (s *LedgerServiceImpl) invalidateBalance(ctx context.Context, walletID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, walletID); err != nil {
		s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("failed to invalidate balance cache")
	}
}
