package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService. A user and their
// wallet lineage are created and deleted together.
type AccountServiceImpl struct {
	users     ports.UserRepository
	store     ports.VersionStore
	ledger    ports.LedgerService
	snapshots ports.SnapshotService
	log       zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	users ports.UserRepository,
	store ports.VersionStore,
	ledger ports.LedgerService,
	snapshots ports.SnapshotService,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		users:     users,
		store:     store,
		ledger:    ledger,
		snapshots: snapshots,
		log:       log,
	}
}

// CreateUser registers a user and opens their wallet lineage.
func (s *AccountServiceImpl) CreateUser(ctx context.Context, name string) (*ports.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name must not be empty")
	}

	u := domain.NewUser(name)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	wallet, err := s.ledger.CreateWallet(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", u.ID.String()).
		Str("wallet_id", wallet.WalletID.String()).
		Msg("account created")

	return &ports.Account{User: *u, Wallet: wallet}, nil
}

// ListAccounts joins live users with the active-wallet snapshot. A user
// whose wallet lineage has ended still appears, with a nil wallet.
func (s *AccountServiceImpl) ListAccounts(ctx context.Context) ([]ports.Account, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list users: %w", err))
	}

	snapshot, err := s.snapshots.ListActiveWallets(ctx)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]*domain.WalletVersion, len(snapshot))
	for i := range snapshot {
		byUser[snapshot[i].UserID] = &snapshot[i]
	}

	accounts := make([]ports.Account, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, ports.Account{User: u, Wallet: byUser[u.ID]})
	}
	return accounts, nil
}

// DeleteUser tombstones the user and ends their wallet lineage.
func (s *AccountServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if u == nil {
		return apperror.ErrNotFound("user")
	}
	if u.IsDeleted() {
		return apperror.ErrAlreadyDeleted("user")
	}

	wallet, err := s.store.ActiveByUser(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find active wallet: %w", err))
	}
	if wallet != nil {
		if _, err := s.ledger.DeleteWallet(ctx, wallet.WalletID); err != nil {
			return err
		}
	}

	if err := s.users.MarkDeleted(ctx, userID, time.Now().UTC()); err != nil {
		return apperror.InternalError(fmt.Errorf("mark user deleted: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Msg("account deleted")
	return nil
}
