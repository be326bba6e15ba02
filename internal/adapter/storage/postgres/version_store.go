package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const versionColumns = `wallet_id, user_id, balance, version, is_active, created_at`

// VersionStore implements ports.VersionStore on an append-only
// wallet_versions table. Rows are never updated except for the is_active
// flag, and never deleted. Two partial unique indexes back the invariants:
// one active row per wallet_id, one active row per user_id.
type VersionStore struct {
	pool Pool
}

// NewVersionStore creates a new VersionStore.
func NewVersionStore(pool Pool) *VersionStore {
	return &VersionStore{pool: pool}
}

// Append inserts v and deactivates the predecessor version in a single
// database transaction. The predecessor flip doubles as the
// optimistic-concurrency guard: if the named version is no longer active,
// zero rows are updated and the whole append fails with a version conflict.
func (s *VersionStore) Append(ctx context.Context, v *domain.WalletVersion, predecessor int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin append: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if predecessor > 0 {
		tag, err := tx.Exec(ctx,
			`UPDATE wallet_versions SET is_active = FALSE
			 WHERE wallet_id = $1 AND version = $2 AND is_active`,
			v.WalletID, predecessor,
		)
		if err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("deactivate predecessor: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return apperror.ErrVersionConflict()
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO wallet_versions (`+versionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		v.WalletID, v.UserID, v.Balance, v.Version, v.IsActive, v.CreatedAt,
	)
	if err != nil {
		if appErr := mapUniqueViolation(err); appErr != nil {
			return appErr
		}
		return apperror.ErrDatabaseError(fmt.Errorf("insert wallet version: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit append: %w", err))
	}
	return nil
}

// Latest returns the active version of a lineage, or nil, nil when none.
func (s *VersionStore) Latest(ctx context.Context, walletID uuid.UUID) (*domain.WalletVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM wallet_versions
		WHERE wallet_id = $1 AND is_active`

	return s.scanVersion(s.pool.QueryRow(ctx, query, walletID))
}

// History returns the full lineage ordered by version ascending.
func (s *VersionStore) History(ctx context.Context, walletID uuid.UUID) ([]domain.WalletVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM wallet_versions
		WHERE wallet_id = $1 ORDER BY version ASC`

	rows, err := s.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("query wallet history: %w", err)
	}
	defer rows.Close()

	return collectVersions(rows)
}

// ListActive returns every row currently flagged active, across lineages.
func (s *VersionStore) ListActive(ctx context.Context) ([]domain.WalletVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM wallet_versions
		WHERE is_active ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active wallets: %w", err)
	}
	defer rows.Close()

	return collectVersions(rows)
}

// ActiveByUser returns the active wallet version owned by a user, or nil, nil.
func (s *VersionStore) ActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.WalletVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM wallet_versions
		WHERE user_id = $1 AND is_active`

	return s.scanVersion(s.pool.QueryRow(ctx, query, userID))
}

func (s *VersionStore) scanVersion(row pgx.Row) (*domain.WalletVersion, error) {
	v := &domain.WalletVersion{}
	err := row.Scan(&v.WalletID, &v.UserID, &v.Balance, &v.Version, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet version: %w", err)
	}
	return v, nil
}

func collectVersions(rows pgx.Rows) ([]domain.WalletVersion, error) {
	var versions []domain.WalletVersion
	for rows.Next() {
		var v domain.WalletVersion
		if err := rows.Scan(&v.WalletID, &v.UserID, &v.Balance, &v.Version, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet versions: %w", err)
	}
	return versions, nil
}

// mapUniqueViolation translates partial-index violations into the ledger
// error taxonomy: a second active row per user means a duplicate wallet, a
// second active row per lineage means a lost optimistic race.
func mapUniqueViolation(err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "user") {
		return apperror.ErrDuplicateWallet()
	}
	return apperror.ErrVersionConflict()
}
