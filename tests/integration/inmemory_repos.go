package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// --- In-Memory Version Store ---

// inMemoryVersionStore mimics the postgres store's compare-and-append
// semantics: an append naming a predecessor only succeeds if that
// predecessor is still the active version, and the partial unique
// constraints (one active version per lineage, one active lineage per
// user) are enforced under a single mutex.
type inMemoryVersionStore struct {
	mu       sync.RWMutex
	lineages map[uuid.UUID][]domain.WalletVersion
}

func newInMemoryVersionStore() *inMemoryVersionStore {
	return &inMemoryVersionStore{lineages: make(map[uuid.UUID][]domain.WalletVersion)}
}

func (s *inMemoryVersionStore) Append(ctx context.Context, v *domain.WalletVersion, predecessor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lineage := s.lineages[v.WalletID]

	for _, existing := range lineage {
		if existing.Version == v.Version {
			return apperror.ErrVersionConflict()
		}
	}

	if predecessor == 0 {
		if len(lineage) > 0 {
			return apperror.ErrVersionConflict()
		}
		for _, other := range s.lineages {
			for _, ov := range other {
				if ov.IsActive && ov.UserID == v.UserID {
					return apperror.ErrDuplicateWallet()
				}
			}
		}
	} else {
		flipped := false
		for i := range lineage {
			if lineage[i].IsActive && lineage[i].Version == predecessor {
				lineage[i].IsActive = false
				flipped = true
				break
			}
		}
		if !flipped {
			return apperror.ErrVersionConflict()
		}
	}

	s.lineages[v.WalletID] = append(lineage, *v)
	return nil
}

func (s *inMemoryVersionStore) Latest(ctx context.Context, walletID uuid.UUID) (*domain.WalletVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.lineages[walletID] {
		if v.IsActive {
			out := v
			return &out, nil
		}
	}
	return nil, nil
}

func (s *inMemoryVersionStore) History(ctx context.Context, walletID uuid.UUID) ([]domain.WalletVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lineage := s.lineages[walletID]
	out := make([]domain.WalletVersion, len(lineage))
	copy(out, lineage)
	return out, nil
}

func (s *inMemoryVersionStore) ListActive(ctx context.Context) ([]domain.WalletVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.WalletVersion
	for _, lineage := range s.lineages {
		for _, v := range lineage {
			if v.IsActive {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (s *inMemoryVersionStore) ActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.WalletVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lineage := range s.lineages {
		for _, v := range lineage {
			if v.IsActive && v.UserID == userID {
				out := v
				return &out, nil
			}
		}
	}
	return nil, nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.User
	for _, u := range r.users {
		if !u.IsDeleted() {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *inMemoryUserRepo) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("user not found or already deleted")
	}
	u.DeletedAt = &at
	return nil
}
