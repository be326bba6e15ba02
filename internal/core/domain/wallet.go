package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletVersion is one immutable entry in a wallet's version lineage.
// Balance mutations never overwrite a version; they append a successor and
// flip the predecessor's IsActive flag. At most one version per WalletID is
// active at any time.
type WalletVersion struct {
	WalletID  uuid.UUID       `json:"wallet_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// LineageState is the lifecycle state of a wallet lineage.
type LineageState string

const (
	LineageNonExistent LineageState = "NON_EXISTENT"
	LineageActive      LineageState = "ACTIVE"
	LineageDeleted     LineageState = "DELETED"
)

// NewLineage creates version 1 of a fresh wallet with a zero balance.
func NewLineage(walletID, userID uuid.UUID) WalletVersion {
	return WalletVersion{
		WalletID:  walletID,
		UserID:    userID,
		Balance:   decimal.Zero,
		Version:   1,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Next builds the successor version carrying the given balance.
func (v WalletVersion) Next(balance decimal.Decimal) WalletVersion {
	return WalletVersion{
		WalletID:  v.WalletID,
		UserID:    v.UserID,
		Balance:   balance,
		Version:   v.Version + 1,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Tombstone builds the terminal version that ends the lineage: same balance,
// next version number, not active. After it is appended the lineage has
// history but no active version.
func (v WalletVersion) Tombstone() WalletVersion {
	next := v.Next(v.Balance)
	next.IsActive = false
	return next
}

// StateOf derives the lineage state from its history.
func StateOf(history []WalletVersion) LineageState {
	if len(history) == 0 {
		return LineageNonExistent
	}
	for _, v := range history {
		if v.IsActive {
			return LineageActive
		}
	}
	return LineageDeleted
}

// ValidAmount reports whether amount is positive and exact at two decimal
// places (currency scale).
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}
