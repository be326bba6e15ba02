package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveEmail(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Alice Johnson", "alice.johnson@example.com"},
		{"Bob", "bob@example.com"},
		{"  Carol   White  ", "carol.white@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveEmail(tt.name))
		})
	}
}

func TestNewUser(t *testing.T) {
	u := NewUser("Alice Johnson")

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "Alice Johnson", u.Name)
	assert.Equal(t, "alice.johnson@example.com", u.Email)
	assert.False(t, u.IsDeleted())

	now := time.Now().UTC()
	u.DeletedAt = &now
	assert.True(t, u.IsDeleted())
}

func TestNewLineage(t *testing.T) {
	walletID, userID := uuid.New(), uuid.New()
	v := NewLineage(walletID, userID)

	assert.Equal(t, walletID, v.WalletID)
	assert.Equal(t, userID, v.UserID)
	assert.True(t, v.Balance.IsZero())
	assert.Equal(t, int64(1), v.Version)
	assert.True(t, v.IsActive)
}

func TestWalletVersion_Next(t *testing.T) {
	v := NewLineage(uuid.New(), uuid.New())
	next := v.Next(decimal.RequireFromString("100.00"))

	assert.Equal(t, v.WalletID, next.WalletID)
	assert.Equal(t, v.UserID, next.UserID)
	assert.Equal(t, int64(2), next.Version)
	assert.True(t, next.IsActive)
	assert.True(t, next.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestWalletVersion_Tombstone(t *testing.T) {
	v := NewLineage(uuid.New(), uuid.New())
	v = v.Next(decimal.RequireFromString("42.50"))
	tomb := v.Tombstone()

	assert.Equal(t, v.Version+1, tomb.Version)
	assert.False(t, tomb.IsActive)
	assert.True(t, tomb.Balance.Equal(v.Balance), "tombstone carries the final balance")
}

func TestStateOf(t *testing.T) {
	walletID, userID := uuid.New(), uuid.New()
	v1 := NewLineage(walletID, userID)

	assert.Equal(t, LineageNonExistent, StateOf(nil))
	assert.Equal(t, LineageActive, StateOf([]WalletVersion{v1}))

	v1.IsActive = false
	v2 := v1.Tombstone()
	assert.Equal(t, LineageDeleted, StateOf([]WalletVersion{v1, v2}))
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"100.00", true},
		{"0.01", true},
		{"5", true},
		{"10.5", true},
		{"0", false},
		{"-1.00", false},
		{"0.001", false},
		{"99.999", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			a, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ValidAmount(a))
		})
	}
}
