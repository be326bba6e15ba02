package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an account holder. Users are created once and removed
// logically: the row is tombstoned and the wallet lineage is deactivated,
// never erased.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted returns true if the user has been logically removed.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// DeriveEmail builds the contact handle from a display name:
// "Alice Johnson" -> "alice.johnson@example.com".
func DeriveEmail(name string) string {
	handle := strings.ToLower(strings.TrimSpace(name))
	handle = strings.Join(strings.Fields(handle), ".")
	return handle + "@example.com"
}

// NewUser creates a User with a fresh ID and a derived contact handle.
func NewUser(name string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     DeriveEmail(name),
		CreatedAt: time.Now().UTC(),
	}
}
