package dto

// CreateUserRequest is the request body for account creation.
type CreateUserRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AmountRequest is the request body for credit and debit operations.
// The amount travels as a string so the exact decimal value survives
// JSON transport.
type AmountRequest struct {
	Amount string `json:"amount" binding:"required,max=32"`
}

// UserResponse is the user part of an account.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// WalletVersionResponse is a single immutable wallet version.
type WalletVersionResponse struct {
	WalletID  string `json:"wallet_id"`
	UserID    string `json:"user_id"`
	Balance   string `json:"balance"`
	Version   int64  `json:"version"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// AccountResponse pairs a user with their active wallet version, if any.
type AccountResponse struct {
	User   UserResponse           `json:"user"`
	Wallet *WalletVersionResponse `json:"wallet,omitempty"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
}

// HistoryResponse is the full audit trail of a wallet lineage.
type HistoryResponse struct {
	WalletID string                  `json:"wallet_id"`
	Versions []WalletVersionResponse `json:"versions"`
}
