package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
)

func toUserResponse(u domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toVersionResponse(v domain.WalletVersion) dto.WalletVersionResponse {
	return dto.WalletVersionResponse{
		WalletID:  v.WalletID.String(),
		UserID:    v.UserID.String(),
		Balance:   v.Balance.StringFixed(2),
		Version:   v.Version,
		IsActive:  v.IsActive,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
}

func toAccountResponse(a ports.Account) dto.AccountResponse {
	out := dto.AccountResponse{User: toUserResponse(a.User)}
	if a.Wallet != nil {
		wallet := toVersionResponse(*a.Wallet)
		out.Wallet = &wallet
	}
	return out
}
