package handler

import (
	"context"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerOp is the common shape of Credit and Debit.
type ledgerOp func(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*domain.WalletVersion, error)

// WalletHandler handles wallet ledger endpoints.
type WalletHandler struct {
	ledgerSvc   ports.LedgerService
	snapshotSvc ports.SnapshotService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, snapshotSvc ports.SnapshotService) *WalletHandler {
	return &WalletHandler{
		ledgerSvc:   ledgerSvc,
		snapshotSvc: snapshotSvc,
	}
}

// Credit handles POST /api/v1/wallets/:id/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	h.mutate(c, h.ledgerSvc.Credit)
}

// Debit handles POST /api/v1/wallets/:id/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	h.mutate(c, h.ledgerSvc.Debit)
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	snapshot, err := h.snapshotSvc.ListActiveWallets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.WalletVersionResponse, 0, len(snapshot))
	for _, v := range snapshot {
		out = append(out, toVersionResponse(v))
	}
	response.OK(c, out)
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	balance, err := h.snapshotSvc.CurrentBalance(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		WalletID: walletID.String(),
		Balance:  balance.StringFixed(2),
	})
}

// GetHistory handles GET /api/v1/wallets/:id/history.
func (h *WalletHandler) GetHistory(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	history, err := h.snapshotSvc.AuditTrail(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	versions := make([]dto.WalletVersionResponse, 0, len(history))
	for _, v := range history {
		versions = append(versions, toVersionResponse(v))
	}
	response.OK(c, dto.HistoryResponse{
		WalletID: walletID.String(),
		Versions: versions,
	})
}

func (h *WalletHandler) mutate(c *gin.Context, op ledgerOp) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	v, err := op(c.Request.Context(), walletID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toVersionResponse(*v))
}
