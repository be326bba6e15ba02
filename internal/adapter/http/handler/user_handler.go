package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	accountSvc ports.AccountService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accountSvc ports.AccountService) *UserHandler {
	return &UserHandler{accountSvc: accountSvc}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.CreateUser(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAccountResponse(*account))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	accounts, err := h.accountSvc.ListAccounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	response.OK(c, out)
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	if err := h.accountSvc.DeleteUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
