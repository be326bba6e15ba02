package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testVersion(walletID, userID uuid.UUID, version int64, balance string, active bool) *domain.WalletVersion {
	return &domain.WalletVersion{
		WalletID:  walletID,
		UserID:    userID,
		Balance:   decimal.RequireFromString(balance),
		Version:   version,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
}

func jsonRequest(method, path string, payload interface{}) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// --- User Handler Tests ---

func TestCreateUser_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccounts := mocks.NewMockAccountService(ctrl)
	h := NewUserHandler(mockAccounts)

	user := domain.NewUser("Alice Johnson")
	wallet := testVersion(uuid.New(), user.ID, 1, "0.00", true)
	mockAccounts.EXPECT().CreateUser(gomock.Any(), "Alice Johnson").
		Return(&ports.Account{User: *user, Wallet: wallet}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/users", dto.CreateUserRequest{Name: "Alice Johnson"})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	userData := data["user"].(map[string]interface{})
	assert.Equal(t, "alice.johnson@example.com", userData["email"])
	walletData := data["wallet"].(map[string]interface{})
	assert.Equal(t, "0.00", walletData["balance"])
	assert.Equal(t, float64(1), walletData["version"])
}

func TestCreateUser_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewUserHandler(mocks.NewMockAccountService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsers_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccounts := mocks.NewMockAccountService(ctrl)
	h := NewUserHandler(mockAccounts)

	alice := domain.NewUser("Alice Johnson")
	bob := domain.NewUser("Bob Smith")
	mockAccounts.EXPECT().ListAccounts(gomock.Any()).Return([]ports.Account{
		{User: *alice, Wallet: testVersion(uuid.New(), alice.ID, 2, "50.00", true)},
		{User: *bob}, // deleted wallet, still listed
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.NotNil(t, first["wallet"])
	second := data[1].(map[string]interface{})
	_, hasWallet := second["wallet"]
	assert.False(t, hasWallet)
}

func TestDeleteUser_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccounts := mocks.NewMockAccountService(ctrl)
	h := NewUserHandler(mockAccounts)

	userID := uuid.New()
	mockAccounts.EXPECT().DeleteUser(gomock.Any(), userID).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+userID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: userID.String()}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteUser_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewUserHandler(mocks.NewMockAccountService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/users/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUser_AlreadyDeleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccounts := mocks.NewMockAccountService(ctrl)
	h := NewUserHandler(mockAccounts)

	userID := uuid.New()
	mockAccounts.EXPECT().DeleteUser(gomock.Any(), userID).Return(apperror.ErrAlreadyDeleted("user"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+userID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: userID.String()}}

	h.Delete(c)

	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "LED_006")
}

// --- Wallet Handler Tests ---

func TestCredit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, mocks.NewMockSnapshotService(ctrl))

	walletID := uuid.New()
	userID := uuid.New()
	mockLedger.EXPECT().Credit(gomock.Any(), walletID, decimal.RequireFromString("100.00")).
		Return(testVersion(walletID, userID, 2, "100.00", true), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/wallets/"+walletID.String()+"/credit", dto.AmountRequest{Amount: "100.00"})
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.Credit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "100.00", data["balance"])
	assert.Equal(t, float64(2), data["version"])
	assert.Equal(t, true, data["is_active"])
}

func TestCredit_MalformedAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), mocks.NewMockSnapshotService(ctrl))

	walletID := uuid.New()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/", dto.AmountRequest{Amount: "ten dollars"})
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.Credit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LED_002")
}

func TestDebit_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, mocks.NewMockSnapshotService(ctrl))

	walletID := uuid.New()
	mockLedger.EXPECT().Debit(gomock.Any(), walletID, decimal.RequireFromString("500.00")).
		Return(nil, apperror.ErrInsufficientFunds())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/", dto.AmountRequest{Amount: "500.00"})
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.Debit(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "LED_001")
}

func TestDebit_Conflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, mocks.NewMockSnapshotService(ctrl))

	walletID := uuid.New()
	mockLedger.EXPECT().Debit(gomock.Any(), walletID, gomock.Any()).
		Return(nil, apperror.ErrVersionConflict())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/", dto.AmountRequest{Amount: "10.00"})
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.Debit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "LED_004")
}

func TestGetBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSnapshots := mocks.NewMockSnapshotService(ctrl)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), mockSnapshots)

	walletID := uuid.New()
	mockSnapshots.EXPECT().CurrentBalance(gomock.Any(), walletID).
		Return(decimal.RequireFromString("70.00"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "70.00", data["balance"])
}

func TestGetHistory_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSnapshots := mocks.NewMockSnapshotService(ctrl)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), mockSnapshots)

	walletID := uuid.New()
	mockSnapshots.EXPECT().AuditTrail(gomock.Any(), walletID).
		Return(nil, apperror.ErrNotFound("wallet"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.GetHistory(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LED_003")
}

func TestGetHistory_IncludesTombstone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSnapshots := mocks.NewMockSnapshotService(ctrl)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), mockSnapshots)

	walletID := uuid.New()
	userID := uuid.New()
	mockSnapshots.EXPECT().AuditTrail(gomock.Any(), walletID).Return([]domain.WalletVersion{
		*testVersion(walletID, userID, 1, "0.00", false),
		*testVersion(walletID, userID, 2, "100.00", false),
		*testVersion(walletID, userID, 3, "100.00", false),
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.GetHistory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	versions := data["versions"].([]interface{})
	require.Len(t, versions, 3)
	last := versions[2].(map[string]interface{})
	assert.Equal(t, false, last["is_active"])
}

// --- Health Handler Tests ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Ping(_ context.Context) error { return f.err }
func (f fakeChecker) Name() string                 { return f.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(
		fakeChecker{name: "postgresql"},
		fakeChecker{name: "redis", err: errors.New("connection refused")},
	))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
