package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentCredits fires concurrent credits at one wallet. Writers
// race on the same predecessor version, so individual requests may lose
// the compare-and-append and exhaust their retries with 409. What must
// always hold: the final balance equals the sum of accepted credits, the
// version numbers are contiguous, and exactly one version stays active.
func TestConcurrentCredits(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	account := app.createUser(t, "Concurrent Credits")
	walletID := uuid.MustParse(account.WalletID)

	concurrency := 50
	amount := "10.00"

	var accepted, conflicted int64
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			resp := app.postAmount(t, account.WalletID, "credit", amount)
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&accepted, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflicted, 1)
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), accepted+conflicted)
	require.Positive(t, accepted)

	// Final balance equals exactly the accepted credits.
	expected := decimal.RequireFromString(amount).Mul(decimal.NewFromInt(accepted))
	var balance struct {
		Data struct {
			Balance string `json:"balance"`
		} `json:"data"`
	}
	code := app.getJSON(t, "/api/v1/wallets/"+account.WalletID+"/balance", &balance)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, expected.StringFixed(2), balance.Data.Balance)

	// Version numbers are contiguous and exactly one version is active.
	history, err := app.store.History(context.Background(), walletID)
	require.NoError(t, err)
	require.Len(t, history, int(accepted)+1)
	activeCount := 0
	for i, v := range history {
		assert.Equal(t, int64(i+1), v.Version, "versions must be contiguous")
		if v.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

// TestConcurrentDebits_NoOverdraft floods a funded wallet with debits that
// collectively exceed the balance. However the races resolve, the ledger
// must never go negative and must account for every accepted debit.
func TestConcurrentDebits_NoOverdraft(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	account := app.createUser(t, "Concurrent Debits")
	walletID := uuid.MustParse(account.WalletID)

	resp := app.postAmount(t, account.WalletID, "credit", "100.00")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	concurrency := 30
	var accepted int64
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			resp := app.postAmount(t, account.WalletID, "debit", "10.00")
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&accepted, 1)
			case http.StatusPaymentRequired, http.StatusConflict:
				// rejected: either out of funds or lost the race
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	// At most ten 10.00 debits fit into 100.00.
	assert.LessOrEqual(t, accepted, int64(10))

	expected := decimal.RequireFromString("100.00").
		Sub(decimal.RequireFromString("10.00").Mul(decimal.NewFromInt(accepted)))
	require.True(t, expected.Sign() >= 0, "balance must never go negative")

	var balance struct {
		Data struct {
			Balance string `json:"balance"`
		} `json:"data"`
	}
	code := app.getJSON(t, "/api/v1/wallets/"+account.WalletID+"/balance", &balance)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, expected.StringFixed(2), balance.Data.Balance)

	// Exactly one active version survives the storm.
	history, err := app.store.History(context.Background(), walletID)
	require.NoError(t, err)
	activeCount := 0
	for _, v := range history {
		if v.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

// TestConcurrentDeleteVsWrite races a delete against credits. Whatever
// interleaving occurs, the lineage ends exactly once and no version is
// appended after the terminal one.
func TestConcurrentDeleteVsWrite(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	account := app.createUser(t, "Delete Race")
	walletID := uuid.MustParse(account.WalletID)

	resp := app.postAmount(t, account.WalletID, "credit", "50.00")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		req, _ := http.NewRequest(http.MethodDelete, app.server.URL+"/api/v1/users/"+account.UserID, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
		}
	}()
	go func() {
		defer wg.Done()
		resp := app.postAmount(t, account.WalletID, "credit", "5.00")
		resp.Body.Close()
	}()
	wg.Wait()

	history, err := app.store.History(context.Background(), walletID)
	require.NoError(t, err)

	// The terminal version is last and nothing is active after it.
	terminal := 0
	for _, v := range history {
		if !v.IsActive {
			continue
		}
		terminal++
	}
	assert.Zero(t, terminal, "no active version may survive deletion")
	last := history[len(history)-1]
	assert.False(t, last.IsActive)

	// The history endpoint still serves the full lineage.
	var out struct {
		Data struct {
			Versions []json.RawMessage `json:"versions"`
		} `json:"data"`
	}
	code := app.getJSON(t, "/api/v1/wallets/"+account.WalletID+"/history", &out)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out.Data.Versions, len(history))
}
