package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"courtside/globals"
	"courtside/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := ledger.NewMemoryStore()
	return NewHandler(ledger.NewBalanceManager(store, zap.NewNop()), zap.NewNop())
}

func authedRequest(method, target, body, userID string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), globals.UserIDKey, userID)
	return r.WithContext(ctx)
}

func TestGetBalance(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetBalance(rec, authedRequest(http.MethodGet, "/api/wallet/balance", "", "u1"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balance int `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ledger.DefaultStartingCredits, body.Balance)
}

func TestGetBalanceNoIdentity(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetBalance(rec, authedRequest(http.MethodGet, "/api/wallet/balance", "", ""), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTopUp(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.TopUp(rec, authedRequest(http.MethodPost, "/api/wallet/topup", `{"amount": 40}`, "u1"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Balance int  `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, ledger.DefaultStartingCredits+40, body.Balance)
}

func TestTopUpRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{``, `{}`, `{"amount": 0}`, `{"amount": -5}`, `not json`} {
		rec := httptest.NewRecorder()
		h.TopUp(rec, authedRequest(http.MethodPost, "/api/wallet/topup", body, "u1"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestTransactions(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.TopUp(rec, authedRequest(http.MethodPost, "/api/wallet/topup", `{"amount": 10}`, "u1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Transactions(rec, authedRequest(http.MethodGet, "/api/wallet/transactions", "", "u1"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Transactions []struct {
			Amount  int    `json:"amount"`
			Type    string `json:"type"`
			Balance int    `json:"balance"`
		} `json:"transactions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, 10, body.Transactions[0].Amount)
	assert.Equal(t, "add", body.Transactions[0].Type)
	assert.Equal(t, 110, body.Transactions[0].Balance)
}
