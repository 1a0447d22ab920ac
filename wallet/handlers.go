package wallet

import (
	"encoding/json"
	"net/http"
	"time"

	"courtside/ledger"
	"courtside/rdx"
	"courtside/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// lockTTL bounds how long a per-user wallet lock is held.
const lockTTL = 5 * time.Second

// Handler exposes the BalanceManager over HTTP. Mutations are serialized
// per user with a Redis lock so two requests for the same wallet cannot
// interleave their read-modify-write.
type Handler struct {
	wallet *ledger.BalanceManager
	log    *zap.Logger
}

func NewHandler(wallet *ledger.BalanceManager, log *zap.Logger) *Handler {
	return &Handler{wallet: wallet, log: log}
}

// GetBalance returns the acting user's credit balance, initializing new
// users to the starting default.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	balance, err := h.wallet.Balance(r.Context(), userID)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"balance": balance})
}

// TopUp credits the acting user's wallet.
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Amount <= 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	release, ok := h.lock(userID)
	if !ok {
		http.Error(w, "please retry", http.StatusTooManyRequests)
		return
	}
	defer release()

	balance, err := h.wallet.AddCredits(r.Context(), userID, body.Amount)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "balance": balance})
}

// Transactions returns the acting user's ledger history, newest first.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)

	txns, err := h.wallet.Transactions(r.Context(), userID)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"transactions": txns})
}

// lock acquires the per-user wallet lock. When Redis itself is unreachable
// the request proceeds unlocked: the manager-level semantics already accept
// concurrent writers, the lock only tightens them.
func (h *Handler) lock(userID string) (func(), bool) {
	key := "wallet_lock:" + userID
	acquired, err := rdx.RdxSetNX(key, "1", lockTTL)
	if err != nil {
		h.log.Warn("wallet lock unavailable, proceeding unlocked",
			zap.String("userId", userID), zap.Error(err))
		return func() {}, true
	}
	if !acquired {
		return nil, false
	}
	return func() { _ = rdx.RdxDel(key) }, true
}

// Lock exposes the wallet lock for other flows that move user credits.
func (h *Handler) Lock(userID string) (func(), bool) { return h.lock(userID) }
