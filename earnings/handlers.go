package earnings

import (
	"net/http"

	"courtside/ledger"
	"courtside/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Handler exposes Earnings Manager reads over HTTP. There is no withdrawal
// operation; earnings only accrue.
type Handler struct {
	earnings *ledger.EarningsManager
	log      *zap.Logger
}

func NewHandler(earnings *ledger.EarningsManager, log *zap.Logger) *Handler {
	return &Handler{earnings: earnings, log: log}
}

// GetEarnings returns the acting coach's cumulative total.
func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	coachID := utils.GetUserIDFromRequest(r)

	total, err := h.earnings.Earnings(r.Context(), coachID)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"totalEarnings": total})
}

// Transactions returns the acting coach's earning history, newest first.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	coachID := utils.GetUserIDFromRequest(r)

	txns, err := h.earnings.Transactions(r.Context(), coachID)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"transactions": txns})
}
