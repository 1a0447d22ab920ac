package classes

import (
	"encoding/json"
	"net/http"
	"time"

	"courtside/ledger"
	"courtside/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Handler exposes the ClassRegistry over HTTP. The optional lock function
// serializes the student's wallet during booking, shared with the wallet
// handlers so class payments and top-ups contend on the same lock.
type Handler struct {
	registry *ledger.ClassRegistry
	lock     func(userID string) (func(), bool)
	log      *zap.Logger
}

func NewHandler(registry *ledger.ClassRegistry, lock func(string) (func(), bool), log *zap.Logger) *Handler {
	if lock == nil {
		lock = func(string) (func(), bool) { return func() {}, true }
	}
	return &Handler{registry: registry, lock: lock, log: log}
}

type createClassRequest struct {
	InstructorName string `json:"instructorName"`
	Date           string `json:"date"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	CreditCost     int    `json:"creditCost"`
}

// CreateClass registers a new available slot for the acting coach.
func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(clockLayout, req.StartTime)
	if err != nil {
		http.Error(w, "invalid startTime", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(clockLayout, req.EndTime)
	if err != nil {
		http.Error(w, "invalid endTime", http.StatusBadRequest)
		return
	}

	class, err := h.registry.Create(r.Context(), ledger.CreateClassParams{
		InstructorName: req.InstructorName,
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		CreditCost:     req.CreditCost,
		CreatedBy:      utils.GetUserIDFromRequest(r),
	})
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"class": class})
}

// GetClassesByDate lists every slot on the given calendar day.
func (h *Handler) GetClassesByDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := time.Parse(dateLayout, ps.ByName("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	list, err := h.registry.ListForDate(r.Context(), date)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"classes": list})
}

// GetAvailableByDate lists bookable slots on the given calendar day.
func (h *Handler) GetAvailableByDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := time.Parse(dateLayout, ps.ByName("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	list, err := h.registry.ListAvailableForDate(r.Context(), date)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"classes": list})
}

// BookClass reserves the slot for the acting student and debits the cost.
func (h *Handler) BookClass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	classID := ps.ByName("classid")
	studentID := utils.GetUserIDFromRequest(r)

	release, ok := h.lock(studentID)
	if !ok {
		http.Error(w, "please retry", http.StatusTooManyRequests)
		return
	}
	defer release()

	class, err := h.registry.Book(r.Context(), classID, studentID)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "class": class})
}

// FinishClass marks a booked slot completed and accrues coach earnings.
func (h *Handler) FinishClass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	class, err := h.registry.MarkFinished(r.Context(), ps.ByName("classid"), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "class": class})
}

type editClassRequest struct {
	InstructorName *string `json:"instructorName"`
	Date           *string `json:"date"`
	StartTime      *string `json:"startTime"`
	EndTime        *string `json:"endTime"`
	CreditCost     *int    `json:"creditCost"`
}

// EditClass modifies only the supplied fields.
func (h *Handler) EditClass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req editClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var fields ledger.UpdateClassFields
	fields.InstructorName = req.InstructorName
	fields.CreditCost = req.CreditCost

	if req.Date != nil {
		d, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		fields.Date = &d
	}
	if req.StartTime != nil {
		t, err := time.Parse(clockLayout, *req.StartTime)
		if err != nil {
			http.Error(w, "invalid startTime", http.StatusBadRequest)
			return
		}
		fields.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := time.Parse(clockLayout, *req.EndTime)
		if err != nil {
			http.Error(w, "invalid endTime", http.StatusBadRequest)
			return
		}
		fields.EndTime = &t
	}

	class, err := h.registry.Update(r.Context(), ps.ByName("classid"), utils.GetUserIDFromRequest(r), fields)
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"class": class})
}

// DeleteClass hard-removes a slot.
func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.registry.Delete(r.Context(), ps.ByName("classid"), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
