package classes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"courtside/globals"
	"courtside/ledger"
	"courtside/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type classResponse struct {
	Success bool             `json:"success"`
	Class   models.ClassSlot `json:"class"`
}

func newTestHandler(t *testing.T) (*Handler, *ledger.BalanceManager) {
	t.Helper()
	store := ledger.NewMemoryStore()
	wallet := ledger.NewBalanceManager(store, zap.NewNop())
	earnings := ledger.NewEarningsManager(store, zap.NewNop())
	directory := ledger.DirectoryMap{
		"coach1":   {UserID: "coach1", FirstName: "Ana", LastName: "Kovac", Role: models.RoleCoach},
		"student1": {UserID: "student1", FirstName: "Sam", Role: models.RoleStudent},
	}
	registry := ledger.NewClassRegistry(store, wallet, earnings, directory, zap.NewNop())
	return NewHandler(registry, nil, zap.NewNop()), wallet
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

func classParam(id string) httprouter.Params {
	return httprouter.Params{{Key: "classid", Value: id}}
}

func createClass(t *testing.T, h *Handler, body string) models.ClassSlot {
	t.Helper()
	rec := httptest.NewRecorder()
	h.CreateClass(rec, authedRequest(http.MethodPost, "/api/classes", body, "coach1"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp classResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Class
}

func TestCreateClassHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":10}`)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, "Ana Kovac", class.InstructorName)
	assert.Equal(t, "9:00 AM - 10:00 AM", class.ClassTime)
	assert.True(t, class.IsAvailable)
}

func TestCreateClassHandlerBadPayload(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []string{
		`not json`,
		`{"date":"03/09/2026","startTime":"09:00","endTime":"10:00"}`,
		`{"date":"2026-03-09","startTime":"9am","endTime":"10:00"}`,
		`{"date":"2026-03-09","startTime":"09:00","endTime":"later"}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		h.CreateClass(rec, authedRequest(http.MethodPost, "/api/classes", body, "coach1"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestBookClassHandler(t *testing.T) {
	h, wallet := newTestHandler(t)
	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":10}`)

	rec := httptest.NewRecorder()
	h.BookClass(rec, authedRequest(http.MethodPost, "/api/class/"+class.ID+"/book", "", "student1"), classParam(class.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp classResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "student1", resp.Class.StudentID)
	assert.False(t, resp.Class.IsAvailable)

	balance, err := wallet.Balance(context.Background(), "student1")
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultStartingCredits-10, balance)

	// Second attempt conflicts.
	rec = httptest.NewRecorder()
	h.BookClass(rec, authedRequest(http.MethodPost, "/api/class/"+class.ID+"/book", "", "student1"), classParam(class.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookClassHandlerInsufficientBalance(t *testing.T) {
	h, _ := newTestHandler(t)
	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":500}`)

	rec := httptest.NewRecorder()
	h.BookClass(rec, authedRequest(http.MethodPost, "/api/class/"+class.ID+"/book", "", "student1"), classParam(class.ID))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestBookClassHandlerLockContention(t *testing.T) {
	h, _ := newTestHandler(t)
	h.lock = func(string) (func(), bool) { return nil, false }
	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":10}`)

	rec := httptest.NewRecorder()
	h.BookClass(rec, authedRequest(http.MethodPost, "/api/class/"+class.ID+"/book", "", "student1"), classParam(class.ID))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestFinishClassHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":10}`)

	rec := httptest.NewRecorder()
	h.BookClass(rec, authedRequest(http.MethodPost, "/", "", "student1"), classParam(class.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.FinishClass(rec, authedRequest(http.MethodPost, "/", "", "coach1"), classParam(class.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Class.IsFinished)

	// Terminal state conflicts on a repeat.
	rec = httptest.NewRecorder()
	h.FinishClass(rec, authedRequest(http.MethodPost, "/", "", "coach1"), classParam(class.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Non-creator students are forbidden.
	rec = httptest.NewRecorder()
	h.DeleteClass(rec, authedRequest(http.MethodDelete, "/", "", "student1"), classParam(class.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditClassHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":10}`)

	rec := httptest.NewRecorder()
	h.EditClass(rec, authedRequest(http.MethodPut, "/", `{"startTime":"11:30","endTime":"12:30"}`, "coach1"), classParam(class.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp classResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "11:30 AM - 12:30 PM", resp.Class.ClassTime)

	rec = httptest.NewRecorder()
	h.EditClass(rec, authedRequest(http.MethodPut, "/", `{"date":"bad"}`, "coach1"), classParam(class.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteClassHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	class := createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":10}`)

	rec := httptest.NewRecorder()
	h.DeleteClass(rec, authedRequest(http.MethodDelete, "/", "", "coach1"), classParam(class.ID))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteClass(rec, authedRequest(http.MethodDelete, "/", "", "coach1"), classParam(class.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListHandlers(t *testing.T) {
	h, _ := newTestHandler(t)
	createClass(t, h, `{"date":"2026-03-09","startTime":"09:00","endTime":"10:00","creditCost":0}`)
	booked := createClass(t, h, `{"date":"2026-03-09","startTime":"11:00","endTime":"12:00","creditCost":0}`)

	rec := httptest.NewRecorder()
	h.BookClass(rec, authedRequest(http.MethodPost, "/", "", "student1"), classParam(booked.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetClassesByDate(rec, httptest.NewRequest(http.MethodGet, "/", nil), httprouter.Params{{Key: "date", Value: "2026-03-09"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		Classes []models.ClassSlot `json:"classes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all.Classes, 2)

	rec = httptest.NewRecorder()
	h.GetAvailableByDate(rec, httptest.NewRequest(http.MethodGet, "/", nil), httprouter.Params{{Key: "date", Value: "2026-03-09"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var avail struct {
		Classes []models.ClassSlot `json:"classes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&avail))
	require.Len(t, avail.Classes, 1)
	assert.NotEqual(t, booked.ID, avail.Classes[0].ID)

	rec = httptest.NewRecorder()
	h.GetClassesByDate(rec, httptest.NewRequest(http.MethodGet, "/", nil), httprouter.Params{{Key: "date", Value: "nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
