package get_bonus_account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
)

type stubLedger struct {
	account *bonusService.Account
	err     error
}

func (s *stubLedger) GetAccount(_ context.Context, _ int64) (*bonusService.Account, error) {
	return s.account, s.err
}

func serve(ledger BonusLedger, userID, role, url string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.Handle("/users/{userId}/bonus",
		middleware.Auth(http.HandlerFunc(NewHandler(ledger, logger.NewNop()).Handle)))
	r := httptest.NewRequest(http.MethodGet, url, nil)
	r.Header.Set(middleware.HeaderUserID, userID)
	r.Header.Set(middleware.HeaderUserRole, role)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestHandle_OwnAccount(t *testing.T) {
	ledger := &stubLedger{account: &bonusService.Account{
		UserID:  7,
		Balance: 300,
		Transactions: []*domain.BonusTransaction{
			{ID: 1, UserID: 7, Amount: 500, Type: domain.BonusManual, Status: domain.BonusCompleted},
			{ID: 2, UserID: 7, Amount: -200, Type: domain.BonusSpent, Status: domain.BonusCompleted},
			{ID: 3, UserID: 7, Amount: 50, Type: domain.BonusBooking, Status: domain.BonusPending},
		},
	}}

	w := serve(ledger, "7", "client", "/users/7/bonus")

	require.Equal(t, http.StatusOK, w.Code)
	var body BonusAccountResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, int64(300), body.Balance)
	require.Len(t, body.Transactions, 3)
	assert.Equal(t, "pending", body.Transactions[2].Status)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		ledger   *stubLedger
		userID   string
		role     string
		url      string
		wantCode int
	}{
		{"other client", &stubLedger{}, "8", "client", "/users/7/bonus", http.StatusForbidden},
		{"bad id", &stubLedger{}, "1", "admin", "/users/0/bonus", http.StatusBadRequest},
		{"not found", &stubLedger{err: bonusService.ErrUserNotFound}, "1", "admin", "/users/7/bonus", http.StatusNotFound},
		{"internal", &stubLedger{err: errors.New("boom")}, "1", "admin", "/users/7/bonus", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, serve(tt.ledger, tt.userID, tt.role, tt.url).Code)
		})
	}
}
