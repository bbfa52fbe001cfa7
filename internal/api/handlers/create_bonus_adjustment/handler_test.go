package create_bonus_adjustment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/internal/api/handlers"
	"github.com/m04kA/SMC-WellnessBooking/internal/api/middleware"
	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
)

type stubLedger struct {
	calls int
	err   error
}

func (s *stubLedger) CreateManualAdjustment(_ context.Context, userID, amount int64, description string) (*domain.BonusTransaction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.BonusTransaction{
		ID:          1,
		UserID:      userID,
		Amount:      amount,
		Type:        domain.BonusManual,
		Status:      domain.BonusCompleted,
		Description: description,
	}, nil
}

func serve(ledger BonusLedger, role, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.Handle("/users/{userId}/bonus/adjustments",
		middleware.Auth(http.HandlerFunc(NewHandler(ledger, logger.NewNop()).Handle)))
	r := httptest.NewRequest(http.MethodPost, "/users/7/bonus/adjustments", strings.NewReader(body))
	r.Header.Set(middleware.HeaderUserID, "1")
	r.Header.Set(middleware.HeaderUserRole, role)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestHandle_Created(t *testing.T) {
	w := serve(&stubLedger{}, "admin", `{"amount":500,"description":"компенсация"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body handlers.BonusTransactionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, int64(7), body.UserID)
	assert.Equal(t, int64(500), body.Amount)
	assert.Equal(t, "manual", body.Type)
	assert.Equal(t, "completed", body.Status)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		body      string
		err       error
		wantCode  int
		wantCalls int
	}{
		{"client", "client", `{"amount":500,"description":"x"}`, nil, http.StatusForbidden, 0},
		{"zero amount", "admin", `{"amount":0,"description":"x"}`, nil, http.StatusBadRequest, 0},
		{"missing description", "admin", `{"amount":5}`, nil, http.StatusBadRequest, 0},
		{"user not found", "admin", `{"amount":5,"description":"x"}`, bonusService.ErrUserNotFound, http.StatusNotFound, 1},
		{"overdraw", "admin", `{"amount":-5000,"description":"x"}`,
			fmt.Errorf("%w: balance=0", domain.ErrInsufficientBonus), http.StatusConflict, 1},
		{"internal", "admin", `{"amount":5,"description":"x"}`, errors.New("boom"), http.StatusInternalServerError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stubLedger{err: tt.err}
			w := serve(ledger, tt.role, tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCalls, ledger.calls)
		})
	}
}
