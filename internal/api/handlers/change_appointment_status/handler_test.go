package change_appointment_status

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
	"github.com/m04kA/SMC-WellnessBooking/internal/service/appointments"
	"github.com/m04kA/SMC-WellnessBooking/pkg/logger"
	"github.com/m04kA/SMC-WellnessBooking/pkg/ptr"
)

type stubService struct {
	current   *domain.Appointment
	getErr    error
	changeErr error
	got       *appointments.ChangeStatusInput
}

func (s *stubService) GetByID(_ context.Context, _ int64) (*domain.Appointment, error) {
	return s.current, s.getErr
}

func (s *stubService) ChangeStatus(_ context.Context, in appointments.ChangeStatusInput) (*domain.Appointment, error) {
	s.got = &in
	if s.changeErr != nil {
		return nil, s.changeErr
	}
	updated := *s.current
	updated.Status = in.Target
	if in.Target == domain.AppointmentCancelled {
		updated.CancelledBy = &in.Role
		updated.CancellationReason = in.Reason
	}
	return &updated, nil
}

func confirmed() *domain.Appointment {
	return &domain.Appointment{
		ID:           15,
		SpecialistID: 3,
		UserID:       ptr.Ptr(int64(7)),
		StartTime:    "10:00",
		EndTime:      "11:00",
		Status:       domain.AppointmentConfirmed,
	}
}

func serve(svc AppointmentService, userID, role, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.Handle("/appointments/{appointmentId}/status",
		middleware.Auth(http.HandlerFunc(NewHandler(svc, logger.NewNop()).Handle))).Methods(http.MethodPatch)
	r := httptest.NewRequest(http.MethodPatch, "/appointments/15/status", strings.NewReader(body))
	r.Header.Set(middleware.HeaderUserID, userID)
	r.Header.Set(middleware.HeaderUserRole, role)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestHandle_ClientCancelsOwnAppointment(t *testing.T) {
	svc := &stubService{current: confirmed()}

	w := serve(svc, "7", "client", `{"status":"cancelled","reason":"заболел"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.got)
	assert.Equal(t, domain.AppointmentCancelled, svc.got.Target)
	assert.Equal(t, domain.RoleClient, svc.got.Role)
	assert.Equal(t, "заболел", *svc.got.Reason)

	var body handlers.AppointmentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "cancelled", body.Status)
	assert.Equal(t, "client", *body.CancelledBy)
}

func TestHandle_Permissions(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		role     string
		body     string
		wantCode int
	}{
		{"client completes", "7", "client", `{"status":"completed"}`, http.StatusForbidden},
		{"other client cancels", "8", "client", `{"status":"cancelled"}`, http.StatusForbidden},
		{"other specialist", "4", "specialist", `{"status":"completed"}`, http.StatusForbidden},
		{"own specialist completes", "3", "specialist", `{"status":"completed"}`, http.StatusOK},
		{"admin completes", "1", "admin", `{"status":"completed"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{current: confirmed()}
			w := serve(svc, tt.userID, tt.role, tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Nil(t, svc.got)
			}
		})
	}
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		svc      *stubService
		body     string
		wantCode int
	}{
		{"unknown status", &stubService{current: confirmed()}, `{"status":"done"}`, http.StatusBadRequest},
		{"bad body", &stubService{current: confirmed()}, `{"status":`, http.StatusBadRequest},
		{"not found", &stubService{getErr: fmt.Errorf("%w: appointment", domain.ErrNotFound)},
			`{"status":"cancelled"}`, http.StatusNotFound},
		{"invalid transition", &stubService{current: confirmed(),
			changeErr: fmt.Errorf("%w: confirmed -> pending", domain.ErrInvalidTransition)},
			`{"status":"pending"}`, http.StatusConflict},
		{"internal", &stubService{current: confirmed(), changeErr: errors.New("boom")},
			`{"status":"completed"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.svc, "1", "admin", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
