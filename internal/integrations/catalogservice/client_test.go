package catalogservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestClient_GetService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/services/3":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":3,"name":"Массаж","duration_minutes":60,"price":"3000.50",` +
				`"requires_approval":true,"booking_bonus":150,"specialist_ids":[7,9]}`))
		case "/internal/services/4":
			_, _ = w.Write([]byte(`{"id":4,"name":"Пустая","duration_minutes":0,"price":0}`))
		case "/internal/services/5":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nopLogger{})
	ctx := context.Background()

	service, err := client.GetService(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Массаж", service.Name)
	assert.Equal(t, 60, service.DurationMinutes)
	assert.Equal(t, "3000.5", service.Price.String())
	assert.True(t, service.RequiresApproval)
	assert.Equal(t, int64(150), service.BookingBonus)
	assert.True(t, service.OfferedBy(9))
	assert.False(t, service.OfferedBy(8))

	_, err = client.GetService(ctx, 4)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.GetService(ctx, 5)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = client.GetService(ctx, 404)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
