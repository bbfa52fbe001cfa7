package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayOf(t *testing.T) {
	// 2025-03-10 - понедельник, 2025-03-16 - воскресенье
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, Monday, WeekdayOf(monday))
	assert.Equal(t, Saturday, WeekdayOf(monday.AddDate(0, 0, 5)))
	assert.Equal(t, Sunday, WeekdayOf(monday.AddDate(0, 0, 6)))
}

func TestWeekdayFromISO(t *testing.T) {
	w, err := WeekdayFromISO(1)
	require.NoError(t, err)
	assert.Equal(t, Monday, w)

	w, err = WeekdayFromISO(7)
	require.NoError(t, err)
	assert.Equal(t, Sunday, w)
	assert.Equal(t, 7, w.ISO())

	_, err = WeekdayFromISO(0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"admin", "ADMIN", " Admin ", "administrator"} {
		role, err := ParseRole(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, RoleAdmin, role)
	}

	role, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleGuest, role)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrValidation)
}
