package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{AppointmentPending, AppointmentConfirmed, true},
		{AppointmentPending, AppointmentCancelled, true},
		{AppointmentPending, AppointmentCompleted, false},
		{AppointmentConfirmed, AppointmentCompleted, true},
		{AppointmentConfirmed, AppointmentCancelled, true},
		{AppointmentCompleted, AppointmentArchived, true},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentCancelled, AppointmentConfirmed, false},
		{AppointmentCancelled, AppointmentArchived, true},
		{AppointmentArchived, AppointmentPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseAppointmentStatus(t *testing.T) {
	status, err := ParseAppointmentStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, AppointmentConfirmed, status)

	_, err = ParseAppointmentStatus("no_show")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAppointment_Overlaps(t *testing.T) {
	a := &Appointment{StartTime: "10:00", EndTime: "11:00", Status: AppointmentConfirmed}

	assert.True(t, a.Overlaps("09:30", "10:30"))
	assert.True(t, a.Overlaps("10:30", "11:30"))
	assert.True(t, a.Overlaps("10:00", "11:00"))
	assert.False(t, a.Overlaps("09:00", "10:00"), "граница не пересечение")
	assert.False(t, a.Overlaps("11:00", "12:00"))
}

func TestBonusTransactionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, BonusPending.CanTransitionTo(BonusCompleted))
	assert.True(t, BonusPending.CanTransitionTo(BonusCancelled))
	assert.False(t, BonusPending.CanTransitionTo(BonusPending))
	assert.False(t, BonusCompleted.CanTransitionTo(BonusCancelled))
	assert.False(t, BonusCancelled.CanTransitionTo(BonusCompleted))
}

func TestSumBalance(t *testing.T) {
	txs := []*BonusTransaction{
		{Amount: 500, Type: BonusManual, Status: BonusCompleted},
		{Amount: -300, Type: BonusSpent, Status: BonusCompleted},
		{Amount: 100, Type: BonusBooking, Status: BonusPending},
		{Amount: 50, Type: BonusReferral, Status: BonusCancelled},
	}

	assert.Equal(t, int64(200), SumBalance(txs))
}

func TestPromo_Discount(t *testing.T) {
	price := decimal.NewFromInt(3000)

	percent := &Promo{DiscountType: DiscountPercent, DiscountValue: decimal.NewFromInt(15)}
	assert.True(t, decimal.NewFromInt(450).Equal(percent.Discount(price)))

	fixed := &Promo{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5000)}
	assert.True(t, price.Equal(fixed.Discount(price)), "скидка не больше цены")

	negative := &Promo{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(-10)}
	assert.True(t, negative.Discount(price).IsZero())
}
