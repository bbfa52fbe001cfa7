package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

func validSchedule() *WorkSchedule {
	return &WorkSchedule{
		SpecialistID: 7,
		Enabled:      true,
		WorkDays: []WorkDay{
			{
				Weekday:   Monday,
				Active:    true,
				StartTime: "09:00",
				EndTime:   "17:00",
				LunchBreaks: []LunchBreak{
					{StartTime: "13:00", EndTime: "14:00", Enabled: true},
				},
			},
			{Weekday: Tuesday, Active: false, StartTime: "10:00", EndTime: "18:00"},
		},
		Vacations: []Vacation{
			{StartDate: date(2025, 7, 1), EndDate: date(2025, 7, 14), Enabled: true},
			{StartDate: date(2025, 7, 10), EndDate: date(2025, 7, 20), Enabled: true},
		},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkSchedule_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *WorkSchedule)
		wantField string
	}{
		{name: "корректное расписание с пересекающимися отпусками", mutate: func(s *WorkSchedule) {}},
		{
			name:      "повтор дня недели",
			mutate:    func(s *WorkSchedule) { s.WorkDays[1].Weekday = Monday },
			wantField: "workDays[1].weekday",
		},
		{
			name:      "день недели вне диапазона",
			mutate:    func(s *WorkSchedule) { s.WorkDays[0].Weekday = 7 },
			wantField: "workDays[0].weekday",
		},
		{
			name:      "некорректное время начала",
			mutate:    func(s *WorkSchedule) { s.WorkDays[0].StartTime = "9am" },
			wantField: "workDays[0].startTime",
		},
		{
			name:      "конец раньше начала",
			mutate:    func(s *WorkSchedule) { s.WorkDays[0].EndTime = "08:00" },
			wantField: "workDays[0].endTime",
		},
		{
			name:      "перерыв нулевой длины",
			mutate:    func(s *WorkSchedule) { s.WorkDays[0].LunchBreaks[0].EndTime = types.TimeString("13:00") },
			wantField: "workDays[0].lunchBreaks[0].endTime",
		},
		{
			name:      "отпуск с перевёрнутыми датами",
			mutate:    func(s *WorkSchedule) { s.Vacations[0].EndDate = date(2025, 6, 1) },
			wantField: "vacations[0].endDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchedule()
			tt.mutate(s)

			err := s.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrValidation)
			field, ok := FieldOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestWorkSchedule_WorkDayFor(t *testing.T) {
	s := validSchedule()

	day, ok := s.WorkDayFor(date(2025, 3, 10)) // понедельник
	require.True(t, ok)
	assert.Equal(t, Monday, day.Weekday)

	_, ok = s.WorkDayFor(date(2025, 3, 12)) // среда
	assert.False(t, ok)
}

func TestWorkSchedule_IsOnVacation(t *testing.T) {
	s := validSchedule()

	assert.True(t, s.IsOnVacation(date(2025, 7, 1)), "первый день включительно")
	assert.True(t, s.IsOnVacation(date(2025, 7, 20)), "последний день второго отпуска")
	assert.True(t, s.IsOnVacation(time.Date(2025, 7, 14, 18, 30, 0, 0, time.UTC)), "время суток не влияет")
	assert.False(t, s.IsOnVacation(date(2025, 7, 21)))

	s.Vacations[1].Enabled = false
	assert.False(t, s.IsOnVacation(date(2025, 7, 18)), "выключенный отпуск игнорируется")
}
