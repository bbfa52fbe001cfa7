package domain

import "github.com/m04kA/SMC-WellnessBooking/pkg/types"

// Slot свободный интервал [StartTime, EndTime) длительностью ровно в одну услугу
type Slot struct {
	StartTime types.TimeString
	EndTime   types.TimeString
}

// DurationMinutes длительность слота
func (s Slot) DurationMinutes() int {
	return s.EndTime.Minutes() - s.StartTime.Minutes()
}

// Overlaps проверка пересечения полуинтервалов, соприкосновение границ не считается пересечением
func Overlaps(aStart, aEnd, bStart, bEnd types.TimeString) bool {
	return aStart.Minutes() < bEnd.Minutes() && aEnd.Minutes() > bStart.Minutes()
}
