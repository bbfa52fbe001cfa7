package domain

// Значения по умолчанию
const (
	DefaultSlotGranularityMinutes  = 30
	DefaultMinBookingNoticeMinutes = 60
	DefaultAdvanceBookingDays      = 0 // 0 = без ограничений
)

// Ограничения бизнес-валидации
const (
	MinSlotGranularityMinutes   = 5
	MaxSlotGranularityMinutes   = 240
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxDescriptionLength        = 255
)

// Форматы времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
