package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	SpecialistID int64     // ID специалиста
	ServiceID    int64     // ID услуги, определяет длительность слота
	Date         time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            time.Time
	SpecialistID    int64
	ServiceID       int64
	DurationMinutes int
	Slots           []domain.Slot
}

// Settings параметры генерации слотов из конфигурации
type Settings struct {
	GranularityMinutes int
	MinNoticeMinutes   int
	AdvanceDays        int
	Location           *time.Location
}
