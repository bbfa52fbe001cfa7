package appointments

import "github.com/m04kA/SMC-WellnessBooking/internal/domain"

// ChangeStatusInput запрос на смену статуса записи
// Права роли на переход проверяются до сервиса, роль только фиксируется
type ChangeStatusInput struct {
	AppointmentID int64
	Target        domain.AppointmentStatus
	Role          domain.Role
	Reason        *string // причина отмены
}

// SweepResult итог прохода по завершившимся записям
type SweepResult struct {
	Found     int
	Completed int
	Failed    int
}
