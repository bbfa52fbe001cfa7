package create_booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
	"github.com/m04kA/SMC-WellnessBooking/pkg/types"
)

// Request модель запроса на создание записи
type Request struct {
	SpecialistID  int64
	ServiceID     int64
	Date          time.Time        // дата записи (без времени)
	StartTime     types.TimeString // начало, "HH:MM"
	EndTime       types.TimeString // конец, "HH:MM"
	UserID        *int64           // nil - гостевая запись
	PromoCode     *string
	BonusSpend    int64            // сколько бонусов списать
	OriginalPrice *decimal.Decimal // цена до скидок, если не задана - цена услуги
	Notes         *string
}

// Settings параметры бронирования из конфигурации
type Settings struct {
	MinNoticeMinutes int
	AdvanceDays      int // 0 - без ограничения
	ReferralAmount   int64
	Location         *time.Location // часовой пояс центра
}

// Response созданная запись вместе с операциями бонусного журнала
type Response struct {
	Appointment  *domain.Appointment
	Transactions []*domain.BonusTransaction
}

// priceBreakdown расчёт цены записи
type priceBreakdown struct {
	original decimal.Decimal
	discount decimal.Decimal
	bonus    int64
	final    decimal.Decimal
}
