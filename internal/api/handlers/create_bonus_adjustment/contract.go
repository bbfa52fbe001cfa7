package create_bonus_adjustment

import (
	"context"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

type BonusLedger interface {
	CreateManualAdjustment(ctx context.Context, userID, amount int64, description string) (*domain.BonusTransaction, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
