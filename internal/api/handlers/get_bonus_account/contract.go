package get_bonus_account

import (
	"context"

	bonusService "github.com/m04kA/SMC-WellnessBooking/internal/service/bonus"
)

type BonusLedger interface {
	GetAccount(ctx context.Context, userID int64) (*bonusService.Account, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
