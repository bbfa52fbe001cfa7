package recalculate_bonus_balance

// BalanceResponse баланс после пересчёта по журналу
type BalanceResponse struct {
	UserID  int64 `json:"userId"`
	Balance int64 `json:"balance"`
}
