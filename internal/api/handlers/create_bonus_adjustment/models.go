package create_bonus_adjustment

// CreateAdjustmentRequest HTTP request model
// amount со знаком: положительная сумма начисляет, отрицательная списывает
type CreateAdjustmentRequest struct {
	Amount      int64  `json:"amount" validate:"required,ne=0"`
	Description string `json:"description" validate:"required,max=255"`
}
