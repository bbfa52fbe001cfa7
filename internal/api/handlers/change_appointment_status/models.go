package change_appointment_status

// ChangeStatusRequest HTTP request model
type ChangeStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending confirmed completed cancelled archived"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
