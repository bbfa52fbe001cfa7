package domain

import (
	"fmt"
	"strings"
)

// Role роль инициатора действия. Авторизация выполняется до ядра,
// ядро только фиксирует, кто инициировал переход
type Role string

const (
	RoleGuest      Role = "guest"
	RoleClient     Role = "client"
	RoleSpecialist Role = "specialist"
	RoleAdmin      Role = "admin"
	RoleSystem     Role = "system" // фоновые задачи, например завершение прошедших записей
)

// ParseRole нормализует строковое представление роли
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "guest":
		return RoleGuest, nil
	case "client", "user":
		return RoleClient, nil
	case "specialist", "master":
		return RoleSpecialist, nil
	case "admin", "administrator":
		return RoleAdmin, nil
	case "system":
		return RoleSystem, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// CanManageSchedules роли, которым разрешено менять расписание
func (r Role) CanManageSchedules() bool {
	return r == RoleSpecialist || r == RoleAdmin
}

// IsStaff сотрудники центра и системные процессы
func (r Role) IsStaff() bool {
	return r == RoleSpecialist || r == RoleAdmin || r == RoleSystem
}
