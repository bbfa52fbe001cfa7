package domain

// User бонусная часть профиля клиента
type User struct {
	ID           int64
	ReferredBy   *int64 // кто пригласил клиента
	BonusBalance int64  // кеш, источник истины - журнал операций
}
