package domain

import (
	"fmt"
	"strings"
	"time"
)

// BonusTransactionType тип операции в бонусном журнале
type BonusTransactionType string

const (
	BonusBooking  BonusTransactionType = "booking"  // начисление за запись
	BonusSpent    BonusTransactionType = "spent"    // списание при записи
	BonusManual   BonusTransactionType = "manual"   // ручная корректировка и возвраты
	BonusReferral BonusTransactionType = "referral" // начисление пригласившему
)

// BonusTransactionStatus статус операции
type BonusTransactionStatus string

const (
	BonusPending   BonusTransactionStatus = "pending"
	BonusCompleted BonusTransactionStatus = "completed"
	BonusCancelled BonusTransactionStatus = "cancelled"
)

// EarnableBonusTypes типы, которые ждут завершения записи в статусе pending
var EarnableBonusTypes = []BonusTransactionType{BonusBooking, BonusReferral}

// ParseBonusTransactionType нормализует и валидирует тип
func ParseBonusTransactionType(s string) (BonusTransactionType, error) {
	t := BonusTransactionType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case BonusBooking, BonusSpent, BonusManual, BonusReferral:
		return t, nil
	default:
		return "", NewValidationError("type", fmt.Sprintf("unknown bonus transaction type %q", s))
	}
}

// ParseBonusTransactionStatus нормализует и валидирует статус
func ParseBonusTransactionStatus(s string) (BonusTransactionStatus, error) {
	st := BonusTransactionStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case BonusPending, BonusCompleted, BonusCancelled:
		return st, nil
	default:
		return "", NewValidationError("status", fmt.Sprintf("unknown bonus transaction status %q", s))
	}
}

// IsTerminal completed и cancelled - конечные состояния
func (s BonusTransactionStatus) IsTerminal() bool {
	return s == BonusCompleted || s == BonusCancelled
}

// CanTransitionTo pending -> completed | cancelled, из конечных состояний переходов нет
func (s BonusTransactionStatus) CanTransitionTo(to BonusTransactionStatus) bool {
	return s == BonusPending && to.IsTerminal()
}

// BonusTransaction запись бонусного журнала
type BonusTransaction struct {
	ID            int64
	UserID        int64
	Amount        int64 // отрицательная сумма - списание
	Type          BonusTransactionType
	Status        BonusTransactionStatus
	AppointmentID *int64
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CountsTowardsBalance в баланс входят только проведённые операции
func (t *BonusTransaction) CountsTowardsBalance() bool {
	return t.Status == BonusCompleted
}

// IsEarnable операция начисляется после завершения записи
func (t *BonusTransaction) IsEarnable() bool {
	for _, earnable := range EarnableBonusTypes {
		if t.Type == earnable {
			return true
		}
	}
	return false
}

// BonusTransactionsFilter фильтр операций журнала
type BonusTransactionsFilter struct {
	UserID        *int64
	AppointmentID *int64
	Types         []BonusTransactionType
	Statuses      []BonusTransactionStatus
}

// SumBalance сумма проведённых операций, источник истины для баланса
func SumBalance(txs []*BonusTransaction) int64 {
	var total int64
	for _, tx := range txs {
		if tx.CountsTowardsBalance() {
			total += tx.Amount
		}
	}
	return total
}
