package bonus

import "errors"

var (
	// ErrTransactionNotFound возвращается, когда операция журнала не найдена
	ErrTransactionNotFound = errors.New("bonus.repository: transaction not found")

	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("bonus.repository: user not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("bonus.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("bonus.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("bonus.repository: failed to scan row")
)
