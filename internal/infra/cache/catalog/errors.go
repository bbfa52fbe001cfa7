package catalog

import "errors"

var (
	// ErrCacheMiss ключа нет в хранилище
	ErrCacheMiss = errors.New("catalog.cache: cache miss")

	// ErrStore возвращается при ошибках хранилища
	ErrStore = errors.New("catalog.cache: store error")
)
