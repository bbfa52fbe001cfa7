package catalog

import (
	"context"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
)

// ServiceGetter источник данных каталога
type ServiceGetter interface {
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// Store key-value хранилище с TTL
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
