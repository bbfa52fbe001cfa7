package invalidate_service_cache

import "context"

type ServiceCache interface {
	Invalidate(ctx context.Context, serviceID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
