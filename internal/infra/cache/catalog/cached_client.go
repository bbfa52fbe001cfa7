package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-WellnessBooking/internal/integrations/catalogservice"
)

const serviceKeyPrefix = "catalog:service:"

// CachedClient read-through кеш услуг каталога
// Запись живёт ttl, Invalidate удаляет её сразу после изменения услуги в каталоге.
// Сбой хранилища не ломает запрос: клиент идёт напрямую в каталог
type CachedClient struct {
	client ServiceGetter
	store  Store
	ttl    time.Duration
	log    Logger
}

// NewCachedClient создает кеширующий клиент
func NewCachedClient(client ServiceGetter, store Store, ttl time.Duration, log Logger) *CachedClient {
	return &CachedClient{
		client: client,
		store:  store,
		ttl:    ttl,
		log:    log,
	}
}

// GetService получает услугу из кеша или из каталога
func (c *CachedClient) GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error) {
	key := serviceKey(serviceID)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var service catalogservice.Service
		if err := json.Unmarshal(raw, &service); err == nil {
			return &service, nil
		}
		c.log.Warn("CatalogCache: corrupted entry %s, refetching", key)
	case errors.Is(err, ErrCacheMiss):
	default:
		c.log.Warn("CatalogCache: store unavailable for %s: %v", key, err)
	}

	service, err := c.client.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	raw, err = json.Marshal(service)
	if err != nil {
		c.log.Error("CatalogCache: failed to encode service id=%d: %v", serviceID, err)
		return service, nil
	}

	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.Warn("CatalogCache: failed to store %s: %v", key, err)
	}

	return service, nil
}

// Invalidate удаляет услугу из кеша
func (c *CachedClient) Invalidate(ctx context.Context, serviceID int64) error {
	if err := c.store.Del(ctx, serviceKey(serviceID)); err != nil {
		return fmt.Errorf("invalidate service id=%d: %w", serviceID, err)
	}
	return nil
}

func serviceKey(serviceID int64) string {
	return fmt.Sprintf("%s%d", serviceKeyPrefix, serviceID)
}
