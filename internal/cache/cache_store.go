// Package cache предоставляет кеш результатов поиска по каноническому номеру.
package cache

import (
	"context"
	"sync"
	"time"

	"telegram-phone-lookup/internal/domain"
)

// CacheItem представляет кэшированный результат одного номера
type CacheItem struct {
	Result    domain.LookupResult
	ExpiresAt time.Time
}

// CacheStore управляет хранением и извлечением кэшированных результатов.
// Кешируются только успешные результаты: ошибки отдельных записей
// (нормализация, недоступность фото) всегда вычисляются заново.
type CacheStore struct {
	cache map[string]*CacheItem
	mutex sync.RWMutex
}

// NewCacheStore создает новый экземпляр CacheStore
func NewCacheStore() *CacheStore {
	return &CacheStore{
		cache: make(map[string]*CacheItem),
	}
}

// Get извлекает кэшированный результат по каноническому номеру
func (cs *CacheStore) Get(phone string) (*CacheItem, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	item, exists := cs.cache[phone]
	if !exists || time.Now().After(item.ExpiresAt) {
		// Элемент не существует или срок его действия истек
		return nil, false
	}

	return item, true
}

// Put сохраняет результат в кэш с указанным сроком действия.
// Результаты с ошибкой не кешируются.
func (cs *CacheStore) Put(phone string, result domain.LookupResult, ttl time.Duration) {
	if result.Error != "" {
		return
	}

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache[phone] = &CacheItem{
		Result:    result,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// CleanupExpired удаляет просроченные элементы из кэша
func (cs *CacheStore) CleanupExpired() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := time.Now()
	for key, item := range cs.cache {
		if now.After(item.ExpiresAt) {
			delete(cs.cache, key)
		}
	}
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных элементов
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}
