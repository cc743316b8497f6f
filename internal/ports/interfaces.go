package ports

import (
	"context"

	"telegram-phone-lookup/internal/domain"
)

// Normalizer определяет интерфейс для нормализации номеров телефонов.
type Normalizer interface {
	// Normalize приводит сырой номер к каноническому виду "+<cc><9 цифр>".
	Normalize(raw string) (string, error)
}

// ContactGuard определяет интерфейс для чистки списка контактов аккаунта.
type ContactGuard interface {
	// Prune проверяет размер списка контактов и при превышении порога сбрасывает его.
	// Никогда не возвращает ошибку: отказы отражаются в исходе.
	Prune(ctx context.Context, client TelegramClient) domain.PruneOutcome
}

// ImportEntry — один элемент пакета для импорта контактов.
type ImportEntry struct {
	// Phone — канонический номер с ведущим "+".
	Phone string
	// Name — отображаемое имя от клиента; может быть пустым.
	Name string
}

// BatchImporter определяет интерфейс для пакетного импорта контактов.
type BatchImporter interface {
	// Import выполняет один сетевой вызов импорта и возвращает отображение
	// канонического номера на найденного пользователя. Номера без аккаунта
	// просто отсутствуют в результате.
	Import(ctx context.Context, client TelegramClient, entries []ImportEntry) (map[string]domain.ResolvedUser, error)
}

// PhotoResolver определяет интерфейс для получения фотографии профиля.
type PhotoResolver interface {
	// Resolve возвращает не более одной фотографии пользователя.
	// (nil, nil) означает, что видимых фотографий нет; это не ошибка.
	Resolve(ctx context.Context, client TelegramClient, user domain.ResolvedUser) (*domain.PhotoDescriptor, error)
}

// LookupService определяет интерфейс конвейера пакетного поиска.
type LookupService interface {
	// Lookup обрабатывает входные номера и возвращает по одному результату
	// на каждый непустой номер, в исходном порядке.
	Lookup(ctx context.Context, inputs []domain.PhoneInput) ([]domain.LookupResult, error)
}

// Optimizer определяет интерфейс для оптимизации изображений.
type Optimizer interface {
	// Optimize уменьшает и пережимает изображение. При любой ошибке
	// возвращает исходные байты без изменений.
	Optimize(data []byte) []byte
}
