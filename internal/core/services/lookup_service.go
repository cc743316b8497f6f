package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"telegram-phone-lookup/internal/cache"
	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/ports"
)

// Сообщения об ошибках на уровне отдельной записи. Попадают в JSON-ответ,
// поэтому текст фиксирован и на английском.
const (
	// ErrMsgCannotNormalize — номер не удалось привести к каноническому виду.
	ErrMsgCannotNormalize = "Cannot normalize phone number"
	// ErrMsgUserNotFound — у номера нет видимого аккаунта Telegram.
	ErrMsgUserNotFound = "user not found, not on Telegram, or not visible"
	// ErrMsgImportFailed — пакетный импорт контактов завершился ошибкой.
	ErrMsgImportFailed = "contact import failed"
)

// LookupOption — функциональная опция для настройки LookupService.
type LookupOption func(*LookupService)

// WithBatchSize устанавливает размер пакета импорта.
func WithBatchSize(n int) LookupOption {
	return func(s *LookupService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchDelay устанавливает паузу между последовательными пакетами.
func WithBatchDelay(d time.Duration) LookupOption {
	return func(s *LookupService) {
		if d >= 0 {
			s.batchDelay = d
		}
	}
}

// WithCacheTTL устанавливает время жизни записи в кеше результатов.
func WithCacheTTL(d time.Duration) LookupOption {
	return func(s *LookupService) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

// WithCacheStore устанавливает внешний кеш результатов.
func WithCacheStore(cs *cache.CacheStore) LookupOption {
	return func(s *LookupService) {
		if cs != nil {
			s.cache = cs
		}
	}
}

// WithLookupLogger устанавливает логгер для сервиса.
func WithLookupLogger(l *slog.Logger) LookupOption {
	return func(s *LookupService) {
		if l != nil {
			s.log = l
		}
	}
}

// LookupService — конвейер пакетного поиска: нормализация, кеш, чистка
// контактов, пакетный импорт с паузами и получение фотографий.
// Сервис не хранит состояние между запросами (кроме кеша результатов)
// и безопасен для одновременного использования.
type LookupService struct {
	router     ports.Router
	normalizer ports.Normalizer
	guard      ports.ContactGuard
	importer   ports.BatchImporter
	photos     ports.PhotoResolver
	cache      *cache.CacheStore

	batchSize  int
	batchDelay time.Duration
	cacheTTL   time.Duration
	log        *slog.Logger
}

// NewLookupService создает LookupService с конфигурацией по умолчанию,
// которая может быть переопределена опциями.
func NewLookupService(
	router ports.Router,
	normalizer ports.Normalizer,
	guard ports.ContactGuard,
	importer ports.BatchImporter,
	photos ports.PhotoResolver,
	opts ...LookupOption,
) *LookupService {
	s := &LookupService{
		router:     router,
		normalizer: normalizer,
		guard:      guard,
		importer:   importer,
		photos:     photos,
		cache:      cache.NewCacheStore(),
		batchSize:  25,
		batchDelay: 2 * time.Second,
		cacheTTL:   30 * time.Minute,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup обрабатывает входные номера и возвращает по одному результату на
// каждый непустой номер, в исходном порядке. Ошибка одной записи не
// прерывает обработку остальных; ошибка на уровне всего запроса (нет
// доступного клиента, отмена контекста) возвращается как error.
func (s *LookupService) Lookup(ctx context.Context, inputs []domain.PhoneInput) ([]domain.LookupResult, error) {
	work := make([]domain.PhoneInput, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Raw) != "" {
			work = append(work, in)
		}
	}
	if len(work) == 0 {
		return []domain.LookupResult{}, nil
	}

	results := make([]domain.LookupResult, len(work))

	// Нормализация и проверка кеша. Дубликаты одного канонического номера
	// импортируются один раз и разделяют результат.
	indexesByPhone := make(map[string][]int)
	nameByPhone := make(map[string]string)
	var order []string

	for i, in := range work {
		canonical, err := s.normalizer.Normalize(in.Raw)
		if err != nil {
			s.log.DebugContext(ctx, "Phone normalization failed", "error", err)
			results[i] = domain.LookupResult{
				Phone:  in.Raw,
				Photos: []domain.PhotoDescriptor{},
				Error:  ErrMsgCannotNormalize,
			}
			continue
		}

		if item, found := s.cache.Get(canonical); found {
			results[i] = item.Result
			continue
		}

		if _, seen := indexesByPhone[canonical]; !seen {
			order = append(order, canonical)
		}
		indexesByPhone[canonical] = append(indexesByPhone[canonical], i)
		if nameByPhone[canonical] == "" && in.Name != "" {
			nameByPhone[canonical] = in.Name
		}
	}

	if len(order) == 0 {
		// Все номера обслужены кешем либо отброшены нормализацией.
		return results, nil
	}

	client, err := s.router.GetClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("нет доступного клиента Telegram: %w", err)
	}

	outcome := s.guard.Prune(ctx, client)
	s.log.InfoContext(ctx, "Contact list prune finished", "client_id", client.ID(), "outcome", outcome.String())

	s.log.InfoContext(ctx, "Starting lookup",
		"client_id", client.ID(),
		"phones", len(order),
		"batch_size", s.batchSize,
	)

	for start := 0; start < len(order); start += s.batchSize {
		if start > 0 && s.batchDelay > 0 {
			// Пауза между пакетами бережет аккаунт от FLOOD_WAIT.
			select {
			case <-time.After(s.batchDelay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}

		end := start + s.batchSize
		if end > len(order) {
			end = len(order)
		}
		s.processBatch(ctx, client, order[start:end], indexesByPhone, nameByPhone, results)
	}

	return results, nil
}

// processBatch импортирует один пакет номеров и раскладывает результаты
// по позициям исходного запроса.
func (s *LookupService) processBatch(
	ctx context.Context,
	client ports.TelegramClient,
	batch []string,
	indexesByPhone map[string][]int,
	nameByPhone map[string]string,
	results []domain.LookupResult,
) {
	entries := make([]ports.ImportEntry, 0, len(batch))
	for _, phone := range batch {
		entries = append(entries, ports.ImportEntry{Phone: phone, Name: nameByPhone[phone]})
	}

	resolved, err := s.importer.Import(ctx, client, entries)
	if err != nil {
		// Отказ пакета изолирован: остальные пакеты продолжают обрабатываться.
		s.log.WarnContext(ctx, "Batch import failed", "client_id", client.ID(), "size", len(batch), "error", err)
		for _, phone := range batch {
			s.assign(results, indexesByPhone[phone], domain.LookupResult{
				Phone:  phone,
				Photos: []domain.PhotoDescriptor{},
				Error:  ErrMsgImportFailed,
			})
		}
		return
	}

	// Фотографии найденных пользователей скачиваются одновременно
	// в рамках пакета.
	type photoOutcome struct {
		photos []domain.PhotoDescriptor
		err    error
	}
	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		outcomesByPhone = make(map[string]photoOutcome, len(resolved))
	)
	for _, phone := range batch {
		user, found := resolved[phone]
		if !found {
			continue
		}
		wg.Add(1)
		go func(phone string, user domain.ResolvedUser) {
			defer wg.Done()
			outcome := photoOutcome{photos: []domain.PhotoDescriptor{}}
			desc, err := s.photos.Resolve(ctx, client, user)
			if err != nil {
				// Ошибка фотографии не теряет профиль: user остается заполненным.
				s.log.WarnContext(ctx, "Failed to resolve profile photo", "user_id", user.ID, "error", err)
				outcome.err = err
			} else if desc != nil {
				outcome.photos = append(outcome.photos, *desc)
			}
			mu.Lock()
			outcomesByPhone[phone] = outcome
			mu.Unlock()
		}(phone, user)
	}
	wg.Wait()

	for _, phone := range batch {
		user, found := resolved[phone]
		if !found {
			s.assign(results, indexesByPhone[phone], domain.LookupResult{
				Phone:  phone,
				Photos: []domain.PhotoDescriptor{},
				Error:  ErrMsgUserNotFound,
			})
			continue
		}

		u := user
		outcome := outcomesByPhone[phone]
		res := domain.LookupResult{
			Phone:  phone,
			User:   &u,
			Photos: outcome.photos,
		}
		if outcome.err != nil {
			res.Error = outcome.err.Error()
		}
		// Результаты с ошибкой фотографии не кешируются и будут пересчитаны.
		s.cache.Put(phone, res, s.cacheTTL)
		s.assign(results, indexesByPhone[phone], res)
	}
}

// assign записывает результат во все позиции, где встретился номер.
func (s *LookupService) assign(results []domain.LookupResult, indexes []int, res domain.LookupResult) {
	for _, i := range indexes {
		results[i] = res
	}
}
