package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gotd/td/tg"

	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/ports"
)

// BatchImporterOption — функциональная опция для настройки BatchImporter.
type BatchImporterOption func(*BatchImporter)

// WithPlaceholderName устанавливает имя контакта по умолчанию.
func WithPlaceholderName(name string) BatchImporterOption {
	return func(b *BatchImporter) {
		if name != "" {
			b.placeholderName = name
		}
	}
}

// WithPreserveImportedNames включает режим, в котором имена из запроса
// не отправляются в Telegram: все контакты импортируются под именем-заглушкой,
// чтобы импорт не перезаписывал записи в адресной книге аккаунта.
func WithPreserveImportedNames(preserve bool) BatchImporterOption {
	return func(b *BatchImporter) {
		b.preserveNames = preserve
	}
}

// WithBatchImporterLogger устанавливает логгер для BatchImporter.
func WithBatchImporterLogger(l *slog.Logger) BatchImporterOption {
	return func(b *BatchImporter) {
		if l != nil {
			b.log = l
		}
	}
}

// BatchImporter превращает пакет телефонов в профили пользователей через
// contacts.importContacts — единственный способ в Telegram API найти
// пользователя по номеру. Импорт идемпотентен: повторный импорт того же
// номера возвращает того же пользователя.
type BatchImporter struct {
	placeholderName string
	preserveNames   bool
	log             *slog.Logger
}

// NewBatchImporter создает BatchImporter.
func NewBatchImporter(opts ...BatchImporterOption) *BatchImporter {
	b := &BatchImporter{
		placeholderName: "Lookup",
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Import выполняет один сетевой вызов импорта и возвращает отображение
// канонического номера на найденного пользователя. Номера без аккаунта
// Telegram в результате отсутствуют — это не ошибка.
func (b *BatchImporter) Import(ctx context.Context, client ports.TelegramClient, entries []ports.ImportEntry) (map[string]domain.ResolvedUser, error) {
	if len(entries) == 0 {
		return map[string]domain.ResolvedUser{}, nil
	}

	contacts := make([]tg.InputPhoneContact, 0, len(entries))
	for i, e := range entries {
		name := e.Name
		if b.preserveNames || name == "" {
			name = b.placeholderName
		}
		contacts = append(contacts, tg.InputPhoneContact{
			// ClientID связывает элемент запроса с ответом сервера.
			ClientID: int64(i),
			// Платформа принимает номер без ведущего "+".
			Phone:     strings.TrimPrefix(e.Phone, "+"),
			FirstName: name,
		})
	}

	b.log.DebugContext(ctx, "Importing contacts batch", "client_id", client.ID(), "size", len(contacts))

	imported, err := client.ContactsImportContacts(ctx, contacts)
	if err != nil {
		return nil, fmt.Errorf("не удалось импортировать контакты: %w", err)
	}

	if len(imported.RetryContacts) > 0 {
		// Сервер попросил повторить часть номеров позже; в рамках одного
		// запроса мы их не ретраим, эти номера просто останутся без результата.
		b.log.WarnContext(ctx, "Server deferred part of the import batch",
			"client_id", client.ID(), "retry_count", len(imported.RetryContacts))
	}

	// Связывание по номеру: сервер возвращает номер без ведущего "+".
	result := make(map[string]domain.ResolvedUser, len(imported.Users))
	for _, u := range imported.Users {
		user, ok := u.(*tg.User)
		if !ok {
			continue
		}
		if user.Phone == "" {
			b.log.DebugContext(ctx, "Imported user has no visible phone, skipping", "user_id", user.ID)
			continue
		}

		accessHash, _ := user.GetAccessHash()
		phone := "+" + strings.TrimPrefix(user.Phone, "+")
		result[phone] = domain.ResolvedUser{
			ID:         user.ID,
			Username:   user.Username,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Phone:      phone,
			Bot:        user.Bot,
			AccessHash: accessHash,
		}
	}

	b.log.DebugContext(ctx, "Contacts batch imported",
		"client_id", client.ID(), "requested", len(entries), "resolved", len(result))

	return result, nil
}
