package services

import (
	"context"
	"log/slog"

	"github.com/gotd/td/tg"

	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/ports"
)

// ContactGuardOption — функциональная опция для настройки ContactGuard.
type ContactGuardOption func(*ContactGuard)

// WithContactGuardLogger устанавливает логгер для ContactGuard.
func WithContactGuardLogger(l *slog.Logger) ContactGuardOption {
	return func(g *ContactGuard) {
		if l != nil {
			g.log = l
		}
	}
}

// ContactGuard следит за размером списка контактов аккаунта.
// Импорт контактов — единственный способ найти пользователя по номеру,
// поэтому список растет с каждым запросом и его нужно периодически сбрасывать,
// пока аккаунт не уперся в лимиты Telegram.
type ContactGuard struct {
	threshold int
	log       *slog.Logger
}

// NewContactGuard создает ContactGuard с заданным порогом контактов.
func NewContactGuard(threshold int, opts ...ContactGuardOption) *ContactGuard {
	g := &ContactGuard{
		threshold: threshold,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Prune проверяет размер списка контактов и сбрасывает его при превышении порога.
// Чистка — вспомогательная операция: любая ее ошибка логируется и превращается
// в исход PruneFailed, но никогда не прерывает конвейер поиска.
func (g *ContactGuard) Prune(ctx context.Context, client ports.TelegramClient) domain.PruneOutcome {
	res, err := client.ContactsGetContacts(ctx, 0)
	if err != nil {
		g.log.WarnContext(ctx, "Failed to fetch contacts for pruning", "client_id", client.ID(), "error", err)
		return domain.PruneFailed
	}

	contacts, ok := res.(*tg.ContactsContacts)
	if !ok {
		// С hash=0 сервер обязан вернуть полный список; NotModified здесь не ожидается.
		g.log.WarnContext(ctx, "Unexpected contacts response type, skipping prune", "client_id", client.ID(), "type_ok", ok)
		return domain.PruneFailed
	}

	count := len(contacts.Contacts)
	if contacts.SavedCount > count {
		count = contacts.SavedCount
	}

	if count < g.threshold {
		g.log.DebugContext(ctx, "Contact list below threshold, prune not needed",
			"client_id", client.ID(), "count", count, "threshold", g.threshold)
		return domain.PruneSkipped
	}

	g.log.InfoContext(ctx, "Contact list reached threshold, pruning",
		"client_id", client.ID(), "count", count, "threshold", g.threshold)

	ids := make([]tg.InputUserClass, 0, len(contacts.Users))
	for _, u := range contacts.Users {
		user, ok := u.(*tg.User)
		if !ok {
			continue
		}
		accessHash, _ := user.GetAccessHash()
		ids = append(ids, &tg.InputUser{UserID: user.ID, AccessHash: accessHash})
	}

	if len(ids) > 0 {
		if err := client.ContactsDeleteContacts(ctx, ids); err != nil {
			g.log.WarnContext(ctx, "Failed to delete contacts", "client_id", client.ID(), "error", err)
			return domain.PruneFailed
		}
	}

	// Сброс синхронизированных контактов очищает серверный счетчик SavedCount.
	// Контакты к этому моменту уже удалены, поэтому отказ здесь не критичен.
	if err := client.ContactsResetSaved(ctx); err != nil {
		g.log.WarnContext(ctx, "Failed to reset saved contacts", "client_id", client.ID(), "error", err)
	}

	g.log.InfoContext(ctx, "Contact list pruned", "client_id", client.ID(), "deleted", len(ids))
	return domain.PrunePruned
}
