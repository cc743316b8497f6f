package ports

import (
	"context"
	"io"
	"time"

	"github.com/gotd/td/tg"
)

// TelegramClient определяет публичный интерфейс для клиента Telegram.
// Все операции требуют заранее установленной аутентифицированной сессии;
// сам конвейер поиска аутентификацию не выполняет.
type TelegramClient interface {
	// ContactsGetContacts возвращает сохраненные контакты аккаунта.
	ContactsGetContacts(ctx context.Context, hash int64) (tg.ContactsContactsClass, error)
	// ContactsImportContacts регистрирует пакет телефонов как контакты
	// и возвращает найденных пользователей.
	ContactsImportContacts(ctx context.Context, contacts []tg.InputPhoneContact) (*tg.ContactsImportedContacts, error)
	// ContactsDeleteContacts удаляет перечисленные контакты.
	ContactsDeleteContacts(ctx context.Context, ids []tg.InputUserClass) error
	// ContactsResetSaved очищает сохраненные (синхронизированные) контакты аккаунта.
	ContactsResetSaved(ctx context.Context) error
	// PhotosGetUserPhotos возвращает фотографии профиля пользователя.
	PhotosGetUserPhotos(ctx context.Context, req *tg.PhotosGetUserPhotosRequest) (tg.PhotosPhotosClass, error)
	// DownloadPhoto скачивает фотографию целиком в w.
	DownloadPhoto(ctx context.Context, loc tg.InputFileLocationClass, w io.Writer) error

	Health(ctx context.Context) error
	ID() string
	Start(ctx context.Context)
	GetRecoveryTime() time.Time
}

// Router определяет интерфейс для роутера клиентов Telegram.
type Router interface {
	GetClient(ctx context.Context) (TelegramClient, error)
	Stop()
	NextRecoveryTime() time.Time
}

// Strategy определяет интерфейс для стратегии выбора клиента.
type Strategy interface {
	Next(clients []TelegramClient) (TelegramClient, error)
}
