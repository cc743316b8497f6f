package services

import (
	"context"
	"io"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/mock"

	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/ports"
)

// mockTelegramClient is a testify mock for ports.TelegramClient.
type mockTelegramClient struct {
	mock.Mock
}

func (m *mockTelegramClient) ContactsGetContacts(ctx context.Context, hash int64) (tg.ContactsContactsClass, error) {
	args := m.Called(ctx, hash)
	if res := args.Get(0); res != nil {
		return res.(tg.ContactsContactsClass), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTelegramClient) ContactsImportContacts(ctx context.Context, contacts []tg.InputPhoneContact) (*tg.ContactsImportedContacts, error) {
	args := m.Called(ctx, contacts)
	if res := args.Get(0); res != nil {
		return res.(*tg.ContactsImportedContacts), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTelegramClient) ContactsDeleteContacts(ctx context.Context, ids []tg.InputUserClass) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockTelegramClient) ContactsResetSaved(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTelegramClient) PhotosGetUserPhotos(ctx context.Context, req *tg.PhotosGetUserPhotosRequest) (tg.PhotosPhotosClass, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(tg.PhotosPhotosClass), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTelegramClient) DownloadPhoto(ctx context.Context, loc tg.InputFileLocationClass, w io.Writer) error {
	return m.Called(ctx, loc, w).Error(0)
}

func (m *mockTelegramClient) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTelegramClient) ID() string {
	return m.Called().String(0)
}

func (m *mockTelegramClient) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockTelegramClient) GetRecoveryTime() time.Time {
	return m.Called().Get(0).(time.Time)
}

// mockRouter is a testify mock for ports.Router.
type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) GetClient(ctx context.Context) (ports.TelegramClient, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(ports.TelegramClient), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRouter) Stop() {
	m.Called()
}

func (m *mockRouter) NextRecoveryTime() time.Time {
	return m.Called().Get(0).(time.Time)
}

// mockNormalizer is a testify mock for ports.Normalizer.
type mockNormalizer struct {
	mock.Mock
}

func (m *mockNormalizer) Normalize(raw string) (string, error) {
	args := m.Called(raw)
	return args.String(0), args.Error(1)
}

// mockContactGuard is a testify mock for ports.ContactGuard.
type mockContactGuard struct {
	mock.Mock
}

func (m *mockContactGuard) Prune(ctx context.Context, client ports.TelegramClient) domain.PruneOutcome {
	return m.Called(ctx, client).Get(0).(domain.PruneOutcome)
}

// mockBatchImporter is a testify mock for ports.BatchImporter.
type mockBatchImporter struct {
	mock.Mock
}

func (m *mockBatchImporter) Import(ctx context.Context, client ports.TelegramClient, entries []ports.ImportEntry) (map[string]domain.ResolvedUser, error) {
	args := m.Called(ctx, client, entries)
	if res := args.Get(0); res != nil {
		return res.(map[string]domain.ResolvedUser), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockPhotoResolver is a testify mock for ports.PhotoResolver.
type mockPhotoResolver struct {
	mock.Mock
}

func (m *mockPhotoResolver) Resolve(ctx context.Context, client ports.TelegramClient, user domain.ResolvedUser) (*domain.PhotoDescriptor, error) {
	args := m.Called(ctx, client, user)
	if res := args.Get(0); res != nil {
		return res.(*domain.PhotoDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}
