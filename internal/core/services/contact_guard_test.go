package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"telegram-phone-lookup/internal/domain"
)

func testGuardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func contactsWithUsers(n int) *tg.ContactsContacts {
	contacts := make([]tg.Contact, 0, n)
	users := make([]tg.UserClass, 0, n)
	for i := 0; i < n; i++ {
		id := int64(1000 + i)
		contacts = append(contacts, tg.Contact{UserID: id})
		u := &tg.User{ID: id}
		u.SetAccessHash(id * 7)
		users = append(users, u)
	}
	return &tg.ContactsContacts{
		Contacts:   contacts,
		SavedCount: n,
		Users:      users,
	}
}

func TestContactGuard_BelowThreshold_Skips(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("ID").Return("client-1").Maybe()
	client.On("ContactsGetContacts", mock.Anything, int64(0)).Return(contactsWithUsers(3), nil)

	guard := NewContactGuard(10, WithContactGuardLogger(testGuardLogger()))

	outcome := guard.Prune(context.Background(), client)

	assert.Equal(t, domain.PruneSkipped, outcome)
	client.AssertNotCalled(t, "ContactsDeleteContacts", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "ContactsResetSaved", mock.Anything)
}

func TestContactGuard_AtThreshold_Prunes(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("ID").Return("client-1").Maybe()
	client.On("ContactsGetContacts", mock.Anything, int64(0)).Return(contactsWithUsers(10), nil)
	client.On("ContactsDeleteContacts", mock.Anything, mock.MatchedBy(func(ids []tg.InputUserClass) bool {
		return len(ids) == 10
	})).Return(nil)
	client.On("ContactsResetSaved", mock.Anything).Return(nil)

	guard := NewContactGuard(10, WithContactGuardLogger(testGuardLogger()))

	outcome := guard.Prune(context.Background(), client)

	assert.Equal(t, domain.PrunePruned, outcome)
	client.AssertExpectations(t)
}

// SavedCount may exceed the number of returned contacts when the account
// carries server-side saved contacts. The larger value must trigger the prune.
func TestContactGuard_SavedCountTriggersPrune(t *testing.T) {
	contacts := contactsWithUsers(2)
	contacts.SavedCount = 50

	client := new(mockTelegramClient)
	client.On("ID").Return("client-1").Maybe()
	client.On("ContactsGetContacts", mock.Anything, int64(0)).Return(contacts, nil)
	client.On("ContactsDeleteContacts", mock.Anything, mock.Anything).Return(nil)
	client.On("ContactsResetSaved", mock.Anything).Return(nil)

	guard := NewContactGuard(10, WithContactGuardLogger(testGuardLogger()))

	assert.Equal(t, domain.PrunePruned, guard.Prune(context.Background(), client))
}

func TestContactGuard_GetContactsError(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("ID").Return("client-1").Maybe()
	client.On("ContactsGetContacts", mock.Anything, int64(0)).Return(nil, errors.New("network down"))

	guard := NewContactGuard(10, WithContactGuardLogger(testGuardLogger()))

	assert.Equal(t, domain.PruneFailed, guard.Prune(context.Background(), client))
}

func TestContactGuard_DeleteError(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("ID").Return("client-1").Maybe()
	client.On("ContactsGetContacts", mock.Anything, int64(0)).Return(contactsWithUsers(10), nil)
	client.On("ContactsDeleteContacts", mock.Anything, mock.Anything).Return(errors.New("rpc error"))

	guard := NewContactGuard(10, WithContactGuardLogger(testGuardLogger()))

	assert.Equal(t, domain.PruneFailed, guard.Prune(context.Background(), client))
	client.AssertNotCalled(t, "ContactsResetSaved", mock.Anything)
}

// Reset failure is logged but the prune still counts: the contacts are gone.
func TestContactGuard_ResetSavedErrorStillPruned(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("ID").Return("client-1").Maybe()
	client.On("ContactsGetContacts", mock.Anything, int64(0)).Return(contactsWithUsers(10), nil)
	client.On("ContactsDeleteContacts", mock.Anything, mock.Anything).Return(nil)
	client.On("ContactsResetSaved", mock.Anything).Return(errors.New("rpc error"))

	guard := NewContactGuard(10, WithContactGuardLogger(testGuardLogger()))

	assert.Equal(t, domain.PrunePruned, guard.Prune(context.Background(), client))
}
