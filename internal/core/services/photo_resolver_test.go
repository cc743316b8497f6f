package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/pkg/config"
)

// jpegBytes carries the JPEG magic so http.DetectContentType reports image/jpeg.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func testUser() domain.ResolvedUser {
	return domain.ResolvedUser{ID: 42, AccessHash: 99, Phone: "+251910000001"}
}

func profilePhoto(sizes ...tg.PhotoSizeClass) *tg.Photo {
	return &tg.Photo{
		ID:            777,
		AccessHash:    888,
		FileReference: []byte{1, 2, 3},
		Sizes:         sizes,
	}
}

func TestPhotoResolver_NoPhotos(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotos{}, nil)

	r := NewPhotoResolver(WithPhotoResolverLogger(testGuardLogger()))

	desc, err := r.Resolve(context.Background(), client, testUser())
	require.NoError(t, err)
	assert.Nil(t, desc)
}

func TestPhotoResolver_PhotoEmpty(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotos{
		Photos: []tg.PhotoClass{&tg.PhotoEmpty{ID: 777}},
	}, nil)

	r := NewPhotoResolver(WithPhotoResolverLogger(testGuardLogger()))

	desc, err := r.Resolve(context.Background(), client, testUser())
	require.NoError(t, err)
	assert.Nil(t, desc)
}

func TestPhotoResolver_SmallestPolicyPicksSmallestArea(t *testing.T) {
	photo := profilePhoto(
		&tg.PhotoSize{Type: "m", W: 320, H: 320},
		&tg.PhotoSize{Type: "a", W: 160, H: 160},
		&tg.PhotoSizeProgressive{Type: "x", W: 800, H: 800},
	)

	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotosSlice{
		Photos: []tg.PhotoClass{photo},
	}, nil)
	client.On("DownloadPhoto", mock.Anything, mock.MatchedBy(func(loc tg.InputFileLocationClass) bool {
		ploc, ok := loc.(*tg.InputPhotoFileLocation)
		return ok && ploc.ThumbSize == "a" && ploc.ID == 777 && ploc.AccessHash == 888
	}), mock.Anything).Run(func(args mock.Arguments) {
		w := args.Get(2).(io.Writer)
		_, _ = w.Write(jpegBytes)
	}).Return(nil)

	r := NewPhotoResolver(
		WithPhotoPolicy(config.PhotoPolicySmallest),
		WithPhotoResolverLogger(testGuardLogger()),
	)

	desc, err := r.Resolve(context.Background(), client, testUser())
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, "image/jpeg", desc.MIME)
	assert.True(t, strings.HasPrefix(desc.DataURI, "data:image/jpeg;base64,"))
	assert.Empty(t, desc.File)
}

func TestPhotoResolver_FirstPolicyPicksFirstSize(t *testing.T) {
	photo := profilePhoto(
		&tg.PhotoSize{Type: "m", W: 320, H: 320},
		&tg.PhotoSize{Type: "a", W: 160, H: 160},
	)

	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotos{
		Photos: []tg.PhotoClass{photo},
	}, nil)
	client.On("DownloadPhoto", mock.Anything, mock.MatchedBy(func(loc tg.InputFileLocationClass) bool {
		ploc, ok := loc.(*tg.InputPhotoFileLocation)
		return ok && ploc.ThumbSize == "m"
	}), mock.Anything).Run(func(args mock.Arguments) {
		_, _ = args.Get(2).(io.Writer).Write(jpegBytes)
	}).Return(nil)

	r := NewPhotoResolver(
		WithPhotoPolicy(config.PhotoPolicyFirst),
		WithPhotoResolverLogger(testGuardLogger()),
	)

	desc, err := r.Resolve(context.Background(), client, testUser())
	require.NoError(t, err)
	require.NotNil(t, desc)
}

func TestPhotoResolver_FileMode(t *testing.T) {
	dir := t.TempDir()

	photo := profilePhoto(&tg.PhotoSize{Type: "a", W: 160, H: 160})

	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotos{
		Photos: []tg.PhotoClass{photo},
	}, nil)
	client.On("DownloadPhoto", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_, _ = args.Get(2).(io.Writer).Write(jpegBytes)
	}).Return(nil)

	r := NewPhotoResolver(
		WithPhotoMode(config.PhotoModeFile, dir, "http://localhost:8080/photos/"),
		WithPhotoResolverLogger(testGuardLogger()),
	)

	desc, err := r.Resolve(context.Background(), client, testUser())
	require.NoError(t, err)
	require.NotNil(t, desc)

	assert.Empty(t, desc.DataURI)
	assert.True(t, strings.HasSuffix(desc.File, ".jpg"))
	assert.Equal(t, "http://localhost:8080/photos/"+desc.File, desc.URL)

	saved, err := os.ReadFile(filepath.Join(dir, desc.File))
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, saved)
}

func TestPhotoResolver_DownloadError(t *testing.T) {
	photo := profilePhoto(&tg.PhotoSize{Type: "a", W: 160, H: 160})

	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotos{
		Photos: []tg.PhotoClass{photo},
	}, nil)
	client.On("DownloadPhoto", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("FILE_REFERENCE_EXPIRED"))

	r := NewPhotoResolver(WithPhotoResolverLogger(testGuardLogger()))

	_, err := r.Resolve(context.Background(), client, testUser())
	assert.Error(t, err)
}

func TestPhotoResolver_GetPhotosError(t *testing.T) {
	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(nil, errors.New("rpc error"))

	r := NewPhotoResolver(WithPhotoResolverLogger(testGuardLogger()))

	_, err := r.Resolve(context.Background(), client, testUser())
	assert.Error(t, err)
}

// Stripped inline sizes cannot be downloaded and are ignored when choosing.
func TestPhotoResolver_NoDownloadableSizes(t *testing.T) {
	photo := profilePhoto(&tg.PhotoStrippedSize{Type: "i", Bytes: []byte{1}})

	client := new(mockTelegramClient)
	client.On("PhotosGetUserPhotos", mock.Anything, mock.Anything).Return(&tg.PhotosPhotos{
		Photos: []tg.PhotoClass{photo},
	}, nil)

	r := NewPhotoResolver(WithPhotoResolverLogger(testGuardLogger()))

	desc, err := r.Resolve(context.Background(), client, testUser())
	require.NoError(t, err)
	assert.Nil(t, desc)
	client.AssertNotCalled(t, "DownloadPhoto", mock.Anything, mock.Anything, mock.Anything)
}
