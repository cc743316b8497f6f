package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gotd/td/tg"

	"telegram-phone-lookup/internal/domain"
	"telegram-phone-lookup/internal/pkg/config"
	"telegram-phone-lookup/internal/ports"
)

// PhotoResolverOption — функциональная опция для настройки PhotoResolver.
type PhotoResolverOption func(*PhotoResolver)

// WithPhotoPolicy устанавливает политику выбора варианта фотографии.
func WithPhotoPolicy(policy string) PhotoResolverOption {
	return func(r *PhotoResolver) {
		if policy != "" {
			r.policy = policy
		}
	}
}

// WithPhotoMode устанавливает режим выдачи: инлайн либо файл на диске.
func WithPhotoMode(mode, dir, publicBaseURL string) PhotoResolverOption {
	return func(r *PhotoResolver) {
		if mode != "" {
			r.mode = mode
		}
		r.dir = dir
		r.publicBaseURL = strings.TrimRight(publicBaseURL, "/")
	}
}

// WithOptimizer устанавливает оптимизатор изображений.
func WithOptimizer(o ports.Optimizer) PhotoResolverOption {
	return func(r *PhotoResolver) {
		if o != nil {
			r.optimizer = o
		}
	}
}

// WithPhotoResolverLogger устанавливает логгер для PhotoResolver.
func WithPhotoResolverLogger(l *slog.Logger) PhotoResolverOption {
	return func(r *PhotoResolver) {
		if l != nil {
			r.log = l
		}
	}
}

// noopOptimizer возвращает изображение без изменений.
type noopOptimizer struct{}

func (noopOptimizer) Optimize(data []byte) []byte { return data }

// PhotoResolver скачивает не более одной фотографии профиля пользователя
// и упаковывает ее либо в data URI, либо в файл с публичным URL.
type PhotoResolver struct {
	policy        string
	mode          string
	dir           string
	publicBaseURL string
	optimizer     ports.Optimizer
	log           *slog.Logger
}

// NewPhotoResolver создает PhotoResolver с политикой "smallest" и
// инлайн-режимом по умолчанию.
func NewPhotoResolver(opts ...PhotoResolverOption) *PhotoResolver {
	r := &PhotoResolver{
		policy:    config.PhotoPolicySmallest,
		mode:      config.PhotoModeInline,
		optimizer: noopOptimizer{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sizeCandidate — один вариант размера фотографии, пригодный для скачивания.
type sizeCandidate struct {
	thumbType string
	area      int
}

// Resolve возвращает не более одной фотографии пользователя.
// (nil, nil) означает, что видимых фотографий нет; это не ошибка.
func (r *PhotoResolver) Resolve(ctx context.Context, client ports.TelegramClient, user domain.ResolvedUser) (*domain.PhotoDescriptor, error) {
	res, err := client.PhotosGetUserPhotos(ctx, &tg.PhotosGetUserPhotosRequest{
		UserID: &tg.InputUser{UserID: user.ID, AccessHash: user.AccessHash},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось получить фотографии пользователя %d: %w", user.ID, err)
	}

	var photos []tg.PhotoClass
	switch p := res.(type) {
	case *tg.PhotosPhotos:
		photos = p.Photos
	case *tg.PhotosPhotosSlice:
		photos = p.Photos
	default:
		return nil, fmt.Errorf("неожиданный тип ответа photos.getUserPhotos: %T", res)
	}

	if len(photos) == 0 {
		return nil, nil
	}

	photo, ok := photos[0].(*tg.Photo)
	if !ok {
		// photoEmpty: фотография есть в списке, но недоступна.
		return nil, nil
	}

	thumbType, ok := r.pickSize(photo.Sizes)
	if !ok {
		r.log.DebugContext(ctx, "Photo has no downloadable sizes", "user_id", user.ID, "photo_id", photo.ID)
		return nil, nil
	}

	loc := &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     thumbType,
	}

	var buf bytes.Buffer
	if err := client.DownloadPhoto(ctx, loc, &buf); err != nil {
		return nil, fmt.Errorf("не удалось скачать фотографию %d: %w", photo.ID, err)
	}

	data := r.optimizer.Optimize(buf.Bytes())
	mime := http.DetectContentType(data)

	if r.mode == config.PhotoModeFile {
		return r.saveToFile(ctx, data, mime)
	}

	return &domain.PhotoDescriptor{
		DataURI: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIME:    mime,
	}, nil
}

// pickSize выбирает вариант размера согласно политике.
// Варианты без известных габаритов (stripped и т.п.) пропускаются.
func (r *PhotoResolver) pickSize(sizes []tg.PhotoSizeClass) (string, bool) {
	candidates := make([]sizeCandidate, 0, len(sizes))
	for _, s := range sizes {
		switch sz := s.(type) {
		case *tg.PhotoSize:
			candidates = append(candidates, sizeCandidate{thumbType: sz.Type, area: sz.W * sz.H})
		case *tg.PhotoSizeProgressive:
			candidates = append(candidates, sizeCandidate{thumbType: sz.Type, area: sz.W * sz.H})
		case *tg.PhotoCachedSize:
			candidates = append(candidates, sizeCandidate{thumbType: sz.Type, area: sz.W * sz.H})
		}
	}

	if len(candidates) == 0 {
		return "", false
	}

	if r.policy == config.PhotoPolicyFirst {
		return candidates[0].thumbType, true
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.area < best.area {
			best = c
		}
	}
	return best.thumbType, true
}

// saveToFile сохраняет фотографию на диск под случайным именем.
func (r *PhotoResolver) saveToFile(ctx context.Context, data []byte, mime string) (*domain.PhotoDescriptor, error) {
	name := uuid.New().String() + extensionFor(mime)
	path := filepath.Join(r.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("не удалось сохранить фотографию в %s: %w", path, err)
	}

	r.log.DebugContext(ctx, "Photo saved to file", "file", name, "bytes", len(data))

	desc := &domain.PhotoDescriptor{
		File: name,
		MIME: mime,
	}
	if r.publicBaseURL != "" {
		desc.URL = r.publicBaseURL + "/" + name
	}
	return desc, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
