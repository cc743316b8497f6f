// Package image предоставляет оптимизацию фотографий профиля
// перед выдачей клиенту.
package image

import (
	"bytes"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Optimizer уменьшает изображение до ограниченного размера и пережимает
// его в JPEG с фиксированным качеством. Любая ошибка декодирования или
// кодирования не фатальна: возвращаются исходные байты.
type Optimizer struct {
	maxDimension int
	quality      int
	log          *slog.Logger
}

// Option определяет функциональную опцию для конфигурации оптимизатора.
type Option func(*Optimizer)

// WithLogger устанавливает логгер для оптимизатора.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.log = l
		}
	}
}

// NewOptimizer создает оптимизатор с заданным максимальным размером стороны
// и качеством JPEG (1-100).
func NewOptimizer(maxDimension, quality int, opts ...Option) *Optimizer {
	o := &Optimizer{
		maxDimension: maxDimension,
		quality:      quality,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize уменьшает изображение с сохранением пропорций и пережимает его.
// При любой ошибке возвращает исходные байты без изменений.
func (o *Optimizer) Optimize(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		o.log.Warn("Failed to decode photo, returning original bytes", "error", err)
		return data
	}

	bounds := img.Bounds()
	if bounds.Dx() > o.maxDimension || bounds.Dy() > o.maxDimension {
		img = imaging.Fit(img, o.maxDimension, o.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(o.quality)); err != nil {
		o.log.Warn("Failed to re-encode photo, returning original bytes", "error", err)
		return data
	}

	return buf.Bytes()
}
