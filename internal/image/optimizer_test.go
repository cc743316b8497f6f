package image

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeJPEG генерирует JPEG заданного размера.
func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestOptimizer_ShrinksLargeImage(t *testing.T) {
	o := NewOptimizer(64, 80, WithLogger(testLogger()))
	src := makeJPEG(t, 200, 100)

	out := o.Optimize(src)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), 64)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), 64)

	// Пропорции 2:1 должны сохраниться.
	assert.Equal(t, decoded.Bounds().Dx(), decoded.Bounds().Dy()*2)
}

func TestOptimizer_SmallImageStaysSameSize(t *testing.T) {
	o := NewOptimizer(512, 80, WithLogger(testLogger()))
	src := makeJPEG(t, 32, 32)

	out := o.Optimize(src)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 32, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}

func TestOptimizer_ReencodesPNGAsJPEG(t *testing.T) {
	o := NewOptimizer(512, 80, WithLogger(testLogger()))

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out := o.Optimize(buf.Bytes())

	_, err := jpeg.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

// TestOptimizer_GarbageInputReturnedUnchanged проверяет мягкую деградацию:
// некорректные байты возвращаются как есть, без ошибки.
func TestOptimizer_GarbageInputReturnedUnchanged(t *testing.T) {
	o := NewOptimizer(512, 80, WithLogger(testLogger()))
	src := []byte("definitely not an image")

	out := o.Optimize(src)
	assert.Equal(t, src, out)
}
