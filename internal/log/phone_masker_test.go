package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhones(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"international format", "resolving +251910902269 now", "resolving ***269 now"},
		{"digits only", "phone 251910902269 imported", "phone ***269 imported"},
		{"short numbers untouched", "batch 25 of 100", "batch 25 of 100"},
		{"no digits", "nothing to mask", "nothing to mask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskPhones(tt.in))
		})
	}
}

func TestPhoneMaskerHandler_MasksMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

	logger.Info("importing +251910902269", "phone", "+251910902269", "count", 25)

	out := buf.String()
	assert.NotContains(t, out, "251910902269")
	assert.Contains(t, out, "***269")
	assert.Contains(t, out, "count=25")
}

func TestPhoneMaskerHandler_MasksErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

	err := errors.New("PHONE_NOT_OCCUPIED: +251910902269")
	logger.Error("import failed", "error", err)

	out := buf.String()
	assert.NotContains(t, out, "251910902269")
	assert.Contains(t, out, "PHONE_NOT_OCCUPIED")
}

func TestPhoneMaskerHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil)).With("client_phone", "+251910000000")

	logger.WithGroup("lookup").Info("done")

	out := buf.String()
	assert.NotContains(t, out, "251910000000")
	assert.Contains(t, out, "***000")
}

func TestPhoneMaskerHandler_Enabled(t *testing.T) {
	h := NewPhoneMaskerHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
