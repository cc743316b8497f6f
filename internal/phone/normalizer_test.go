package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize_Accepted(t *testing.T) {
	n := NewNormalizer(Ethiopia)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"local with trunk prefix", "0910902269", "+251910902269"},
		{"international with plus", "+251910902269", "+251910902269"},
		{"international without plus", "251910902269", "+251910902269"},
		{"bare local number", "910902269", "+251910902269"},
		{"formatted with spaces and dashes", "+251 91-090-22-69", "+251910902269"},
		{"trunk prefix and country code", "0251910902269", "+251910902269"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_Normalize_Rejected(t *testing.T) {
	n := NewNormalizer(Ethiopia)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"no digits at all", "abc-def"},
		{"too short", "123"},
		{"eight digits", "91090226"},
		{"country code but short local part", "2519109"},
		{"non-mobile prefix with country code", "251799999999"},
		{"non-mobile local number", "0810902269"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCannotNormalize)
		})
	}
}

// TestNormalizer_Normalize_Idempotent проверяет, что повторная нормализация
// уже канонического номера является no-op.
func TestNormalizer_Normalize_Idempotent(t *testing.T) {
	n := NewNormalizer(Ethiopia)

	inputs := []string{"0910902269", "+251910902269", "910902269", "+251 (91) 090 22 69"}
	for _, raw := range inputs {
		first, err := n.Normalize(raw)
		require.NoError(t, err, "raw: %s", raw)

		second, err := n.Normalize(first)
		require.NoError(t, err, "canonical: %s", first)
		assert.Equal(t, first, second)
	}
}

// TestNormalizer_Normalize_Deterministic проверяет, что один и тот же ввод
// всегда дает один и тот же результат.
func TestNormalizer_Normalize_Deterministic(t *testing.T) {
	n := NewNormalizer(Ethiopia)

	for i := 0; i < 10; i++ {
		got, err := n.Normalize("0910902269")
		require.NoError(t, err)
		assert.Equal(t, "+251910902269", got)

		_, err = n.Normalize("123")
		assert.ErrorIs(t, err, ErrCannotNormalize)
	}
}

func TestNormalizer_Normalize_CustomProfile(t *testing.T) {
	n := NewNormalizer(Profile{CountryCode: "254", TrunkPrefix: "0", MobilePrefix: "7"})

	got, err := n.Normalize("0712-345-678")
	require.NoError(t, err)
	assert.Equal(t, "+254712345678", got)

	_, err = n.Normalize("0112345678")
	assert.ErrorIs(t, err, ErrCannotNormalize)
}
