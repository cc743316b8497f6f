// Package phone предоставляет нормализацию номеров телефонов
// к каноническому мобильному формату одной страны.
package phone

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCannotNormalize возвращается, когда сырой ввод нельзя привести
// к каноническому мобильному номеру.
var ErrCannotNormalize = errors.New("cannot normalize phone number")

// localLen — длина локальной части мобильного номера.
const localLen = 9

// Profile описывает параметры нумерации страны.
type Profile struct {
	// CountryCode — телефонный код страны без "+" (например, "251").
	CountryCode string
	// TrunkPrefix — национальный префикс, отбрасываемый при наборе
	// в международном формате (например, "0").
	TrunkPrefix string
	// MobilePrefix — первая цифра локальной части мобильного номера
	// (например, "9").
	MobilePrefix string
}

// Ethiopia — профиль нумерации по умолчанию.
var Ethiopia = Profile{
	CountryCode:  "251",
	TrunkPrefix:  "0",
	MobilePrefix: "9",
}

// Normalizer приводит сырые номера к каноническому виду "+<cc><9 цифр>".
// Normalizer не имеет состояния и безопасен для одновременного использования.
type Normalizer struct {
	profile Profile
}

// NewNormalizer создает нормализатор для заданного профиля страны.
func NewNormalizer(p Profile) *Normalizer {
	return &Normalizer{profile: p}
}

// Normalize приводит сырой ввод к каноническому мобильному номеру.
// Результат детерминирован, повторная нормализация уже канонического
// номера возвращает его же.
func (n *Normalizer) Normalize(raw string) (string, error) {
	digits := stripNonDigits(raw)
	if digits == "" {
		return "", fmt.Errorf("%w: %q has no digits", ErrCannotNormalize, raw)
	}

	// Отбрасываем ровно одну ведущую цифру национального префикса.
	if n.profile.TrunkPrefix != "" && strings.HasPrefix(digits, n.profile.TrunkPrefix) {
		digits = digits[len(n.profile.TrunkPrefix):]
	}

	if strings.HasPrefix(digits, n.profile.CountryCode) {
		// Код страны присутствует: требуем полный международный номер.
		if len(digits) < len(n.profile.CountryCode)+localLen {
			return "", fmt.Errorf("%w: %q is too short for an international number", ErrCannotNormalize, raw)
		}
	} else if len(digits) < localLen {
		return "", fmt.Errorf("%w: %q is too short", ErrCannotNormalize, raw)
	}

	local := digits[len(digits)-localLen:]
	if !strings.HasPrefix(local, n.profile.MobilePrefix) {
		return "", fmt.Errorf("%w: %q is not a mobile number", ErrCannotNormalize, raw)
	}

	return "+" + n.profile.CountryCode + local, nil
}

// stripNonDigits удаляет из строки все символы, кроме цифр.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
