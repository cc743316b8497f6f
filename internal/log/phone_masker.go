package log

import (
	"context"
	"log/slog"
	"regexp"
)

// PhoneMaskerHandler - обертка для slog.Handler, которая маскирует номера телефонов в логах.
// Номера телефонов — персональные данные; в логи они попадать не должны.
type PhoneMaskerHandler struct {
	handler slog.Handler
}

// NewPhoneMaskerHandler создает новый обработчик с маскировкой номеров
func NewPhoneMaskerHandler(handler slog.Handler) *PhoneMaskerHandler {
	return &PhoneMaskerHandler{
		handler: handler,
	}
}

// маскируем номера в международном формате и длинные цифровые строки, оставляя последние три цифры
var phoneRegex = regexp.MustCompile(`\+?\d{9,15}`)

// maskPhones заменяет найденные номера на маску, сохраняя последние три цифры.
func maskPhones(text string) string {
	return phoneRegex.ReplaceAllStringFunc(text, func(m string) string {
		return "***" + m[len(m)-3:]
	})
}

// Enabled реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Создаем полную, изолированную копию записи.
	// Это предотвращает гонку данных, так как мы больше не работаем
	// с оригинальной записью, которую slog может переиспользовать.
	// Метод Clone() также обнуляет атрибуты в копии, поэтому их нужно добавить заново.
	r := record.Clone()

	// Маскируем основное сообщение.
	r.Message = maskPhones(r.Message)

	// Итерируемся по атрибутам оригинальной записи и добавляем их маскированные версии в клон.
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{
			Key:   a.Key,
			Value: maskAttributeValue(a.Value),
		})
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = slog.Attr{
			Key:   attr.Key,
			Value: maskAttributeValue(attr.Value),
		}
	}
	return &PhoneMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) WithGroup(name string) slog.Handler {
	return &PhoneMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskPhones(value.String()))
	case slog.KindAny:
		// Ошибки преобразуем в строку и маскируем: текст ошибки
		// нередко содержит номер из запроса.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskPhones(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = slog.Attr{
				Key:   attr.Key,
				Value: maskAttributeValue(attr.Value),
			}
		}
		return slog.GroupValue(maskedGroup...)
	default:
		// Для других типов возвращаем оригинальное значение
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой номеров телефонов
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewPhoneMaskerHandler(handler))
}
