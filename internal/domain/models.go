package domain

// PhoneInput представляет один номер телефона из тела запроса.
// Конструируется из запроса, обрабатывается один раз и нигде не сохраняется.
type PhoneInput struct {
	// Raw — номер в том виде, в котором его прислал клиент.
	Raw string
	// Index — позиция номера в исходном запросе.
	Index int
	// Name — необязательное отображаемое имя, выровненное по индексу с номером.
	Name string
}

// ResolvedUser представляет профиль пользователя Telegram,
// полученный как побочный эффект импорта контактов.
// Поля только для чтения для всех последующих стадий конвейера.
type ResolvedUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// Phone — канонический номер с ведущим "+".
	Phone string `json:"phone"`
	Bot   bool   `json:"bot"`

	// AccessHash нужен для последующих запросов фотографий.
	// Не сериализуется в ответ.
	AccessHash int64 `json:"-"`
}

// PhotoDescriptor описывает одну фотографию профиля: либо инлайн
// (data URI), либо ссылку на сохраненный файл с публичным URL.
type PhotoDescriptor struct {
	DataURI string `json:"data_uri,omitempty"`
	File    string `json:"file,omitempty"`
	URL     string `json:"url,omitempty"`
	MIME    string `json:"mime"`
}

// LookupResult — итог обработки одного входного номера.
// Ровно один результат на каждый непустой PhoneInput, в исходном порядке.
// Это единица частичного отказа: ошибка одной записи не прерывает остальные.
type LookupResult struct {
	// Phone — канонический номер, либо сырой ввод, если нормализация не удалась.
	Phone  string            `json:"phone"`
	User   *ResolvedUser     `json:"user"`
	Photos []PhotoDescriptor `json:"photos"`
	Error  string            `json:"error,omitempty"`
}

// PruneOutcome — результат чистки списка контактов.
// Вместо молчаливого проглатывания ошибок различаем три исхода.
type PruneOutcome int

const (
	// PruneSkipped — количество контактов ниже порога, чистка не требовалась.
	PruneSkipped PruneOutcome = iota
	// PrunePruned — список контактов был сброшен.
	PrunePruned
	// PruneFailed — проверка или удаление не удались; ошибка залогирована и проигнорирована.
	PruneFailed
)

// String возвращает человекочитаемое имя исхода.
func (o PruneOutcome) String() string {
	switch o {
	case PruneSkipped:
		return "skipped"
	case PrunePruned:
		return "pruned"
	case PruneFailed:
		return "failed"
	default:
		return "unknown"
	}
}
