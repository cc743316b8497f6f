// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
	// PidFile и LogFile используются только в режиме демона.
	PidFile string `json:"pid_file" yaml:"pid_file"`
	LogFile string `json:"log_file" yaml:"log_file"`
}

// TelegramAPIServer содержит конфигурацию одного аккаунта Telegram API
type TelegramAPIServer struct {
	APIID       int    `json:"api_id" yaml:"api_id"`
	APIHash     string `json:"api_hash" yaml:"api_hash"`
	PhoneNumber string `json:"phone_number" yaml:"phone_number"`
	SessionFile string `json:"session_file" yaml:"session_file"`
}

// TelegramAPI содержит конфигурацию Telegram API
type TelegramAPI struct {
	// Для обратной совместимости. Используйте Servers.
	APIID       int    `json:"api_id,omitempty" yaml:"api_id,omitempty"`
	APIHash     string `json:"api_hash,omitempty" yaml:"api_hash,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	SessionFile string `json:"session_file,omitempty" yaml:"session_file,omitempty"`

	// Формат для нескольких аккаунтов
	Servers []TelegramAPIServer `json:"servers" yaml:"servers"`

	HealthCheckIntervalSeconds int `json:"health_check_interval_seconds" yaml:"health_check_interval_seconds"`
}

// Phone содержит параметры нумерации страны для нормализации
type Phone struct {
	CountryCode  string `json:"country_code" yaml:"country_code"`
	TrunkPrefix  string `json:"trunk_prefix" yaml:"trunk_prefix"`
	MobilePrefix string `json:"mobile_prefix" yaml:"mobile_prefix"`
}

// Lookup содержит конфигурацию конвейера пакетного поиска
type Lookup struct {
	BatchSize         int `json:"batch_size" yaml:"batch_size"`
	BatchDelaySeconds int `json:"batch_delay_seconds" yaml:"batch_delay_seconds"`
	// MaxSavedContacts — порог, выше которого список контактов аккаунта сбрасывается.
	MaxSavedContacts int `json:"max_saved_contacts" yaml:"max_saved_contacts"`
	// PlaceholderName используется как имя контакта, когда клиент не прислал свое.
	PlaceholderName string `json:"placeholder_name" yaml:"placeholder_name"`
	// PhotoPolicy: "first" — первая возвращенная фотография, "smallest" — наименьшая по площади.
	PhotoPolicy string `json:"photo_policy" yaml:"photo_policy"`
	// PreserveImportedNames: если true, имена уже существующих контактов не перезаписываются.
	PreserveImportedNames bool `json:"preserve_imported_names" yaml:"preserve_imported_names"`
	CacheTTLMinutes       int  `json:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
}

// Photos содержит конфигурацию выдачи фотографий
type Photos struct {
	// Mode: "inline" — base64 data URI в ответе, "file" — сохранение на диск с публичным URL.
	Mode string `json:"mode" yaml:"mode"`
	Dir  string `json:"dir" yaml:"dir"`
	// PublicBaseURL — префикс публичного URL для режима "file".
	PublicBaseURL string `json:"public_base_url" yaml:"public_base_url"`
	MaxDimension  int    `json:"max_dimension" yaml:"max_dimension"`
	JPEGQuality   int    `json:"jpeg_quality" yaml:"jpeg_quality"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// Config содержит конфигурацию приложения
type Config struct {
	Server      Server      `json:"server" yaml:"server"`
	TelegramAPI TelegramAPI `json:"telegram_api" yaml:"telegram_api"`
	Phone       Phone       `json:"phone" yaml:"phone"`
	Lookup      Lookup      `json:"lookup" yaml:"lookup"`
	Photos      Photos      `json:"photos" yaml:"photos"`
	Logging     Logging     `json:"logging" yaml:"logging"`
}

// GetTelegramServers возвращает список конфигураций аккаунтов Telegram,
// обеспечивая обратную совместимость со старым форматом.
func (c *Config) GetTelegramServers() []TelegramAPIServer {
	if len(c.TelegramAPI.Servers) > 0 {
		return c.TelegramAPI.Servers
	}
	// Поддержка старого формата из корневого объекта telegram_api
	if c.TelegramAPI.APIID != 0 && c.TelegramAPI.APIHash != "" {
		return []TelegramAPIServer{
			{
				APIID:       c.TelegramAPI.APIID,
				APIHash:     c.TelegramAPI.APIHash,
				PhoneNumber: c.TelegramAPI.PhoneNumber,
				SessionFile: c.TelegramAPI.SessionFile,
			},
		}
	}
	return nil
}

// LoadConfig загружает конфигурацию приложения из переменных окружения, .env файла или config.yml
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Если .env файла не существует, это нормально, мы будем полагаться на переменные окружения или config.yml
	}

	// Попытка загрузки из config.yml сначала
	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		// Если загрузка YAML не удалась, используем переменные окружения
		cfg, err = loadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла
func loadFromYAML(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return &cfg, nil
}

// loadFromEnv загружает конфигурацию из переменных окружения (обратная совместимость)
func loadFromEnv() (*Config, error) {
	apiIDStr := getEnv("API_ID", "")
	apiHash := getEnv("API_HASH", "")
	phoneNumber := getEnv("PHONE_NUMBER", "")
	sessionFile := getEnv("SESSION_FILE", "tg.session")
	host := getEnv("SERVER_HOST", DefaultServerHost)
	portStr := getEnv("SERVER_PORT", strconv.Itoa(DefaultServerPort))
	photosMode := getEnv("PHOTOS_MODE", DefaultPhotoMode)
	photosDir := getEnv("PHOTOS_DIR", DefaultPhotoDir)
	publicBaseURL := getEnv("PHOTOS_PUBLIC_BASE_URL", "")

	if apiIDStr == "" || apiHash == "" || phoneNumber == "" {
		return nil, fmt.Errorf("API_ID, API_HASH и PHONE_NUMBER должны быть установлены в переменных окружения")
	}

	apiID, err := strconv.Atoi(apiIDStr)
	if err != nil {
		return nil, fmt.Errorf("недопустимый API_ID: %w", err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("недопустимый SERVER_PORT: %w", err)
	}

	return &Config{
		Server: Server{
			Host: host,
			Port: port,
		},
		TelegramAPI: TelegramAPI{
			APIID:       apiID,
			APIHash:     apiHash,
			PhoneNumber: phoneNumber,
			SessionFile: sessionFile,
		},
		Photos: Photos{
			Mode:          photosMode,
			Dir:           photosDir,
			PublicBaseURL: publicBaseURL,
		},
	}, nil
}

// applyDefaults заполняет незаданные поля значениями по умолчанию.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = int(DefaultShutdownTimeout / time.Second)
	}
	if c.TelegramAPI.HealthCheckIntervalSeconds == 0 {
		c.TelegramAPI.HealthCheckIntervalSeconds = int(DefaultHealthCheckInterval / time.Second)
	}
	if c.Phone.CountryCode == "" {
		c.Phone.CountryCode = DefaultCountryCode
	}
	if c.Phone.TrunkPrefix == "" {
		c.Phone.TrunkPrefix = DefaultTrunkPrefix
	}
	if c.Phone.MobilePrefix == "" {
		c.Phone.MobilePrefix = DefaultMobilePrefix
	}
	if c.Lookup.BatchSize == 0 {
		c.Lookup.BatchSize = DefaultBatchSize
	}
	if c.Lookup.BatchDelaySeconds == 0 {
		c.Lookup.BatchDelaySeconds = int(DefaultBatchDelay / time.Second)
	}
	if c.Lookup.MaxSavedContacts == 0 {
		c.Lookup.MaxSavedContacts = DefaultMaxSavedContacts
	}
	if c.Lookup.PlaceholderName == "" {
		c.Lookup.PlaceholderName = DefaultPlaceholderName
	}
	if c.Lookup.PhotoPolicy == "" {
		c.Lookup.PhotoPolicy = DefaultPhotoPolicy
	}
	if c.Lookup.CacheTTLMinutes == 0 {
		c.Lookup.CacheTTLMinutes = int(DefaultCacheTTL / time.Minute)
	}
	if c.Photos.Mode == "" {
		c.Photos.Mode = DefaultPhotoMode
	}
	if c.Photos.Dir == "" {
		c.Photos.Dir = DefaultPhotoDir
	}
	if c.Photos.MaxDimension == 0 {
		c.Photos.MaxDimension = DefaultPhotoMaxDimension
	}
	if c.Photos.JPEGQuality == 0 {
		c.Photos.JPEGQuality = DefaultPhotoJPEGQuality
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeout возвращает таймаут завершения работы сервера.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// HealthCheckInterval возвращает интервал проверки работоспособности клиентов.
func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.TelegramAPI.HealthCheckIntervalSeconds) * time.Second
}

// BatchDelay возвращает паузу между последовательными пакетами.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Lookup.BatchDelaySeconds) * time.Second
}

// CacheTTL возвращает время жизни записи в кеше результатов.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Lookup.CacheTTLMinutes) * time.Minute
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	// Валидация Telegram API
	servers := c.GetTelegramServers()
	if len(servers) == 0 {
		return fmt.Errorf("конфигурация telegram_api не найдена или пуста")
	}

	for i, s := range servers {
		if s.APIID <= 0 {
			return fmt.Errorf("telegram_api.servers[%d].api_id должно быть положительным целым числом", i)
		}
		if s.APIHash == "" {
			return fmt.Errorf("telegram_api.servers[%d].api_hash не может быть пустым", i)
		}
		if s.PhoneNumber == "" {
			return fmt.Errorf("telegram_api.servers[%d].phone_number не может быть пустым", i)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds должно быть положительным")
	}

	if c.TelegramAPI.HealthCheckIntervalSeconds <= 0 {
		return fmt.Errorf("telegram_api.health_check_interval_seconds должно быть положительным")
	}

	if c.Phone.CountryCode == "" {
		return fmt.Errorf("phone.country_code не может быть пустым")
	}

	if c.Lookup.BatchSize <= 0 {
		return fmt.Errorf("lookup.batch_size должно быть положительным")
	}

	if c.Lookup.BatchDelaySeconds < 0 {
		return fmt.Errorf("lookup.batch_delay_seconds должно быть неотрицательным")
	}

	if c.Lookup.MaxSavedContacts <= 0 {
		return fmt.Errorf("lookup.max_saved_contacts должно быть положительным")
	}

	switch c.Lookup.PhotoPolicy {
	case PhotoPolicyFirst, PhotoPolicySmallest:
		// all good
	default:
		return fmt.Errorf("lookup.photo_policy должен быть одним из: %s, %s", PhotoPolicyFirst, PhotoPolicySmallest)
	}

	if c.Lookup.CacheTTLMinutes <= 0 {
		return fmt.Errorf("lookup.cache_ttl_minutes должно быть положительным целым числом")
	}

	switch c.Photos.Mode {
	case PhotoModeInline:
		// all good
	case PhotoModeFile:
		if c.Photos.Dir == "" {
			return fmt.Errorf("photos.dir не может быть пустым в режиме %q", PhotoModeFile)
		}
	default:
		return fmt.Errorf("photos.mode должен быть одним из: %s, %s", PhotoModeInline, PhotoModeFile)
	}

	if c.Photos.MaxDimension <= 0 {
		return fmt.Errorf("photos.max_dimension должно быть положительным")
	}

	if c.Photos.JPEGQuality <= 0 || c.Photos.JPEGQuality > 100 {
		return fmt.Errorf("photos.jpeg_quality должно быть в диапазоне 1-100")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
