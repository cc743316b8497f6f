package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Telegram API defaults
	DefaultHealthCheckInterval = 30 * time.Second

	// Phone profile defaults (Ethiopia)
	DefaultCountryCode  = "251"
	DefaultTrunkPrefix  = "0"
	DefaultMobilePrefix = "9"

	// Lookup defaults
	DefaultBatchSize        = 25
	DefaultBatchDelay       = 2 * time.Second
	DefaultMaxSavedContacts = 1000
	DefaultPlaceholderName  = "Lookup"
	DefaultPhotoPolicy      = PhotoPolicySmallest
	DefaultCacheTTL         = 60 * time.Minute
	DefaultCleanupInterval  = 1 * time.Hour

	// Photo defaults
	DefaultPhotoMode         = PhotoModeInline
	DefaultPhotoDir          = "photos"
	DefaultPhotoMaxDimension = 512
	DefaultPhotoJPEGQuality  = 80

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Photo policy values.
const (
	PhotoPolicyFirst    = "first"
	PhotoPolicySmallest = "smallest"
)

// Photo output modes.
const (
	PhotoModeInline = "inline"
	PhotoModeFile   = "file"
)
