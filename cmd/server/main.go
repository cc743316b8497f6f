package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevlyar/go-daemon"

	"telegram-phone-lookup/internal/cache"
	"telegram-phone-lookup/internal/core/services"
	"telegram-phone-lookup/internal/image"
	applog "telegram-phone-lookup/internal/log"
	"telegram-phone-lookup/internal/phone"
	"telegram-phone-lookup/internal/pkg/config"
	"telegram-phone-lookup/internal/server"
	"telegram-phone-lookup/internal/telegram/router"
)

func main() {
	daemonize := flag.Bool("daemon", false, "запустить сервер в фоновом режиме")
	flag.Parse()

	if err := run(*daemonize); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run(daemonize bool) error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Демонизация до инициализации логгера и фоновых сервисов.
	if daemonize {
		dctx := &daemon.Context{
			PidFileName: cfg.Server.PidFile,
			PidFilePerm: 0o644,
			LogFileName: cfg.Server.LogFile,
			LogFilePerm: 0o640,
			Umask:       0o27,
		}

		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("не удалось перейти в фоновый режим: %w", err)
		}
		if child != nil {
			// Родительский процесс завершается; сервер продолжает работу в потомке.
			return nil
		}
		defer func() {
			if err := dctx.Release(); err != nil {
				slog.Error("failed to release daemon context", "error", err)
			}
		}()
	}

	// 3. Инициализация логгера
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	// Номера телефонов — персональные данные, в логи они попадают замаскированными.
	logger := applog.NewMaskedLogger(handler)
	slog.SetDefault(logger)

	// 4. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Photos.Mode == config.PhotoModeFile {
		if err := os.MkdirAll(cfg.Photos.Dir, 0o755); err != nil {
			return fmt.Errorf("не удалось создать каталог фотографий: %w", err)
		}
	}

	// 5. Инициализация и запуск фоновых сервисов
	appCtx, appCancel := context.WithCancel(context.Background())

	tgRouter, err := router.NewRouter(appCtx,
		router.WithServerConfigs(cfg.GetTelegramServers()),
		router.WithHealthCheckInterval(cfg.HealthCheckInterval()),
		router.WithLogger(logger),
	)
	if err != nil {
		appCancel()
		return fmt.Errorf("failed to create telegram router: %w", err)
	}

	// 6. Инициализация зависимостей конвейера поиска
	normalizer := phone.NewNormalizer(phone.Profile{
		CountryCode:  cfg.Phone.CountryCode,
		TrunkPrefix:  cfg.Phone.TrunkPrefix,
		MobilePrefix: cfg.Phone.MobilePrefix,
	})

	guard := services.NewContactGuard(cfg.Lookup.MaxSavedContacts,
		services.WithContactGuardLogger(logger),
	)

	importer := services.NewBatchImporter(
		services.WithPlaceholderName(cfg.Lookup.PlaceholderName),
		services.WithPreserveImportedNames(cfg.Lookup.PreserveImportedNames),
		services.WithBatchImporterLogger(logger),
	)

	optimizer := image.NewOptimizer(cfg.Photos.MaxDimension, cfg.Photos.JPEGQuality,
		image.WithLogger(logger),
	)

	photoResolver := services.NewPhotoResolver(
		services.WithPhotoPolicy(cfg.Lookup.PhotoPolicy),
		services.WithPhotoMode(cfg.Photos.Mode, cfg.Photos.Dir, cfg.Photos.PublicBaseURL),
		services.WithOptimizer(optimizer),
		services.WithPhotoResolverLogger(logger),
	)

	cacheStore := cache.NewCacheStore()
	cacheStore.StartCleanupTicker(appCtx, cfg.CacheTTL())

	lookupSvc := services.NewLookupService(tgRouter, normalizer, guard, importer, photoResolver,
		services.WithBatchSize(cfg.Lookup.BatchSize),
		services.WithBatchDelay(cfg.BatchDelay()),
		services.WithCacheTTL(cfg.CacheTTL()),
		services.WithCacheStore(cacheStore),
		services.WithLookupLogger(logger),
	)

	// 7. Создание HTTP-сервера
	srv := server.New(cfg, lookupSvc, logger)

	// 8. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")

	// Сначала отменяем контекст приложения, чтобы остановить фоновые процессы (клиенты Telegram)
	appCancel()
	slog.Info("Application context canceled, waiting for background services to stop...")

	// Затем останавливаем HTTP-сервер
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("HTTP server stopped")

	// В конце останавливаем роутер (его health-check тикер)
	tgRouter.Stop()

	return nil
}
