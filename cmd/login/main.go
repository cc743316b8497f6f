// Команда login выполняет интерактивную авторизацию аккаунтов Telegram
// и сохраняет файлы сессий, которые затем использует сервер.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"

	"telegram-phone-lookup/internal/pkg/config"
	trm "telegram-phone-lookup/internal/pkg/term"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("login failed: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	servers := cfg.GetTelegramServers()
	if len(servers) == 0 {
		return fmt.Errorf("конфигурация telegram_api не найдена или пуста")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, srv := range servers {
		fmt.Fprintf(os.Stdout, "Авторизация аккаунта %s (сессия: %s)\n", srv.PhoneNumber, srv.SessionFile)
		if err := login(ctx, srv); err != nil {
			return fmt.Errorf("авторизация аккаунта %s не удалась: %w", srv.PhoneNumber, err)
		}
	}

	fmt.Fprintln(os.Stdout, "Все аккаунты авторизованы.")
	return nil
}

// login проводит один аккаунт через интерактивный процесс авторизации.
func login(ctx context.Context, srv config.TelegramAPIServer) error {
	client := telegram.NewClient(srv.APIID, srv.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: srv.SessionFile},
	})

	flow := auth.NewFlow(trm.NewTerminal(srv.PhoneNumber), auth.SendCodeOptions{})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("процесс авторизации завершился с ошибкой: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("не удалось получить данные аккаунта: %w", err)
		}

		name := self.FirstName
		if self.Username != "" {
			name = "@" + self.Username
		}
		fmt.Fprintf(os.Stdout, "Успешно: %s (id %d)\n", name, self.ID)
		return nil
	})
}
