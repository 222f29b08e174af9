// Package sender собирает воркер отправки писем из очереди уведомлений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/account-service/internal/config"
	"github.com/magabrotheeeer/account-service/internal/lib/smtp"
	"github.com/magabrotheeeer/account-service/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/account-service/internal/services/sender"
)

// App инкапсулирует подключение к брокеру и сервис отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает воркер: подключается к брокеру, объявляет очереди
// и собирает SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей очередей и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.confirmation",
		a.senderService.SendConfirmationCode, a.logger)
	if err != nil {
		a.logger.Error("failed to start notifications.confirmation consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.superadmin",
		a.senderService.SendSuperAdminPassword, a.logger)
	if err != nil {
		a.logger.Error("failed to start notifications.superadmin consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
