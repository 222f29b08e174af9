package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/account-service/internal/cache"
	"github.com/magabrotheeeer/account-service/internal/config"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/migrations"
	"github.com/magabrotheeeer/account-service/internal/rabbitmq"
	accountservice "github.com/magabrotheeeer/account-service/internal/services/account"
	confirmationservice "github.com/magabrotheeeer/account-service/internal/services/confirmation"
	tokenservice "github.com/magabrotheeeer/account-service/internal/services/token"
	"github.com/magabrotheeeer/account-service/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер сервиса учетных записей и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	rabbit *amqp.Connection
	ch     *amqp.Channel
}

// New создает приложение: подключает базу, прогоняет миграции, предзаполняет
// роли, поднимает кэш и брокер уведомлений, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = db.SeedRoles(ctx); err != nil {
		return nil, err
	}

	redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbit, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(rabbit, rabbitmq.GetNotificationQueues())
	if err != nil {
		rabbit.Close()
		return nil, err
	}
	publisher := rabbitmq.NewChannelPublisher(ch)

	maker := jwt.NewMaker(cfg.AccessSecretKey, cfg.RefreshSecretKey,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenService := tokenservice.NewTokenService(maker, db)
	confirmationService := confirmationservice.NewConfirmationService(db)
	accountService := accountservice.NewAccountService(logger, db, db,
		confirmationService, tokenService, publisher, redisCache)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, accountService, tokenService, db, rabbit, redisCache)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		rabbit: rabbit,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и завершает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.rabbit.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
