package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/account-service/internal/lib/sl"
)

// Не более стольких писем обрабатывается одновременно.
const maxInflight = 10

// ConsumerMessage подписывается на очередь и разбирает сообщения конкурентно.
// При ошибке обработчика сообщение возвращается в очередь.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string,
	handler func([]byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"

	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, maxInflight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					handleDelivery(d, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func handleDelivery(d amqp.Delivery, handler func([]byte) error, log *slog.Logger) {
	if err := handler(d.Body); err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
