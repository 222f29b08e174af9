package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publisher описывает публикацию сообщения в обменник уведомлений.
// Выделен в интерфейс для подмены в тестах бизнес-логики.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// ChannelPublisher публикует сообщения через канал AMQP.
type ChannelPublisher struct {
	ch *amqp.Channel
}

// NewChannelPublisher создает публикатора поверх открытого канала.
func NewChannelPublisher(ch *amqp.Channel) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish сериализует сообщение в JSON и публикует его с признаком Persistent.
func (p *ChannelPublisher) Publish(routingKey string, message any) error {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		NotificationsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
