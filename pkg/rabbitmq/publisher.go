package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"lesson-engine/config"
)

// Publisher pushes created notifications onto the delivery exchange for the
// realtime gateway. Delivery is best-effort; the notification row is the
// source of truth.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

type publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

const exchangeName = "notifications_exchange"

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) Publisher {
	return &publisher{
		conn: conn,
		cfg:  cfg,
	}
}

func (p *publisher) Publish(ctx context.Context, routingKey string, body any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(exchangeName, p.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", exchangeName).Msg("failed to declare exchange")
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
}
