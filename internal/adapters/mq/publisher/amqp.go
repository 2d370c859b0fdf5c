package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/pkg/logger"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events as persistent JSON messages to a direct exchange.
type AMQPPublisher struct {
	conn       *amqp.Connection
	channel    Channel
	exchange   string
	routingKey string
	now        func() time.Time
	logger     logger.Logger
}

// DialAMQP connects to the broker, opens a channel and declares the exchange.
func DialAMQP(url, exchange, routingKey string, opts ...Option) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrPublishFailed, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrPublishFailed, err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare exchange: %w", ErrPublishFailed, err)
	}

	p := NewAMQPPublisher(ch, exchange, routingKey, opts...)
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher wraps an already open channel.
func NewAMQPPublisher(ch Channel, exchange, routingKey string, opts ...Option) *AMQPPublisher {
	o := newOptions(opts)
	return &AMQPPublisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		now:        o.now,
		logger:     o.logger,
	}
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, e model.AnalysisEvent) error { //nolint:gocritic // hugeParam: events are values
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		MessageId:    e.RecordID,
	}
	if err := p.channel.Publish(p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	p.logger.Debug(ctx, "event published",
		logger.String("record_id", e.RecordID),
		logger.String("exchange", p.exchange),
	)
	return nil
}

// Close closes the channel and, when dialed here, the connection.
func (p *AMQPPublisher) Close() error {
	var err error
	if p.channel != nil {
		if cerr := p.channel.Close(); cerr != nil {
			p.logger.Warn(context.Background(), "failed to close channel", logger.Error(cerr))
			err = cerr
		}
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil {
			p.logger.Warn(context.Background(), "failed to close connection", logger.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}
	return err
}
