// Package rabbitmq relays order snapshots to a topic exchange so that services outside
// the floor (kitchen printers, reporting) can follow the order flow.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant/internal/core/domain/model/order"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	DefaultExchange = "orders_topic"
	routingPrefix   = "order."
)

// Channel is the part of *amqp.Channel the relay uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type OrderEncoder interface {
	EncodeOrder(o *order.Order) ([]byte, error)
}

type Config struct {
	URL            string
	Exchange       string
	PublishTimeout time.Duration
}

// OrderRelay publishes every order snapshot as a persistent JSON message with the routing
// key order.<status>, e.g. order.in_progress. Publish failures are logged and dropped.
type OrderRelay struct {
	ch       Channel
	conn     *amqp.Connection
	exchange string
	timeout  time.Duration
	encoder  OrderEncoder
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Dial connects to the broker and declares the exchange.
func Dial(cfg Config, encoder OrderEncoder, logger logrus.FieldLogger) (*OrderRelay, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	relay, err := NewOrderRelay(ch, cfg, encoder, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	relay.conn = conn
	return relay, nil
}

func NewOrderRelay(ch Channel, cfg Config, encoder OrderEncoder, logger logrus.FieldLogger) (*OrderRelay, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &OrderRelay{
		ch:       ch,
		exchange: cfg.Exchange,
		timeout:  cfg.PublishTimeout,
		encoder:  encoder,
		logger:   logger.WithField("component", "order-relay"),
		now:      time.Now,
	}, nil
}

func (r *OrderRelay) PublishOrder(ctx context.Context, snapshot *order.Order) {
	log := r.logger.WithField("order_id", snapshot.ID().String())

	body, err := r.encoder.EncodeOrder(snapshot)
	if err != nil {
		log.WithError(err).Error("cannot encode order")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := RoutingKey(snapshot.Status())
	if err := r.ch.PublishWithContext(ctx, r.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    r.now().UTC(),
		ContentType:  "application/json",
		MessageId:    snapshot.ID().String(),
		Body:         body,
	}); err != nil {
		log.WithError(err).WithField("routing_key", key).Warn("order relay failed")
		return
	}

	log.WithField("routing_key", key).Debug("order relayed")
}

func (r *OrderRelay) Close() error {
	var connErr error
	chErr := r.ch.Close()
	if r.conn != nil {
		connErr = r.conn.Close()
	}
	return errors.Join(chErr, connErr)
}

func RoutingKey(status order.Status) string {
	return routingPrefix + strings.ToLower(status.String())
}
