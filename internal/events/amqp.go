// Package events publishes print queue changes to RabbitMQ so other services
// (dashboards, order tracking) can follow receipts without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"print-bridge/internal/models"
)

const (
	DefaultExchange = "print_jobs_topic"

	RoutingJobEnqueued  = "print.job.enqueued"
	RoutingJobCompleted = "print.job.completed"

	publishTimeout = 2 * time.Second
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type JobEnqueuedEvent struct {
	JobID        string    `json:"jobId"`
	RestaurantID string    `json:"restaurantId"`
	OrderNumber  string    `json:"orderNumber"`
	Timestamp    time.Time `json:"timestamp"`
}

type JobCompletedEvent struct {
	JobID       string    `json:"jobId"`
	CompletedAt time.Time `json:"completedAt"`
}

// AMQPPublisher implements queue.Notifier on a topic exchange.
type AMQPPublisher struct {
	ch       Channel
	exchange string
	log      zerolog.Logger
}

// NewAMQPPublisher declares the durable topic exchange and returns a publisher on it.
func NewAMQPPublisher(ch Channel, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		log:      log.With().Str("component", "events").Logger(),
	}, nil
}

func (p *AMQPPublisher) JobEnqueued(ctx context.Context, job models.PrintJob) {
	p.publish(ctx, RoutingJobEnqueued, JobEnqueuedEvent{
		JobID:        job.ID,
		RestaurantID: job.RestaurantID,
		OrderNumber:  job.OrderData.OrderNumber,
		Timestamp:    job.Timestamp,
	})
}

func (p *AMQPPublisher) JobCompleted(ctx context.Context, jobID string, at time.Time) {
	p.publish(ctx, RoutingJobCompleted, JobCompletedEvent{JobID: jobID, CompletedAt: at})
}

// publish never fails the queue operation; errors are only logged.
func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, event any) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("routing_key", routingKey).Msg("failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
		return
	}
	p.log.Debug().Str("routing_key", routingKey).Msg("event published")
}

// Dial opens a connection and channel for the publisher.
func Dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return conn, ch, nil
}
