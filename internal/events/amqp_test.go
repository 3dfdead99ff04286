package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"print-bridge/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	kinds      []string
	messages   []published
	publishErr error
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.declared = append(c.declared, name)
	c.kinds = append(c.kinds, kind)
	return nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.messages = append(c.messages, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestNewAMQPPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	if _, err := NewAMQPPublisher(ch, ""); err != nil {
		t.Fatal(err)
	}
	if len(ch.declared) != 1 || ch.declared[0] != DefaultExchange || ch.kinds[0] != "topic" {
		t.Fatalf("declared %v %v", ch.declared, ch.kinds)
	}
}

func TestPublishesJobEvents(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewAMQPPublisher(ch, "receipts")
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2025, time.March, 7, 18, 5, 0, 0, time.UTC)
	p.JobEnqueued(context.Background(), models.PrintJob{
		ID:           "job-1",
		RestaurantID: "xtreme-pizza",
		OrderData:    models.OrderData{OrderNumber: "A1042"},
		Timestamp:    ts,
	})
	p.JobCompleted(context.Background(), "job-1", ts.Add(time.Minute))

	if len(ch.messages) != 2 {
		t.Fatalf("published %d messages", len(ch.messages))
	}

	first := ch.messages[0]
	if first.exchange != "receipts" || first.key != RoutingJobEnqueued {
		t.Errorf("first message went to %s/%s", first.exchange, first.key)
	}
	if first.msg.ContentType != "application/json" || first.msg.DeliveryMode != amqp.Persistent {
		t.Errorf("publishing = %+v", first.msg)
	}
	var enqueued JobEnqueuedEvent
	if err := json.Unmarshal(first.msg.Body, &enqueued); err != nil {
		t.Fatal(err)
	}
	if enqueued.JobID != "job-1" || enqueued.RestaurantID != "xtreme-pizza" || enqueued.OrderNumber != "A1042" {
		t.Errorf("enqueued event = %+v", enqueued)
	}

	if ch.messages[1].key != RoutingJobCompleted {
		t.Errorf("second routing key = %s", ch.messages[1].key)
	}
	var completed JobCompletedEvent
	if err := json.Unmarshal(ch.messages[1].msg.Body, &completed); err != nil {
		t.Fatal(err)
	}
	if !completed.CompletedAt.Equal(ts.Add(time.Minute)) {
		t.Errorf("completedAt = %v", completed.CompletedAt)
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := NewAMQPPublisher(ch, "")
	if err != nil {
		t.Fatal(err)
	}
	// Must not panic or block.
	p.JobCompleted(context.Background(), "job-1", time.Now())
}
