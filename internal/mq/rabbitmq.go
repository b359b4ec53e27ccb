package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeTasks = "mirror.exchange"
	ExchangeRetry = "mirror.retry.exchange"
	ExchangeDLQ   = "mirror.dlq.exchange"

	QueueTasks = "mirror.queue"
	QueueRetry = "mirror.retry.queue"
	QueueDLQ   = "mirror.dlq.queue"

	RoutingTask  = "mirror"
	RoutingRetry = "mirror.retry"
	RoutingDLQ   = "mirror.dlq"
)

// Client wraps one connection and channel used for mirror tasks.
type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

var publisherMu sync.Mutex
var publisher *Client

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

// GetPublisher returns the shared publishing client, reconnecting when
// the previous connection was closed.
func GetPublisher(url string) (*Client, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if publisher != nil {
		if !publisher.Conn.IsClosed() && !publisher.Channel.IsClosed() {
			return publisher, nil
		}
		publisher.Close()
		publisher = nil
	}
	client, err := Dial(url)
	if err != nil {
		return nil, err
	}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	publisher = client
	return publisher, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

type binding struct {
	exchange string
	queue    string
	key      string
	args     amqp.Table
}

var topology = []binding{
	{exchange: ExchangeTasks, queue: QueueTasks, key: RoutingTask},
	{exchange: ExchangeRetry, queue: QueueRetry, key: RoutingRetry, args: amqp.Table{
		"x-dead-letter-exchange":    ExchangeTasks,
		"x-dead-letter-routing-key": RoutingTask,
	}},
	{exchange: ExchangeDLQ, queue: QueueDLQ, key: RoutingDLQ},
}

// DeclareTopology declares the task, retry and dead letter exchanges and
// queues. Retry messages expire back into the task queue.
func (c *Client) DeclareTopology() error {
	for _, b := range topology {
		if err := c.Channel.ExchangeDeclare(b.exchange, "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", b.exchange, err)
		}
		if _, err := c.Channel.QueueDeclare(b.queue, true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := c.Channel.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

// Consume sets the prefetch window and starts consuming the task queue
// with manual acks.
func (c *Client) Consume(prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := c.Channel.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return c.Channel.Consume(
		QueueTasks,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

func (c *Client) PublishTask(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeTasks, RoutingTask, body, "")
}

func (c *Client) PublishRetry(ctx context.Context, body []byte, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	expiration := fmt.Sprintf("%d", delay.Milliseconds())
	return c.publish(ctx, ExchangeRetry, RoutingRetry, body, expiration)
}

func (c *Client) PublishDLQ(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeDLQ, RoutingDLQ, body, "")
}

func (c *Client) publish(ctx context.Context, exchange, key string, body []byte, expiration string) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	if expiration != "" {
		msg.Expiration = expiration
	}
	return c.Channel.PublishWithContext(
		ctx,
		exchange,
		key,
		false,
		false,
		msg,
	)
}

// Publisher publishes tasks through the shared client for URL.
type Publisher struct {
	URL string
}

func (p Publisher) PublishTask(ctx context.Context, body []byte) error {
	client, err := GetPublisher(p.URL)
	if err != nil {
		return err
	}
	return client.PublishTask(ctx, body)
}
