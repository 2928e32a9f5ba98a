package messaging

import (
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"pofcore/config"
)

// exchangeName is the single topic exchange all factory events flow through.
const exchangeName = "pof.events"

type rabbitClient struct {
	cfg config.MessagingConfig

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func newRabbitClient(cfg config.MessagingConfig) *rabbitClient {
	return &rabbitClient{cfg: cfg}
}

func (c *rabbitClient) Connect() error {
	conn, err := amqp.Dial(c.cfg.AMQPURL)
	if err != nil {
		return fmt.Errorf("messaging: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("messaging: amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("messaging: declare exchange: %w", err)
	}

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()
	return nil
}

func (c *rabbitClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *rabbitClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *rabbitClient) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("messaging: not connected")
	}
	return ch.Publish(exchangeName, topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         payload,
	})
}

func (c *rabbitClient) Subscribe(topic string, handler Handler) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("messaging: not connected")
	}

	queueName := c.cfg.ClientID + "." + topic
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("messaging: declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, topic, exchangeName, false, nil); err != nil {
		return fmt.Errorf("messaging: bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("messaging: consume: %w", err)
	}

	go func() {
		for d := range deliveries {
			handler(d.RoutingKey, d.Body)
			if err := d.Ack(false); err != nil {
				log.Printf("messaging: ack on %s: %v", topic, err)
			}
		}
	}()
	return nil
}
