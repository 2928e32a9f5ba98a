package messaging

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"pofcore/config"
)

type kafkaClient struct {
	cfg    config.MessagingConfig
	writer *kafka.Writer

	mu         sync.Mutex
	readers    []*kafka.Reader
	consumeCtx context.Context
	cancel     context.CancelFunc
}

func newKafkaClient(cfg config.MessagingConfig) *kafkaClient {
	return &kafkaClient{cfg: cfg}
}

func (c *kafkaClient) Connect() error {
	c.writer = &kafka.Writer{
		Addr:         kafka.TCP(c.cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		// Topics are managed by ops on most sites, but auto-create keeps
		// single-node dev setups working.
		AllowAutoTopicCreation: true,
	}
	return nil
}

func (c *kafkaClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	for _, r := range c.readers {
		r.Close()
	}
	c.readers = nil
	if c.writer != nil {
		c.writer.Close()
		c.writer = nil
	}
}

func (c *kafkaClient) IsConnected() bool {
	return c.writer != nil
}

func (c *kafkaClient) Publish(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Value: payload})
}

func (c *kafkaClient) Subscribe(topic string, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.cfg.Brokers,
		GroupID: c.cfg.ClientID,
		Topic:   topic,
	})

	c.mu.Lock()
	if c.cancel == nil {
		var ctx context.Context
		ctx, c.cancel = context.WithCancel(context.Background())
		c.consumeCtx = ctx
	}
	ctx := c.consumeCtx
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("messaging: kafka read %s: %v", topic, err)
				time.Sleep(time.Second)
				continue
			}
			handler(msg.Topic, msg.Value)
		}
	}()
	return nil
}
