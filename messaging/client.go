package messaging

import (
	"fmt"

	"pofcore/config"
)

// Handler receives inbound messages. It must not block; slow work belongs on
// the handler's own goroutine.
type Handler func(topic string, payload []byte)

// Client is the broker-independent surface the rest of the core uses.
type Client interface {
	Connect() error
	Close()
	IsConnected() bool
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler Handler) error
}

// New builds a client for the configured backend. An empty backend disables
// messaging; the caller gets nil and should treat every publish as a no-op.
func New(cfg config.MessagingConfig) (Client, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "kafka":
		return newKafkaClient(cfg), nil
	case "mqtt":
		return newMQTTClient(cfg), nil
	case "rabbitmq":
		return newRabbitClient(cfg), nil
	default:
		return nil, fmt.Errorf("messaging: unknown backend %q", cfg.Backend)
	}
}
