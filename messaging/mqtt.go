package messaging

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"pofcore/config"
)

type mqttClient struct {
	cfg  config.MessagingConfig
	conn mqtt.Client
}

func newMQTTClient(cfg config.MessagingConfig) *mqttClient {
	return &mqttClient{cfg: cfg}
}

func (c *mqttClient) Connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.MQTTBroker).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	c.conn = mqtt.NewClient(opts)
	token := c.conn.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("messaging: mqtt connect timeout to %s", c.cfg.MQTTBroker)
	}
	return token.Error()
}

func (c *mqttClient) Close() {
	if c.conn != nil {
		c.conn.Disconnect(250)
		c.conn = nil
	}
}

func (c *mqttClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// mqttTopic maps dotted topic names onto the slash hierarchy MQTT expects.
func mqttTopic(topic string) string {
	return strings.ReplaceAll(topic, ".", "/")
}

func (c *mqttClient) Publish(topic string, payload []byte) error {
	token := c.conn.Publish(mqttTopic(topic), 1, false, payload)
	token.Wait()
	return token.Error()
}

func (c *mqttClient) Subscribe(topic string, handler Handler) error {
	token := c.conn.Subscribe(mqttTopic(topic), 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}
