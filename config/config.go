package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	FactoryID string          `yaml:"factory_id"`
	Web       WebConfig       `yaml:"web"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Messaging MessagingConfig `yaml:"messaging"`
	Notify    NotifyConfig    `yaml:"notify"`
	Policy    PolicyConfig    `yaml:"policy"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
	CORSOrigin    string `yaml:"cors_origin"`
	// SecureCookies marks the session cookie Secure. Leave false unless the
	// server sits behind TLS, or browsers will never send the cookie back.
	SecureCookies bool `yaml:"secure_cookies"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "kafka", "mqtt" or "rabbitmq"
	Brokers             []string      `yaml:"brokers"`
	MQTTBroker          string        `yaml:"mqtt_broker"`
	AMQPURL             string        `yaml:"amqp_url"`
	ClientID            string        `yaml:"client_id"`
	MachineStatusTopic  string        `yaml:"machine_status_topic"`
	NotifyTopicPrefix   string        `yaml:"notify_topic_prefix"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
}

type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PolicyConfig holds planning policy knobs: when the production day starts and
// what the canonical default routing looks like.
type PolicyConfig struct {
	DayStartHour   int           `yaml:"day_start_hour"`
	DefaultRouting []RoutingStep `yaml:"default_routing"`
}

type RoutingStep struct {
	StationID  int64 `yaml:"station_id"`
	MachineID  int64 `yaml:"machine_id"`
	RunMinutes int   `yaml:"run_minutes"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config usable for local development without a file.
func Default() *Config {
	return &Config{
		FactoryID: "pof-pacific",
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			SessionSecret: "change-me",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "pofcore.db"},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Redis: RedisConfig{Address: "localhost:6379"},
		Messaging: MessagingConfig{
			Backend:             "kafka",
			Brokers:             []string{"localhost:9092"},
			ClientID:            "pofcore",
			MachineStatusTopic:  "pof.machines.status",
			NotifyTopicPrefix:   "pof.notify",
			OutboxDrainInterval: 5 * time.Second,
		},
		Notify: NotifyConfig{Timeout: 5 * time.Second},
		Policy: PolicyConfig{
			DayStartHour: 9,
			DefaultRouting: []RoutingStep{
				{StationID: 1, MachineID: 1, RunMinutes: 60},
				{StationID: 2, MachineID: 4, RunMinutes: 90},
				{StationID: 3, MachineID: 7, RunMinutes: 45},
				{StationID: 4, MachineID: 9, RunMinutes: 60},
			},
		},
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Messaging.Backend {
	case "", "kafka", "mqtt", "rabbitmq":
	default:
		return fmt.Errorf("unsupported messaging backend: %s", c.Messaging.Backend)
	}
	if c.Policy.DayStartHour < 0 || c.Policy.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour out of range: %d", c.Policy.DayStartHour)
	}
	return nil
}
