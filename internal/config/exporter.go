package config

import "time"

// Exporter kinds.
const (
	ExporterNone     = "none"
	ExporterMemory   = "memory"
	ExporterNATS     = "nats"
	ExporterRabbitMQ = "rabbitmq"
	ExporterKafka    = "kafka"
)

// ExporterConfig selects where published-event records are exported to
type ExporterConfig struct {
	Kind string `mapstructure:"kind" validate:"required,oneof=none memory nats rabbitmq kafka"`

	// Subject overrides the per-record destination (events.<Type>) when set
	Subject string `mapstructure:"subject"`

	// Export throttling; RatePerSecond <= 0 disables it
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	Burst         int     `mapstructure:"burst" validate:"gte=0"`

	NATS     NATSConfig     `mapstructure:"nats"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Name          string        `mapstructure:"name"`
	ConnTimeout   time.Duration `mapstructure:"conn_timeout" validate:"gte=0"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
}

type RabbitMQConfig struct {
	URL         string        `mapstructure:"url"`
	Exchange    string        `mapstructure:"exchange"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout" validate:"gte=0"`
}

type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	ClientID string   `mapstructure:"client_id"`
}
