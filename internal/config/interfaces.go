package config

import (
	"time"

	"github.com/IBM/sarama"
)

type Server interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	ShutdownTimeout() time.Duration
	DBReadTimeout() time.Duration
	DBWriteTimeout() time.Duration
}

type Logger interface {
	Level() string
	AsJSON() bool
}

type Database interface {
	MigrationDirectory() string
	DSN() string
}

type Mongo interface {
	DSN() string
	DatabaseName() string
	PartsCollection() string
	Transactional() bool
	BootstrapParts() bool
}

type Kafka interface {
	Brokers() []string
	SyncEventsTopic() string
	WorkOrderCompletedTopic() string
	ConsumerGroupID() string
	ProducerConfig() *sarama.Config
	ConsumerConfig() *sarama.Config
}

type Backend interface {
	BaseURL() string
	Token() string
	Timeout() time.Duration
	MaxRetries() uint64
}

type Sync interface {
	Store() string
	StaleAfter() time.Duration
	PollInterval() time.Duration
	ClockSkew() time.Duration
}

type Telemetry interface {
	StatTypes() []string
	CacheTTL() time.Duration
}
