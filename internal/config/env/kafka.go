package envconfig

import (
	"github.com/IBM/sarama"
	"github.com/caarlos0/env/v11"
)

type kafkaEnv struct {
	Brokers                     []string `env:"KAFKA_BROKERS,required"`
	SyncEventsTopicName         string   `env:"SYNC_EVENTS_TOPIC_NAME" envDefault:"fleet.sync.events"`
	WorkOrderCompletedTopicName string   `env:"WORK_ORDER_COMPLETED_TOPIC_NAME" envDefault:"fleet.workorder.completed"`
	ConsumerGroupID             string   `env:"WORK_ORDER_COMPLETED_CONSUMER_GROUP_ID" envDefault:"fleetsync-allocations"`
}

type kafka struct {
	raw kafkaEnv
}

func NewKafkaConfig() (*kafka, error) {
	var raw kafkaEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &kafka{raw: raw}, nil
}

func (cfg *kafka) Brokers() []string               { return cfg.raw.Brokers }
func (cfg *kafka) SyncEventsTopic() string         { return cfg.raw.SyncEventsTopicName }
func (cfg *kafka) WorkOrderCompletedTopic() string { return cfg.raw.WorkOrderCompletedTopicName }
func (cfg *kafka) ConsumerGroupID() string         { return cfg.raw.ConsumerGroupID }

func (cfg *kafka) ConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	return config
}

func (cfg *kafka) ProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	return config
}
