package kafka

import (
	"CPOverflow/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Kafka 消费者
type ConsumerManager struct {
	userFollowsTopic    string
	userFollowsConsumer sarama.ConsumerGroup
	userFollowsHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 未配置 broker 时返回 nil，此时关注缓存仅由写路径维护
func NewConsumerManager(cfg *config.Config) (*ConsumerManager, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.KafkaUserFollowsConsumer.Topic == "" {
		log.Info("Kafka disabled, no brokers or topic configured")
		return nil, nil
	}
	saramaCfg := newSaramaConfig(cfg.Kafka)

	userFollowsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserFollowsConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		userFollowsTopic:    cfg.KafkaUserFollowsConsumer.Topic,
		userFollowsConsumer: userFollowsConsumer,
		userFollowsHandler:  NewUserFollowsHandler(),
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.userFollowsConsumer.Errors() {
			log.Error("User Follows consumer error", "err", err)
		}
	}()

	go func() {
		topic := m.userFollowsTopic
		log.Info("User Follows consumer started", "topic", topic)
		for {
			if err := m.userFollowsConsumer.Consume(ctx, []string{topic}, m.userFollowsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.userFollowsConsumer.Close(); err != nil {
		log.Error("Failed to close follows consumer", "err", err)
	}
	return nil
}
