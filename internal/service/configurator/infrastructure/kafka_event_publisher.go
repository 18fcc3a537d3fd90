package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/pkg/mq"
	"velocraft/internal/service/configurator/domain"
)

// KafkaEventPublisher 实现了 port.EventPublisher 接口，以配置 ID 作为分区 key。
type KafkaEventPublisher struct {
	writer mq.MessageWriter
}

func NewKafkaEventPublisher(writer mq.MessageWriter) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) PublishConfigurationCreated(ctx context.Context, event *domain.ConfigurationCreated) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration created event: %w", err)
	}
	// mq.ProduceMessage 会自动处理追踪上下文注入
	if err := mq.ProduceMessage(ctx, p.writer, []byte(event.ConfigurationID), eventBytes); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("configuration_id", event.ConfigurationID).Msg("Failed to produce message to Kafka")
		return err
	}
	return nil
}

// Close 关闭底层的Kafka writer。
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NopEventPublisher 在未启用 Kafka 时使用，只记录日志。
type NopEventPublisher struct{}

func (NopEventPublisher) PublishConfigurationCreated(ctx context.Context, event *domain.ConfigurationCreated) error {
	logger.Ctx(ctx).Debug().Str("configuration_id", event.ConfigurationID).Msg("event publishing disabled, dropping ConfigurationCreated")
	return nil
}
