package port

import (
	"context"

	"velocraft/internal/service/configurator/domain"
)

// EventPublisher 是领域事件的出站端口。
type EventPublisher interface {
	PublishConfigurationCreated(ctx context.Context, event *domain.ConfigurationCreated) error
}

// RuleEngine 评估优惠码上的资格表达式。
type RuleEngine interface {
	Evaluate(expression string, fact domain.PromoFact) (bool, error)
}

// Locker 是分布式锁端口，目录导入期间持有。
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

// CatalogSource 提供原始目录文档。
type CatalogSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}
