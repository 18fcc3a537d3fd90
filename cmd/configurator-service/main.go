// cmd/configurator-service/main.go
package main

import (
	"context"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"velocraft/internal/pkg/bootstrap"
	"velocraft/internal/pkg/database"
	"velocraft/internal/pkg/logger"
	"velocraft/internal/pkg/mq"
	"velocraft/internal/pkg/redis"
	"velocraft/internal/service/configurator/application"
	"velocraft/internal/service/configurator/domain/port"
	"velocraft/internal/service/configurator/infrastructure"
	"velocraft/internal/service/configurator/infrastructure/rule"
	"velocraft/internal/service/configurator/interfaces"
)

const serviceName = "configurator-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	logger.Init(serviceName, cfg.App.LogLevel)

	// 1. 基础设施
	db, err := database.Open(cfg.Infra.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open database")
	}
	if err := infrastructure.Migrate(db); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Kafka 关闭时事件直接丢弃
	var publisher port.EventPublisher = infrastructure.NopEventPublisher{}
	cleanup := []func(ctx context.Context) error{
		func(context.Context) error { return sqlDB.Close() },
		func(context.Context) error { return redisClient.Close() },
	}
	if cfg.Infra.Kafka.Enabled {
		kp := infrastructure.NewKafkaEventPublisher(mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.ConfigurationTopic))
		publisher = kp
		cleanup = append(cleanup, func(context.Context) error { return kp.Close() })
	}

	rules, err := rule.NewCELRuleEngine()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create rule engine")
	}

	// 2. 应用服务
	tracer := otel.Tracer(serviceName)
	repos := application.Repositories{
		Products:       infrastructure.NewGormProductRepository(db),
		Parts:          infrastructure.NewGormPartRepository(db),
		Constraints:    infrastructure.NewGormConstraintRepository(db),
		Pricing:        infrastructure.NewGormPricingRepository(db),
		Configurations: infrastructure.NewGormConfigurationRepository(db),
	}
	configs := application.NewConfigurationService(repos, publisher, tracer)
	carts := application.NewCartService(infrastructure.NewRedisCartRepository(redisClient, cfg.App.CartTTL), repos.Configurations, tracer)
	promos := application.NewPromoService(infrastructure.NewGormPromoRepository(db), rules, tracer)

	// 3. 启动
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewConfiguratorHandler(configs, carts, promos, appCtx.Config.App.RequestTimeout).RegisterRoutes(appCtx.Mux)
			interfaces.NewPreviewHandler(configs).RegisterRoutes(appCtx.Mux)
		},
		Cleanup: cleanup,
	})
}
