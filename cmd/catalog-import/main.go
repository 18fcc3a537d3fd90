// cmd/catalog-import/main.go
package main

import (
	"context"
	"flag"
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"velocraft/internal/pkg/bootstrap"
	"velocraft/internal/pkg/database"
	"velocraft/internal/pkg/httpclient"
	"velocraft/internal/pkg/logger"
	"velocraft/internal/pkg/tracing"
	"velocraft/internal/pkg/zookeeper"
	"velocraft/internal/service/configurator/application"
	"velocraft/internal/service/configurator/domain/port"
	"velocraft/internal/service/configurator/infrastructure"
	"velocraft/internal/service/configurator/infrastructure/catalog"
)

const (
	serviceName  = "catalog-import"
	lockResource = "catalog-import"
)

// catalog-import 把一份 YAML 目录写入数据库。
// 不带参数时导入内置的演示自行车目录。
func main() {
	file := flag.String("file", "", "path to a catalog YAML file")
	url := flag.String("url", "", "URL to download the catalog YAML from")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall import timeout")
	flag.Parse()

	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	logger.Init(serviceName, cfg.App.LogLevel)

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := otel.Tracer(serviceName)

	var source port.CatalogSource = catalog.EmbeddedSource{}
	switch {
	case *file != "" && *url != "":
		zlog.Fatal().Msg("-file and -url are mutually exclusive")
	case *file != "":
		source = catalog.FileSource{Path: *file}
	case *url != "":
		source = catalog.URLSource{Client: httpclient.NewClient(tracer), URL: *url}
	}

	db, err := database.Open(cfg.Infra.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open database")
	}
	if err := infrastructure.Migrate(db); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}

	// 多个实例同时导入时用 ZooKeeper 互斥，未配置则单机执行
	var locker port.Locker
	if cfg.Infra.Zookeeper.Servers != "" {
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		defer conn.Close()
		lock, err := zookeeper.NewDistributedLock(conn, lockResource)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to create catalog import lock")
		}
		locker = lock
	}

	repos := application.Repositories{
		Products:       infrastructure.NewGormProductRepository(db),
		Parts:          infrastructure.NewGormPartRepository(db),
		Constraints:    infrastructure.NewGormConstraintRepository(db),
		Pricing:        infrastructure.NewGormPricingRepository(db),
		Configurations: infrastructure.NewGormConfigurationRepository(db),
	}
	importer := application.NewCatalogImporter(repos, infrastructure.NewGormPromoRepository(db), tracer)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	res, err := importer.Import(ctx, source, locker)
	if err != nil {
		// res 非 nil 说明写入中途失败，列出已落库的实体供人工清理
		ev := zlog.Fatal().Err(err)
		if res != nil {
			for kind, ids := range res.Written {
				ev = ev.Strs("written_"+kind, ids)
			}
		}
		ev.Msg("catalog import failed")
	}
	zlog.Info().
		Str("product_id", res.ProductID).
		Int("part_types", res.PartTypes).
		Int("options", res.Options).
		Int("constraints", res.Constraints).
		Int("pricing_rules", res.PricingRules).
		Int("promo_codes", res.PromoCodes).
		Msg("catalog imported")
}
