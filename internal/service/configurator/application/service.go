package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/pkg/metrics"
	"velocraft/internal/pkg/tracing"
	"velocraft/internal/service/configurator/domain"
	"velocraft/internal/service/configurator/domain/port"
	"velocraft/internal/service/configurator/engine"
)

// Repositories 聚合配置服务依赖的全部仓储。
type Repositories struct {
	Products       domain.ProductRepository
	Parts          domain.PartRepository
	Constraints    domain.ConstraintRepository
	Pricing        domain.PricingRepository
	Configurations domain.ConfigurationRepository
}

// ConfigurationService 是配置器的对外入口，组合约束引擎、定价引擎和仓储层。
// 服务本身无状态，每次调用读取一份新的目录快照。
type ConfigurationService struct {
	repos     Repositories
	publisher port.EventPublisher
	tracer    trace.Tracer
	now       func() time.Time
}

// NewConfigurationService 创建一个新的配置服务实例
func NewConfigurationService(repos Repositories, publisher port.EventPublisher, tracer trace.Tracer) *ConfigurationService {
	return &ConfigurationService{
		repos:     repos,
		publisher: publisher,
		tracer:    tracer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// normalizeSelections 同一 PartType 以最后一条为准；数量必须 >= 1。
func normalizeSelections(items []domain.ConfigurationSelection) (domain.Selections, error) {
	for _, it := range items {
		if it.PartTypeID == "" || it.PartOptionID == "" {
			return nil, fmt.Errorf("%w: partTypeId and partOptionId are required", domain.ErrInvalidSelection)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for %s must be at least 1", domain.ErrInvalidSelection, it.PartTypeID)
		}
	}
	return domain.NewSelections(items...), nil
}

// GetProduct 返回商品详情，下架商品按不存在处理。
func (s *ConfigurationService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	p, err := s.loadProduct(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// ListProducts 返回类目下在售的商品，按名称排序。
func (s *ConfigurationService) ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListProducts")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", categoryID))

	products, err := s.repos.Products.ListByCategory(ctx, categoryID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// ListPartTypes 返回类目下的全部部件类型，按展示顺序。
func (s *ConfigurationService) ListPartTypes(ctx context.Context, categoryID string) ([]domain.PartType, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListPartTypes")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", categoryID))

	pts, err := s.repos.Parts.ListPartTypesByCategory(ctx, categoryID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return pts, nil
}

// GetAvailableOptions 返回某个部件类型下当前可选的选项，保持仓储顺序。
func (s *ConfigurationService) GetAvailableOptions(ctx context.Context, categoryID, partTypeID string, items []domain.ConfigurationSelection) ([]domain.PartOption, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetAvailableOptions")
	defer span.End()
	span.SetAttributes(
		attribute.String("category.id", categoryID),
		attribute.String("part_type.id", partTypeID),
	)

	selections, err := normalizeSelections(items)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	var (
		options     []domain.PartOption
		constraints []domain.ConfigurationConstraint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		options, err = s.repos.Parts.ListOptionsByPartType(gctx, partTypeID)
		return err
	})
	g.Go(func() error {
		var err error
		constraints, err = s.repos.Constraints.ListByCategory(gctx, categoryID)
		return err
	})
	if err := g.Wait(); err != nil {
		recordError(span, err)
		return nil, err
	}

	available := engine.AvailableOptions(options, selections, constraints)
	span.SetAttributes(attribute.Int("options.available", len(available)))
	return available, nil
}

// ValidateConfiguration 校验失败是正常返回值，只有存储错误才会返回 error。
func (s *ConfigurationService) ValidateConfiguration(ctx context.Context, productID string, items []domain.ConfigurationSelection) (domain.ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.ValidateConfiguration")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	selections, err := normalizeSelections(items)
	if err != nil {
		recordError(span, err)
		return domain.ValidationResult{}, err
	}
	result, _, err := s.evaluate(ctx, productID, selections, false)
	if err != nil {
		recordError(span, err)
		return domain.ValidationResult{}, err
	}

	metrics.ValidationsTotal.WithLabelValues(metrics.BoolLabel(result.IsValid)).Inc()
	span.SetAttributes(attribute.Bool("configuration.valid", result.IsValid), attribute.Int("configuration.errors", len(result.Errors)))
	return result, nil
}

// CalculatePrice 商品不存在时返回 0。
func (s *ConfigurationService) CalculatePrice(ctx context.Context, productID string, items []domain.ConfigurationSelection) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "service.CalculatePrice")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	selections, err := normalizeSelections(items)
	if err != nil {
		recordError(span, err)
		return decimal.Zero, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		recordError(span, err)
		return decimal.Zero, err
	}
	if product == nil {
		return decimal.Zero, nil
	}
	cat, err := s.loadCatalog(ctx, product, selections)
	if err != nil {
		recordError(span, err)
		return decimal.Zero, err
	}

	price := engine.CalculatePrice(cat, selections)
	span.SetAttributes(attribute.String("configuration.price", price.StringFixed(2)))
	return price, nil
}

// CreateConfiguration 无论是否有效都会持久化并返回配置；无效配置总价为 0。
// 加购前是否拒绝无效配置由购物车负责。
func (s *ConfigurationService) CreateConfiguration(ctx context.Context, productID string, items []domain.ConfigurationSelection) (*domain.ProductConfiguration, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateConfiguration")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	selections, err := normalizeSelections(items)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	result, price, err := s.evaluate(ctx, productID, selections, true)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	cfg := domain.NewProductConfiguration(productID, selections, result, price, s.now())
	span.SetAttributes(
		attribute.String("configuration.id", cfg.ID),
		attribute.Bool("configuration.valid", cfg.IsValid),
	)

	// 配置行与选择行在同一事务中写入，失败时调用方应认为什么都没有写入
	if err := s.repos.Configurations.Save(ctx, cfg); err != nil {
		recordError(span, err)
		logger.Ctx(ctx).Error().Err(err).Str("configuration_id", cfg.ID).Msg("failed to persist configuration")
		return nil, err
	}

	metrics.ConfigurationsCreated.WithLabelValues(metrics.BoolLabel(cfg.IsValid)).Inc()
	metrics.PriceComputed.Observe(cfg.TotalPrice.InexactFloat64())

	// 事务提交后再发布事件，发布失败不影响本次请求
	event := domain.NewConfigurationCreated(cfg, tracing.GetTraceIDFromContext(ctx))
	if err := s.publisher.PublishConfigurationCreated(ctx, event); err != nil {
		metrics.EventPublishFailures.Inc()
		span.AddEvent("configuration event publish failed")
		logger.Ctx(ctx).Warn().Err(err).Str("configuration_id", cfg.ID).Msg("failed to publish ConfigurationCreated")
	}

	logger.Ctx(ctx).Info().
		Str("configuration_id", cfg.ID).
		Str("product_id", productID).
		Bool("valid", cfg.IsValid).
		Str("total_price", cfg.TotalPrice.StringFixed(2)).
		Msg("configuration created")
	return cfg, nil
}

// GetConfiguration 按 id 读取已持久化的配置。
func (s *ConfigurationService) GetConfiguration(ctx context.Context, id string) (*domain.ProductConfiguration, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetConfiguration")
	defer span.End()
	span.SetAttributes(attribute.String("configuration.id", id))

	cfg, err := s.repos.Configurations.Get(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return cfg, nil
}

// ListConfigurations 返回某个商品的历史配置，最新的在前。
func (s *ConfigurationService) ListConfigurations(ctx context.Context, productID string) ([]domain.ProductConfiguration, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListConfigurations")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	list, err := s.repos.Configurations.ListByProduct(ctx, productID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return list, nil
}

// PartTypeOptions 是预览中单个部件类型及其当前可选项。
type PartTypeOptions struct {
	PartType domain.PartType
	Options  []domain.PartOption
}

// ConfigurationPreview 是一次选择变化后展示层需要的全部信息。
type ConfigurationPreview struct {
	ProductID  string
	Validation domain.ValidationResult
	Price      engine.PriceBreakdown
	PartTypes  []PartTypeOptions
}

// PreviewConfiguration 在一次快照上同时完成校验、定价和可选项过滤，不做持久化。
func (s *ConfigurationService) PreviewConfiguration(ctx context.Context, productID string, items []domain.ConfigurationSelection) (*ConfigurationPreview, error) {
	ctx, span := s.tracer.Start(ctx, "service.PreviewConfiguration")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	selections, err := normalizeSelections(items)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	preview := &ConfigurationPreview{ProductID: productID, PartTypes: []PartTypeOptions{}}
	if product == nil {
		preview.Validation = domain.NewValidationResult([]string{productNotFound})
		preview.Price = engine.PriceBreakdown{BasePrice: decimal.Zero, OptionsTotal: decimal.Zero, Total: decimal.Zero}
		return preview, nil
	}

	cat, err := s.loadCatalog(ctx, product, selections)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	parts, err := s.loadPartTypeOptions(ctx, cat, selections)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	preview.Validation = engine.Validate(cat, selections)
	preview.Price = engine.Breakdown(cat, selections)
	preview.PartTypes = parts
	span.SetAttributes(attribute.Bool("configuration.valid", preview.Validation.IsValid))
	return preview, nil
}

// evaluate 校验并（按需）定价；无效配置的价格强制为 0。
func (s *ConfigurationService) evaluate(ctx context.Context, productID string, selections domain.Selections, withPrice bool) (domain.ValidationResult, decimal.Decimal, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return domain.ValidationResult{}, decimal.Zero, err
	}
	if product == nil {
		return domain.NewValidationResult([]string{productNotFound}), decimal.Zero, nil
	}
	cat, err := s.loadCatalog(ctx, product, selections)
	if err != nil {
		return domain.ValidationResult{}, decimal.Zero, err
	}
	result := engine.Validate(cat, selections)
	if !withPrice || !result.IsValid {
		return result, decimal.Zero, nil
	}
	return result, engine.CalculatePrice(cat, selections), nil
}
