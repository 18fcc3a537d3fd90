package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"velocraft/internal/service/configurator/domain"
	"velocraft/internal/service/configurator/engine"
)

const productNotFound = "Product not found"

// loadProduct 不存在或已下架都返回 (nil, nil)，其余错误原样返回。
func (s *ConfigurationService) loadProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repos.Products.Get(ctx, id)
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, nil
	}
	return p, nil
}

// loadCatalog 并发读取部件类型、约束和定价规则，第一个错误会取消其余读取并原样返回。
// 之后一次性读取选择、规则和效果引用到的选项，保证错误消息能解析出选项名称。
func (s *ConfigurationService) loadCatalog(ctx context.Context, product *domain.Product, selections domain.Selections) (*engine.Catalog, error) {
	ctx, span := s.tracer.Start(ctx, "service.loadCatalog")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", product.CategoryID))

	cat := &engine.Catalog{Product: product}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pts, err := s.repos.Parts.ListPartTypesByCategory(gctx, product.CategoryID)
		cat.PartTypes = pts
		return err
	})
	g.Go(func() error {
		cs, err := s.repos.Constraints.ListByCategory(gctx, product.CategoryID)
		cat.Constraints = cs
		return err
	})
	g.Go(func() error {
		rules, err := s.repos.Pricing.ListByCategory(gctx, product.CategoryID)
		cat.PricingRules = rules
		return err
	})
	if err := g.Wait(); err != nil {
		recordError(span, err)
		return nil, err
	}

	ids := engine.ReferencedOptionIDs(selections, cat.Constraints, cat.PricingRules)
	opts, err := s.repos.Parts.GetOptionsByIDs(ctx, ids)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	cat.Options = opts
	span.SetAttributes(
		attribute.Int("catalog.part_types", len(cat.PartTypes)),
		attribute.Int("catalog.constraints", len(cat.Constraints)),
		attribute.Int("catalog.pricing_rules", len(cat.PricingRules)),
	)
	return cat, nil
}

// loadPartTypeOptions 为每个部件类型并发读取选项，再按当前选择过滤。
func (s *ConfigurationService) loadPartTypeOptions(ctx context.Context, cat *engine.Catalog, selections domain.Selections) ([]PartTypeOptions, error) {
	out := make([]PartTypeOptions, len(cat.PartTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, pt := range cat.PartTypes {
		g.Go(func() error {
			opts, err := s.repos.Parts.ListOptionsByPartType(gctx, pt.ID)
			if err != nil {
				return err
			}
			out[i] = PartTypeOptions{PartType: pt, Options: engine.AvailableOptions(opts, selections, cat.Constraints)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
