package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/service/configurator/domain"
)

// CartService 管理会话购物车。无效配置永远不会进入购物车。
type CartService struct {
	carts          domain.CartRepository
	configurations domain.ConfigurationRepository
	tracer         trace.Tracer
	now            func() time.Time
}

func NewCartService(carts domain.CartRepository, configurations domain.ConfigurationRepository, tracer trace.Tracer) *CartService {
	return &CartService{
		carts:          carts,
		configurations: configurations,
		tracer:         tracer,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetCart")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID))

	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return cart, nil
}

// AddToCart 购物车不存在时自动创建。配置无效时返回 InvalidConfigurationError，
// 并且不会读写购物车。
func (s *CartService) AddToCart(ctx context.Context, cartID, configurationID string, quantity int) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "service.AddToCart")
	defer span.End()
	span.SetAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("configuration.id", configurationID),
		attribute.Int("cart.quantity", quantity),
	)

	if quantity < 1 {
		err := fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidSelection)
		recordError(span, err)
		return nil, err
	}

	cfg, err := s.configurations.Get(ctx, configurationID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if !cfg.IsValid {
		err := &domain.InvalidConfigurationError{ConfigurationID: cfg.ID, Errors: cfg.ValidationErrors}
		recordError(span, err)
		logger.Ctx(ctx).Warn().Str("cart_id", cartID).Str("configuration_id", cfg.ID).Strs("errors", cfg.ValidationErrors).Msg("rejected invalid configuration")
		return nil, err
	}

	cart, err := s.carts.Update(ctx, cartID, func(cart *domain.Cart) (*domain.Cart, error) {
		now := s.now()
		if cart == nil {
			cart = domain.NewCart(cartID, now)
		}
		cart.AddConfiguration(cfg, quantity, now)
		return cart, nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("cart_id", cartID).Str("configuration_id", cfg.ID).Int("quantity", quantity).Msg("configuration added to cart")
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "service.RemoveCartItem")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID), attribute.String("cart.item_id", itemID))

	return s.mutate(ctx, span, cartID, func(c *domain.Cart, now time.Time) error {
		return c.RemoveItem(itemID, now)
	})
}

// UpdateQuantity 数量 <= 0 时删除条目。
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateCartQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.String("cart.id", cartID),
		attribute.String("cart.item_id", itemID),
		attribute.Int("cart.quantity", quantity),
	)

	return s.mutate(ctx, span, cartID, func(c *domain.Cart, now time.Time) error {
		return c.SetQuantity(itemID, quantity, now)
	})
}

// Clear 清空条目，购物车本身保留。
func (s *CartService) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "service.ClearCart")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID))

	return s.mutate(ctx, span, cartID, func(c *domain.Cart, now time.Time) error {
		c.Clear(now)
		return nil
	})
}

// Delete 删除整个购物车，不存在时也视为成功。
func (s *CartService) Delete(ctx context.Context, cartID string) error {
	ctx, span := s.tracer.Start(ctx, "service.DeleteCart")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID))

	if err := s.carts.Delete(ctx, cartID); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// mutate 在一次原子更新中应用修改；购物车不存在或修改失败时不写回。
func (s *CartService) mutate(ctx context.Context, span trace.Span, cartID string, fn func(*domain.Cart, time.Time) error) (*domain.Cart, error) {
	cart, err := s.carts.Update(ctx, cartID, func(cart *domain.Cart) (*domain.Cart, error) {
		if cart == nil {
			return nil, domain.ErrCartNotFound
		}
		if err := fn(cart, s.now()); err != nil {
			return nil, err
		}
		return cart, nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return cart, nil
}
