package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/pkg/metrics"
	"velocraft/internal/service/configurator/domain"
	"velocraft/internal/service/configurator/domain/port"
)

var hundred = decimal.NewFromInt(100)

// PromoService 校验结账时输入的优惠码。业务上的拒绝通过 PromoValidation 返回，
// 只有存储或规则引擎错误才返回 error。
type PromoService struct {
	promos domain.PromoRepository
	rules  port.RuleEngine
	tracer trace.Tracer
	now    func() time.Time
}

// NewPromoService rules 可以为 nil，此时忽略资格表达式。
func NewPromoService(promos domain.PromoRepository, rules port.RuleEngine, tracer trace.Tracer) *PromoService {
	return &PromoService{
		promos: promos,
		rules:  rules,
		tracer: tracer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func rejected(reason string) *domain.PromoValidation {
	return &domain.PromoValidation{IsValid: false, DiscountAmount: decimal.Zero, Error: reason}
}

// ValidatePromoCode 依次检查：存在、启用、过期、最低消费、使用次数、资格表达式。
func (s *PromoService) ValidatePromoCode(ctx context.Context, code string, orderTotal decimal.Decimal, itemCount int) (*domain.PromoValidation, error) {
	ctx, span := s.tracer.Start(ctx, "service.ValidatePromoCode")
	defer span.End()

	normalized := strings.ToUpper(strings.TrimSpace(code))
	span.SetAttributes(
		attribute.String("promo.code", normalized),
		attribute.String("order.total", orderTotal.StringFixed(2)),
	)

	result, err := s.validate(ctx, normalized, orderTotal, itemCount)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	metrics.PromoValidations.WithLabelValues(metrics.BoolLabel(result.IsValid)).Inc()
	span.SetAttributes(attribute.Bool("promo.valid", result.IsValid))
	if !result.IsValid {
		logger.Ctx(ctx).Debug().Str("promo_code", normalized).Str("reason", result.Error).Msg("promo code rejected")
	}
	return result, nil
}

func (s *PromoService) validate(ctx context.Context, code string, orderTotal decimal.Decimal, itemCount int) (*domain.PromoValidation, error) {
	promo, err := s.promos.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrPromoCodeNotFound) {
		return rejected("Invalid promo code"), nil
	}
	if err != nil {
		return nil, err
	}

	if !promo.IsActive {
		return rejected("This promo code is no longer active"), nil
	}
	if promo.ExpiresAt != nil && promo.ExpiresAt.Before(s.now()) {
		return rejected("This promo code has expired"), nil
	}
	if promo.MinOrderValue != nil && promo.MinOrderValue.IsPositive() && orderTotal.LessThan(*promo.MinOrderValue) {
		return rejected(fmt.Sprintf("Minimum order value of €%s required", promo.MinOrderValue.String())), nil
	}
	if promo.MaxUses != nil && *promo.MaxUses > 0 && promo.CurrentUses >= *promo.MaxUses {
		return rejected("This promo code has reached its usage limit"), nil
	}
	if promo.Eligibility != "" && s.rules != nil {
		ok, err := s.rules.Evaluate(promo.Eligibility, domain.PromoFact{Total: orderTotal, ItemCount: itemCount})
		if err != nil {
			return nil, fmt.Errorf("evaluate eligibility of %s: %w", promo.Code, err)
		}
		if !ok {
			return rejected("This promo code is not applicable to your order"), nil
		}
	}

	var discount decimal.Decimal
	switch promo.Type {
	case domain.DiscountPercentage:
		discount = orderTotal.Mul(promo.Value).Div(hundred).Round(2)
	default:
		discount = decimal.Min(promo.Value, orderTotal)
	}
	return &domain.PromoValidation{IsValid: true, PromoCode: promo, DiscountAmount: discount}, nil
}

// AvailablePromoCodes 返回所有启用中的优惠码。
func (s *PromoService) AvailablePromoCodes(ctx context.Context) ([]domain.PromoCode, error) {
	ctx, span := s.tracer.Start(ctx, "service.AvailablePromoCodes")
	defer span.End()

	codes, err := s.promos.ListActive(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return codes, nil
}
