package infrastructure

import (
	"fmt"

	"velocraft/internal/service/configurator/domain"
)

// toDomainProduct 将数据库模型转换为领域模型
func toDomainProduct(m *ProductModel) *domain.Product {
	if m == nil {
		return nil
	}
	return &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CategoryID:  m.CategoryID,
		BasePrice:   m.BasePrice,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromDomainProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		BasePrice:   p.BasePrice,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toDomainPartType(m *PartTypeModel) *domain.PartType {
	if m == nil {
		return nil
	}
	return &domain.PartType{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		ProductCategoryID: m.ProductCategoryID,
		IsRequired:        m.IsRequired,
		DisplayOrder:      m.DisplayOrder,
	}
}

func fromDomainPartType(pt *domain.PartType) *PartTypeModel {
	return &PartTypeModel{
		ID:                pt.ID,
		Name:              pt.Name,
		Description:       pt.Description,
		ProductCategoryID: pt.ProductCategoryID,
		IsRequired:        pt.IsRequired,
		DisplayOrder:      pt.DisplayOrder,
	}
}

func toDomainPartOption(m *PartOptionModel) *domain.PartOption {
	if m == nil {
		return nil
	}
	return &domain.PartOption{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		PartTypeID:  m.PartTypeID,
		BasePrice:   m.BasePrice,
		IsActive:    m.IsActive,
		InStock:     m.InStock,
		StockCount:  m.StockCount,
	}
}

func fromDomainPartOption(o *domain.PartOption) *PartOptionModel {
	return &PartOptionModel{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		PartTypeID:  o.PartTypeID,
		BasePrice:   o.BasePrice,
		IsActive:    o.IsActive,
		InStock:     o.InStock,
		StockCount:  o.StockCount,
	}
}

// toDomainConstraint 规则类型在这里从字符串解析为封闭的 RuleKind。
func toDomainConstraint(m *ConstraintModel) (*domain.ConfigurationConstraint, error) {
	c := &domain.ConfigurationConstraint{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		ProductCategoryID: m.ProductCategoryID,
		ConstraintType:    domain.ConstraintType(m.ConstraintType),
		IsActive:          m.IsActive,
		Rules:             make([]domain.ConstraintRule, 0, len(m.Rules)),
	}
	for i := range m.Rules {
		r, err := toDomainConstraintRule(&m.Rules[i])
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", m.ID, err)
		}
		c.Rules = append(c.Rules, *r)
	}
	return c, nil
}

func toDomainConstraintRule(m *ConstraintRuleModel) (*domain.ConstraintRule, error) {
	kind, err := domain.ParseRuleKind(m.RuleType)
	if err != nil {
		return nil, err
	}
	return &domain.ConstraintRule{
		ID:                  m.ID,
		ConstraintID:        m.ConstraintID,
		TriggerPartOptionID: m.TriggerPartOptionID,
		TargetPartOptionID:  m.TargetPartOptionID,
		Kind:                kind,
	}, nil
}

func fromDomainConstraintRule(r *domain.ConstraintRule, position int) *ConstraintRuleModel {
	return &ConstraintRuleModel{
		ID:                  r.ID,
		ConstraintID:        r.ConstraintID,
		RuleType:            domain.RuleKindName(r.Kind),
		TriggerPartOptionID: r.TriggerPartOptionID,
		TargetPartOptionID:  r.TargetPartOptionID,
		Position:            position,
	}
}

func toDomainPricingRule(m *PricingRuleModel) (*domain.PricingRule, error) {
	r := &domain.PricingRule{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		ProductCategoryID: m.ProductCategoryID,
		RuleType:          domain.PricingRuleType(m.RuleType),
		Priority:          m.Priority,
		IsActive:          m.IsActive,
		Conditions:        make([]domain.PricingCondition, 0, len(m.Conditions)),
		Effects:           make([]domain.PricingEffect, 0, len(m.Effects)),
	}
	for _, c := range m.Conditions {
		r.Conditions = append(r.Conditions, domain.PricingCondition{
			ID:            c.ID,
			PricingRuleID: c.PricingRuleID,
			PartOptionID:  c.PartOptionID,
			ConditionType: domain.ConditionType(c.ConditionType),
		})
	}
	for _, e := range m.Effects {
		effect, err := domain.ParseEffect(e.EffectType, e.Value, e.TargetPartOptionID)
		if err != nil {
			return nil, fmt.Errorf("pricing rule %s: %w", m.ID, err)
		}
		r.Effects = append(r.Effects, domain.PricingEffect{
			ID:            e.ID,
			PricingRuleID: e.PricingRuleID,
			Effect:        effect,
		})
	}
	return r, nil
}

func fromDomainPricingRule(r *domain.PricingRule) *PricingRuleModel {
	m := &PricingRuleModel{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		ProductCategoryID: r.ProductCategoryID,
		RuleType:          string(r.RuleType),
		Priority:          r.Priority,
		IsActive:          r.IsActive,
	}
	for i, c := range r.Conditions {
		m.Conditions = append(m.Conditions, PricingConditionModel{
			ID:            c.ID,
			PricingRuleID: r.ID,
			PartOptionID:  c.PartOptionID,
			ConditionType: string(c.ConditionType),
			Position:      i,
		})
	}
	for i, e := range r.Effects {
		m.Effects = append(m.Effects, PricingEffectModel{
			ID:                 e.ID,
			PricingRuleID:      r.ID,
			EffectType:         domain.EffectTypeName(e.Effect),
			Value:              domain.EffectValue(e.Effect),
			TargetPartOptionID: domain.EffectTarget(e.Effect),
			Position:           i,
		})
	}
	return m
}

func toDomainConfiguration(m *ProductConfigurationModel) *domain.ProductConfiguration {
	errs := m.ValidationErrors
	if errs == nil {
		errs = []string{}
	}
	sel := make(domain.Selections, 0, len(m.Selections))
	for _, s := range m.Selections {
		sel = append(sel, domain.ConfigurationSelection{
			PartTypeID:   s.PartTypeID,
			PartOptionID: s.PartOptionID,
			Quantity:     s.Quantity,
		})
	}
	return &domain.ProductConfiguration{
		ID:               m.ID,
		ProductID:        m.ProductID,
		Selections:       sel,
		TotalPrice:       m.TotalPrice,
		IsValid:          m.IsValid,
		ValidationErrors: errs,
		CreatedAt:        m.CreatedAt,
	}
}

// fromDomainConfiguration 返回配置行和选择行，由仓储在同一事务中分别写入。
func fromDomainConfiguration(cfg *domain.ProductConfiguration) (*ProductConfigurationModel, []ConfigurationSelectionModel) {
	m := &ProductConfigurationModel{
		ID:               cfg.ID,
		ProductID:        cfg.ProductID,
		TotalPrice:       cfg.TotalPrice,
		IsValid:          cfg.IsValid,
		ValidationErrors: cfg.ValidationErrors,
		CreatedAt:        cfg.CreatedAt,
	}
	rows := make([]ConfigurationSelectionModel, 0, len(cfg.Selections))
	for i, s := range cfg.Selections {
		rows = append(rows, ConfigurationSelectionModel{
			ID:              newID(""),
			ConfigurationID: cfg.ID,
			PartTypeID:      s.PartTypeID,
			PartOptionID:    s.PartOptionID,
			Quantity:        s.Quantity,
			Position:        i,
		})
	}
	return m, rows
}

func toDomainPromoCode(m *PromoCodeModel) *domain.PromoCode {
	if m == nil {
		return nil
	}
	return &domain.PromoCode{
		ID:            m.ID,
		Code:          m.Code,
		Type:          domain.DiscountType(m.Type),
		Value:         m.Value,
		MinOrderValue: m.MinOrderValue,
		ExpiresAt:     m.ExpiresAt,
		MaxUses:       m.MaxUses,
		CurrentUses:   m.CurrentUses,
		IsActive:      m.IsActive,
		Description:   m.Description,
		Eligibility:   m.Eligibility,
	}
}

func fromDomainPromoCode(p *domain.PromoCode) *PromoCodeModel {
	return &PromoCodeModel{
		ID:            p.ID,
		Code:          p.Code,
		Type:          string(p.Type),
		Value:         p.Value,
		MinOrderValue: p.MinOrderValue,
		ExpiresAt:     p.ExpiresAt,
		MaxUses:       p.MaxUses,
		CurrentUses:   p.CurrentUses,
		IsActive:      p.IsActive,
		Description:   p.Description,
		Eligibility:   p.Eligibility,
	}
}
