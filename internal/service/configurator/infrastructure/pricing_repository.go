package infrastructure

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"velocraft/internal/service/configurator/domain"
)

// GormPricingRepository 是 PricingRepository 的 GORM 实现
type GormPricingRepository struct {
	db *gorm.DB
}

func NewGormPricingRepository(db *gorm.DB) *GormPricingRepository {
	return &GormPricingRepository{db: db}
}

func (r *GormPricingRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Conditions", byPosition).
		Preload("Effects", byPosition)
}

func (r *GormPricingRepository) Get(ctx context.Context, id string) (*domain.PricingRule, error) {
	var model PricingRuleModel
	if err := r.withChildren(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, storageErr("pricing_rules.get", err, domain.ErrPricingRuleNotFound)
	}
	return toDomainPricingRule(&model)
}

// ListByCategory 顺序由引擎按 Priority 重新排序，这里只保证结果稳定。
func (r *GormPricingRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.PricingRule, error) {
	var models []PricingRuleModel
	err := r.withChildren(ctx).
		Where("product_category_id = ? AND is_active = ?", categoryID, true).
		Order("priority ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("pricing_rules.list", err, nil)
	}
	out := make([]domain.PricingRule, 0, len(models))
	for i := range models {
		rule, err := toDomainPricingRule(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, nil
}

// Create 在一个事务里写入规则、条件和效果。
func (r *GormPricingRepository) Create(ctx context.Context, rule *domain.PricingRule) (*domain.PricingRule, error) {
	withIDs := *rule
	withIDs.ID = newID(rule.ID)
	withIDs.Conditions = append([]domain.PricingCondition(nil), rule.Conditions...)
	for i := range withIDs.Conditions {
		withIDs.Conditions[i].ID = newID(withIDs.Conditions[i].ID)
	}
	withIDs.Effects = append([]domain.PricingEffect(nil), rule.Effects...)
	for i := range withIDs.Effects {
		withIDs.Effects[i].ID = newID(withIDs.Effects[i].ID)
	}
	model := fromDomainPricingRule(&withIDs)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Conditions) > 0 {
			if err := tx.Create(&model.Conditions).Error; err != nil {
				return err
			}
		}
		if len(model.Effects) > 0 {
			if err := tx.Create(&model.Effects).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, txErr("pricing_rules.create", err)
	}
	return toDomainPricingRule(model)
}

func (r *GormPricingRepository) Update(ctx context.Context, id string, u domain.PricingRuleUpdate) (*domain.PricingRule, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Priority != nil {
		updates["priority"] = *u.Priority
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := r.db.WithContext(ctx).Model(&PricingRuleModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, storageErr("pricing_rules.update", err, nil)
	}
	return r.Get(ctx, id)
}
