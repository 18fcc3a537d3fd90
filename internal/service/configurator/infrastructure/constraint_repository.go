package infrastructure

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"velocraft/internal/service/configurator/domain"
)

// GormConstraintRepository 是 ConstraintRepository 的 GORM 实现
type GormConstraintRepository struct {
	db *gorm.DB
}

func NewGormConstraintRepository(db *gorm.DB) *GormConstraintRepository {
	return &GormConstraintRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormConstraintRepository) Get(ctx context.Context, id string) (*domain.ConfigurationConstraint, error) {
	var model ConstraintModel
	err := r.db.WithContext(ctx).Preload("Rules", byPosition).Where("id = ?", id).First(&model).Error
	if err != nil {
		return nil, storageErr("constraints.get", err, domain.ErrConstraintNotFound)
	}
	return toDomainConstraint(&model)
}

func (r *GormConstraintRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.ConfigurationConstraint, error) {
	var models []ConstraintModel
	err := r.db.WithContext(ctx).
		Preload("Rules", byPosition).
		Where("product_category_id = ? AND is_active = ?", categoryID, true).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("constraints.list", err, nil)
	}
	out := make([]domain.ConfigurationConstraint, 0, len(models))
	for i := range models {
		c, err := toDomainConstraint(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// Create 在一个事务里写入约束及其全部规则。
func (r *GormConstraintRepository) Create(ctx context.Context, c *domain.ConfigurationConstraint) (*domain.ConfigurationConstraint, error) {
	id := newID(c.ID)
	model := &ConstraintModel{
		ID:                id,
		Name:              c.Name,
		Description:       c.Description,
		ProductCategoryID: c.ProductCategoryID,
		ConstraintType:    string(c.ConstraintType),
		IsActive:          c.IsActive,
	}
	rules := make([]ConstraintRuleModel, 0, len(c.Rules))
	for i := range c.Rules {
		rule := c.Rules[i]
		rule.ID = newID(rule.ID)
		rule.ConstraintID = id
		rules = append(rules, *fromDomainConstraintRule(&rule, i))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(rules) > 0 {
			return tx.Create(&rules).Error
		}
		return nil
	})
	if err != nil {
		return nil, txErr("constraints.create", err)
	}
	model.Rules = rules
	return toDomainConstraint(model)
}

func (r *GormConstraintRepository) Update(ctx context.Context, id string, u domain.ConstraintUpdate) (*domain.ConfigurationConstraint, error) {
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
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := r.db.WithContext(ctx).Model(&ConstraintModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, storageErr("constraints.update", err, nil)
	}
	return r.Get(ctx, id)
}

// AddRule 追加一条规则到已有约束的末尾。
func (r *GormConstraintRepository) AddRule(ctx context.Context, rule *domain.ConstraintRule) (*domain.ConstraintRule, error) {
	var model *ConstraintRuleModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent ConstraintModel
		if err := tx.Where("id = ?", rule.ConstraintID).First(&parent).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&ConstraintRuleModel{}).Where("constraint_id = ?", rule.ConstraintID).Count(&count).Error; err != nil {
			return err
		}
		withID := *rule
		withID.ID = newID(rule.ID)
		model = fromDomainConstraintRule(&withID, int(count))
		return tx.Create(model).Error
	})
	if err != nil {
		return nil, storageErr("constraint_rules.create", err, domain.ErrConstraintNotFound)
	}
	return toDomainConstraintRule(model)
}
