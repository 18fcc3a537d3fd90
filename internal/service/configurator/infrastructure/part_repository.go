package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"velocraft/internal/service/configurator/domain"
)

// GormPartRepository 同时负责 part_types 和 part_options 两张表
type GormPartRepository struct {
	db *gorm.DB
}

func NewGormPartRepository(db *gorm.DB) *GormPartRepository {
	return &GormPartRepository{db: db}
}

func (r *GormPartRepository) GetPartType(ctx context.Context, id string) (*domain.PartType, error) {
	var model PartTypeModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, storageErr("part_types.get", err, domain.ErrPartTypeNotFound)
	}
	return toDomainPartType(&model), nil
}

func (r *GormPartRepository) ListPartTypesByCategory(ctx context.Context, categoryID string) ([]domain.PartType, error) {
	var models []PartTypeModel
	err := r.db.WithContext(ctx).
		Where("product_category_id = ?", categoryID).
		Order("display_order ASC").Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("part_types.list", err, nil)
	}
	out := make([]domain.PartType, 0, len(models))
	for i := range models {
		out = append(out, *toDomainPartType(&models[i]))
	}
	return out, nil
}

func (r *GormPartRepository) CreatePartType(ctx context.Context, pt *domain.PartType) (*domain.PartType, error) {
	model := fromDomainPartType(pt)
	model.ID = newID(pt.ID)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, storageErr("part_types.create", err, nil)
	}
	return toDomainPartType(model), nil
}

func (r *GormPartRepository) UpdatePartType(ctx context.Context, id string, u domain.PartTypeUpdate) (*domain.PartType, error) {
	current, err := r.GetPartType(ctx, id)
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
	if u.IsRequired != nil {
		updates["is_required"] = *u.IsRequired
	}
	if u.DisplayOrder != nil {
		updates["display_order"] = *u.DisplayOrder
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := r.db.WithContext(ctx).Model(&PartTypeModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, storageErr("part_types.update", err, nil)
	}
	return r.GetPartType(ctx, id)
}

func (r *GormPartRepository) GetOption(ctx context.Context, id string) (*domain.PartOption, error) {
	var model PartOptionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, storageErr("part_options.get", err, domain.ErrPartOptionNotFound)
	}
	return toDomainPartOption(&model), nil
}

// GetOptionsByIDs 不存在的 id 直接缺席，不报错。
func (r *GormPartRepository) GetOptionsByIDs(ctx context.Context, ids []string) (map[string]domain.PartOption, error) {
	out := make(map[string]domain.PartOption, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []PartOptionModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, storageErr("part_options.get_many", err, nil)
	}
	for i := range models {
		out[models[i].ID] = *toDomainPartOption(&models[i])
	}
	return out, nil
}

func (r *GormPartRepository) ListOptionsByPartType(ctx context.Context, partTypeID string) ([]domain.PartOption, error) {
	var models []PartOptionModel
	err := r.db.WithContext(ctx).
		Where("part_type_id = ? AND is_active = ?", partTypeID, true).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("part_options.list", err, nil)
	}
	out := make([]domain.PartOption, 0, len(models))
	for i := range models {
		out = append(out, *toDomainPartOption(&models[i]))
	}
	return out, nil
}

func (r *GormPartRepository) CreateOption(ctx context.Context, o *domain.PartOption) (*domain.PartOption, error) {
	model := fromDomainPartOption(o)
	model.ID = newID(o.ID)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, storageErr("part_options.create", err, nil)
	}
	return toDomainPartOption(model), nil
}

// UpdateOption 主要用于库存变更（in_stock / stock_count）。
func (r *GormPartRepository) UpdateOption(ctx context.Context, id string, u domain.PartOptionUpdate) (*domain.PartOption, error) {
	current, err := r.GetOption(ctx, id)
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
	if u.BasePrice != nil {
		updates["base_price"] = *u.BasePrice
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.InStock != nil {
		updates["in_stock"] = *u.InStock
	}
	if u.StockCount != nil {
		updates["stock_count"] = *u.StockCount
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := r.db.WithContext(ctx).Model(&PartOptionModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, storageErr("part_options.update", err, nil)
	}
	return r.GetOption(ctx, id)
}
