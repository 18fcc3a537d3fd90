package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"velocraft/internal/service/configurator/domain"
)

// GormProductRepository 是 ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		return nil, storageErr("products.get", err, domain.ErrProductNotFound)
	}
	return toDomainProduct(&model), nil
}

func (r *GormProductRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("products.list", err, nil)
	}
	out := make([]domain.Product, 0, len(models))
	for i := range models {
		out = append(out, *toDomainProduct(&models[i]))
	}
	return out, nil
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	model := fromDomainProduct(p)
	model.ID = newID(p.ID)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, storageErr("products.create", err, nil)
	}
	return toDomainProduct(model), nil
}

// Update 只修改非 nil 字段；updated_at 由 GORM 自动维护。
func (r *GormProductRepository) Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
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
	if u.BasePrice != nil {
		updates["base_price"] = *u.BasePrice
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, storageErr("products.update", err, nil)
	}
	return r.Get(ctx, id)
}
