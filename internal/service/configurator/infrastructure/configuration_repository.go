package infrastructure

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"velocraft/internal/service/configurator/domain"
)

// GormConfigurationRepository 持久化已定价的配置；配置写入后不可变，因此没有 Update。
type GormConfigurationRepository struct {
	db *gorm.DB
}

func NewGormConfigurationRepository(db *gorm.DB) *GormConfigurationRepository {
	return &GormConfigurationRepository{db: db}
}

func (r *GormConfigurationRepository) Get(ctx context.Context, id string) (*domain.ProductConfiguration, error) {
	var model ProductConfigurationModel
	err := r.db.WithContext(ctx).Preload("Selections", byPosition).Where("id = ?", id).First(&model).Error
	if err != nil {
		return nil, storageErr("configurations.get", err, domain.ErrConfigurationNotFound)
	}
	return toDomainConfiguration(&model), nil
}

// Save 配置行和所有选择行要么全部写入，要么全部不写入。
func (r *GormConfigurationRepository) Save(ctx context.Context, cfg *domain.ProductConfiguration) error {
	model, selections := fromDomainConfiguration(cfg)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(selections) > 0 {
			return tx.Create(&selections).Error
		}
		return nil
	})
	if err != nil {
		return txErr("configurations.save", err)
	}
	return nil
}

// ListByProduct 按创建时间倒序返回。
func (r *GormConfigurationRepository) ListByProduct(ctx context.Context, productID string) ([]domain.ProductConfiguration, error) {
	var models []ProductConfigurationModel
	err := r.db.WithContext(ctx).
		Preload("Selections", byPosition).
		Where("product_id = ?", productID).
		Order("created_at DESC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageErr("configurations.list", err, nil)
	}
	out := make([]domain.ProductConfiguration, 0, len(models))
	for i := range models {
		out = append(out, *toDomainConfiguration(&models[i]))
	}
	return out, nil
}
