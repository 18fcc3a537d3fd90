package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"velocraft/internal/service/configurator/domain"
)

// GormPromoRepository 是 PromoRepository 的 GORM 实现
type GormPromoRepository struct {
	db *gorm.DB
}

func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// GetByCode 精确匹配；大小写归一化由服务层完成。
func (r *GormPromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var model PromoCodeModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		return nil, storageErr("promo_codes.get", err, domain.ErrPromoCodeNotFound)
	}
	return toDomainPromoCode(&model), nil
}

func (r *GormPromoRepository) ListActive(ctx context.Context) ([]domain.PromoCode, error) {
	var models []PromoCodeModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("code ASC").Find(&models).Error; err != nil {
		return nil, storageErr("promo_codes.list", err, nil)
	}
	out := make([]domain.PromoCode, 0, len(models))
	for i := range models {
		out = append(out, *toDomainPromoCode(&models[i]))
	}
	return out, nil
}

func (r *GormPromoRepository) Create(ctx context.Context, p *domain.PromoCode) (*domain.PromoCode, error) {
	model := fromDomainPromoCode(p)
	model.ID = newID(p.ID)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, storageErr("promo_codes.create", err, nil)
	}
	return toDomainPromoCode(model), nil
}
