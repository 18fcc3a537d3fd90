// internal/service/configurator/domain/repository.go
package domain

import "context"

// 以下接口定义了领域层与基础设施层之间的“插座”。
// 所有方法都可能返回 ErrStorageUnavailable，仓储内部不重试、不缓存。

type ProductRepository interface {
	Get(ctx context.Context, id string) (*Product, error)
	// ListByCategory 只返回上架商品，按名称升序。
	ListByCategory(ctx context.Context, categoryID string) ([]Product, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, id string, u ProductUpdate) (*Product, error)
}

type PartRepository interface {
	GetPartType(ctx context.Context, id string) (*PartType, error)
	// ListPartTypesByCategory 按 display_order、name 排序。
	ListPartTypesByCategory(ctx context.Context, categoryID string) ([]PartType, error)
	CreatePartType(ctx context.Context, pt *PartType) (*PartType, error)
	UpdatePartType(ctx context.Context, id string, u PartTypeUpdate) (*PartType, error)

	// GetOption 不过滤上下架状态，校验需要读取已下架的选项。
	GetOption(ctx context.Context, id string) (*PartOption, error)
	GetOptionsByIDs(ctx context.Context, ids []string) (map[string]PartOption, error)
	// ListOptionsByPartType 只返回上架选项，按名称升序。
	ListOptionsByPartType(ctx context.Context, partTypeID string) ([]PartOption, error)
	CreateOption(ctx context.Context, o *PartOption) (*PartOption, error)
	UpdateOption(ctx context.Context, id string, u PartOptionUpdate) (*PartOption, error)
}

type ConstraintRepository interface {
	Get(ctx context.Context, id string) (*ConfigurationConstraint, error)
	// ListByCategory 返回上架约束及其规则。
	ListByCategory(ctx context.Context, categoryID string) ([]ConfigurationConstraint, error)
	Create(ctx context.Context, c *ConfigurationConstraint) (*ConfigurationConstraint, error)
	Update(ctx context.Context, id string, u ConstraintUpdate) (*ConfigurationConstraint, error)
	AddRule(ctx context.Context, rule *ConstraintRule) (*ConstraintRule, error)
}

type PricingRepository interface {
	Get(ctx context.Context, id string) (*PricingRule, error)
	// ListByCategory 返回上架规则，条件与效果保持定义顺序。
	ListByCategory(ctx context.Context, categoryID string) ([]PricingRule, error)
	Create(ctx context.Context, r *PricingRule) (*PricingRule, error)
	Update(ctx context.Context, id string, u PricingRuleUpdate) (*PricingRule, error)
}

// ConfigurationRepository 没有 Update：配置持久化后不可变。
type ConfigurationRepository interface {
	Get(ctx context.Context, id string) (*ProductConfiguration, error)
	// Save 在同一个事务中写入配置行和所有选择行。
	Save(ctx context.Context, cfg *ProductConfiguration) error
	ListByProduct(ctx context.Context, productID string) ([]ProductConfiguration, error)
}

type CartRepository interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Update 原子地读取、修改并写回购物车。购物车不存在时 fn 收到 nil，
	// fn 返回错误时不写入。
	Update(ctx context.Context, id string, fn func(cart *Cart) (*Cart, error)) (*Cart, error)
	Delete(ctx context.Context, id string) error
}

type PromoRepository interface {
	GetByCode(ctx context.Context, code string) (*PromoCode, error)
	ListActive(ctx context.Context) ([]PromoCode, error)
	Create(ctx context.Context, p *PromoCode) (*PromoCode, error)
}
