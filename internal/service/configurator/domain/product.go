// internal/service/configurator/domain/product.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 是可配置商品（例如一辆自行车）。
// 一旦被某个 Configuration 引用，就不应再修改其价格语义。
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"categoryId"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductUpdate 描述一次部分更新，nil 字段表示不修改。
type ProductUpdate struct {
	Name        *string
	Description *string
	BasePrice   *decimal.Decimal
	IsActive    *bool
}

// PartType 是商品上的一个可定制槽位（例如 "Frame"）。
// DisplayOrder 只决定展示顺序，没有其他语义。
type PartType struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	ProductCategoryID string `json:"productCategoryId"`
	IsRequired        bool   `json:"isRequired"`
	DisplayOrder      int    `json:"displayOrder"`
}

type PartTypeUpdate struct {
	Name         *string
	Description  *string
	IsRequired   *bool
	DisplayOrder *int
}

// PartOption 是某个 PartType 下的一个具体选项。
// BasePrice 表示增量价格，可以为 0。
type PartOption struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	PartTypeID  string          `json:"partTypeId"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	IsActive    bool            `json:"isActive"`
	InStock     bool            `json:"inStock"`
	StockCount  *int            `json:"stockCount,omitempty"`
}

// IsOfferable 只有上架且有库存的选项才会被展示或接受。
func (o PartOption) IsOfferable() bool {
	return o.IsActive && o.InStock
}

// PartOptionUpdate 主要用于库存变更。
type PartOptionUpdate struct {
	Name        *string
	Description *string
	BasePrice   *decimal.Decimal
	IsActive    *bool
	InStock     *bool
	StockCount  *int
}
