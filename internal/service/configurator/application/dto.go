package application

import (
	"time"

	"github.com/shopspring/decimal"

	"velocraft/internal/service/configurator/domain"
)

// SelectionDTO 是请求中的一条选择，省略 quantity 时按 1 处理。
type SelectionDTO struct {
	PartTypeID   string `json:"partTypeId"`
	PartOptionID string `json:"partOptionId"`
	Quantity     *int   `json:"quantity,omitempty"`
}

// ToSelections 把请求体转换为领域选择，数量校验留给服务层。
func ToSelections(items []SelectionDTO) []domain.ConfigurationSelection {
	out := make([]domain.ConfigurationSelection, 0, len(items))
	for _, it := range items {
		qty := 1
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		out = append(out, domain.ConfigurationSelection{PartTypeID: it.PartTypeID, PartOptionID: it.PartOptionID, Quantity: qty})
	}
	return out
}

// ConfigurationRequest 是校验、定价和创建配置共用的请求体
type ConfigurationRequest struct {
	ProductID  string         `json:"productId"`
	Selections []SelectionDTO `json:"selections"`
}

// AvailableOptionsRequest 是查询可选项的请求体
type AvailableOptionsRequest struct {
	CategoryID string         `json:"categoryId"`
	PartTypeID string         `json:"partTypeId"`
	Selections []SelectionDTO `json:"selections"`
}

// PriceResponse 金额统一保留两位小数
type PriceResponse struct {
	ProductID  string `json:"productId"`
	TotalPrice string `json:"totalPrice"`
}

type AddToCartRequest struct {
	ConfigurationID string `json:"configurationId"`
	Quantity        *int   `json:"quantity,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ValidatePromoRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
	ItemCount  int             `json:"itemCount"`
}

// PromoValidationResponse 是优惠码校验的响应体
type PromoValidationResponse struct {
	IsValid        bool   `json:"isValid"`
	Code           string `json:"code,omitempty"`
	Description    string `json:"description,omitempty"`
	DiscountAmount string `json:"discountAmount"`
	Error          string `json:"error,omitempty"`
}

func NewPromoValidationResponse(v *domain.PromoValidation) PromoValidationResponse {
	resp := PromoValidationResponse{
		IsValid:        v.IsValid,
		DiscountAmount: v.DiscountAmount.StringFixed(2),
		Error:          v.Error,
	}
	if v.PromoCode != nil {
		resp.Code = v.PromoCode.Code
		resp.Description = v.PromoCode.Description
	}
	return resp
}

// OptionView 是展示层使用的选项
type OptionView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
}

type PartTypeView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	IsRequired bool         `json:"isRequired"`
	Options    []OptionView `json:"options"`
}

// PreviewResponse 是一次选择变化后推给展示层的快照
type PreviewResponse struct {
	ProductID    string         `json:"productId"`
	IsValid      bool           `json:"isValid"`
	Errors       []string       `json:"errors"`
	BasePrice    string         `json:"basePrice"`
	OptionsTotal string         `json:"optionsTotal"`
	TotalPrice   string         `json:"totalPrice"`
	AppliedRules []string       `json:"appliedRules"`
	PartTypes    []PartTypeView `json:"partTypes"`
}

func NewOptionViews(opts []domain.PartOption) []OptionView {
	out := make([]OptionView, 0, len(opts))
	for _, o := range opts {
		out = append(out, OptionView{ID: o.ID, Name: o.Name, Description: o.Description, Price: o.BasePrice.StringFixed(2)})
	}
	return out
}

func NewPreviewResponse(p *ConfigurationPreview) PreviewResponse {
	applied := p.Price.AppliedRules
	if applied == nil {
		applied = []string{}
	}
	resp := PreviewResponse{
		ProductID:    p.ProductID,
		IsValid:      p.Validation.IsValid,
		Errors:       p.Validation.Errors,
		BasePrice:    p.Price.BasePrice.StringFixed(2),
		OptionsTotal: p.Price.OptionsTotal.StringFixed(2),
		TotalPrice:   p.Price.Total.StringFixed(2),
		AppliedRules: applied,
		PartTypes:    make([]PartTypeView, 0, len(p.PartTypes)),
	}
	for _, pt := range p.PartTypes {
		resp.PartTypes = append(resp.PartTypes, PartTypeView{
			ID:         pt.PartType.ID,
			Name:       pt.PartType.Name,
			IsRequired: pt.PartType.IsRequired,
			Options:    NewOptionViews(pt.Options),
		})
	}
	return resp
}

// ConfigurationView 是配置的对外表示
type ConfigurationView struct {
	ID               string                          `json:"id"`
	ProductID        string                          `json:"productId"`
	Selections       []domain.ConfigurationSelection `json:"selections"`
	TotalPrice       string                          `json:"totalPrice"`
	IsValid          bool                            `json:"isValid"`
	ValidationErrors []string                        `json:"validationErrors"`
	CreatedAt        time.Time                       `json:"createdAt"`
}

func NewConfigurationView(cfg *domain.ProductConfiguration) ConfigurationView {
	errs := cfg.ValidationErrors
	if errs == nil {
		errs = []string{}
	}
	return ConfigurationView{
		ID:               cfg.ID,
		ProductID:        cfg.ProductID,
		Selections:       cfg.Selections,
		TotalPrice:       cfg.TotalPrice.StringFixed(2),
		IsValid:          cfg.IsValid,
		ValidationErrors: errs,
		CreatedAt:        cfg.CreatedAt,
	}
}

type CartItemView struct {
	ID                     string    `json:"id"`
	ProductConfigurationID string    `json:"productConfigurationId"`
	Quantity               int       `json:"quantity"`
	UnitPrice              string    `json:"unitPrice"`
	TotalPrice             string    `json:"totalPrice"`
	AddedAt                time.Time `json:"addedAt"`
}

// CartView 是购物车的对外表示
type CartView struct {
	ID          string         `json:"id"`
	Items       []CartItemView `json:"items"`
	TotalAmount string         `json:"totalAmount"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func NewCartView(c *domain.Cart) CartView {
	v := CartView{ID: c.ID, Items: make([]CartItemView, 0, len(c.Items)), TotalAmount: c.TotalAmount.StringFixed(2), UpdatedAt: c.UpdatedAt}
	for _, it := range c.Items {
		v.Items = append(v.Items, CartItemView{
			ID:                     it.ID,
			ProductConfigurationID: it.ProductConfigurationID,
			Quantity:               it.Quantity,
			UnitPrice:              it.UnitPrice.StringFixed(2),
			TotalPrice:             it.TotalPrice.StringFixed(2),
			AddedAt:                it.AddedAt,
		})
	}
	return v
}

// ProductView 是商品的对外表示
type ProductView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"categoryId"`
	BasePrice   string `json:"basePrice"`
}

func NewProductView(p *domain.Product) ProductView {
	return ProductView{ID: p.ID, Name: p.Name, Description: p.Description, CategoryID: p.CategoryID, BasePrice: p.BasePrice.StringFixed(2)}
}

// ErrorResponse 校验失败时携带 validationErrors
type ErrorResponse struct {
	Error            string   `json:"error"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}
